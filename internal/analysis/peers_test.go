package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

func TestPeersIndustryRanking(t *testing.T) {
	p := samsungProvider()
	p.industry = map[string]contracts.IndustryInfo{
		"005930": {Label: "전기전자", Peers: []string{"000660", "005935", "777777"}},
	}
	a := newTestAnalyzer(p)

	report, err := a.Peers(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "industry", report.Method)
	require.NotNil(t, report.Industry)
	assert.Equal(t, "전기전자", *report.Industry)

	// 777777 is not listed and must be dropped; ranking is by cap distance
	// from the 400T target: 000660 (130T) before 005935 (60T)
	require.Len(t, report.Peers, 2)
	assert.Equal(t, "000660", report.Peers[0].Ticker)
	assert.Equal(t, "005935", report.Peers[1].Ticker)
}

func TestPeersCapBandFallback(t *testing.T) {
	// No industry data: a mega-cap target falls back to the x0.1-x10 band
	a := newTestAnalyzer(samsungProvider())

	report, err := a.Peers(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "capBand", report.Method)
	assert.Nil(t, report.Industry)

	// 400T x 0.1 = 40T floor keeps 130T and 60T, drops 30T; cap descending
	require.Len(t, report.Peers, 2)
	assert.Equal(t, "000660", report.Peers[0].Ticker)
	assert.Equal(t, "005935", report.Peers[1].Ticker)
}

func TestPeersSegmentFallbackNeverEmpty(t *testing.T) {
	// Band yields nothing, but another listing exists on the board: the
	// cascade widens to the whole segment instead of returning empty
	const trillion = 1_000_000_000_000
	p := &fakeProvider{
		bars: map[string][]contracts.OHLCVRow{
			"111111": dailyBars(testRef, 10000),
		},
		caps: map[contracts.Segment][]contracts.MarketCapRow{
			contracts.SegmentKOSDAQ: {
				{Ticker: "111111", Name: "타깃", MarketCap: 5 * trillion, SharesOutstanding: 1},
				{Ticker: "222222", Name: "소형주", MarketCap: 100_000_000_000, SharesOutstanding: 1},
			},
		},
	}
	a := newTestAnalyzer(p)

	report, err := a.Peers(context.Background(), "111111")
	require.NoError(t, err)

	assert.Equal(t, "segment", report.Method)
	require.Len(t, report.Peers, 1)
	assert.Equal(t, "222222", report.Peers[0].Ticker)
}

func TestCapBandTiers(t *testing.T) {
	const trillion = 1_000_000_000_000
	tests := []struct {
		name   string
		cap    int64
		wantLo float64
		wantHi float64
	}{
		{"mega cap", 20 * trillion, 0.1, 10},
		{"large cap", 5 * trillion, 0.3, 3},
		{"small cap", 500_000_000_000, 0.5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := capBand(tt.cap)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("capBand(%d) = (%v, %v), want (%v, %v)", tt.cap, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}
