package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

func samsungProvider() *fakeProvider {
	return &fakeProvider{
		bars: map[string][]contracts.OHLCVRow{
			"005930": dailyBars(testRef.AddDate(0, 0, -11),
				68000, 68500, 69000, 69500, 69000, 70500, 70200, 69800, 70100, 69900, 70000, 71500),
		},
		caps: map[contracts.Segment][]contracts.MarketCapRow{
			contracts.SegmentKOSPI: kospiTable(),
		},
	}
}

func TestMarketDataChange(t *testing.T) {
	a := newTestAnalyzer(samsungProvider())

	snap, err := a.MarketData(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, "20260116", snap.Date)
	assert.Equal(t, int64(71500), snap.CurrentPrice)

	require.NotNil(t, snap.PreviousClose)
	assert.Equal(t, int64(70000), *snap.PreviousClose)

	require.NotNil(t, snap.Change)
	assert.Equal(t, int64(1500), *snap.Change)

	require.NotNil(t, snap.ChangePercent)
	assert.InDelta(t, 2.14, *snap.ChangePercent, 0.001)
}

func TestMarketDataCapFields(t *testing.T) {
	a := newTestAnalyzer(samsungProvider())

	snap, err := a.MarketData(context.Background(), "005930")
	require.NoError(t, err)

	require.NotNil(t, snap.MarketCap)
	assert.Equal(t, int64(400_000_000_000_000), *snap.MarketCap)

	require.NotNil(t, snap.Shares)
	assert.Equal(t, int64(5_969_782_550), *snap.Shares)

	// 1,000,000 / 5,969,782,550 shares, rounded to two decimals
	require.NotNil(t, snap.Turnover)
	assert.InDelta(t, 0.02, *snap.Turnover, 0.001)
}

func TestMarketDataWeek52Range(t *testing.T) {
	a := newTestAnalyzer(samsungProvider())

	snap, err := a.MarketData(context.Background(), "005930")
	require.NoError(t, err)

	// dailyBars sets high = close+200, low = close-300
	assert.Equal(t, int64(71700), snap.Week52High)
	assert.Equal(t, int64(67700), snap.Week52Low)
}

func TestMarketDataRecentTail(t *testing.T) {
	a := newTestAnalyzer(samsungProvider())

	snap, err := a.MarketData(context.Background(), "005930")
	require.NoError(t, err)

	require.Len(t, snap.Recent, 10)
	assert.Equal(t, "20260107", snap.Recent[0].Date)
	assert.Equal(t, "20260116", snap.Recent[9].Date)
	assert.Equal(t, int64(71500), snap.Recent[9].Close)
}

func TestMarketDataUnclassifiedTickerStillAnswers(t *testing.T) {
	// No cap table anywhere: segment resolution fails but the price
	// snapshot must still come back, with cap fields nil
	p := &fakeProvider{
		bars: map[string][]contracts.OHLCVRow{
			"123456": dailyBars(testRef.AddDate(0, 0, -2), 10000, 10100, 10200),
		},
	}
	a := newTestAnalyzer(p)

	snap, err := a.MarketData(context.Background(), "123456")
	require.NoError(t, err)

	assert.Equal(t, int64(10200), snap.CurrentPrice)
	assert.Nil(t, snap.MarketCap)
	assert.Nil(t, snap.Turnover)
}
