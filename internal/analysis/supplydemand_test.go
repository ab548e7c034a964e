package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

func flowFixture() []contracts.InvestorFlowRow {
	var rows []contracts.InvestorFlowRow
	// seven trading days ending at the reference date
	for i := 6; i >= 0; i-- {
		d := testRef.AddDate(0, 0, -i)
		n := int64(7 - i)
		rows = append(rows,
			contracts.InvestorFlowRow{Ticker: "005930", Date: d, Class: contracts.InvestorInstitution, NetValue: -n * 100_000_000},
			contracts.InvestorFlowRow{Ticker: "005930", Date: d, Class: contracts.InvestorIndividual, NetValue: n * 50_000_000},
			contracts.InvestorFlowRow{Ticker: "005930", Date: d, Class: contracts.InvestorForeign, NetValue: n * 250_000_000},
		)
	}
	return rows
}

func TestSupplyDemandTotals(t *testing.T) {
	p := samsungProvider()
	p.totals = map[string]map[contracts.InvestorClass]contracts.InvestorNet{
		"005930": {
			contracts.InvestorForeign:     {NetValue: 1_500_000_000, NetVolume: 20_000},
			contracts.InvestorInstitution: {NetValue: -500_000_000, NetVolume: -7_000},
			// individual absent upstream
		},
	}
	p.flows = map[string][]contracts.InvestorFlowRow{"005930": flowFixture()}
	a := newTestAnalyzer(p)

	report, err := a.SupplyDemand(context.Background(), "005930", 30)
	require.NoError(t, err)

	assert.Equal(t, contracts.SegmentKOSPI, report.Segment)

	foreign := report.Totals["foreign"]
	require.NotNil(t, foreign.NetValue)
	assert.Equal(t, int64(1_500_000_000), *foreign.NetValue)
	require.NotNil(t, foreign.NetVolume)
	assert.Equal(t, int64(20_000), *foreign.NetVolume)

	inst := report.Totals["institution"]
	require.NotNil(t, inst.NetValue)
	assert.Equal(t, int64(-500_000_000), *inst.NetValue)

	// No rows for individuals is null, not zero
	indiv := report.Totals["individual"]
	assert.Nil(t, indiv.NetValue)
	assert.Nil(t, indiv.NetVolume)
}

func TestSupplyDemandDailyBreakdown(t *testing.T) {
	p := samsungProvider()
	p.flows = map[string][]contracts.InvestorFlowRow{"005930": flowFixture()}
	a := newTestAnalyzer(p)

	report, err := a.SupplyDemand(context.Background(), "005930", 30)
	require.NoError(t, err)

	// seven days collapse to the five most recent, oldest first
	require.Len(t, report.Daily, 5)
	assert.Equal(t, testRef.AddDate(0, 0, -4).Format("20060102"), report.Daily[0].Date)
	assert.Equal(t, testRef.Format("20060102"), report.Daily[4].Date)

	last := report.Daily[4]
	require.NotNil(t, last.Foreign)
	assert.InDelta(t, 17.5, *last.Foreign, 0.001) // 7 x 250M / 100M
	require.NotNil(t, last.Institution)
	assert.InDelta(t, -7.0, *last.Institution, 0.001)
	require.NotNil(t, last.Individual)
	assert.InDelta(t, 3.5, *last.Individual, 0.001)
}

func TestSupplyDemandWindowFloor(t *testing.T) {
	p := samsungProvider()
	p.flows = map[string][]contracts.InvestorFlowRow{"005930": flowFixture()}
	a := newTestAnalyzer(p)

	report, err := a.SupplyDemand(context.Background(), "005930", 5)
	require.NoError(t, err)

	from, err := time.Parse("20060102", report.From)
	require.NoError(t, err)
	assert.Equal(t, testRef.AddDate(0, 0, -30).Format("20060102"), from.Format("20060102"))
}

func TestSupplyDemandUnknownTicker(t *testing.T) {
	a := newTestAnalyzer(samsungProvider())

	_, err := a.SupplyDemand(context.Background(), "999999", 30)
	if !errors.Is(err, contracts.ErrNotFound) {
		t.Fatalf("SupplyDemand() error = %v, want ErrNotFound", err)
	}
}
