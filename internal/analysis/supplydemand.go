package analysis

import (
	"context"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// displayValueUnit scales raw monetary flow values for display (억원)
const displayValueUnit = 100_000_000

// dailyFlowDays is the trading-day depth of the daily breakdown
const dailyFlowDays = 5

// InvestorAggregate is one class's window total. Nil means no rows for the
// class, which is different from a net-zero flow.
type InvestorAggregate struct {
	NetValue  *int64 `json:"netValue"`
	NetVolume *int64 `json:"netVolume"`
}

// DailyFlow is one trading day's per-class net value, display-scaled
type DailyFlow struct {
	Date        string   `json:"date"`
	Foreign     *float64 `json:"foreign"`
	Institution *float64 `json:"institution"`
	Individual  *float64 `json:"individual"`
}

// SupplyDemandReport is the aggregate plus daily view of investor flows
type SupplyDemandReport struct {
	Ticker  string                       `json:"ticker"`
	Segment contracts.Segment            `json:"segment"`
	From    string                       `json:"from"`
	To      string                       `json:"to"`
	Totals  map[string]InvestorAggregate `json:"totals"`
	Daily   []DailyFlow                  `json:"daily"`
}

// SupplyDemand aggregates net investor flows over a window of at least 30
// calendar days ending at the latest trading date.
func (a *Analyzer) SupplyDemand(ctx context.Context, ticker string, windowDays int) (*SupplyDemandReport, error) {
	if windowDays < 30 {
		windowDays = 30
	}

	seg, err := a.classifier.Segment(ctx, ticker)
	if err != nil {
		return nil, err
	}

	to := a.now()
	from := to.AddDate(0, 0, -windowDays)

	report := &SupplyDemandReport{
		Ticker:  ticker,
		Segment: seg,
		From:    from.Format("20060102"),
		To:      to.Format("20060102"),
		Totals:  make(map[string]InvestorAggregate, len(contracts.InvestorClasses)),
	}

	totals, err := a.provider.InvestorNetTotals(ctx, ticker, seg, from, to)
	if err != nil {
		return nil, err
	}
	for _, class := range contracts.InvestorClasses {
		agg := InvestorAggregate{}
		if net, ok := totals[class]; ok {
			agg.NetValue = iptr(net.NetValue)
			agg.NetVolume = iptr(net.NetVolume)
		}
		report.Totals[string(class)] = agg
	}

	flows, err := a.provider.InvestorFlows(ctx, ticker, seg, from, to)
	if err != nil {
		return nil, err
	}
	report.Daily = dailyBreakdown(flows)

	a.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"days":   windowDays,
	}).Debug("Aggregated investor flows")

	return report, nil
}

// dailyBreakdown reduces the flow series to the most recent trading days,
// one row per date, oldest first. Rows arrive ascending by date.
func dailyBreakdown(flows []contracts.InvestorFlowRow) []DailyFlow {
	byDate := make(map[string]*DailyFlow)
	order := make([]string, 0)

	for _, f := range flows {
		key := f.Date.Format("20060102")
		day, ok := byDate[key]
		if !ok {
			day = &DailyFlow{Date: key}
			byDate[key] = day
			order = append(order, key)
		}

		scaled := round2(float64(f.NetValue) / displayValueUnit)
		switch f.Class {
		case contracts.InvestorForeign:
			day.Foreign = fptr(scaled)
		case contracts.InvestorInstitution:
			day.Institution = fptr(scaled)
		case contracts.InvestorIndividual:
			day.Individual = fptr(scaled)
		}
	}

	if len(order) > dailyFlowDays {
		order = order[len(order)-dailyFlowDays:]
	}

	out := make([]DailyFlow, 0, len(order))
	for _, key := range order {
		out = append(out, *byDate[key])
	}
	return out
}
