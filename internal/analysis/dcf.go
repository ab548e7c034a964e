package analysis

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// terminalGrowthPct is the fixed perpetuity growth rate, percent
const terminalGrowthPct = 2.0

// dcfHorizon is the explicit projection depth in periods
const dcfHorizon = 5

// DCFValuation is the intrinsic-value answer with its inputs echoed back
type DCFValuation struct {
	Ticker         string    `json:"ticker"`
	Price          float64   `json:"price"`
	EPS            float64   `json:"eps"`
	GrowthRate     float64   `json:"growthRate"`
	DiscountRate   float64   `json:"discountRate"`
	TerminalGrowth float64   `json:"terminalGrowth"`
	ProjectedEPS   []float64 `json:"projectedEps"`
	TerminalValue  float64   `json:"terminalValue"`
	FairValue      float64   `json:"fairValue"`
	Upside         float64   `json:"upside"`
	Recommendation string    `json:"recommendation"`
}

// DCF projects EPS forward and discounts it plus a terminal value into a fair
// price. Rates arrive as percentages.
func (a *Analyzer) DCF(ctx context.Context, ticker string, growthPct, discountPct float64) (*DCFValuation, error) {
	// The terminal-value denominator is discount minus terminal growth;
	// validate before any arithmetic
	if discountPct <= terminalGrowthPct {
		return nil, contracts.NewError(contracts.ErrInvalidInput,
			"discount rate %.2f%% must exceed terminal growth %.2f%%", discountPct, terminalGrowthPct)
	}

	report, err := a.FinancialData(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if report.Current.EPS == nil || *report.Current.EPS <= 0 {
		return nil, contracts.NewError(contracts.ErrInvalidInput,
			"ticker %s has no positive EPS to project from", ticker)
	}
	eps := *report.Current.EPS

	price, ok := a.closeAt(ctx, ticker, a.now())
	if !ok || price <= 0 {
		return nil, contracts.NewError(contracts.ErrInvalidInput,
			"no current price available for %s", ticker)
	}

	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	growth := one.Add(decimal.NewFromFloat(growthPct).Div(hundred))
	discount := one.Add(decimal.NewFromFloat(discountPct).Div(hundred))
	terminal := decimal.NewFromFloat(terminalGrowthPct).Div(hundred)

	base := decimal.NewFromFloat(eps)
	projected := make([]float64, 0, dcfHorizon)
	presentValue := decimal.Zero
	yearEPS := base
	for n := 1; n <= dcfHorizon; n++ {
		yearEPS = yearEPS.Mul(growth)
		projected = append(projected, yearEPS.Round(2).InexactFloat64())
		presentValue = presentValue.Add(yearEPS.Div(discount.Pow(decimal.NewFromInt(int64(n)))))
	}

	// Gordon growth on the last projected period, discounted back
	discountRate := decimal.NewFromFloat(discountPct).Div(hundred)
	terminalValue := yearEPS.Mul(one.Add(terminal)).Div(discountRate.Sub(terminal))
	terminalPV := terminalValue.Div(discount.Pow(decimal.NewFromInt(dcfHorizon)))

	fair := presentValue.Add(terminalPV)
	upside := fair.Sub(decimal.NewFromFloat(price)).Div(decimal.NewFromFloat(price)).Mul(hundred)

	val := &DCFValuation{
		Ticker:         ticker,
		Price:          price,
		EPS:            eps,
		GrowthRate:     growthPct,
		DiscountRate:   discountPct,
		TerminalGrowth: terminalGrowthPct,
		ProjectedEPS:   projected,
		TerminalValue:  terminalPV.Round(2).InexactFloat64(),
		FairValue:      fair.Round(2).InexactFloat64(),
		Upside:         upside.Round(2).InexactFloat64(),
		Recommendation: recommend(upside),
	}

	a.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"fair":   val.FairValue,
		"upside": val.Upside,
	}).Debug("Computed DCF valuation")

	return val, nil
}

func recommend(upside decimal.Decimal) string {
	switch {
	case upside.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return "buy"
	case upside.GreaterThanOrEqual(decimal.Zero):
		return "hold"
	default:
		return "sell"
	}
}
