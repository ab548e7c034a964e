package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// FundamentalFigures is one reconciled set of ratios for a date. A nil field
// means the value is genuinely unavailable, not zero.
type FundamentalFigures struct {
	Date string   `json:"date"`
	PER  *float64 `json:"per"`
	PBR  *float64 `json:"pbr"`
	EPS  *float64 `json:"eps"`
	BPS  *float64 `json:"bps"`
	DIV  *float64 `json:"div"`
	DPS  *float64 `json:"dps"`
	ROE  *float64 `json:"roe"`
}

// YearlyFundamental is FundamentalFigures pinned to a fiscal year end
type YearlyFundamental struct {
	Year int `json:"year"`
	FundamentalFigures
}

// FinancialReport is the full fundamentals answer for a ticker
type FinancialReport struct {
	Ticker  string              `json:"ticker"`
	Name    string              `json:"name"`
	Current FundamentalFigures  `json:"current"`
	Yearly  []YearlyFundamental `json:"yearly,omitempty"`
}

// FinancialData resolves and reconciles fundamentals for a ticker. years > 1
// additionally resolves year-end snapshots for prior years; a year that fails
// to resolve is skipped, not fatal.
// ⭐ SSOT: 재무 지표 보정은 여기서만
func (a *Analyzer) FinancialData(ctx context.Context, ticker string, years int) (*FinancialReport, error) {
	if years < 1 {
		years = 1
	}

	seg, err := a.classifier.Segment(ctx, ticker)
	if err != nil {
		return nil, err
	}

	date, row, err := a.resolveFundamentalDate(ctx, ticker, seg, a.now())
	if err != nil {
		return nil, err
	}

	name := row.Name
	if name == "" {
		// Ratio screens omit the issue name on some boards; fall back to the
		// mobile quote page rather than return a nameless report
		if fetched, err := a.provider.TickerName(ctx, ticker); err == nil {
			name = fetched
		} else {
			a.logger.WithError(err).WithField("ticker", ticker).Debug("Name lookup fallback failed")
		}
	}

	report := &FinancialReport{
		Ticker:  ticker,
		Name:    name,
		Current: a.reconcile(ctx, ticker, seg, date, row),
	}

	refYear := a.now().Year()
	for off := 1; off < years; off++ {
		year := refYear - off
		yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.Local)

		yd, yrow, err := a.resolveFundamentalDate(ctx, ticker, seg, yearEnd)
		if err != nil {
			if !errors.Is(err, contracts.ErrNotFound) {
				return nil, err
			}
			a.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"year":   year,
			}).Debug("No fundamental data for year, skipping")
			continue
		}

		report.Yearly = append(report.Yearly, YearlyFundamental{
			Year:               year,
			FundamentalFigures: a.reconcile(ctx, ticker, seg, yd, yrow),
		})
	}

	return report, nil
}

// reconcile turns a raw fundamental row into figures, repairing the
// degenerate loss-making case. Zero ratio fields mean "absent" upstream, so
// they map to nil; the one legitimate exception is a recomputed negative PER.
func (a *Analyzer) reconcile(ctx context.Context, ticker string, seg contracts.Segment, date time.Time, row contracts.FundamentalRow) FundamentalFigures {
	fig := FundamentalFigures{
		Date: date.Format("20060102"),
		PBR:  nzptr(row.PBR),
		BPS:  nzptr(row.BPS),
		DIV:  nzptr(row.DIV),
		DPS:  nzptr(row.DPS),
	}

	eps := row.EPS
	per := row.PER

	switch {
	case eps == 0 && per == 0 && row.BPS > 0:
		// Ratios reported as zero while the book value proves the row is
		// real: the company is likely loss-making and the provider dropped
		// the negative EPS. Pull the last nonzero EPS from history.
		prior, found := a.backfillEPS(ctx, ticker, seg, date)
		if found && prior < 0 {
			eps = prior
			if price, ok := a.closeAt(ctx, ticker, date); ok {
				per = round2(price / eps)
			}
			a.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"eps":    eps,
				"per":    per,
			}).Debug("Repaired loss-making fundamentals from prior EPS")
		} else {
			// A positive prior EPS means a profit-to-loss transition we
			// cannot price; no prior EPS means no data. Report unavailable
			// rather than guess.
			eps, per = 0, 0
		}
	case per == 0 && eps < 0:
		if price, ok := a.closeAt(ctx, ticker, date); ok {
			per = round2(price / eps)
		}
	}

	fig.EPS = nzptr(eps)
	fig.PER = nzptr(per)

	if fig.PER != nil && fig.PBR != nil && *fig.PER != 0 {
		fig.ROE = fptr(round2(*fig.PBR / *fig.PER * 100))
	}

	return fig
}

// backfillEPS walks backward day by day looking for the most recent nonzero
// EPS reading. Errors and misses both degrade to "not found".
func (a *Analyzer) backfillEPS(ctx context.Context, ticker string, seg contracts.Segment, from time.Time) (float64, bool) {
	for i := 1; i <= a.cfg.EPSBackfillDays; i++ {
		row, ok, err := a.fundamentalRowAt(ctx, ticker, seg, from.AddDate(0, 0, -i))
		if err != nil {
			a.logger.WithError(err).WithField("ticker", ticker).Debug("EPS backfill aborted")
			return 0, false
		}
		if ok && row.EPS != 0 {
			return row.EPS, true
		}
	}
	return 0, false
}

// closeAt resolves the closing price on or before a date
func (a *Analyzer) closeAt(ctx context.Context, ticker string, ref time.Time) (float64, bool) {
	_, day, err := a.resolvePriceDate(ctx, ticker, ref)
	if err != nil {
		a.logger.WithError(err).WithField("ticker", ticker).Debug("No price for PER recompute")
		return 0, false
	}
	return float64(day.Close), true
}

func nzptr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
