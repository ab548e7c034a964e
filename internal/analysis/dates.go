package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// walkBack steps backward one calendar day at a time from ref, calling probe
// for each date until it reports a hit, up to maxDays lookback. This is the
// single backward-resolution loop every data kind goes through; callers must
// treat exhaustion as a definitive miss, never retry unboundedly.
func walkBack(ref time.Time, maxDays int, probe func(date time.Time) (bool, error)) (time.Time, error) {
	date := ref
	for i := 0; i <= maxDays; i++ {
		ok, err := probe(date)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return date, nil
		}
		date = date.AddDate(0, 0, -1)
	}
	return time.Time{}, fmt.Errorf("%w: no data within %d days before %s",
		contracts.ErrNotFound, maxDays, ref.Format("2006-01-02"))
}

// resolvePriceDate finds the most recent trading day at or before ref for
// which the ticker has an OHLCV record, and returns that day's bar.
func (a *Analyzer) resolvePriceDate(ctx context.Context, ticker string, ref time.Time) (time.Time, contracts.OHLCVRow, error) {
	var row contracts.OHLCVRow

	date, err := walkBack(ref, a.cfg.MaxLookbackDays, func(d time.Time) (bool, error) {
		rows, err := a.provider.OHLCV(ctx, ticker, d, d)
		if err != nil {
			return false, fmt.Errorf("probe price on %s: %w", d.Format("2006-01-02"), err)
		}
		if len(rows) == 0 {
			return false, nil
		}
		row = rows[len(rows)-1]
		return true, nil
	})
	if err != nil {
		return time.Time{}, contracts.OHLCVRow{}, fmt.Errorf("resolve price date for %s: %w", ticker, err)
	}

	return date, row, nil
}

// resolveFundamentalDate finds the most recent reporting day at or before ref
// with a non-degenerate fundamental row for the ticker. Rows with every ratio
// zeroed mean "no real data that day" upstream and are skipped.
func (a *Analyzer) resolveFundamentalDate(ctx context.Context, ticker string, segment contracts.Segment, ref time.Time) (time.Time, contracts.FundamentalRow, error) {
	var row contracts.FundamentalRow

	date, err := walkBack(ref, a.cfg.MaxLookbackDays, func(d time.Time) (bool, error) {
		found, ok, err := a.fundamentalRowAt(ctx, ticker, segment, d)
		if err != nil {
			return false, err
		}
		if !ok || found.IsAllZero() {
			return false, nil
		}
		row = found
		return true, nil
	})
	if err != nil {
		return time.Time{}, contracts.FundamentalRow{}, fmt.Errorf("resolve fundamental date for %s: %w", ticker, err)
	}

	return date, row, nil
}

// fundamentalRowAt fetches the segment ratio table for one date and picks the
// ticker's row. Missing table or missing ticker are soft misses.
func (a *Analyzer) fundamentalRowAt(ctx context.Context, ticker string, segment contracts.Segment, date time.Time) (contracts.FundamentalRow, bool, error) {
	rows, err := a.provider.Fundamentals(ctx, segment, date)
	if err != nil {
		return contracts.FundamentalRow{}, false, fmt.Errorf("fundamentals on %s: %w", date.Format("2006-01-02"), err)
	}
	for _, r := range rows {
		if r.Ticker == ticker {
			return r, true, nil
		}
	}
	return contracts.FundamentalRow{}, false, nil
}

// resolveCapTable finds the most recent date at or before ref with a
// non-empty cap table for the segment. Market cap data can lag prices, so
// this search is independent of the price-date resolution.
func (a *Analyzer) resolveCapTable(ctx context.Context, segment contracts.Segment, ref time.Time) (time.Time, []contracts.MarketCapRow, error) {
	var table []contracts.MarketCapRow

	date, err := walkBack(ref, a.cfg.MaxLookbackDays, func(d time.Time) (bool, error) {
		rows, err := a.provider.MarketCaps(ctx, segment, d)
		if err != nil {
			return false, fmt.Errorf("probe caps on %s: %w", d.Format("2006-01-02"), err)
		}
		if len(rows) == 0 {
			return false, nil
		}
		table = rows
		return true, nil
	})
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("resolve cap table for %s: %w", segment, err)
	}

	return date, table, nil
}

// capRowAt resolves the cap table for the segment and picks the ticker's row
func (a *Analyzer) capRowAt(ctx context.Context, ticker string, segment contracts.Segment, ref time.Time) (contracts.MarketCapRow, bool, error) {
	_, table, err := a.resolveCapTable(ctx, segment, ref)
	if err != nil {
		return contracts.MarketCapRow{}, false, err
	}
	for _, r := range table {
		if r.Ticker == ticker {
			return r, true, nil
		}
	}
	return contracts.MarketCapRow{}, false, nil
}
