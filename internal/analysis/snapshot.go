package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// MarketSnapshot is the point-in-time price/volume view of a ticker
type MarketSnapshot struct {
	Ticker        string       `json:"ticker"`
	Date          string       `json:"date"`
	CurrentPrice  int64        `json:"currentPrice"`
	PreviousClose *int64       `json:"previousClose"`
	Change        *int64       `json:"change"`
	ChangePercent *float64     `json:"changePercent"`
	Open          int64        `json:"open"`
	High          int64        `json:"high"`
	Low           int64        `json:"low"`
	Volume        int64        `json:"volume"`
	TradingValue  int64        `json:"tradingValue"`
	Week52High    int64        `json:"week52High"`
	Week52Low     int64        `json:"week52Low"`
	MarketCap     *int64       `json:"marketCap"`
	Shares        *int64       `json:"sharesOutstanding"`
	Turnover      *float64     `json:"turnover"`
	Recent        []DailyQuote `json:"recent"`
}

// DailyQuote is one close/volume point of the charting tail
type DailyQuote struct {
	Date   string `json:"date"`
	Close  int64  `json:"close"`
	Volume int64  `json:"volume"`
}

// recentTailDays is how many trading days of closes/volumes ride along for charting
const recentTailDays = 10

// MarketData builds the market snapshot for a ticker
func (a *Analyzer) MarketData(ctx context.Context, ticker string) (*MarketSnapshot, error) {
	latest, day, err := a.resolvePriceDate(ctx, ticker, a.now())
	if err != nil {
		return nil, err
	}

	// Trailing window for current/previous close and the charting tail
	window, err := a.provider.OHLCV(ctx, ticker, latest.AddDate(0, 0, -30), latest)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch trailing window for %s: %v", contracts.ErrUpstream, ticker, err)
	}
	if len(window) == 0 {
		window = []contracts.OHLCVRow{day}
	}

	snap := &MarketSnapshot{
		Ticker:       ticker,
		Date:         latest.Format("20060102"),
		CurrentPrice: day.Close,
		Open:         day.Open,
		High:         day.High,
		Low:          day.Low,
		Volume:       day.Volume,
		TradingValue: day.TradingValue,
	}

	if len(window) >= 2 {
		prev := window[len(window)-2]
		snap.PreviousClose = iptr(prev.Close)
		snap.Change = iptr(day.Close - prev.Close)
		if prev.Close != 0 {
			snap.ChangePercent = fptr(round2(float64(day.Close-prev.Close) / float64(prev.Close) * 100))
		}
	}

	// 52-week range; degenerate fallback to the day's own range
	yearRows, err := a.provider.OHLCV(ctx, ticker, latest.AddDate(0, 0, -365), latest)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch 52-week window for %s: %v", contracts.ErrUpstream, ticker, err)
	}
	if len(yearRows) == 0 {
		snap.Week52High = day.High
		snap.Week52Low = day.Low
	} else {
		snap.Week52High = yearRows[0].High
		snap.Week52Low = yearRows[0].Low
		for _, r := range yearRows {
			if r.High > snap.Week52High {
				snap.Week52High = r.High
			}
			if r.Low < snap.Week52Low && r.Low > 0 {
				snap.Week52Low = r.Low
			}
		}
	}

	// Market cap and turnover from the cap table on its own resolved date.
	// Unclassifiable tickers still get a price snapshot.
	if seg, err := a.classifier.Segment(ctx, ticker); err == nil {
		capRow, ok, err := a.capRowAt(ctx, ticker, seg, latest)
		if err != nil && !errors.Is(err, contracts.ErrNotFound) {
			return nil, err
		}
		if ok {
			snap.MarketCap = iptr(capRow.MarketCap)
			snap.Shares = iptr(capRow.SharesOutstanding)
			if capRow.SharesOutstanding > 0 {
				snap.Turnover = fptr(round2(float64(day.Volume) / float64(capRow.SharesOutstanding) * 100))
			}
		}
	} else if !errors.Is(err, contracts.ErrNotFound) {
		return nil, err
	}

	// Last N trading days, oldest first
	tail := window
	if len(tail) > recentTailDays {
		tail = tail[len(tail)-recentTailDays:]
	}
	snap.Recent = make([]DailyQuote, 0, len(tail))
	for _, r := range tail {
		snap.Recent = append(snap.Recent, DailyQuote{
			Date:   r.Date.Format("20060102"),
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"date":   snap.Date,
		"close":  day.Close,
	}).Debug("Built market snapshot")

	return snap, nil
}
