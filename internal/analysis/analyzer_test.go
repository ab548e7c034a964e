package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
	redispkg "github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/redis"
)

// testRef is the pinned reference clock for every test, a Friday
var testRef = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

// fakeProvider serves canned market data. Date-range filters compare by
// calendar day, matching the real providers' date granularity.
type fakeProvider struct {
	bars     map[string][]contracts.OHLCVRow
	caps     map[contracts.Segment][]contracts.MarketCapRow
	funds    map[string][]contracts.FundamentalRow // key: segment|yyyymmdd
	totals   map[string]map[contracts.InvestorClass]contracts.InvestorNet
	flows    map[string][]contracts.InvestorFlowRow
	names    map[string]string
	industry map[string]contracts.IndustryInfo

	capsCalls int
	capsErr   error
}

func fundKey(seg contracts.Segment, date time.Time) string {
	return string(seg) + "|" + date.Format("20060102")
}

func (f *fakeProvider) OHLCV(ctx context.Context, ticker string, from, to time.Time) ([]contracts.OHLCVRow, error) {
	fromKey, toKey := from.Format("20060102"), to.Format("20060102")
	var out []contracts.OHLCVRow
	for _, r := range f.bars[ticker] {
		key := r.Date.Format("20060102")
		if key >= fromKey && key <= toKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProvider) MarketCaps(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.MarketCapRow, error) {
	f.capsCalls++
	if f.capsErr != nil {
		return nil, f.capsErr
	}
	return f.caps[segment], nil
}

func (f *fakeProvider) Fundamentals(ctx context.Context, segment contracts.Segment, date time.Time) ([]contracts.FundamentalRow, error) {
	return f.funds[fundKey(segment, date)], nil
}

func (f *fakeProvider) InvestorNetTotals(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) (map[contracts.InvestorClass]contracts.InvestorNet, error) {
	return f.totals[ticker], nil
}

func (f *fakeProvider) InvestorFlows(ctx context.Context, ticker string, segment contracts.Segment, from, to time.Time) ([]contracts.InvestorFlowRow, error) {
	fromKey, toKey := from.Format("20060102"), to.Format("20060102")
	var out []contracts.InvestorFlowRow
	for _, r := range f.flows[ticker] {
		key := r.Date.Format("20060102")
		if key >= fromKey && key <= toKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProvider) TickerName(ctx context.Context, ticker string) (string, error) {
	name, ok := f.names[ticker]
	if !ok {
		return "", fmt.Errorf("%w: no name for %s", contracts.ErrNotFound, ticker)
	}
	return name, nil
}

func (f *fakeProvider) Industry(ctx context.Context, ticker string) (contracts.IndustryInfo, error) {
	info, ok := f.industry[ticker]
	if !ok {
		return contracts.IndustryInfo{}, fmt.Errorf("%w: no industry for %s", contracts.ErrNotFound, ticker)
	}
	return info, nil
}

var _ contracts.MarketDataProvider = (*fakeProvider)(nil)

func newTestAnalyzer(p *fakeProvider) *Analyzer {
	cfg := config.AnalysisConfig{
		MaxLookbackDays: 30,
		EPSBackfillDays: 180,
	}
	log := logger.Discard()

	redisClient, _ := redispkg.New(&config.Config{})
	cache := redispkg.NewCache(redisClient, "test")

	clock := func() time.Time { return testRef }
	cl := NewClassifier(p, cache, cfg, log).WithClock(clock)
	return New(p, cl, cfg, log).WithClock(clock)
}

// dailyBars builds consecutive calendar-day bars ending with the last close
func dailyBars(start time.Time, closes ...int64) []contracts.OHLCVRow {
	rows := make([]contracts.OHLCVRow, len(closes))
	for i, cl := range closes {
		rows[i] = contracts.OHLCVRow{
			Date:         start.AddDate(0, 0, i),
			Open:         cl - 100,
			High:         cl + 200,
			Low:          cl - 300,
			Close:        cl,
			Volume:       1_000_000,
			TradingValue: cl * 1_000_000,
		}
	}
	return rows
}

// kospiTable is the shared cap-table fixture
func kospiTable() []contracts.MarketCapRow {
	const trillion = 1_000_000_000_000
	return []contracts.MarketCapRow{
		{Ticker: "005930", Name: "삼성전자", Date: testRef, Close: 71500, MarketCap: 400 * trillion, SharesOutstanding: 5_969_782_550},
		{Ticker: "000660", Name: "SK하이닉스", Date: testRef, Close: 180000, MarketCap: 130 * trillion, SharesOutstanding: 728_002_365},
		{Ticker: "005935", Name: "삼성전자우", Date: testRef, Close: 58000, MarketCap: 60 * trillion, SharesOutstanding: 822_886_700},
		{Ticker: "035420", Name: "NAVER", Date: testRef, Close: 190000, MarketCap: 30 * trillion, SharesOutstanding: 164_263_395},
	}
}
