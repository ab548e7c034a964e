package contracts

import (
	"context"
	"time"
)

// Segment is the exchange board a ticker is listed on
type Segment string

const (
	SegmentKOSPI   Segment = "KOSPI"
	SegmentKOSDAQ  Segment = "KOSDAQ"
	SegmentKONEX   Segment = "KONEX"
	SegmentUnknown Segment = "UNKNOWN"
)

// Segments lists the known boards in probing order
var Segments = []Segment{SegmentKOSPI, SegmentKOSDAQ, SegmentKONEX}

// OHLCVRow is a single daily price bar for a ticker
type OHLCVRow struct {
	Date         time.Time
	Open         int64
	High         int64
	Low          int64
	Close        int64
	Volume       int64
	TradingValue int64
}

// FundamentalRow holds the ratio set published for a ticker on a trade date.
// Zero values may be genuine readings or upstream artifacts; the
// reconciliation layer decides which (degenerate row detection).
type FundamentalRow struct {
	Ticker string
	Name   string
	Date   time.Time
	PER    float64
	PBR    float64
	EPS    float64
	BPS    float64
	DIV    float64 // dividend yield, percent
	DPS    float64 // dividend per share
}

// IsAllZero reports whether every ratio field is absent, which the upstream
// uses for days without real data rather than as a genuine reading.
func (r FundamentalRow) IsAllZero() bool {
	return r.PER == 0 && r.PBR == 0 && r.EPS == 0 && r.BPS == 0
}

// MarketCapRow holds market cap and listing data for a ticker on a trade date
type MarketCapRow struct {
	Ticker            string
	Name              string
	Date              time.Time
	Close             int64
	MarketCap         int64
	SharesOutstanding int64
}

// InvestorClass is a logical investor grouping for supply/demand flows
type InvestorClass string

const (
	InvestorForeign     InvestorClass = "foreign"
	InvestorInstitution InvestorClass = "institution"
	InvestorIndividual  InvestorClass = "individual"
)

// InvestorClasses lists the reported classes in output order
var InvestorClasses = []InvestorClass{InvestorForeign, InvestorInstitution, InvestorIndividual}

// InvestorFlowRow holds the net purchase amount for one investor class on one day
type InvestorFlowRow struct {
	Ticker   string
	Date     time.Time
	Class    InvestorClass
	NetValue int64 // net purchase amount, KRW
}

// InvestorNet holds period-aggregated net purchase figures for one class
type InvestorNet struct {
	NetValue  int64 // net purchase amount, KRW
	NetVolume int64 // net purchase volume, shares
}

// IndustryInfo is the sector classification of a ticker together with the
// tickers the source lists under the same label.
type IndustryInfo struct {
	Label string
	Peers []string
}

// MarketDataProvider is the upstream contract the analysis core depends on.
// Implementations fail soft: "no data" is an empty result, an error means a
// transport or availability fault.
type MarketDataProvider interface {
	// OHLCV returns daily bars for [from, to], ascending by date.
	// Single-day queries pass from == to.
	OHLCV(ctx context.Context, ticker string, from, to time.Time) ([]OHLCVRow, error)

	// MarketCaps returns the cap table for a whole segment on a trade date.
	MarketCaps(ctx context.Context, segment Segment, date time.Time) ([]MarketCapRow, error)

	// Fundamentals returns the ratio table for a whole segment on a trade date.
	Fundamentals(ctx context.Context, segment Segment, date time.Time) ([]FundamentalRow, error)

	// InvestorNetTotals returns per-class net purchase value and volume
	// aggregated over a range. Classes with no upstream data are absent
	// from the map, distinguishing "no data" from net-zero flow.
	InvestorNetTotals(ctx context.Context, ticker string, segment Segment, from, to time.Time) (map[InvestorClass]InvestorNet, error)

	// InvestorFlows returns the daily per-class net purchase amount series
	// for a ticker over a range, ascending by date.
	InvestorFlows(ctx context.Context, ticker string, segment Segment, from, to time.Time) ([]InvestorFlowRow, error)

	// TickerName resolves the display name for a ticker.
	TickerName(ctx context.Context, ticker string) (string, error)

	// Industry resolves the sector label and same-industry tickers.
	Industry(ctx context.Context, ticker string) (IndustryInfo, error)
}
