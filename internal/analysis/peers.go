package analysis

import (
	"context"
	"sort"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

const peerLimit = 5

// Peer is one ranked comparable ticker
type Peer struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	MarketCap int64  `json:"marketCap"`
}

// PeerReport names the matching method so callers can tell an industry match
// from a cap-proximity fallback.
type PeerReport struct {
	Ticker   string            `json:"ticker"`
	Segment  contracts.Segment `json:"segment"`
	Industry *string           `json:"industry"`
	Method   string            `json:"method"`
	Peers    []Peer            `json:"peers"`
}

// Peers finds comparable tickers, cascading from industry membership through
// a cap-ratio band to the whole segment. The result is empty only when the
// target is alone on its board.
func (a *Analyzer) Peers(ctx context.Context, ticker string) (*PeerReport, error) {
	seg, err := a.classifier.Segment(ctx, ticker)
	if err != nil {
		return nil, err
	}

	_, table, err := a.resolveCapTable(ctx, seg, a.now())
	if err != nil {
		return nil, err
	}

	var target *contracts.MarketCapRow
	byTicker := make(map[string]contracts.MarketCapRow, len(table))
	for _, row := range table {
		byTicker[row.Ticker] = row
		if row.Ticker == ticker {
			r := row
			target = &r
		}
	}
	if target == nil {
		return nil, contracts.NewError(contracts.ErrNotFound,
			"ticker %s missing from %s cap table", ticker, seg)
	}

	report := &PeerReport{Ticker: ticker, Segment: seg}

	// Same industry first, closest market cap wins
	if info, err := a.provider.Industry(ctx, ticker); err == nil && len(info.Peers) > 0 {
		candidates := make([]contracts.MarketCapRow, 0, len(info.Peers))
		for _, t := range info.Peers {
			if t == ticker {
				continue
			}
			if row, ok := byTicker[t]; ok {
				candidates = append(candidates, row)
			}
		}
		if len(candidates) > 0 {
			sort.Slice(candidates, func(i, j int) bool {
				return capDistance(candidates[i], *target) < capDistance(candidates[j], *target)
			})
			if info.Label != "" {
				report.Industry = &info.Label
			}
			report.Method = "industry"
			report.Peers = toPeers(candidates)
			return report, nil
		}
	} else if err != nil {
		a.logger.WithError(err).WithField("ticker", ticker).Debug("Industry lookup failed, falling back to cap band")
	}

	// Cap-ratio band, wider for bigger companies
	lo, hi := capBand(target.MarketCap)
	banded := make([]contracts.MarketCapRow, 0)
	for _, row := range table {
		if row.Ticker == ticker {
			continue
		}
		mc := float64(row.MarketCap)
		base := float64(target.MarketCap)
		if mc >= base*lo && mc <= base*hi {
			banded = append(banded, row)
		}
	}
	if len(banded) > 0 {
		sort.Slice(banded, func(i, j int) bool {
			return banded[i].MarketCap > banded[j].MarketCap
		})
		report.Method = "capBand"
		report.Peers = toPeers(banded)
		return report, nil
	}

	// Whole segment, closest cap
	rest := make([]contracts.MarketCapRow, 0, len(table))
	for _, row := range table {
		if row.Ticker != ticker {
			rest = append(rest, row)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		return capDistance(rest[i], *target) < capDistance(rest[j], *target)
	})
	report.Method = "segment"
	report.Peers = toPeers(rest)
	return report, nil
}

// capBand returns the cap-ratio window per cap tier. Peer universes thin out
// as caps grow, so the band widens with size.
func capBand(marketCap int64) (lo, hi float64) {
	const trillion = 1_000_000_000_000
	switch {
	case marketCap > 10*trillion:
		return 0.1, 10
	case marketCap > trillion:
		return 0.3, 3
	default:
		return 0.5, 2
	}
}

func capDistance(a, b contracts.MarketCapRow) int64 {
	d := a.MarketCap - b.MarketCap
	if d < 0 {
		return -d
	}
	return d
}

func toPeers(rows []contracts.MarketCapRow) []Peer {
	if len(rows) > peerLimit {
		rows = rows[:peerLimit]
	}
	out := make([]Peer, 0, len(rows))
	for _, r := range rows {
		out = append(out, Peer{Ticker: r.Ticker, Name: r.Name, MarketCap: r.MarketCap})
	}
	return out
}
