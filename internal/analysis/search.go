package analysis

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

const searchLimit = 10

// SearchMatch is one scored candidate from the listed-name universe
type SearchMatch struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	MarketCap int64  `json:"marketCap"`
	Score     int    `json:"score"`
}

// SearchReport is the ranked answer to a free-text name query
type SearchReport struct {
	Query   string        `json:"query"`
	Matches []SearchMatch `json:"matches"`
}

// SearchTicker scores a company-name query against every listed name across
// all boards. Zero-score candidates are dropped, ties break by market cap.
func (a *Analyzer) SearchTicker(ctx context.Context, query string) (*SearchReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, contracts.NewError(contracts.ErrInvalidInput, "company name must not be empty")
	}

	var universe []contracts.MarketCapRow
	for _, seg := range contracts.Segments {
		_, table, err := a.resolveCapTable(ctx, seg, a.now())
		if err != nil {
			a.logger.WithError(err).WithField("segment", seg).Debug("Search skipped segment")
			continue
		}
		universe = append(universe, table...)
	}
	if len(universe) == 0 {
		return nil, contracts.NewError(contracts.ErrUpstream, "no listed-name universe available")
	}

	matches := make([]SearchMatch, 0)
	for _, row := range universe {
		if score := scoreName(query, row.Name); score > 0 {
			matches = append(matches, SearchMatch{
				Ticker:    row.Ticker,
				Name:      row.Name,
				MarketCap: row.MarketCap,
				Score:     score,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].MarketCap > matches[j].MarketCap
	})
	if len(matches) > searchLimit {
		matches = matches[:searchLimit]
	}

	return &SearchReport{Query: query, Matches: matches}, nil
}

// scoreName ranks how well a listed name answers the query. The cascade runs
// strongest first: exact modulo case, exact modulo spaces, substring, all
// words, some words, shared characters. 0 means no plausible relation.
func scoreName(query, name string) int {
	qFull := normFull(query)
	nFull := normFull(name)
	if qFull == "" || nFull == "" {
		return 0
	}

	if strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(name)) {
		return 100
	}
	if normSpace(query) == normSpace(name) {
		return 90
	}
	if strings.Contains(nFull, qFull) {
		return 80
	}

	words := strings.Fields(strings.ToLower(query))
	lowerName := strings.ToLower(name)
	matched := 0
	for _, w := range words {
		if strings.Contains(lowerName, w) {
			matched++
		}
	}
	if len(words) > 0 && matched == len(words) {
		return 70
	}
	if matched > 0 {
		return matched * 60 / len(words)
	}

	return charOverlapScore(qFull, nFull)
}

// normFull lower-cases and strips everything but letters and digits. Hangul
// survives since it counts as letters.
func normFull(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normSpace lower-cases and strips only whitespace
func normSpace(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// charOverlapScore is the last-resort heuristic: the share of the query's
// distinct characters that appear anywhere in the name, scaled to at most 20.
func charOverlapScore(qFull, nFull string) int {
	nameRunes := make(map[rune]bool)
	for _, r := range nFull {
		nameRunes[r] = true
	}

	queryRunes := make(map[rune]bool)
	hits := 0
	for _, r := range qFull {
		if queryRunes[r] {
			continue
		}
		queryRunes[r] = true
		if nameRunes[r] {
			hits++
		}
	}
	if len(queryRunes) == 0 {
		return 0
	}
	return hits * 20 / len(queryRunes)
}
