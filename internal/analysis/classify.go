package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
	redispkg "github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/redis"
)

// Classifier resolves which exchange segment a ticker is listed on by probing
// segment cap tables. Entries are written at most once per ticker and never
// invalidated mid-process; segment membership changes rarely enough that
// staleness within a run is acceptable. The whole cache may be dropped and
// rebuilt at any time.
// ⭐ SSOT: 시장 구분 판별은 여기서만
type Classifier struct {
	provider contracts.MarketDataProvider
	cache    *redispkg.Cache
	logger   *logger.Logger
	lookback int

	mu       sync.RWMutex
	segments map[string]contracts.Segment

	now func() time.Time
}

// NewClassifier creates a Classifier. cache may come from a disabled redis
// client, in which case only the in-process map is used.
func NewClassifier(p contracts.MarketDataProvider, cache *redispkg.Cache, cfg config.AnalysisConfig, log *logger.Logger) *Classifier {
	return &Classifier{
		provider: p,
		cache:    cache,
		logger:   log,
		lookback: cfg.MaxLookbackDays,
		segments: make(map[string]contracts.Segment),
		now:      time.Now,
	}
}

// WithClock overrides the reference clock
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Segment resolves the segment a ticker belongs to, or SegmentUnknown with a
// NotFound error when it appears on no board.
func (c *Classifier) Segment(ctx context.Context, ticker string) (contracts.Segment, error) {
	c.mu.RLock()
	if seg, ok := c.segments[ticker]; ok {
		c.mu.RUnlock()
		return seg, nil
	}
	c.mu.RUnlock()

	var cached string
	if found, _ := c.cache.Get(ctx, redispkg.SegmentKey(ticker), &cached); found && cached != "" {
		seg := contracts.Segment(cached)
		c.store(ticker, seg)
		return seg, nil
	}

	seg, err := c.probe(ctx, ticker)
	if err != nil {
		return contracts.SegmentUnknown, err
	}

	c.store(ticker, seg)
	if err := c.cache.Set(ctx, redispkg.SegmentKey(ticker), string(seg), redispkg.TTLDaily); err != nil {
		c.logger.WithError(err).Debug("Segment cache write failed")
	}

	return seg, nil
}

// probe checks the cap table of each board for the ticker, walking the trade
// date backward per board since boards can differ in their latest data date.
func (c *Classifier) probe(ctx context.Context, ticker string) (contracts.Segment, error) {
	ref := c.now()

	for _, seg := range contracts.Segments {
		found := false
		_, err := walkBack(ref, c.lookback, func(d time.Time) (bool, error) {
			rows, err := c.provider.MarketCaps(ctx, seg, d)
			if err != nil {
				return false, err
			}
			if len(rows) == 0 {
				return false, nil
			}
			for _, r := range rows {
				if r.Ticker == ticker {
					found = true
					break
				}
			}
			// Non-empty table answers the membership question either way
			return true, nil
		})
		if err != nil {
			// A board with no data at all within the bound: move on.
			// Anything else (transport fault, bad payload) is not a
			// membership answer and must not decay into NotFound.
			if errors.Is(err, contracts.ErrNotFound) {
				continue
			}
			return contracts.SegmentUnknown, err
		}
		if found {
			return seg, nil
		}
	}

	return contracts.SegmentUnknown, fmt.Errorf("%w: ticker %s is not listed on any known segment",
		contracts.ErrNotFound, ticker)
}

func (c *Classifier) store(ticker string, seg contracts.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.segments[ticker]; !ok {
		c.segments[ticker] = seg
	}
}

// Warm resolves membership for every ticker on every board in one pass.
// Used by the opt-in cache warmer, never by the request path.
func (c *Classifier) Warm(ctx context.Context) error {
	ref := c.now()
	total := 0

	for _, seg := range contracts.Segments {
		var table []contracts.MarketCapRow
		_, err := walkBack(ref, c.lookback, func(d time.Time) (bool, error) {
			rows, err := c.provider.MarketCaps(ctx, seg, d)
			if err != nil {
				return false, err
			}
			if len(rows) == 0 {
				return false, nil
			}
			table = rows
			return true, nil
		})
		if err != nil {
			c.logger.WithError(err).WithField("segment", seg).Warn("Cache warm skipped segment")
			continue
		}

		for _, row := range table {
			c.store(row.Ticker, seg)
			if err := c.cache.Set(ctx, redispkg.SegmentKey(row.Ticker), string(seg), redispkg.TTLDaily); err != nil {
				c.logger.WithError(err).Debug("Segment cache write failed")
			}
		}
		total += len(table)
	}

	c.logger.WithField("tickers", total).Info("Classification cache warmed")
	return nil
}
