package analysis

import (
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// Analyzer answers the ad-hoc equity queries. Every method materializes its
// result from fresh provider data; the only state shared across requests is
// the classifier's segment cache.
// ⭐ SSOT: 파생 지표/재무 보정 계산은 이 패키지에서만
type Analyzer struct {
	provider   contracts.MarketDataProvider
	classifier *Classifier
	cfg        config.AnalysisConfig
	logger     *logger.Logger

	// injectable clock, tests pin it
	now func() time.Time
}

// New creates an Analyzer
func New(p contracts.MarketDataProvider, cl *Classifier, cfg config.AnalysisConfig, log *logger.Logger) *Analyzer {
	return &Analyzer{
		provider:   p,
		classifier: cl,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock overrides the reference clock
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// round2 rounds to two decimals for presentation
func round2(v float64) float64 {
	if v >= 0 {
		return float64(int64(v*100+0.5)) / 100
	}
	return float64(int64(v*100-0.5)) / 100
}

// fptr returns a pointer to v, the null-able field helper
func fptr(v float64) *float64 {
	return &v
}

func iptr(v int64) *int64 {
	return &v
}
