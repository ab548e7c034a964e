package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/analysis"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/config"
	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/pkg/logger"
)

// warmTimeout bounds one warm pass across all boards
const warmTimeout = 10 * time.Minute

// Warmer refreshes the segment classification cache on a cron schedule so
// the first queries after market close do not pay the probing cost. Request
// handling never depends on it; it is an opt-in optimization.
// ⭐ SSOT: 캐시 예열 스케줄은 여기서만
type Warmer struct {
	cron       *cron.Cron
	classifier *analysis.Classifier
	logger     *logger.Logger
	schedule   string
}

// NewWarmer creates a Warmer with the schedule from config
func NewWarmer(cl *analysis.Classifier, cfg config.CacheWarmConfig, log *logger.Logger) *Warmer {
	return &Warmer{
		cron:       cron.New(),
		classifier: cl,
		logger:     log,
		schedule:   cfg.Schedule,
	}
}

// Start registers the warm job and starts the cron loop
func (w *Warmer) Start() error {
	_, err := w.cron.AddFunc(w.schedule, w.run)
	if err != nil {
		return fmt.Errorf("schedule cache warm job: %w", err)
	}

	w.cron.Start()
	w.logger.WithField("schedule", w.schedule).Info("Cache warmer started")
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish
func (w *Warmer) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("Cache warmer stopped")
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	start := time.Now()
	if err := w.classifier.Warm(ctx); err != nil {
		w.logger.WithError(err).Error("Cache warm failed")
		return
	}

	w.logger.WithField("duration", time.Since(start)).Info("Cache warm finished")
}
