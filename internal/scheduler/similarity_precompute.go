package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/engine"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// Precomputer refreshes the stored similarity records.
type Precomputer interface {
	PrecomputeSimilarities(ctx context.Context) (engine.PrecomputeResult, error)
}

// PrecomputeScheduler refreshes similarity records of enriched bookmarks
// in the background.
type PrecomputeScheduler struct {
	engine Precomputer
	logger logger.Logger
	loop   *loop
}

// NewPrecomputeScheduler creates the job. A zero interval leaves only the
// manual trigger.
func NewPrecomputeScheduler(e Precomputer, log logger.Logger, interval time.Duration, manualTrigger <-chan struct{}) *PrecomputeScheduler {
	ps := &PrecomputeScheduler{engine: e, logger: log}
	ps.loop = newLoop("similarity_precompute", interval, manualTrigger, log, ps.Run)
	return ps
}

func (ps *PrecomputeScheduler) Start(ctx context.Context) {
	ps.loop.start(ctx)
}

func (ps *PrecomputeScheduler) Stop() {
	ps.loop.stop()
}

// Run performs one precompute pass.
func (ps *PrecomputeScheduler) Run(ctx context.Context) error {
	res, err := ps.engine.PrecomputeSimilarities(ctx)
	if err != nil {
		return err
	}
	ps.logger.Info("similarities precomputed",
		logger.Int("total", res.Total),
		logger.Int("computed", res.Computed),
		logger.Int("failed", res.Failed),
		logger.Duration("elapsed", res.Elapsed))
	return nil
}
