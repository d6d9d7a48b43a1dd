package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// Persister writes the index snapshot and rebuilds an index that is not
// ready.
type Persister interface {
	PersistIndex(ctx context.Context) error
	RebuildIndex(ctx context.Context) (int, error)
}

// SnapshotScheduler persists the index periodically so that a restart
// picks up incremental changes.
type SnapshotScheduler struct {
	engine Persister
	logger logger.Logger
	loop   *loop
}

func NewSnapshotScheduler(e Persister, log logger.Logger, interval time.Duration) *SnapshotScheduler {
	ss := &SnapshotScheduler{engine: e, logger: log}
	ss.loop = newLoop("index_snapshot", interval, nil, log, ss.Run)
	return ss
}

func (ss *SnapshotScheduler) Start(ctx context.Context) {
	ss.loop.start(ctx)
}

// Stop ends the job and writes a last snapshot.
func (ss *SnapshotScheduler) Stop(ctx context.Context) {
	ss.loop.stop()
	err := ss.engine.PersistIndex(ctx)
	if err != nil && !errors.Is(err, index.ErrIndexNotReady) {
		ss.logger.Warn("final index snapshot failed", logger.Error(err))
	}
}

// Run persists one snapshot. An index that is not ready, because the warm
// start could not load or reconcile it, is rebuilt from the store instead.
func (ss *SnapshotScheduler) Run(ctx context.Context) error {
	err := ss.engine.PersistIndex(ctx)
	if !errors.Is(err, index.ErrIndexNotReady) {
		return err
	}
	n, err := ss.engine.RebuildIndex(ctx)
	if err != nil {
		return err
	}
	ss.logger.Info("index was not ready, rebuilt from store", logger.Int("documents", n))
	return nil
}
