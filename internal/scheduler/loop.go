// Package scheduler runs the background jobs: bookmark import, similarity
// precompute and index snapshot persistence.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// loop calls run on every tick and on every manual trigger until stopped.
// A zero interval disables the ticker; the trigger still works.
type loop struct {
	name     string
	interval time.Duration
	trigger  <-chan struct{}
	run      func(context.Context) error
	logger   logger.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newLoop(name string, interval time.Duration, trigger <-chan struct{}, log logger.Logger, run func(context.Context) error) *loop {
	return &loop{
		name:     name,
		interval: interval,
		trigger:  trigger,
		run:      run,
		logger:   log.With(logger.String("job", name)),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (l *loop) start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(l.done)

		var tick <-chan time.Time
		if l.interval > 0 {
			ticker := time.NewTicker(l.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				l.runOnce(ctx)
			case <-l.trigger:
				l.logger.Info("manual run triggered")
				l.runOnce(ctx)
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *loop) runOnce(ctx context.Context) {
	start := time.Now()
	if err := l.run(ctx); err != nil {
		l.logger.Error("job failed", logger.Error(err))
		return
	}
	l.logger.Debug("job finished", logger.Duration("elapsed", time.Since(start)))
}

// stop ends the loop and waits for a running job to return.
func (l *loop) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.done
	}
}
