package scheduler

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

const defaultWatchDebounce = 500 * time.Millisecond

// ExportWatcher fires the reload trigger when the export file changes on
// disk. The parent directory is watched so that editors replacing the file
// by rename are seen too.
type ExportWatcher struct {
	watcher  *fsnotify.Watcher
	file     string
	trigger  chan<- struct{}
	debounce time.Duration
	logger   logger.Logger

	mu    sync.Mutex
	timer *time.Timer

	stopOnce sync.Once
	done     chan struct{}
}

// NewExportWatcher starts watching file. A zero debounce takes the default.
func NewExportWatcher(file string, trigger chan<- struct{}, debounce time.Duration, log logger.Logger) (*ExportWatcher, error) {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolve export path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ew := &ExportWatcher{
		watcher:  w,
		file:     abs,
		trigger:  trigger,
		debounce: debounce,
		logger:   log.With(logger.String("job", "export_watch")),
		done:     make(chan struct{}),
	}
	go ew.eventLoop()
	return ew, nil
}

func (ew *ExportWatcher) eventLoop() {
	defer close(ew.done)
	for {
		select {
		case event, ok := <-ew.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != ew.file || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			ew.schedule()
		case err, ok := <-ew.watcher.Errors:
			if !ok {
				return
			}
			ew.logger.Warn("export watcher error", logger.Error(err))
		}
	}
}

// schedule coalesces bursts of writes into one trigger.
func (ew *ExportWatcher) schedule() {
	ew.mu.Lock()
	defer ew.mu.Unlock()
	if ew.timer != nil {
		ew.timer.Stop()
	}
	ew.timer = time.AfterFunc(ew.debounce, ew.fire)
}

func (ew *ExportWatcher) fire() {
	select {
	case ew.trigger <- struct{}{}:
		ew.logger.Info("export file changed, reload triggered", logger.String("file", ew.file))
	default:
		// A reload is already pending.
	}
}

// Stop closes the watcher and cancels a pending trigger.
func (ew *ExportWatcher) Stop() error {
	var err error
	ew.stopOnce.Do(func() {
		err = ew.watcher.Close()
		<-ew.done

		ew.mu.Lock()
		if ew.timer != nil {
			ew.timer.Stop()
		}
		ew.mu.Unlock()
	})
	return err
}
