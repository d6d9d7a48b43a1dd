package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// WarmStart restores the index from the cached snapshot, or rebuilds it
// from the store when the snapshot is missing or unusable. A restored
// snapshot is reconciled with the store, since bookmarks may have been
// saved or deleted after it was written.
func (e *Engine) WarmStart(ctx context.Context) error {
	start := time.Now()
	err := e.loadSnapshot(ctx)
	if err == nil {
		res, err := e.reconcile(ctx)
		if err != nil {
			// An unreconciled snapshot can miss bookmarks saved after it was
			// written, so it must not serve searches.
			e.writeMu.Lock()
			e.idx.Reset()
			e.writeMu.Unlock()
			return err
		}
		e.log.Info("index restored from snapshot",
			logger.Int("documents", e.idx.Len()),
			logger.Int("added", res.Added),
			logger.Int("updated", res.Updated),
			logger.Int("removed", res.Removed),
			logger.Duration("elapsed", time.Since(start)))
		if res.Changed() {
			if err := e.PersistIndex(ctx); err != nil {
				e.log.Warn("failed to persist reconciled index snapshot", logger.Error(err))
			}
		}
		return nil
	}

	switch {
	case errors.Is(err, errNoSnapshot):
		e.log.Info("no index snapshot cached, rebuilding")
	case errors.Is(err, index.ErrSnapshotVersion), errors.Is(err, index.ErrCorruptSnapshot):
		e.log.Warn("discarding index snapshot", logger.Error(err))
	default:
		e.log.Warn("index snapshot unavailable", logger.Error(err))
	}

	_, err = e.RebuildIndex(ctx)
	return err
}

var errNoSnapshot = errors.New("no index snapshot")

func (e *Engine) loadSnapshot(ctx context.Context) error {
	entry, err := e.store.GetCache(ctx, index.CacheKey)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if entry == nil || len(entry.Value) == 0 {
		return errNoSnapshot
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.idx.Import(entry.Value)
}

// reconcile aligns the restored index with the current corpus.
func (e *Engine) reconcile(ctx context.Context) (index.ReconcileResult, error) {
	docs, err := e.corpusDocuments(ctx)
	if err != nil {
		return index.ReconcileResult{}, fmt.Errorf("reconcile snapshot: %w", err)
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.idx.Reconcile(docs), nil
}

func (e *Engine) corpusDocuments(ctx context.Context) ([]index.Document, error) {
	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	docs := make([]index.Document, 0, len(corpus))
	for _, b := range corpus {
		if b != nil && b.ID != "" {
			docs = append(docs, index.NewDocument(b))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// RebuildIndex indexes the whole corpus from scratch and persists a fresh
// snapshot. It returns the number of indexed bookmarks.
func (e *Engine) RebuildIndex(ctx context.Context) (int, error) {
	start := time.Now()
	docs, err := e.corpusDocuments(ctx)
	if err != nil {
		e.log.Error("rebuild: failed to load corpus", logger.Error(err))
		return 0, err
	}

	e.writeMu.Lock()
	e.idx.Rebuild(docs)
	e.writeMu.Unlock()

	e.log.Info("index rebuilt",
		logger.Int("documents", len(docs)),
		logger.Duration("elapsed", time.Since(start)))

	if err := e.PersistIndex(ctx); err != nil {
		// The in-memory index is usable; only the cold start cache is lost.
		e.log.Warn("failed to persist index snapshot", logger.Error(err))
	}
	return len(docs), nil
}

// PersistIndex writes the current index snapshot to the store cache.
func (e *Engine) PersistIndex(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	data, err := e.idx.Export()
	if err != nil {
		return err
	}
	entry := &domain.CacheEntry{Key: index.CacheKey, Timestamp: e.now(), Value: data}
	if err := e.store.SetCache(ctx, entry); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// IndexBookmark adds a bookmark to the index.
func (e *Engine) IndexBookmark(b *domain.Bookmark) {
	if b == nil || b.ID == "" {
		return
	}
	doc := index.NewDocument(b)
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.idx.Add(doc)
}

// UpdateBookmark re-tokenizes an edited bookmark.
func (e *Engine) UpdateBookmark(b *domain.Bookmark) {
	if b == nil || b.ID == "" {
		return
	}
	doc := index.NewDocument(b)
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.idx.Update(doc)
}

// RemoveBookmark drops a bookmark from the index. It reports whether the
// bookmark was indexed.
func (e *Engine) RemoveBookmark(id string) bool {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.idx.Remove(id)
}
