package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/sources/export"
)

// ImportStore is the part of the Bookmark Store the importer writes to.
type ImportStore interface {
	GetAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error)
	SaveBookmarksMany(ctx context.Context, bookmarks []*domain.Bookmark) error
	DeleteBookmark(ctx context.Context, id string) error
}

// Indexer receives incremental index changes.
type Indexer interface {
	IndexBookmark(b *domain.Bookmark)
	UpdateBookmark(b *domain.Bookmark)
	RemoveBookmark(id string) bool
}

// BookmarkReloader handles periodic import of the bookmarks export file
type BookmarkReloader struct {
	loader *export.Loader
	mapper *export.Mapper
	store  ImportStore
	index  Indexer
	logger logger.Logger
	loop   *loop
}

// NewBookmarkReloader creates a new bookmark reloader
func NewBookmarkReloader(
	bookmarkFile string,
	store ImportStore,
	idx Indexer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *BookmarkReloader {
	br := &BookmarkReloader{
		loader: export.NewLoader(bookmarkFile),
		mapper: export.NewMapper(),
		store:  store,
		index:  idx,
		logger: log,
	}
	br.loop = newLoop("bookmark_reload", interval, manualTrigger, log, func(ctx context.Context) error {
		_, err := br.Reload(ctx)
		return err
	})
	return br
}

// Start imports once, then begins the periodic reload process
func (br *BookmarkReloader) Start(ctx context.Context) error {
	if _, err := br.Reload(ctx); err != nil {
		return fmt.Errorf("initial bookmark reload failed: %w", err)
	}
	br.loop.start(ctx)
	return nil
}

// Stop stops the reloader
func (br *BookmarkReloader) Stop() {
	br.loop.stop()
}

// Reload imports the export file, persists the difference to the store
// and applies it to the index. The index is only touched for changes the
// store accepted.
func (br *BookmarkReloader) Reload(ctx context.Context) (export.Diff, error) {
	f, err := br.loader.Load()
	if err != nil {
		return export.Diff{}, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	res := br.mapper.Map(f)
	for _, reason := range res.Skipped {
		br.logger.Warn("skipping bookmark entry", logger.String("reason", reason))
	}

	current, err := br.store.GetAllBookmarks(ctx)
	if err != nil {
		return export.Diff{}, fmt.Errorf("failed to read stored bookmarks: %w", err)
	}

	diff := export.Compare(current, res.Bookmarks)
	if diff.Empty() {
		br.logger.Debug("bookmarks unchanged", logger.Int("count", len(res.Bookmarks)))
		return diff, nil
	}

	changed := append(append([]*domain.Bookmark{}, diff.Added...), diff.Updated...)
	if len(changed) > 0 {
		if err := br.store.SaveBookmarksMany(ctx, changed); err != nil {
			return export.Diff{}, fmt.Errorf("failed to save bookmarks: %w", err)
		}
	}
	for _, b := range diff.Added {
		br.index.IndexBookmark(b)
	}
	for _, b := range diff.Updated {
		br.index.UpdateBookmark(b)
	}

	var errs []error
	removed := diff.Removed[:0:0]
	for _, id := range diff.Removed {
		if err := br.store.DeleteBookmark(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		br.index.RemoveBookmark(id)
		removed = append(removed, id)
	}
	diff.Removed = removed

	br.logger.Info("bookmarks imported",
		logger.Int("added", len(diff.Added)),
		logger.Int("updated", len(diff.Updated)),
		logger.Int("removed", len(diff.Removed)),
		logger.Int("skipped", len(res.Skipped)))

	return diff, errors.Join(errs...)
}
