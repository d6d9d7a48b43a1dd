// Package engine is the facade the HTTP layer and the schedulers talk to.
// It owns the field index and serializes every write to the index and to
// the cache entries it keeps in the Bookmark Store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/search"
	"github.com/MrSnakeDoc/tidymark/internal/stats"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

const (
	DefaultPairCacheTTL      = 5 * time.Minute
	DefaultPrecomputeWorkers = 4
)

// Config tunes the engine. Zero values take defaults.
type Config struct {
	Analyzer textproc.Analyzer

	// PairCacheTTL is the lifetime of cached TF-IDF pair lists.
	PairCacheTTL time.Duration
	// RecordTTL is the age after which stored similarity records are
	// recomputed on read.
	RecordTTL time.Duration
	// StaleAfter is the default age for the stale filters.
	StaleAfter time.Duration

	PrecomputeWorkers int
}

func (c Config) withDefaults() Config {
	if c.PairCacheTTL <= 0 {
		c.PairCacheTTL = DefaultPairCacheTTL
	}
	if c.RecordTTL <= 0 {
		c.RecordTTL = domain.DefaultRecordTTL
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = search.DefaultStaleAfter
	}
	if c.PrecomputeWorkers <= 0 {
		c.PrecomputeWorkers = DefaultPrecomputeWorkers
	}
	return c
}

// Engine exposes the search and similarity operations.
type Engine struct {
	store    BookmarkStore
	idx      *index.FieldIndex
	searcher *search.Searcher
	log      logger.Logger
	cfg      Config

	// writeMu serializes index mutations and cache writes. Index reads go
	// through the index's own read lock.
	writeMu sync.Mutex

	now func() time.Time
}

// New creates an engine with an empty, not yet ready index.
func New(store BookmarkStore, log logger.Logger, cfg Config) *Engine {
	idx := index.New()
	return &Engine{
		store:    store,
		idx:      idx,
		searcher: search.New(idx, log),
		log:      log,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// IndexStatus describes the field index for health reporting.
type IndexStatus struct {
	Ready     bool      `json:"ready"`
	Documents int       `json:"documents"`
	BuiltAt   time.Time `json:"builtAt"`
}

// IndexStatus reports the current index state.
func (e *Engine) IndexStatus() IndexStatus {
	return IndexStatus{
		Ready:     e.idx.Ready(),
		Documents: e.idx.Len(),
		BuiltAt:   e.idx.BuiltAt(),
	}
}

// SearchBookmarks runs the search pipeline over the current corpus. On a
// store fault it returns an empty outcome together with the error.
func (e *Engine) SearchBookmarks(ctx context.Context, raw string, filters search.Filters, opts search.Options) (*search.Outcome, error) {
	if opts.StaleAfter == 0 {
		opts.StaleAfter = e.cfg.StaleAfter
	}
	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		e.log.Error("search: failed to load corpus", logger.Error(err))
		return &search.Outcome{Results: []search.Result{}}, fmt.Errorf("load corpus: %w", err)
	}
	return e.searcher.Search(ctx, corpus, raw, filters, opts)
}

// ComputeSearchResultStats aggregates facet counts over bookmarks.
func (e *Engine) ComputeSearchResultStats(bookmarks []*domain.Bookmark) *stats.FacetStats {
	return stats.Compute(bookmarks, e.now())
}

// ResolveBookmarks loads bookmarks by ID, skipping unknown ones. No IDs
// means the whole corpus.
func (e *Engine) ResolveBookmarks(ctx context.Context, ids []string) ([]*domain.Bookmark, error) {
	if len(ids) == 0 {
		all, err := e.store.GetAllBookmarks(ctx)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		return all, nil
	}
	out := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		b, err := e.store.GetBookmark(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load bookmark %s: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}
