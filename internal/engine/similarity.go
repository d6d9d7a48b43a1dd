package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/tidymark/internal/codec"
	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/similarity"
)

// PairCacheKey is the cache entry holding TF-IDF pairs for a threshold.
func PairCacheKey(threshold float64) string {
	return "similar_bookmarks_" + strconv.FormatFloat(threshold, 'f', -1, 64)
}

type cachedPair struct {
	A            string  `cbor:"a"`
	B            string  `cbor:"b"`
	Score        float64 `cbor:"s"`
	SameDomain   bool    `cbor:"sd"`
	SameCategory bool    `cbor:"sc"`
}

type cachedPairs struct {
	MaxPairs int          `cbor:"max"`
	Pairs    []cachedPair `cbor:"pairs"`
}

// FindSimilarPairs returns TF-IDF cosine pairs at or above threshold.
// Results are cached per threshold; a cached list is reused when it was
// computed for at least maxPairs pairs and is younger than the pair TTL.
func (e *Engine) FindSimilarPairs(ctx context.Context, threshold float64, maxPairs int) ([]similarity.Pair, error) {
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	if maxPairs <= 0 {
		maxPairs = similarity.DefaultMaxPairs
	}

	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		e.log.Error("similar pairs: failed to load corpus", logger.Error(err))
		return []similarity.Pair{}, fmt.Errorf("load corpus: %w", err)
	}

	key := PairCacheKey(threshold)
	if pairs, ok := e.cachedPairs(ctx, key, corpus, maxPairs); ok {
		return pairs, nil
	}

	pairs, err := similarity.SimilarPairs(ctx, corpus, e.cfg.Analyzer, similarity.PairOptions{
		Threshold: threshold,
		MaxPairs:  maxPairs,
	})
	if err != nil {
		return []similarity.Pair{}, err
	}

	e.storePairs(ctx, key, maxPairs, pairs)
	return pairs, nil
}

func (e *Engine) cachedPairs(ctx context.Context, key string, corpus []*domain.Bookmark, maxPairs int) ([]similarity.Pair, bool) {
	entry, err := e.store.GetCache(ctx, key)
	if err != nil {
		e.log.Warn("similar pairs: cache read failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	if entry == nil || entry.Expired(e.now(), e.cfg.PairCacheTTL) {
		return nil, false
	}

	var cached cachedPairs
	if err := codec.Unmarshal(entry.Value, &cached); err != nil {
		e.log.Warn("similar pairs: discarding unreadable cache entry", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	if cached.MaxPairs < maxPairs {
		return nil, false
	}

	byID := make(map[string]*domain.Bookmark, len(corpus))
	for _, b := range corpus {
		byID[b.ID] = b
	}
	pairs := make([]similarity.Pair, 0, min(len(cached.Pairs), maxPairs))
	for _, c := range cached.Pairs {
		if len(pairs) == maxPairs {
			break
		}
		a, okA := byID[c.A]
		b, okB := byID[c.B]
		if !okA || !okB {
			// The corpus changed underneath the cache entry.
			return nil, false
		}
		pairs = append(pairs, similarity.Pair{
			A: a, B: b, Score: c.Score, SameDomain: c.SameDomain, SameCategory: c.SameCategory,
		})
	}
	return pairs, true
}

func (e *Engine) storePairs(ctx context.Context, key string, maxPairs int, pairs []similarity.Pair) {
	cached := cachedPairs{MaxPairs: maxPairs, Pairs: make([]cachedPair, len(pairs))}
	for i, p := range pairs {
		cached.Pairs[i] = cachedPair{A: p.A.ID, B: p.B.ID, Score: p.Score, SameDomain: p.SameDomain, SameCategory: p.SameCategory}
	}
	data, err := codec.Marshal(cached)
	if err != nil {
		e.log.Warn("similar pairs: encode failed", logger.Error(err))
		return
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if err := e.store.SetCache(ctx, &domain.CacheEntry{Key: key, Timestamp: e.now(), Value: data}); err != nil {
		e.log.Warn("similar pairs: cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// FindDuplicates groups the corpus by exact and normalized URL.
func (e *Engine) FindDuplicates(ctx context.Context) (similarity.Duplicates, error) {
	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		e.log.Error("duplicates: failed to load corpus", logger.Error(err))
		return similarity.Duplicates{}, fmt.Errorf("load corpus: %w", err)
	}
	return similarity.FindDuplicates(corpus), nil
}

// FindFuzzyPairs runs the corpus-wide fuzzy scan.
func (e *Engine) FindFuzzyPairs(ctx context.Context, opts similarity.FuzzyOptions) ([]similarity.FuzzyPair, error) {
	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		e.log.Error("fuzzy pairs: failed to load corpus", logger.Error(err))
		return []similarity.FuzzyPair{}, fmt.Errorf("load corpus: %w", err)
	}
	pairs, err := similarity.FindFuzzyPairs(ctx, corpus, opts)
	if err != nil {
		return []similarity.FuzzyPair{}, err
	}
	return pairs, nil
}

// ComputeSimilarityForBookmark scores the narrowed candidate set of one
// bookmark, stores the best topN records and returns them.
func (e *Engine) ComputeSimilarityForBookmark(ctx context.Context, id string, topN int) ([]domain.SimilarityRecord, error) {
	target, err := e.store.GetBookmark(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load bookmark %s: %w", id, err)
	}

	var byDomain, byCategory, corpus []*domain.Bookmark
	if d := target.HostDomain(); d != "" {
		if byDomain, err = e.store.GetBookmarksByDomain(ctx, d); err != nil {
			return nil, fmt.Errorf("candidates by domain: %w", err)
		}
	}
	if target.Category != "" {
		if byCategory, err = e.store.GetBookmarksByCategory(ctx, target.Category); err != nil {
			return nil, fmt.Errorf("candidates by category: %w", err)
		}
	}
	if len(target.Keywords) > 0 {
		if corpus, err = e.store.GetAllBookmarks(ctx); err != nil {
			return nil, fmt.Errorf("candidates by keyword: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now()
	candidates := similarity.SelectCandidates(target, byDomain, byCategory, corpus)
	records := similarity.RankCandidates(target, candidates, topN, now)

	e.writeMu.Lock()
	err = e.store.StoreSimilarities(ctx, id, domain.SimilaritySet{ComputedAt: now, Records: records})
	e.writeMu.Unlock()
	if err != nil {
		e.log.Error("failed to store similarity records", logger.String("bookmark_id", id), logger.Error(err))
		return records, fmt.Errorf("store similarities: %w", err)
	}
	return records, nil
}

// SimilarBookmarks returns the stored records of a bookmark, recomputing
// them when missing or older than the record TTL. A fresh empty set is
// served as is.
func (e *Engine) SimilarBookmarks(ctx context.Context, id string) ([]domain.SimilarityRecord, error) {
	set, ok, err := e.store.GetStoredSimilarities(ctx, id)
	if err != nil {
		e.log.Warn("stored similarities unavailable, recomputing", logger.String("bookmark_id", id), logger.Error(err))
	} else if ok && set.Fresh(e.now(), e.cfg.RecordTTL) {
		return set.Records, nil
	}
	return e.ComputeSimilarityForBookmark(ctx, id, similarity.DefaultTopN)
}

// PrecomputeResult summarizes a batch precompute run.
type PrecomputeResult struct {
	Total    int           `json:"total"`
	Computed int           `json:"computed"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// PrecomputeSimilarities walks every enriched bookmark and refreshes its
// similarity records with bounded parallelism, logging progress every 10
// completions. Failures of single bookmarks are counted, not fatal.
func (e *Engine) PrecomputeSimilarities(ctx context.Context) (PrecomputeResult, error) {
	start := time.Now()
	corpus, err := e.store.GetAllBookmarks(ctx)
	if err != nil {
		return PrecomputeResult{}, fmt.Errorf("load corpus: %w", err)
	}

	targets := make([]string, 0, len(corpus))
	for _, b := range corpus {
		if b.IsEnriched() {
			targets = append(targets, b.ID)
		}
	}

	var done, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PrecomputeWorkers)

	for _, id := range targets {
		g.Go(func() error {
			if _, err := e.ComputeSimilarityForBookmark(gctx, id, similarity.DefaultTopN); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				e.log.Warn("precompute failed", logger.String("bookmark_id", id), logger.Error(err))
			}
			if n := done.Add(1); n%10 == 0 {
				e.log.Info("precompute progress",
					logger.Int("done", int(n)),
					logger.Int("total", len(targets)))
			}
			return nil
		})
	}

	err = g.Wait()
	res := PrecomputeResult{
		Total:    len(targets),
		Computed: int(done.Load() - failed.Load()),
		Failed:   int(failed.Load()),
		Elapsed:  time.Since(start),
	}
	if err != nil {
		return res, err
	}
	return res, nil
}
