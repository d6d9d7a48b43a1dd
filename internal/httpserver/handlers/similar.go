package handlers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tidymark/internal/similarity"
)

type pairsResponse[T any] struct {
	Count int `json:"count"`
	Pairs []T `json:"pairs"`
}

type recordsResponse struct {
	BookmarkID string                    `json:"bookmarkId"`
	Similar    []domain.SimilarityRecord `json:"similar"`
}

// validScore accepts scores in (0,1]. Zero is rejected because the
// similarity options treat it as unset.
func validScore(key string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return badRequest("%s must be within (0,1]", key)
	}
	return nil
}

// SimilarPairs lists TF-IDF cosine pairs.
func SimilarPairs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := newParams(r.URL.Query())
		threshold := p.float("threshold", d.SimilarThreshold)
		maxPairs := p.integer("max", similarity.DefaultMaxPairs)
		if p.err == nil {
			p.err = validScore("threshold", threshold)
		}
		if p.err != nil {
			writeError(w, p.err)
			return
		}

		pairs, err := d.Engine.FindSimilarPairs(r.Context(), threshold, maxPairs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pairsResponse[similarity.Pair]{Count: len(pairs), Pairs: pairs})
	}
}

// FuzzyPairs lists pairs of the multi-feature fuzzy scan.
func FuzzyPairs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := newParams(r.URL.Query())
		opts := similarity.DefaultFuzzyOptions()
		opts.MinSimilarity = p.float("min", d.FuzzyMinSimilarity)
		opts.MaxPairs = p.integer("max", opts.MaxPairs)
		opts.IncludeCrossDomain = p.boolean("cross", opts.IncludeCrossDomain)
		opts.SampleSize = p.integer("sample", opts.SampleSize)
		opts.Seed = uint64(p.integer("seed", int(opts.Seed)))
		if p.err == nil {
			p.err = validScore("min", opts.MinSimilarity)
		}
		if p.err != nil {
			writeError(w, p.err)
			return
		}

		pairs, err := d.Engine.FindFuzzyPairs(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pairsResponse[similarity.FuzzyPair]{Count: len(pairs), Pairs: pairs})
	}
}

// Duplicates groups bookmarks sharing an exact or normalized URL.
func Duplicates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dups, err := d.Engine.FindDuplicates(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dups)
	}
}

// BookmarkSimilar serves the stored records of a bookmark, recomputing
// stale ones.
func BookmarkSimilar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		records, err := d.Engine.SimilarBookmarks(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recordsResponse{BookmarkID: id, Similar: records})
	}
}

// RecomputeBookmarkSimilar forces a fresh computation for one bookmark.
func RecomputeBookmarkSimilar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p := newParams(r.URL.Query())
		top := p.integer("top", similarity.DefaultTopN)
		if p.err == nil && top < 1 {
			p.err = badRequest("top must be >= 1")
		}
		if p.err != nil {
			writeError(w, p.err)
			return
		}

		records, err := d.Engine.ComputeSimilarityForBookmark(r.Context(), id, top)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, recordsResponse{BookmarkID: id, Similar: records})
	}
}
