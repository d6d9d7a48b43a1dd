package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/logger"
	"github.com/MrSnakeDoc/tidymark/internal/query"
	"github.com/MrSnakeDoc/tidymark/internal/stats"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

// Mode tells whether the field index served the query.
type Mode int

const (
	ModeOK Mode = iota
	// ModeDegradedFallback means the index failed and a linear scan over
	// the same fields produced the results.
	ModeDegradedFallback
)

func (m Mode) String() string {
	if m == ModeDegradedFallback {
		return "degraded_fallback"
	}
	return "ok"
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Result is one ranked bookmark.
type Result struct {
	Bookmark *domain.Bookmark `json:"bookmark"`
	Score    float64          `json:"score"`
}

// Outcome is what Search returns. Results is one page; Total counts the
// full filtered set, as does Stats when requested.
type Outcome struct {
	Results        []Result             `json:"results"`
	Total          int                  `json:"total"`
	HasMore        bool                 `json:"hasMore"`
	Stats          *stats.FacetStats    `json:"stats,omitempty"`
	Parsed         *query.ParsedQuery   `json:"parsedQuery,omitempty"`
	Special        query.SpecialFilters `json:"specialFilters"`
	Mode           Mode                 `json:"mode"`
	DegradedReason string               `json:"degradedReason,omitempty"`
}

// Index is the part of the field index the searcher needs.
type Index interface {
	Search(terms []string, fields []index.Field, boost index.Boost) ([]index.Hit, error)
}

// Searcher runs the search pipeline over a corpus snapshot.
type Searcher struct {
	idx Index
	log logger.Logger
	now func() time.Time
}

// New creates a Searcher. A nil idx always takes the linear fallback.
func New(idx Index, log logger.Logger) *Searcher {
	return &Searcher{idx: idx, log: log, now: time.Now}
}

// Search filters, matches, ranks and paginates corpus.
//
// Structural filters apply first. Without query text the filtered set is
// only sorted and paginated. Otherwise special filters run as predicates,
// regular terms are looked up in the field index (or scanned linearly when
// the index fails), and every candidate is re-validated against the full
// boolean semantics before scoring.
func (s *Searcher) Search(ctx context.Context, corpus []*domain.Bookmark, raw string, filters Filters, opts Options) (*Outcome, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	m := matcher{f: filters, now: s.now(), staleAfter: opts.StaleAfter}

	filtered := make([]*domain.Bookmark, 0, len(corpus))
	for _, b := range corpus {
		if b != nil && m.match(b) {
			filtered = append(filtered, b)
		}
	}

	out := &Outcome{Mode: ModeOK}
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return s.finish(out, toResults(filtered), false, opts, m.now), nil
	}

	special, parsed := query.Parse(raw)
	out.Special, out.Parsed = special, parsed
	for _, w := range parsed.Warnings {
		s.log.Warn("query pattern dropped", logger.String("query", raw), logger.String("warning", w))
	}

	if !special.IsEmpty() {
		kept := make([]*domain.Bookmark, 0, len(filtered))
		for _, b := range filtered {
			if m.matchSpecial(b, special) {
				kept = append(kept, b)
			}
		}
		filtered = kept
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := filtered
	if len(parsed.Regular) > 0 && indexable(parsed.Regular) {
		candidates = s.narrow(filtered, parsed.Regular, opts, out)
	}

	results := make([]Result, 0, len(candidates))
	for _, b := range candidates {
		if !parsed.Matches(searchableText(b)) {
			continue
		}
		results = append(results, Result{Bookmark: b, Score: relevance(b, parsed)})
	}

	return s.finish(out, results, parsed.HasTerms(), opts, m.now), nil
}

// narrow keeps the bookmarks the field index returns for the regular
// terms. If the index fails it falls back to a linear scan and marks the
// outcome degraded.
func (s *Searcher) narrow(bookmarks []*domain.Bookmark, terms []string, opts Options, out *Outcome) []*domain.Bookmark {
	var hits []index.Hit
	err := index.ErrIndexNotReady
	if s.idx != nil {
		hits, err = s.idx.Search(terms, opts.Fields, opts.Boost)
	}
	if err != nil {
		out.Mode = ModeDegradedFallback
		out.DegradedReason = err.Error()
		s.log.Warn("field index unavailable, using linear scan", logger.Error(err))

		kept := make([]*domain.Bookmark, 0, len(bookmarks))
		for _, b := range bookmarks {
			if linearMatch(b, terms, opts.Fields) {
				kept = append(kept, b)
			}
		}
		return kept
	}

	ids := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		ids[h.ID] = struct{}{}
	}
	kept := make([]*domain.Bookmark, 0, len(hits))
	for _, b := range bookmarks {
		if _, ok := ids[b.ID]; ok {
			kept = append(kept, b)
		}
	}
	return kept
}

// finish sorts, computes stats over the full set and cuts the page.
func (s *Searcher) finish(out *Outcome, results []Result, hasText bool, opts Options, now time.Time) *Outcome {
	order := opts.SortBy
	if order == SortAuto {
		order = SortDateDesc
		if hasText {
			order = SortRelevance
		}
	}
	sortResults(results, order, opts.TieBreak)

	out.Total = len(results)
	if opts.ComputeStats {
		acc := stats.NewAccumulator(now)
		for _, r := range results {
			acc.Add(r.Bookmark)
		}
		out.Stats = acc.Result()
	}

	start := min(opts.Offset, len(results))
	end := min(start+opts.Limit, len(results))
	out.Results = results[start:end]
	out.HasMore = end < len(results)
	return out
}

// indexable reports whether every term has at least one word the field
// index can look up. Regular terms are OR-ed, so one term made only of
// symbols ("++") would let the index drop valid matches.
func indexable(terms []string) bool {
	for _, t := range terms {
		if len(textproc.Terms(t)) == 0 {
			return false
		}
	}
	return true
}

func toResults(bookmarks []*domain.Bookmark) []Result {
	out := make([]Result, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = Result{Bookmark: b}
	}
	return out
}
