package similarity

import (
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// Per-source caps of SelectCandidates.
const (
	DomainCandidateCap   = 50
	CategoryCandidateCap = 30
	KeywordCandidateCap  = 20

	DefaultTopN = 10
)

// SelectCandidates narrows the comparison set for one target bookmark to
// the union of same-domain, same-category and shared-keyword bookmarks,
// each source capped separately. The target itself is never a candidate.
func SelectCandidates(target *domain.Bookmark, byDomain, byCategory, corpus []*domain.Bookmark) []*domain.Bookmark {
	seen := map[string]struct{}{target.ID: {}}
	var out []*domain.Bookmark

	take := func(source []*domain.Bookmark, limit int, keep func(*domain.Bookmark) bool) {
		taken := 0
		for _, b := range source {
			if taken == limit {
				return
			}
			if b == nil || b.ID == target.ID || !keep(b) {
				continue
			}
			taken++
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			out = append(out, b)
		}
	}
	all := func(*domain.Bookmark) bool { return true }

	take(byDomain, DomainCandidateCap, all)
	take(byCategory, CategoryCandidateCap, all)

	if keywords := lowerSet(target.Keywords); len(keywords) > 0 {
		take(corpus, KeywordCandidateCap, func(b *domain.Bookmark) bool {
			for _, k := range b.Keywords {
				if _, ok := keywords[strings.ToLower(strings.TrimSpace(k))]; ok {
					return true
				}
			}
			return false
		})
	}
	return out
}

// RankCandidates scores candidates against the target with Compare and
// returns the best topN as similarity records stamped with now. Candidates
// scoring zero are dropped.
func RankCandidates(target *domain.Bookmark, candidates []*domain.Bookmark, topN int, now time.Time) []domain.SimilarityRecord {
	if topN <= 0 {
		topN = DefaultTopN
	}
	records := make([]domain.SimilarityRecord, 0, len(candidates))
	for _, c := range candidates {
		cmp := Compare(target, c)
		if cmp.Score <= 0 {
			continue
		}
		records = append(records, domain.SimilarityRecord{
			BookmarkID:        target.ID,
			RelatedBookmarkID: c.ID,
			Score:             cmp.Score,
			SameDomain:        cmp.SameDomain,
			SameCategory:      cmp.SameCategory,
			ComputedAt:        now,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].RelatedBookmarkID < records[j].RelatedBookmarkID
	})
	if len(records) > topN {
		records = records[:topN]
	}
	return records
}
