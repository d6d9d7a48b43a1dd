package search

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/index"
	"github.com/MrSnakeDoc/tidymark/internal/query"
)

// Relevance points per matched term.
const (
	scoreTitle       = 10
	scoreTitlePrefix = 5
	scoreDomain      = 5
	scoreCategory    = 4
	scoreDescription = 2
	scoreURL         = 1

	scoreRegexTitle       = 8
	scoreRegexURL         = 3
	scoreRegexDescription = 2
)

// relevance scores a bookmark against the positive, regular and phrase
// terms plus every regex of the query.
func relevance(b *domain.Bookmark, q *query.ParsedQuery) float64 {
	title := strings.ToLower(b.Title)
	dom := b.HostDomain()
	category := strings.ToLower(b.Category)
	desc := strings.ToLower(b.Description)
	u := strings.ToLower(b.URL)

	var score float64
	scoreTerm := func(term string) {
		if strings.Contains(title, term) {
			score += scoreTitle
			if strings.HasPrefix(title, term) {
				score += scoreTitlePrefix
			}
		}
		if strings.Contains(dom, term) {
			score += scoreDomain
		}
		if strings.Contains(category, term) {
			score += scoreCategory
		}
		if strings.Contains(desc, term) {
			score += scoreDescription
		}
		if strings.Contains(u, term) {
			score += scoreURL
		}
	}
	for _, t := range q.Positive {
		scoreTerm(t)
	}
	for _, t := range q.Regular {
		scoreTerm(t)
	}
	for _, t := range q.Phrases {
		scoreTerm(t)
	}

	for _, re := range q.RegexPatterns {
		if re.MatchString(b.Title) {
			score += scoreRegexTitle
		}
		if re.MatchString(b.URL) {
			score += scoreRegexURL
		}
		if re.MatchString(b.Description) {
			score += scoreRegexDescription
		}
	}
	return score
}

// searchableText is the concatenation the boolean query semantics are
// checked against.
func searchableText(b *domain.Bookmark) string {
	parts := make([]string, 0, len(index.AllFields))
	for _, f := range index.AllFields {
		if s := index.FieldText(b, f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// linearMatch is the fallback for the field index: a substring test of
// every regular term over the same fields.
func linearMatch(b *domain.Bookmark, terms []string, fields []index.Field) bool {
	if len(fields) == 0 {
		fields = index.AllFields
	}
	for _, f := range fields {
		text := strings.ToLower(index.FieldText(b, f))
		for _, t := range terms {
			if strings.Contains(text, t) {
				return true
			}
		}
	}
	return false
}

type lessFunc func(a, b *domain.Bookmark) int

func comparator(order SortOrder) lessFunc {
	switch order {
	case SortDateAsc:
		return func(a, b *domain.Bookmark) int { return a.DateAdded.Compare(b.DateAdded) }
	case SortTitleAsc:
		return func(a, b *domain.Bookmark) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case SortTitleDesc:
		return func(a, b *domain.Bookmark) int { return strings.Compare(strings.ToLower(b.Title), strings.ToLower(a.Title)) }
	case SortDomainAsc:
		return func(a, b *domain.Bookmark) int { return strings.Compare(a.HostDomain(), b.HostDomain()) }
	case SortAccessedDesc:
		return compareAccessed
	default:
		return func(a, b *domain.Bookmark) int { return b.DateAdded.Compare(a.DateAdded) }
	}
}

// compareAccessed puts the most recently opened first; never-opened
// bookmarks go last, ordered by access count.
func compareAccessed(a, b *domain.Bookmark) int {
	switch {
	case a.LastAccessed != nil && b.LastAccessed != nil:
		if c := b.LastAccessed.Compare(*a.LastAccessed); c != 0 {
			return c
		}
	case a.LastAccessed != nil:
		return -1
	case b.LastAccessed != nil:
		return 1
	}
	return b.AccessCount - a.AccessCount
}

// sortResults orders results in place. Relevance falls back to tieBreak,
// and ID settles whatever remains.
func sortResults(results []Result, order, tieBreak SortOrder) {
	tie := comparator(tieBreak)
	primary := comparator(order)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if order == SortRelevance {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if c := tie(a.Bookmark, b.Bookmark); c != 0 {
				return c < 0
			}
		} else if c := primary(a.Bookmark, b.Bookmark); c != 0 {
			return c < 0
		}
		return a.Bookmark.ID < b.Bookmark.ID
	})
}
