package similarity

import (
	"context"
	"math"
	"sort"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

const (
	DefaultThreshold = 0.3
	DefaultMaxPairs  = 100

	// earlyExitFactor bounds how many qualifying pairs are collected
	// before the scan stops, relative to the requested maximum.
	earlyExitFactor = 3
)

// Pair is two related bookmarks and their score.
type Pair struct {
	A            *domain.Bookmark `json:"a"`
	B            *domain.Bookmark `json:"b"`
	Score        float64          `json:"score"`
	SameDomain   bool             `json:"sameDomain"`
	SameCategory bool             `json:"sameCategory"`
}

// PairOptions configures SimilarPairs. Zero values take the defaults.
type PairOptions struct {
	Threshold float64
	MaxPairs  int
}

func (o PairOptions) withDefaults() PairOptions {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxPairs <= 0 {
		o.MaxPairs = DefaultMaxPairs
	}
	return o
}

// vector keeps its terms sorted so every sum runs in the same order.
type vector struct {
	terms   []string
	weights []float64
	norm    float64
}

// Model holds one TF-IDF vector per bookmark of a corpus.
type Model struct {
	bookmarks []*domain.Bookmark
	idf       map[string]float64
	vectors   []vector
}

// NewModel builds TF-IDF vectors from the weighted token bags of the
// corpus. tf is count/len of the bag, idf is ln(N/df).
func NewModel(bookmarks []*domain.Bookmark, analyzer textproc.Analyzer) *Model {
	n := len(bookmarks)
	bags := make([]map[string]int, n)
	lengths := make([]int, n)
	df := make(map[string]int)

	for i, b := range bookmarks {
		tokens := analyzer.ExtractWords(b)
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		for tok := range counts {
			df[tok]++
		}
		bags[i] = counts
		lengths[i] = len(tokens)
	}

	idf := make(map[string]float64, len(df))
	for tok, d := range df {
		idf[tok] = math.Log(float64(n) / float64(d))
	}

	vectors := make([]vector, n)
	for i, counts := range bags {
		if lengths[i] == 0 {
			continue
		}
		terms := make([]string, 0, len(counts))
		for tok := range counts {
			terms = append(terms, tok)
		}
		sort.Strings(terms)

		v := vector{terms: make([]string, 0, len(terms)), weights: make([]float64, 0, len(terms))}
		var sq float64
		for _, tok := range terms {
			w := float64(counts[tok]) / float64(lengths[i]) * idf[tok]
			if w == 0 {
				continue
			}
			v.terms = append(v.terms, tok)
			v.weights = append(v.weights, w)
			sq += w * w
		}
		v.norm = math.Sqrt(sq)
		vectors[i] = v
	}

	return &Model{bookmarks: bookmarks, idf: idf, vectors: vectors}
}

// Len returns the corpus size.
func (m *Model) Len() int { return len(m.vectors) }

// Similarity is the cosine similarity of bookmarks i and j.
func (m *Model) Similarity(i, j int) float64 {
	return cosine(m.vectors[i], m.vectors[j])
}

func cosine(a, b vector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Merge over the shared terms in sorted order.
	var dot float64
	for i, j := 0, 0; i < len(a.terms) && j < len(b.terms); {
		switch {
		case a.terms[i] < b.terms[j]:
			i++
		case a.terms[i] > b.terms[j]:
			j++
		default:
			dot += a.weights[i] * b.weights[j]
			i++
			j++
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// SimilarPairs returns the bookmark pairs whose cosine similarity reaches
// the threshold, best first, at most MaxPairs. Pairs with identical URLs
// are skipped. The scan stops once 3x MaxPairs pairs are collected.
func SimilarPairs(ctx context.Context, bookmarks []*domain.Bookmark, analyzer textproc.Analyzer, opts PairOptions) ([]Pair, error) {
	opts = opts.withDefaults()
	m := NewModel(bookmarks, analyzer)
	limit := earlyExitFactor * opts.MaxPairs

	var pairs []Pair
scan:
	for i := 0; i < m.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < m.Len(); j++ {
			a, b := m.bookmarks[i], m.bookmarks[j]
			if a.URL != "" && a.URL == b.URL {
				continue
			}
			score := m.Similarity(i, j)
			if score < opts.Threshold {
				continue
			}
			pairs = append(pairs, newPair(a, b, score))
			if len(pairs) >= limit {
				break scan
			}
		}
	}

	sortPairs(pairs)
	if len(pairs) > opts.MaxPairs {
		pairs = pairs[:opts.MaxPairs]
	}
	return pairs, nil
}

func newPair(a, b *domain.Bookmark, score float64) Pair {
	return Pair{
		A:            a,
		B:            b,
		Score:        score,
		SameDomain:   sameDomain(a, b),
		SameCategory: sameCategory(a, b),
	}
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].A.ID != pairs[j].A.ID {
			return pairs[i].A.ID < pairs[j].A.ID
		}
		return pairs[i].B.ID < pairs[j].B.ID
	})
}
