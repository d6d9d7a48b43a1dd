package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

func tfidfCorpus() []*domain.Bookmark {
	return []*domain.Bookmark{
		{ID: "1", URL: "https://a.com/1", Title: "Rust ownership explained", Keywords: []string{"rust", "memory"}},
		{ID: "2", URL: "https://b.com/2", Title: "Understanding Rust ownership", Keywords: []string{"rust"}},
		{ID: "3", URL: "https://c.com/3", Title: "Python decorators tutorial", Keywords: []string{"python"}},
		{ID: "4", URL: "https://d.com/4", Title: "Sourdough bread recipe", Category: "Cooking"},
		{ID: "5", URL: "https://a.com/1", Title: "Rust ownership explained again"},
		{ID: "6", URL: "https://e.com/6", Title: "Python generators tutorial", Keywords: []string{"python"}},
	}
}

func TestModel_Symmetry(t *testing.T) {
	m := NewModel(tfidfCorpus(), textproc.Default)
	for i := 0; i < m.Len(); i++ {
		for j := 0; j < m.Len(); j++ {
			if a, b := m.Similarity(i, j), m.Similarity(j, i); a != b {
				t.Errorf("Similarity(%d,%d) = %v, Similarity(%d,%d) = %v, want equal", i, j, a, j, i, b)
			}
		}
	}
}

// wideCorpus gives vectors with many shared terms so that summation order
// would show up in the low bits.
func wideCorpus() []*domain.Bookmark {
	words := []string{"rust", "ownership", "borrow", "checker", "lifetime", "trait", "generic", "async",
		"tokio", "runtime", "memory", "safety", "compiler", "macro", "crate", "cargo"}
	out := make([]*domain.Bookmark, 30)
	for i := range out {
		title := ""
		for k := 0; k < 8; k++ {
			title += words[(i*3+k*5)%len(words)] + " "
		}
		out[i] = &domain.Bookmark{ID: fmt.Sprintf("b%02d", i), URL: fmt.Sprintf("https://x.dev/%d", i), Title: title}
	}
	return out
}

func TestModel_Deterministic(t *testing.T) {
	corpus := wideCorpus()
	first := NewModel(corpus, textproc.Default)
	for trial := 0; trial < 20; trial++ {
		m := NewModel(corpus, textproc.Default)
		for i := 0; i < m.Len(); i++ {
			for j := 0; j < m.Len(); j++ {
				got, want := m.Similarity(i, j), first.Similarity(i, j)
				if got != want {
					t.Fatalf("trial %d: Similarity(%d,%d) = %v, want %v", trial, i, j, got, want)
				}
				if back := m.Similarity(j, i); back != got {
					t.Fatalf("trial %d: Similarity(%d,%d) = %v, reverse = %v", trial, i, j, got, back)
				}
			}
		}
	}
}

func TestModel_Range(t *testing.T) {
	m := NewModel(tfidfCorpus(), textproc.Default)
	for i := 0; i < m.Len(); i++ {
		for j := i + 1; j < m.Len(); j++ {
			s := m.Similarity(i, j)
			if s < 0 || s > 1+1e-9 {
				t.Errorf("Similarity(%d,%d) = %v, want in [0,1]", i, j, s)
			}
		}
	}
	// Recipe shares no term with anything.
	if s := m.Similarity(0, 3); s != 0 {
		t.Errorf("Similarity(rust, recipe) = %v, want 0", s)
	}
}

func TestModel_EmptyBookmark(t *testing.T) {
	m := NewModel([]*domain.Bookmark{{ID: "x"}, {ID: "y", Title: "Rust"}}, textproc.Default)
	if s := m.Similarity(0, 1); s != 0 {
		t.Errorf("Similarity(empty, x) = %v, want 0", s)
	}
}

func TestSimilarPairs(t *testing.T) {
	pairs, err := SimilarPairs(context.Background(), tfidfCorpus(), textproc.Default, PairOptions{Threshold: 0.3})
	if err != nil {
		t.Fatalf("SimilarPairs() error = %v", err)
	}
	if len(pairs) == 0 {
		t.Fatal("SimilarPairs() returned no pairs")
	}
	for i, p := range pairs {
		if p.A.URL == p.B.URL {
			t.Errorf("pair %s/%s shares a URL and should be skipped", p.A.ID, p.B.ID)
		}
		if p.Score < 0.3 {
			t.Errorf("pair %s/%s score %v below threshold", p.A.ID, p.B.ID, p.Score)
		}
		if i > 0 && pairs[i-1].Score < p.Score {
			t.Errorf("pairs not sorted descending at %d", i)
		}
	}
}

func TestSimilarPairs_ThresholdMonotonic(t *testing.T) {
	corpus := tfidfCorpus()
	prev := math.MaxInt
	for _, th := range []float64{0.05, 0.1, 0.3, 0.5, 0.8, 0.99} {
		pairs, err := SimilarPairs(context.Background(), corpus, textproc.Default, PairOptions{Threshold: th})
		if err != nil {
			t.Fatal(err)
		}
		if len(pairs) > prev {
			t.Errorf("threshold %v returned %d pairs, more than %d at a lower threshold", th, len(pairs), prev)
		}
		prev = len(pairs)
	}
}

func TestSimilarPairs_MaxPairs(t *testing.T) {
	pairs, err := SimilarPairs(context.Background(), tfidfCorpus(), textproc.Default, PairOptions{Threshold: 0.01, MaxPairs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Errorf("len(pairs) = %d, want 1", len(pairs))
	}
}

func TestSimilarPairs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SimilarPairs(ctx, tfidfCorpus(), textproc.Default, PairOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("SimilarPairs() error = %v, want context.Canceled", err)
	}
}
