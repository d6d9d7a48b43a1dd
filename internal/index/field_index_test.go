package index

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

func sampleBookmarks() []*domain.Bookmark {
	return []*domain.Bookmark{
		{ID: "1", URL: "https://doc.rust-lang.org/book/", Title: "The Rust Programming Language", Category: "Programming", Keywords: []string{"rust", "book"}},
		{ID: "2", URL: "https://go.dev/doc/effective_go", Title: "Effective Go", Description: "Tips for writing clear Go code", Category: "Programming"},
		{ID: "3", URL: "https://www.youtube.com/watch?v=abc", Title: "Rust in 100 seconds", Category: "Video"},
	}
}

func buildIndex(t *testing.T) *FieldIndex {
	t.Helper()
	docs := make([]Document, 0, 3)
	for _, b := range sampleBookmarks() {
		docs = append(docs, NewDocument(b))
	}
	idx := New()
	idx.Rebuild(docs)
	return idx
}

func hitIDs(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.ID)
	}
	return out
}

func TestFieldIndex_NotReady(t *testing.T) {
	idx := New()
	_, err := idx.Search([]string{"rust"}, nil, nil)
	if !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Search() error = %v, want ErrIndexNotReady", err)
	}
	if idx.Ready() {
		t.Errorf("Ready() = true before Rebuild")
	}
}

func TestFieldIndex_Reset(t *testing.T) {
	idx := buildIndex(t)
	idx.Reset()

	if idx.Ready() || idx.Len() != 0 || idx.Has("1") {
		t.Errorf("after Reset() ready = %v len = %d, want an empty index that is not ready", idx.Ready(), idx.Len())
	}
	if _, err := idx.Search([]string{"rust"}, nil, nil); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Search() error = %v, want ErrIndexNotReady", err)
	}
	if _, err := idx.Export(); !errors.Is(err, ErrIndexNotReady) {
		t.Errorf("Export() error = %v, want ErrIndexNotReady", err)
	}
}

func TestFieldIndex_Search(t *testing.T) {
	idx := buildIndex(t)

	tests := []struct {
		name   string
		terms  []string
		fields []Field
		want   []string
	}{
		{"title boost wins", []string{"rust"}, nil, []string{"1", "3"}},
		{"prefix match", []string{"effec"}, nil, []string{"2"}},
		{"restricted to category", []string{"video"}, []Field{FieldCategory}, []string{"3"}},
		{"multi word term intersects", []string{"rust-lang"}, []Field{FieldURL}, []string{"1"}},
		{"no match", []string{"haskell"}, nil, []string{}},
		{"empty term skipped", []string{"  "}, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(tt.terms, tt.fields, nil)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			got := hitIDs(hits)
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%v) = %v, want %v", tt.terms, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search(%v)[%d] = %s, want %s", tt.terms, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFieldIndex_ScoreUsesBoost(t *testing.T) {
	idx := buildIndex(t)

	hits, err := idx.Search([]string{"rust"}, []Field{FieldTitle}, Boost{FieldTitle: 7})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.Score != 7 {
			t.Errorf("hit %s score = %v, want 7", h.ID, h.Score)
		}
	}
}

func TestFieldIndex_RemoveAndUpdate(t *testing.T) {
	idx := buildIndex(t)

	if !idx.Remove("1") {
		t.Fatal("Remove(1) = false, want true")
	}
	if idx.Remove("1") {
		t.Errorf("second Remove(1) = true, want false")
	}
	if idx.Has("1") {
		t.Errorf("Has(1) = true after Remove")
	}

	hits, _ := idx.Search([]string{"rust"}, nil, nil)
	if got := hitIDs(hits); len(got) != 1 || got[0] != "3" {
		t.Errorf("Search(rust) after remove = %v, want [3]", got)
	}

	idx.Update(NewDocument(&domain.Bookmark{ID: "3", URL: "https://example.com", Title: "Zig news"}))
	hits, _ = idx.Search([]string{"rust"}, nil, nil)
	if len(hits) != 0 {
		t.Errorf("Search(rust) after update = %v, want none", hitIDs(hits))
	}
	hits, _ = idx.Search([]string{"zig"}, nil, nil)
	if got := hitIDs(hits); len(got) != 1 || got[0] != "3" {
		t.Errorf("Search(zig) = %v, want [3]", got)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestFieldIndex_Reconcile(t *testing.T) {
	idx := buildIndex(t)

	corpus := sampleBookmarks()
	corpus[1].Title = "Effective Zig" // 2 edited
	corpus = append(corpus[:2], &domain.Bookmark{ID: "4", Title: "Kubernetes Handbook"}) // 3 gone, 4 new

	docs := make([]Document, 0, len(corpus))
	for _, b := range corpus {
		docs = append(docs, NewDocument(b))
	}
	res := idx.Reconcile(docs)
	if want := (ReconcileResult{Added: 1, Updated: 1, Removed: 1}); res != want {
		t.Errorf("Reconcile() = %+v, want %+v", res, want)
	}
	if idx.Len() != 3 || idx.Has("3") || !idx.Has("4") {
		t.Errorf("Reconcile() left len=%d has(3)=%v has(4)=%v", idx.Len(), idx.Has("3"), idx.Has("4"))
	}

	hits, _ := idx.Search([]string{"kubernetes"}, nil, nil)
	if got := hitIDs(hits); len(got) != 1 || got[0] != "4" {
		t.Errorf("Search(kubernetes) = %v, want [4]", got)
	}
	hits, _ = idx.Search([]string{"zig"}, nil, nil)
	if got := hitIDs(hits); len(got) != 1 || got[0] != "2" {
		t.Errorf("Search(zig) = %v, want [2]", got)
	}

	if res := idx.Reconcile(docs); res.Changed() {
		t.Errorf("second Reconcile() = %+v, want no changes", res)
	}
}

func TestFieldIndex_ConcurrentAccess(t *testing.T) {
	idx := buildIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = idx.Search([]string{"rust"}, nil, nil)
		}()
		go func(n int) {
			defer wg.Done()
			idx.Add(NewDocument(&domain.Bookmark{ID: "x", Title: "Concurrent rust"}))
			if n%2 == 0 {
				idx.Remove("x")
			}
		}(i)
	}
	wg.Wait()
}

func TestParseField(t *testing.T) {
	if f, ok := ParseField(" Title "); !ok || f != FieldTitle {
		t.Errorf("ParseField(Title) = %q, %v", f, ok)
	}
	if _, ok := ParseField("body"); ok {
		t.Errorf("ParseField(body) should fail")
	}
}
