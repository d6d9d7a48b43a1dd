package similarity

import (
	"testing"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://www.Example.com/docs/?tab=1", "example.com/docs", true},
		{"http://example.com", "example.com", true},
		{"https://example.com/a/b/#frag", "example.com/a/b", true},
		{"not a url", "", false},
		{"", "", false},
		{"https://%zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeURL(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeURL(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFindDuplicates_ExactThenSimilar(t *testing.T) {
	a := &domain.Bookmark{ID: "a", URL: "https://example.com/post"}
	b := &domain.Bookmark{ID: "b", URL: "https://example.com/post"}
	other := &domain.Bookmark{ID: "c", URL: "https://other.org/"}

	got := FindDuplicates([]*domain.Bookmark{a, b, other})
	if len(got.Exact) != 1 || len(got.Exact[0].Bookmarks) != 2 {
		t.Fatalf("Exact = %+v, want one group of two", got.Exact)
	}
	if len(got.Similar) != 0 {
		t.Errorf("Similar = %+v, want none for identical URLs", got.Similar)
	}

	// Only the query string differs: no longer exact, still similar.
	b.URL = "https://example.com/post?utm_source=feed"
	got = FindDuplicates([]*domain.Bookmark{a, b, other})
	if len(got.Exact) != 0 {
		t.Errorf("Exact = %+v, want none", got.Exact)
	}
	if len(got.Similar) != 1 {
		t.Fatalf("Similar = %+v, want one group", got.Similar)
	}
	g := got.Similar[0]
	if g.Key != "example.com/post" || len(g.Bookmarks) != 2 || g.Bookmarks[0].ID != "a" || g.Bookmarks[1].ID != "b" {
		t.Errorf("Similar[0] = %+v, want example.com/post with a and b", g)
	}
}

func TestFindDuplicates_BadURLStillExact(t *testing.T) {
	a := &domain.Bookmark{ID: "a", URL: "::bad::"}
	b := &domain.Bookmark{ID: "b", URL: "::bad::"}

	got := FindDuplicates([]*domain.Bookmark{a, b})
	if len(got.Exact) != 1 {
		t.Errorf("Exact = %+v, want one group", got.Exact)
	}
	if len(got.Similar) != 0 {
		t.Errorf("Similar = %+v, want none", got.Similar)
	}
}
