package textproc

import (
	"reflect"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			text: "Learn Rust, Programming!",
			want: []string{"learn", "rust", "programming"},
		},
		{
			name: "drops short tokens and stopwords",
			text: "How to use Go in the cloud",
			want: []string{"use", "cloud"},
		},
		{
			name: "keeps underscores inside words",
			text: "snake_case naming",
			want: []string{"snake_case", "naming"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractWords_FieldRepetition(t *testing.T) {
	b := &domain.Bookmark{
		Title:       "Rust Book",
		Description: "official guide",
		Keywords:    []string{"systems"},
		Category:    "programming",
	}

	got := ExtractWords(b)

	counts := make(map[string]int)
	for _, tok := range got {
		counts[tok]++
	}

	want := map[string]int{
		"rust":        3,
		"book":        3,
		"official":    2,
		"guide":       2,
		"systems":     2,
		"programming": 1,
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("ExtractWords() counts = %v, want %v", counts, want)
	}
}

func TestExtractWords_DescriptionCap(t *testing.T) {
	words := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		words = append(words, "word"+strings.Repeat("x", i))
	}
	b := &domain.Bookmark{Description: strings.Join(words, " ")}

	got := ExtractWords(b)
	if len(got) != MaxDescriptionTokens*DescriptionRepeat {
		t.Errorf("ExtractWords() len = %d, want %d", len(got), MaxDescriptionTokens*DescriptionRepeat)
	}
}

func TestExtractWords_Deterministic(t *testing.T) {
	b := &domain.Bookmark{
		Title:       "Go Concurrency Patterns",
		Description: "Pipelines, fan-out and cancellation",
		Keywords:    []string{"goroutines", "channels"},
		Category:    "dev",
	}

	first := ExtractWords(b)
	for i := 0; i < 5; i++ {
		if got := ExtractWords(b); !reflect.DeepEqual(got, first) {
			t.Fatalf("ExtractWords() not deterministic: %v vs %v", got, first)
		}
	}
}

func TestExtractWords_Nil(t *testing.T) {
	if got := ExtractWords(nil); got != nil {
		t.Errorf("ExtractWords(nil) = %v, want nil", got)
	}
}

func TestAnalyzer_Stem(t *testing.T) {
	a := Analyzer{Stem: true}
	got := a.Words("running connections")
	want := []string{"run", "connect"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() with stemming = %v, want %v", got, want)
	}
}

func TestTerms(t *testing.T) {
	got := Terms("rust-lang.org/Learn")
	want := []string{"rust", "lang", "org", "learn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestPrefixes(t *testing.T) {
	got := Prefixes("rust")
	want := []string{"r", "ru", "rus", "rust"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prefixes() = %v, want %v", got, want)
	}

	long := strings.Repeat("a", 40)
	got = Prefixes(long)
	if len(got) != maxPrefixLength {
		t.Errorf("Prefixes(long) len = %d, want %d", len(got), maxPrefixLength)
	}
	if last := got[len(got)-1]; last != PrefixKey(long) {
		t.Errorf("Prefixes(long) last = %q, want PrefixKey %q", last, PrefixKey(long))
	}
}
