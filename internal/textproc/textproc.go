package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

const (
	// Field weights, realized as token repetition.
	TitleRepeat       = 3
	DescriptionRepeat = 2
	KeywordRepeat     = 2
	CategoryRepeat    = 1

	// MaxDescriptionTokens caps how much of a description feeds the bag.
	MaxDescriptionTokens = 20

	// minWordLength is exclusive: tokens must be longer than this.
	minWordLength = 2

	// maxPrefixLength bounds forward tokenization of long words.
	maxPrefixLength = 24
)

// Analyzer turns bookmark text into tokens. The zero value is the default
// pipeline without stemming.
type Analyzer struct {
	// Stem applies the Snowball English stemmer to each word token.
	Stem bool
}

// Default is the analyzer used by the package level helpers.
var Default = Analyzer{}

// Normalize applies NFKC normalization and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Words splits text into filtered word tokens using the default analyzer.
func Words(text string) []string { return Default.Words(text) }

// ExtractWords builds the weighted token bag of a bookmark using the default analyzer.
func ExtractWords(b *domain.Bookmark) []string { return Default.ExtractWords(b) }

// Words lowercases text, treats every non-word character as a separator and
// drops short tokens and stopwords.
func (a Analyzer) Words(text string) []string {
	raw := strings.FieldsFunc(Normalize(text), isSeparator)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if utf8.RuneCountInString(w) <= minWordLength || IsStopword(w) {
			continue
		}
		if a.Stem {
			w = snowballeng.Stem(w, false)
		}
		out = append(out, w)
	}
	return out
}

// ExtractWords returns the weighted bag of tokens for a bookmark. Title
// tokens appear three times, the first description tokens and the keyword
// tokens twice, the category once. Term frequencies computed over the bag
// therefore encode field importance.
func (a Analyzer) ExtractWords(b *domain.Bookmark) []string {
	if b == nil {
		return nil
	}

	title := a.Words(b.Title)
	desc := a.Words(b.Description)
	if len(desc) > MaxDescriptionTokens {
		desc = desc[:MaxDescriptionTokens]
	}
	var keywords []string
	for _, k := range b.Keywords {
		keywords = append(keywords, a.Words(k)...)
	}
	category := a.Words(b.Category)

	bag := make([]string, 0,
		len(title)*TitleRepeat+len(desc)*DescriptionRepeat+len(keywords)*KeywordRepeat+len(category))
	bag = repeat(bag, title, TitleRepeat)
	bag = repeat(bag, desc, DescriptionRepeat)
	bag = repeat(bag, keywords, KeywordRepeat)
	bag = repeat(bag, category, CategoryRepeat)
	return bag
}

func repeat(dst, tokens []string, n int) []string {
	for i := 0; i < n; i++ {
		dst = append(dst, tokens...)
	}
	return dst
}

// Terms splits text into lowercase letter/digit runs without any filtering.
// It is the tokenizer of the field index.
func Terms(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Prefixes returns the forward tokens of a term: every prefix from one rune
// up to maxPrefixLength runes.
//
//	Prefixes("rust") -> ["r", "ru", "rus", "rust"]
func Prefixes(term string) []string {
	out := make([]string, 0, min(utf8.RuneCountInString(term), maxPrefixLength))
	for i := range term {
		if i == 0 {
			continue
		}
		out = append(out, term[:i])
		if len(out) == maxPrefixLength {
			return out
		}
	}
	if term != "" && len(out) < maxPrefixLength {
		out = append(out, term)
	}
	return out
}

// PrefixKey truncates a term the same way Prefixes does, so that lookups of
// long query terms hit the longest indexed prefix.
func PrefixKey(term string) string {
	n := 0
	for i := range term {
		if n == maxPrefixLength {
			return term[:i]
		}
		n++
	}
	return term
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
}
