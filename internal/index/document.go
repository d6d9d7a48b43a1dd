package index

import (
	"slices"
	"strings"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

// Field names an indexed bookmark field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldURL         Field = "url"
	FieldDescription Field = "description"
	FieldKeywords    Field = "keywords"
	FieldCategory    Field = "category"
	FieldDomain      Field = "domain"
)

// AllFields lists every indexed field in a stable order.
var AllFields = []Field{
	FieldTitle, FieldURL, FieldDescription, FieldKeywords, FieldCategory, FieldDomain,
}

// ParseField validates a field name coming from the outside.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// Boost weights matches per field.
type Boost map[Field]float64

// DefaultBoost favours titles, then categories and keywords.
func DefaultBoost() Boost {
	return Boost{
		FieldTitle:       3,
		FieldCategory:    2,
		FieldKeywords:    2,
		FieldDescription: 1,
		FieldURL:         1,
		FieldDomain:      1,
	}
}

// weight returns the boost of f, defaulting to 1 for unlisted fields.
func (b Boost) weight(f Field) float64 {
	if w, ok := b[f]; ok {
		return w
	}
	return 1
}

// Document is the tokenized projection of one bookmark.
type Document struct {
	ID     string             `cbor:"id"`
	Tokens map[Field][]string `cbor:"tokens"`
}

// NewDocument tokenizes the indexed fields of a bookmark.
func NewDocument(b *domain.Bookmark) Document {
	return Document{
		ID: b.ID,
		Tokens: map[Field][]string{
			FieldTitle:       textproc.Terms(b.Title),
			FieldURL:         textproc.Terms(b.URL),
			FieldDescription: textproc.Terms(b.Description),
			FieldKeywords:    textproc.Terms(strings.Join(b.Keywords, " ")),
			FieldCategory:    textproc.Terms(b.Category),
			FieldDomain:      textproc.Terms(b.HostDomain()),
		},
	}
}

// sameTokens compares the tokens of every indexed field. Nil and empty
// token lists are equal, as they are after a snapshot round trip.
func (d Document) sameTokens(other Document) bool {
	for _, f := range AllFields {
		if !slices.Equal(d.Tokens[f], other.Tokens[f]) {
			return false
		}
	}
	return true
}

// FieldText returns the raw text of a bookmark field, the way the linear
// scan fallback sees it.
func FieldText(b *domain.Bookmark, f Field) string {
	switch f {
	case FieldTitle:
		return b.Title
	case FieldURL:
		return b.URL
	case FieldDescription:
		return b.Description
	case FieldKeywords:
		return strings.Join(b.Keywords, " ")
	case FieldCategory:
		return b.Category
	case FieldDomain:
		return b.HostDomain()
	default:
		return ""
	}
}
