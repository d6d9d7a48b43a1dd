// Package search applies structural filters, the advanced query language
// and relevance ranking on top of the field index.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/index"
)

// ErrInvalidOptions wraps every Options validation failure.
var ErrInvalidOptions = errors.New("invalid search options")

const (
	DefaultLimit      = 50
	MaxLimit          = 1000
	DefaultStaleAfter = 180 * 24 * time.Hour
)

// SortOrder names a result ordering.
type SortOrder string

const (
	// SortAuto is relevance with a text query and date_desc without.
	SortAuto         SortOrder = ""
	SortRelevance    SortOrder = "relevance"
	SortDateDesc     SortOrder = "date_desc"
	SortDateAsc      SortOrder = "date_asc"
	SortTitleAsc     SortOrder = "title_asc"
	SortTitleDesc    SortOrder = "title_desc"
	SortDomainAsc    SortOrder = "domain_asc"
	SortAccessedDesc SortOrder = "accessed_desc"
)

var sortOrders = map[SortOrder]struct{}{
	SortAuto: {}, SortRelevance: {}, SortDateDesc: {}, SortDateAsc: {}, SortTitleAsc: {},
	SortTitleDesc: {}, SortDomainAsc: {}, SortAccessedDesc: {},
}

// ParseSortOrder validates a sort order coming from the outside.
func ParseSortOrder(s string) (SortOrder, bool) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	_, ok := sortOrders[o]
	return o, ok
}

// Options enumerates every recognized search option. The zero value is
// valid and means defaults everywhere.
type Options struct {
	Limit  int
	Offset int

	// Fields restricts the index lookup. Empty means all fields.
	Fields []index.Field
	// Boost overrides the per-field index boost. Nil means defaults.
	Boost index.Boost

	SortBy SortOrder
	// TieBreak orders results of equal relevance. Defaults to date_desc.
	TieBreak SortOrder

	ComputeStats bool

	// StaleAfter is the age after which a bookmark counts as stale.
	StaleAfter time.Duration
}

// Validate fills defaults and rejects inconsistent values.
func (o Options) Validate() (Options, error) {
	if o.Offset < 0 {
		return o, fmt.Errorf("%w: offset %d is negative", ErrInvalidOptions, o.Offset)
	}
	if o.Limit < 0 || o.Limit > MaxLimit {
		return o, fmt.Errorf("%w: limit %d out of range [0,%d]", ErrInvalidOptions, o.Limit, MaxLimit)
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if _, ok := sortOrders[o.SortBy]; !ok {
		return o, fmt.Errorf("%w: unknown sort order %q", ErrInvalidOptions, o.SortBy)
	}
	if _, ok := sortOrders[o.TieBreak]; !ok || o.TieBreak == SortRelevance {
		return o, fmt.Errorf("%w: invalid tie break %q", ErrInvalidOptions, o.TieBreak)
	}
	if o.TieBreak == SortAuto {
		o.TieBreak = SortDateDesc
	}
	for _, f := range o.Fields {
		if _, ok := index.ParseField(string(f)); !ok {
			return o, fmt.Errorf("%w: unknown field %q", ErrInvalidOptions, f)
		}
	}
	for f, w := range o.Boost {
		if w < 0 {
			return o, fmt.Errorf("%w: negative boost for %s", ErrInvalidOptions, f)
		}
	}
	if o.StaleAfter < 0 {
		return o, fmt.Errorf("%w: negative stale age", ErrInvalidOptions)
	}
	if o.StaleAfter == 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	return o, nil
}
