package export

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// Diff is the change set between the stored corpus and a fresh import.
type Diff struct {
	Added   []*domain.Bookmark
	Updated []*domain.Bookmark
	Removed []string
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Compare computes the change set that turns current into incoming.
// Output slices are ordered by ID.
func Compare(current, incoming []*domain.Bookmark) Diff {
	byID := make(map[string]*domain.Bookmark, len(current))
	for _, b := range current {
		byID[b.ID] = b
	}

	var d Diff
	kept := make(map[string]bool, len(incoming))
	for _, b := range incoming {
		kept[b.ID] = true
		old, ok := byID[b.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, b)
		case !sameBookmark(old, b):
			d.Updated = append(d.Updated, b)
		}
	}
	for id := range byID {
		if !kept[id] {
			d.Removed = append(d.Removed, id)
		}
	}

	sortByID(d.Added)
	sortByID(d.Updated)
	sort.Strings(d.Removed)
	return d
}

func sortByID(bs []*domain.Bookmark) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].ID < bs[j].ID })
}

// sameBookmark compares the stored form so that values read back from a
// store compare equal to freshly mapped ones.
func sameBookmark(a, b *domain.Bookmark) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
