// Package similarity finds duplicate and related bookmarks: exact and
// normalized URL duplicates, TF-IDF cosine pairs and a fuzzy
// edit-distance scorer with candidate narrowing.
package similarity

import (
	"net/url"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// DuplicateGroup is a set of bookmarks sharing one URL key.
type DuplicateGroup struct {
	Key       string             `json:"key"`
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
}

// Duplicates separates groups with byte-identical URLs from groups that
// only collide once URLs are normalized.
type Duplicates struct {
	Exact   []DuplicateGroup `json:"exact"`
	Similar []DuplicateGroup `json:"similar"`
}

// NormalizeURL reduces a URL to lowercase host without "www." plus the
// path without trailing slash. Query string and fragment are dropped.
// It returns false for URLs without a host or that do not parse.
//
//	https://www.Example.com/docs/?tab=1 -> example.com/docs
func NormalizeURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return "", false
	}
	return host + strings.TrimRight(u.Path, "/"), true
}

// FindDuplicates groups bookmarks by raw URL and by normalized URL. A
// normalized group is reported only when it holds more than one distinct
// raw URL; otherwise it is already an exact group. Bookmarks whose URL
// cannot be normalized still take part in exact grouping.
func FindDuplicates(bookmarks []*domain.Bookmark) Duplicates {
	exact := make(map[string][]*domain.Bookmark)
	normalized := make(map[string][]*domain.Bookmark)

	for _, b := range bookmarks {
		if b == nil || b.URL == "" {
			continue
		}
		exact[b.URL] = append(exact[b.URL], b)
		if key, ok := NormalizeURL(b.URL); ok {
			normalized[key] = append(normalized[key], b)
		}
	}

	var out Duplicates
	for key, group := range exact {
		if len(group) > 1 {
			out.Exact = append(out.Exact, DuplicateGroup{Key: key, Bookmarks: group})
		}
	}
	for key, group := range normalized {
		if len(group) > 1 && distinctURLs(group) > 1 {
			out.Similar = append(out.Similar, DuplicateGroup{Key: key, Bookmarks: group})
		}
	}

	sortGroups(out.Exact)
	sortGroups(out.Similar)
	return out
}

func distinctURLs(group []*domain.Bookmark) int {
	seen := make(map[string]struct{}, len(group))
	for _, b := range group {
		seen[b.URL] = struct{}{}
	}
	return len(seen)
}

func sortGroups(groups []DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Bookmarks) != len(groups[j].Bookmarks) {
			return len(groups[i].Bookmarks) > len(groups[j].Bookmarks)
		}
		return groups[i].Key < groups[j].Key
	})
	for _, g := range groups {
		sort.SliceStable(g.Bookmarks, func(i, j int) bool {
			return g.Bookmarks[i].ID < g.Bookmarks[j].ID
		})
	}
}
