package search

import (
	"strings"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
	"github.com/MrSnakeDoc/tidymark/internal/query"
)

// Filters are the structural, non-fuzzy constraints chosen in the
// dashboard sidebar. Zero values do not constrain.
type Filters struct {
	Domain      string `json:"domain,omitempty"`
	Folder      string `json:"folder,omitempty"`
	Topic       string `json:"topic,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Tag         string `json:"tag,omitempty"`

	DateFrom time.Time `json:"dateFrom,omitempty"`
	DateTo   time.Time `json:"dateTo,omitempty"`

	MinReadingTime *int     `json:"minReadingTime,omitempty"`
	MaxReadingTime *int     `json:"maxReadingTime,omitempty"`
	MinQuality     *float64 `json:"minQuality,omitempty"`
	MaxQuality     *float64 `json:"maxQuality,omitempty"`

	Dead  *bool `json:"dead,omitempty"`
	Stale *bool `json:"stale,omitempty"`
}

// matcher evaluates Filters against one bookmark.
type matcher struct {
	f          Filters
	now        time.Time
	staleAfter time.Duration
}

func (m matcher) match(b *domain.Bookmark) bool {
	f := m.f
	if f.Domain != "" && !strings.EqualFold(b.HostDomain(), strings.TrimPrefix(strings.ToLower(f.Domain), "www.")) {
		return false
	}
	if f.Folder != "" && !hierarchical(b.FolderPath, f.Folder) {
		return false
	}
	if f.Topic != "" && !anyTopic(b.Topics, f.Topic) {
		return false
	}
	if f.ContentType != "" && !strings.EqualFold(b.ContentType, f.ContentType) {
		return false
	}
	if f.Creator != "" && !strings.EqualFold(b.Creator, f.Creator) {
		return false
	}
	if f.Tag != "" && !anyEqualFold(b.Tags, f.Tag) {
		return false
	}
	if !f.DateFrom.IsZero() && b.DateAdded.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && b.DateAdded.After(f.DateTo) {
		return false
	}
	if f.MinReadingTime != nil && b.ReadingTime < *f.MinReadingTime {
		return false
	}
	if f.MaxReadingTime != nil && b.ReadingTime > *f.MaxReadingTime {
		return false
	}
	if f.MinQuality != nil && b.QualityScore < *f.MinQuality {
		return false
	}
	if f.MaxQuality != nil && b.QualityScore > *f.MaxQuality {
		return false
	}
	if f.Dead != nil && b.IsDead() != *f.Dead {
		return false
	}
	if f.Stale != nil && b.IsStale(m.now, m.staleAfter) != *f.Stale {
		return false
	}
	return true
}

// matchSpecial applies the key:value filters found in the query text.
// Unlike the sidebar filters, domain, creator, repo, playlist and folder
// match by substring.
func (m matcher) matchSpecial(b *domain.Bookmark, s query.SpecialFilters) bool {
	if s.Category != "" && !strings.EqualFold(b.Category, s.Category) {
		return false
	}
	if s.Domain != "" && !containsFold(b.HostDomain(), s.Domain) {
		return false
	}
	if s.Platform != "" && !strings.EqualFold(b.Platform, s.Platform) {
		return false
	}
	if s.ContentType != "" && !strings.EqualFold(b.ContentType, s.ContentType) {
		return false
	}
	if s.Creator != "" && !containsFold(b.Creator, s.Creator) {
		return false
	}
	if s.Repo != "" && !containsFold(b.Repo, s.Repo) {
		return false
	}
	if s.Playlist != "" && !containsFold(b.Playlist, s.Playlist) {
		return false
	}
	if s.Folder != "" && !containsFold(b.FolderPath, s.Folder) {
		return false
	}
	if s.HasImage != nil && (b.ImageURL != "") != *s.HasImage {
		return false
	}
	if s.Accessed != nil && b.WasAccessed() != *s.Accessed {
		return false
	}
	if s.Stale != nil && b.IsStale(m.now, m.staleAfter) != *s.Stale {
		return false
	}
	if s.Enriched != nil && b.IsEnriched() != *s.Enriched {
		return false
	}
	if s.Dead != nil && b.IsDead() != *s.Dead {
		return false
	}
	return true
}

// hierarchical matches value itself or any of its descendants, so
// "programming" selects "programming/rust".
func hierarchical(value, want string) bool {
	value, want = strings.ToLower(value), strings.ToLower(strings.TrimSuffix(want, "/"))
	return value == want || strings.HasPrefix(value, want+"/")
}

func anyTopic(topics []string, want string) bool {
	for _, t := range topics {
		if hierarchical(t, want) {
			return true
		}
	}
	return false
}

func anyEqualFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
