package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// Mapper converts export entries to domain bookmarks
type Mapper struct{}

// NewMapper creates a new mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapResult holds the mapped bookmarks and the entries that were skipped.
type MapResult struct {
	Bookmarks []*domain.Bookmark
	Skipped   []string // reasons, one per skipped entry
}

// Map converts every usable entry. Entries without a parseable absolute
// URL are skipped; the first of several entries with the same ID wins.
func (m *Mapper) Map(f File) MapResult {
	res := MapResult{Bookmarks: make([]*domain.Bookmark, 0, len(f.Bookmarks))}
	seen := make(map[string]bool, len(f.Bookmarks))

	for i, e := range f.Bookmarks {
		raw := strings.TrimSpace(e.URL)
		u, err := url.Parse(raw)
		if raw == "" || err != nil || u.Scheme == "" || u.Host == "" {
			res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: invalid url %q", i, e.URL))
			continue
		}

		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = generateBookmarkID(raw)
		}
		if seen[id] {
			res.Skipped = append(res.Skipped, fmt.Sprintf("entry %d: duplicate id %s", i, id))
			continue
		}
		seen[id] = true

		res.Bookmarks = append(res.Bookmarks, toBookmark(id, raw, e))
	}
	return res
}

func toBookmark(id, raw string, e Entry) *domain.Bookmark {
	b := &domain.Bookmark{
		ID:           id,
		URL:          raw,
		Title:        strings.TrimSpace(e.Title),
		Description:  strings.TrimSpace(e.Description),
		Domain:       strings.TrimPrefix(strings.ToLower(e.Domain), "www."),
		Category:     e.Category,
		FolderPath:   strings.Trim(e.Folder, "/"),
		Keywords:     dedupe(e.Keywords),
		Tags:         dedupe(e.Tags),
		Topics:       dedupe(e.Topics),
		ContentType:  e.ContentType,
		Platform:     e.Platform,
		Creator:      e.Creator,
		Repo:         e.Repo,
		Playlist:     e.Playlist,
		ImageURL:     e.Image,
		ReadingTime:  e.ReadingTime,
		QualityScore: e.Quality,
		EnrichedAt:   e.EnrichedAt,
		DateAdded:    e.Added,
		LastAccessed: e.LastAccessed,
		AccessCount:  e.AccessCount,
	}
	if e.Alive != nil {
		b.IsAlive = domain.TristateOf(*e.Alive)
	}
	return b
}

// dedupe keeps the first occurrence of each value, case-insensitively,
// and drops blanks.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// generateBookmarkID creates a stable ID from a URL using SHA-256 hash
// This ensures that the same URL always produces the same ID,
// even if the title changes
func generateBookmarkID(url string) string {
	hash := sha256.Sum256([]byte(url))
	// Take first 16 characters of hex encoding (sufficient for uniqueness)
	return hex.EncodeToString(hash[:])[:16]
}
