package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Tristate is a three-valued flag used for link liveness.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf converts a bool into a known Tristate.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// MarshalJSON encodes Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (t *Tristate) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*t = True
	case "false":
		*t = False
	case "null":
		*t = Unknown
	default:
		return fmt.Errorf("invalid tristate value %s", data)
	}
	return nil
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Bookmark represents a saved bookmark as supplied by the Bookmark Store.
// The engine treats it as read-only input.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier assigned by the store.
	ID string `json:"id"`

	// URL is the bookmarked address.
	// Example: https://doc.rust-lang.org/book/
	URL string `json:"url"`

	// ─────────────────────────────
	// Descriptive text
	// ─────────────────────────────

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Domain is the host the bookmark points to, usually without "www.".
	Domain   string `json:"domain,omitempty"`
	Category string `json:"category,omitempty"`

	// FolderPath is the slash separated folder the bookmark lives in.
	// Example: Bookmarks Bar/Dev/Rust
	FolderPath string `json:"folderPath,omitempty"`

	// Keywords is ordered and deduplicated.
	Keywords []string `json:"keywords,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// Topics are hierarchical labels ("programming/rust").
	Topics []string `json:"topics,omitempty"`

	// ─────────────────────────────
	// Enrichment metadata
	// ─────────────────────────────

	ContentType  string     `json:"contentType,omitempty"`
	Platform     string     `json:"platform,omitempty"`
	Creator      string     `json:"creator,omitempty"`
	Repo         string     `json:"repo,omitempty"`
	Playlist     string     `json:"playlist,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	ReadingTime  int        `json:"readingTime,omitempty"`
	QualityScore float64    `json:"qualityScore,omitempty"`
	EnrichedAt   *time.Time `json:"enrichedAt,omitempty"`

	// ─────────────────────────────
	// Usage & liveness
	// ─────────────────────────────

	DateAdded    time.Time  `json:"dateAdded"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	AccessCount  int        `json:"accessCount,omitempty"`
	IsAlive      Tristate   `json:"isAlive"`
}

// IsDead reports whether the link was checked and found broken.
func (b *Bookmark) IsDead() bool {
	return b.IsAlive == False
}

// IsEnriched reports whether metadata enrichment ran for this bookmark.
func (b *Bookmark) IsEnriched() bool {
	return b.EnrichedAt != nil && !b.EnrichedAt.IsZero()
}

// WasAccessed reports whether the bookmark was ever opened.
func (b *Bookmark) WasAccessed() bool {
	return b.AccessCount > 0 || b.LastAccessed != nil
}

// IsStale reports whether the bookmark has not been touched for longer than
// maxAge. The most recent of LastAccessed and DateAdded is used.
func (b *Bookmark) IsStale(now time.Time, maxAge time.Duration) bool {
	last := b.DateAdded
	if b.LastAccessed != nil && b.LastAccessed.After(last) {
		last = *b.LastAccessed
	}
	if last.IsZero() {
		return false
	}
	return now.Sub(last) > maxAge
}

// HostDomain returns Domain, or the host parsed from URL when Domain is empty.
// An unparseable URL yields "".
func (b *Bookmark) HostDomain() string {
	if b.Domain != "" {
		return strings.ToLower(b.Domain)
	}
	u, err := url.Parse(b.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// CreatorKey namespaces the creator by platform so that equal channel
// names on different platforms do not collide.
func (b *Bookmark) CreatorKey() string {
	if b.Creator == "" {
		return ""
	}
	return strings.ToLower(b.Platform) + ":" + b.Creator
}
