package domain

import "time"

// DefaultRecordTTL is how long stored similarity records stay fresh.
const DefaultRecordTTL = 24 * time.Hour

// SimilarityRecord links a bookmark to one of its most similar neighbours.
type SimilarityRecord struct {
	BookmarkID        string    `json:"bookmarkId"`
	RelatedBookmarkID string    `json:"relatedBookmarkId"`
	Score             float64   `json:"score"`
	SameDomain        bool      `json:"sameDomain"`
	SameCategory      bool      `json:"sameCategory"`
	ComputedAt        time.Time `json:"computedAt"`
}

// SimilaritySet is the stored outcome of one computation for a bookmark.
// Records may be empty when no candidate qualified.
type SimilaritySet struct {
	ComputedAt time.Time          `json:"computedAt"`
	Records    []SimilarityRecord `json:"records"`
}

// Fresh reports whether the set can be served without recomputing.
func (s SimilaritySet) Fresh(now time.Time, ttl time.Duration) bool {
	return !s.ComputedAt.IsZero() && now.Sub(s.ComputedAt) <= ttl
}

// CacheEntry is an opaque blob persisted by the Bookmark Store on behalf
// of the engine. Timestamp drives TTL checks.
type CacheEntry struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Value     []byte    `json:"value"`
}

// Expired reports whether the entry is older than ttl.
func (c *CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return c == nil || now.Sub(c.Timestamp) > ttl
}
