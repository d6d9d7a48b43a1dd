package redis

import "strings"

const (
	// KeyPrefix namespaces every key written by the store.
	KeyPrefix = "tidymark:"
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = KeyPrefix + "bookmark:"
	// KeyPrefixDomain is the prefix for the per-domain ID sets
	KeyPrefixDomain = KeyPrefix + "domain:"
	// KeyPrefixCategory is the prefix for the per-category ID sets
	KeyPrefixCategory = KeyPrefix + "category:"
	// KeyPrefixCache is the prefix for engine cache entries
	KeyPrefixCache = KeyPrefix + "cache:"
	// KeyPrefixSimilar is the prefix for stored similarity records
	KeyPrefixSimilar = KeyPrefix + "similar:"
	// KeyAllBookmarks is the key for the set of all bookmark IDs
	KeyAllBookmarks = KeyPrefix + "bookmarks:all"
)

// BookmarkKey returns the Redis key for a bookmark
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// AllBookmarksKey returns the Redis key for the set of all bookmarks
func AllBookmarksKey() string {
	return KeyAllBookmarks
}

// DomainKey returns the ID set of a host domain. Domains are lowercased.
func DomainKey(d string) string {
	return KeyPrefixDomain + strings.ToLower(d)
}

// CategoryKey returns the ID set of a category. Categories match
// case-insensitively, so the key is lowercased.
func CategoryKey(category string) string {
	return KeyPrefixCategory + strings.ToLower(category)
}

// CacheKey returns the Redis key of an engine cache entry
func CacheKey(key string) string {
	return KeyPrefixCache + key
}

// SimilarKey returns the Redis key holding the records of a bookmark
func SimilarKey(id string) string {
	return KeyPrefixSimilar + id
}
