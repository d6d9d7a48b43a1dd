// Package memory is an in-process Bookmark Store. It backs development
// runs without Redis and the engine tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// Store keeps bookmarks, cache entries and similarity records in maps.
// Listing methods return bookmarks ordered by ID.
type Store struct {
	mu           sync.RWMutex
	bookmarks    map[string]*domain.Bookmark // ID -> Bookmark
	cache        map[string]domain.CacheEntry
	similarities map[string]domain.SimilaritySet
}

// New creates an empty store.
func New() *Store {
	return &Store{
		bookmarks:    make(map[string]*domain.Bookmark),
		cache:        make(map[string]domain.CacheEntry),
		similarities: make(map[string]domain.SimilaritySet),
	}
}

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

// SaveBookmark adds or replaces a single bookmark.
func (s *Store) SaveBookmark(_ context.Context, b *domain.Bookmark) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("bookmark without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[b.ID] = b
	return nil
}

// SaveBookmarksMany adds or replaces bookmarks in bulk.
func (s *Store) SaveBookmarksMany(_ context.Context, bookmarks []*domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bookmarks {
		if b == nil || b.ID == "" {
			return fmt.Errorf("bookmark without id")
		}
		s.bookmarks[b.ID] = b
	}
	return nil
}

// DeleteBookmark removes a bookmark and its similarity records.
func (s *Store) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, id)
	delete(s.similarities, id)
	return nil
}

// GetBookmark returns domain.ErrNotFound for unknown IDs.
func (s *Store) GetBookmark(_ context.Context, id string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return b, nil
}

func (s *Store) GetAllBookmarks(_ context.Context) ([]*domain.Bookmark, error) {
	return s.filter(func(*domain.Bookmark) bool { return true }), nil
}

// GetBookmarksByDomain matches the bookmark host, case-insensitively.
func (s *Store) GetBookmarksByDomain(_ context.Context, d string) ([]*domain.Bookmark, error) {
	d = strings.ToLower(d)
	return s.filter(func(b *domain.Bookmark) bool { return b.HostDomain() == d }), nil
}

func (s *Store) GetBookmarksByCategory(_ context.Context, category string) ([]*domain.Bookmark, error) {
	return s.filter(func(b *domain.Bookmark) bool { return strings.EqualFold(b.Category, category) }), nil
}

func (s *Store) filter(keep func(*domain.Bookmark) bool) []*domain.Bookmark {
	s.mu.RLock()
	out := make([]*domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		if keep(b) {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ─────────────────────────────────────────────────────────────────
// Cache and similarity methods
// ─────────────────────────────────────────────────────────────────

// GetCache returns nil, nil on a miss.
func (s *Store) GetCache(_ context.Context, key string) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, nil
	}
	entry.Value = append([]byte(nil), entry.Value...)
	return &entry, nil
}

func (s *Store) SetCache(_ context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache entry without key")
	}
	stored := *entry
	stored.Value = append([]byte(nil), entry.Value...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[entry.Key] = stored
	return nil
}

// FlushCache drops every cache entry.
func (s *Store) FlushCache(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.cache)
	return nil
}

func (s *Store) StoreSimilarities(_ context.Context, id string, set domain.SimilaritySet) error {
	set.Records = append([]domain.SimilarityRecord{}, set.Records...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similarities[id] = set
	return nil
}

// GetStoredSimilarities returns false when nothing is stored.
func (s *Store) GetStoredSimilarities(_ context.Context, id string) (domain.SimilaritySet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.similarities[id]
	if !ok {
		return domain.SimilaritySet{}, false, nil
	}
	set.Records = append([]domain.SimilarityRecord{}, set.Records...)
	return set, true, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
