package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// SaveBookmark stores a bookmark and moves it between the domain and
// category sets when those changed.
func (s *Store) SaveBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	return s.SaveBookmarksMany(ctx, []*domain.Bookmark{bookmark})
}

// SaveBookmarksMany stores multiple bookmarks in Redis (bulk operation)
func (s *Store) SaveBookmarksMany(ctx context.Context, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	for _, b := range bookmarks {
		if b == nil || b.ID == "" {
			return fmt.Errorf("bookmark without id")
		}
	}

	previous, err := s.loadMany(ctx, bookmarkIDs(bookmarks))
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for _, bookmark := range bookmarks {
		data, err := json.Marshal(bookmark)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", bookmark.ID, err)
		}

		if old, ok := previous[bookmark.ID]; ok {
			unindex(ctx, pipe, old)
		}
		pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
		pipe.SAdd(ctx, AllBookmarksKey(), bookmark.ID)
		if d := bookmark.HostDomain(); d != "" {
			pipe.SAdd(ctx, DomainKey(d), bookmark.ID)
		}
		if bookmark.Category != "" {
			pipe.SAdd(ctx, CategoryKey(bookmark.Category), bookmark.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

// GetBookmark retrieves a bookmark from Redis by ID
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return &bookmark, nil
}

// GetAllBookmarks retrieves all bookmarks from Redis
func (s *Store) GetAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	return s.members(ctx, AllBookmarksKey())
}

func (s *Store) GetBookmarksByDomain(ctx context.Context, d string) ([]*domain.Bookmark, error) {
	return s.members(ctx, DomainKey(d))
}

func (s *Store) GetBookmarksByCategory(ctx context.Context, category string) ([]*domain.Bookmark, error) {
	return s.members(ctx, CategoryKey(category))
}

// DeleteBookmark removes a bookmark, its set memberships and its
// similarity records.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	old, err := s.GetBookmark(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	unindex(ctx, pipe, old)
	pipe.Del(ctx, BookmarkKey(id), SimilarKey(id))
	pipe.SRem(ctx, AllBookmarksKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// members loads every bookmark of an ID set, ordered by ID. IDs whose
// value vanished in between are skipped.
func (s *Store) members(ctx context.Context, setKey string) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}

	byID, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	bookmarks := make([]*domain.Bookmark, 0, len(byID))
	for _, b := range byID {
		bookmarks = append(bookmarks, b)
	}
	sort.Slice(bookmarks, func(i, j int) bool { return bookmarks[i].ID < bookmarks[j].ID })
	return bookmarks, nil
}

func (s *Store) loadMany(ctx context.Context, ids []string) (map[string]*domain.Bookmark, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	out := make(map[string]*domain.Bookmark, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", ids[i], err)
		}
		out[b.ID] = &b
	}
	return out, nil
}

func unindex(ctx context.Context, pipe redis.Pipeliner, old *domain.Bookmark) {
	if d := old.HostDomain(); d != "" {
		pipe.SRem(ctx, DomainKey(d), old.ID)
	}
	if old.Category != "" {
		pipe.SRem(ctx, CategoryKey(old.Category), old.ID)
	}
}

func bookmarkIDs(bookmarks []*domain.Bookmark) []string {
	ids := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.ID
	}
	return ids
}
