package engine

import (
	"context"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

// BookmarkStore is the external collaborator holding the corpus and the
// cache blobs. GetBookmark returns domain.ErrNotFound for unknown IDs;
// GetCache returns nil, nil on a miss; GetStoredSimilarities reports a
// miss with false.
type BookmarkStore interface {
	GetAllBookmarks(ctx context.Context) ([]*domain.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	GetBookmarksByDomain(ctx context.Context, host string) ([]*domain.Bookmark, error)
	GetBookmarksByCategory(ctx context.Context, category string) ([]*domain.Bookmark, error)

	GetCache(ctx context.Context, key string) (*domain.CacheEntry, error)
	SetCache(ctx context.Context, entry *domain.CacheEntry) error

	StoreSimilarities(ctx context.Context, id string, set domain.SimilaritySet) error
	GetStoredSimilarities(ctx context.Context, id string) (domain.SimilaritySet, bool, error)
}
