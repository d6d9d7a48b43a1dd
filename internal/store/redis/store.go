// Package redis is the Redis backed Bookmark Store.
//
// Bookmarks are JSON values under tidymark:bookmark:{id}. Three kinds of
// ID sets are maintained next to them: every bookmark, per host domain and
// per category. Engine cache entries are hashes holding the timestamp and
// the opaque value.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for bookmarks, cache entries and
// similarity records.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
