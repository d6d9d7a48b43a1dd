package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tidymark/internal/domain"
)

const (
	fieldTimestamp = "ts"
	fieldValue     = "value"
)

// GetCache returns nil, nil on a cache miss.
func (s *Store) GetCache(ctx context.Context, key string) (*domain.CacheEntry, error) {
	fields, err := s.client.HGetAll(ctx, CacheKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil // Cache miss
	}

	var ts int64
	if _, err := fmt.Sscan(fields[fieldTimestamp], &ts); err != nil {
		return nil, fmt.Errorf("cache entry %s: bad timestamp: %w", key, err)
	}
	return &domain.CacheEntry{
		Key:       key,
		Timestamp: time.UnixMilli(ts),
		Value:     []byte(fields[fieldValue]),
	}, nil
}

// SetCache replaces a cache entry atomically.
func (s *Store) SetCache(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache entry without key")
	}
	err := s.client.HSet(ctx, CacheKey(entry.Key),
		fieldTimestamp, entry.Timestamp.UnixMilli(),
		fieldValue, entry.Value,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// FlushCache removes every engine cache entry.
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}

// StoreSimilarities replaces the record set of a bookmark.
func (s *Store) StoreSimilarities(ctx context.Context, id string, set domain.SimilaritySet) error {
	if set.Records == nil {
		set.Records = []domain.SimilarityRecord{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal similarities: %w", err)
	}
	if err := s.client.Set(ctx, SimilarKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store similarities: %w", err)
	}
	return nil
}

// GetStoredSimilarities returns false when nothing is stored.
func (s *Store) GetStoredSimilarities(ctx context.Context, id string) (domain.SimilaritySet, bool, error) {
	data, err := s.client.Get(ctx, SimilarKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SimilaritySet{}, false, nil
		}
		return domain.SimilaritySet{}, false, fmt.Errorf("failed to get similarities: %w", err)
	}

	var set domain.SimilaritySet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.SimilaritySet{}, false, fmt.Errorf("failed to unmarshal similarities: %w", err)
	}
	if set.Records == nil {
		set.Records = []domain.SimilarityRecord{}
	}
	return set, true, nil
}
