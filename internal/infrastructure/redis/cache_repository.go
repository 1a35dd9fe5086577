// Package redis caches the eager-loaded user projection. Entries expire on
// their own, so a lost invalidation only leaves the projection stale for one
// TTL window.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key holds no value.
var ErrCacheMiss = errors.New("cache miss")

const defaultTTL = 5 * time.Minute

// UserKey is the cache key for a user's eager-loaded projection. Every write
// that can change that projection must invalidate this key.
func UserKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

// CacheRepository is the untraced Redis-backed projection cache.
type CacheRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCacheRepository(client redis.UniversalClient) *CacheRepository {
	return &CacheRepository{client: client, ttl: defaultTTL}
}

// GetTTL returns the expiry applied to every entry.
func (r *CacheRepository) GetTTL() time.Duration {
	return r.ttl
}

func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheMiss
	case err != nil:
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}
