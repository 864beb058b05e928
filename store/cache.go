package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// brandKey namespaces the cached per-brand store lists.
func brandKey(brandID string) string {
	return "hireflow:stores:brand:" + brandID
}

// Cache keeps per-brand store lists in Redis. The candidate portal hits the
// directory on every match request, so the list is cached with a short TTL
// rather than read from Postgres each time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Redis-backed store directory cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// GetBrand returns the cached store list for a brand. A cache miss returns
// (nil, false, nil).
func (c *Cache) GetBrand(ctx context.Context, brandID string) ([]Store, bool, error) {
	raw, err := c.client.Get(ctx, brandKey(brandID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: cache get: %w", err)
	}

	var stores []Store
	if err := json.Unmarshal(raw, &stores); err != nil {
		return nil, false, fmt.Errorf("store: cache decode: %w", err)
	}
	return stores, true, nil
}

// SetBrand stores the brand's store list under the cache TTL.
func (c *Cache) SetBrand(ctx context.Context, brandID string, stores []Store) error {
	raw, err := json.Marshal(stores)
	if err != nil {
		return fmt.Errorf("store: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, brandKey(brandID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("store: cache set: %w", err)
	}
	return nil
}

// InvalidateBrand drops the cached list, forcing the next read through to
// the repository.
func (c *Cache) InvalidateBrand(ctx context.Context, brandID string) error {
	if err := c.client.Del(ctx, brandKey(brandID)).Err(); err != nil {
		return fmt.Errorf("store: cache invalidate: %w", err)
	}
	return nil
}
