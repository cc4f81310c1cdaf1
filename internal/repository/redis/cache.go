package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
)

// Cache holds resolved LinkEntry records keyed by short code so the
// redirect hot path skips Postgres on repeat hits. Entries carry a TTL
// and are invalidated on update and delete.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Redis-backed link cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(shortCode string) string {
	return fmt.Sprintf("link:%s", shortCode)
}

// GetLink retrieves a cached entry. A cache miss returns (nil, nil); it
// is not an error.
func (c *Cache) GetLink(ctx context.Context, shortCode string) (*domain.LinkEntry, error) {
	start := time.Now()
	defer func() {
		metrics.CacheOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	}()

	data, err := c.client.Get(ctx, cacheKey(shortCode)).Result()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	metrics.RecordCacheHit()

	var entry domain.LinkEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached link: %w", err)
	}

	return &entry, nil
}

// SetLink stores an entry with the configured TTL.
func (c *Cache) SetLink(ctx context.Context, shortCode string, entry *domain.LinkEntry) error {
	start := time.Now()
	defer func() {
		metrics.CacheOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(shortCode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// DeleteLink drops an entry from the cache. Called on update and delete
// so stale destinations are never served past the TTL window.
func (c *Cache) DeleteLink(ctx context.Context, shortCode string) error {
	start := time.Now()
	defer func() {
		metrics.CacheOperationDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	}()

	if err := c.client.Del(ctx, cacheKey(shortCode)).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}
