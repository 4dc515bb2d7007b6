package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads of eligible tariff sets.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// cacheKey expects an already normalized service type so it always matches
// the spelling the store queried with.
func cacheKey(serviceType string, weightKg float64) string {
	return fmt.Sprintf("tariffs:eligible:%s:%g", serviceType, weightKg)
}

// InvalidateService drops every cached eligible set for a service type.
// Called after catalog writes so quoting sees the change before the TTL lapses.
func (c *Cache) InvalidateService(ctx context.Context, serviceType string) error {
	if c == nil || c.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("tariffs:eligible:%s:*", NormalizeService(serviceType))
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Source lists eligible tariffs from the catalog.
type Source interface {
	ListEligible(ctx context.Context, serviceType string, weightKg float64) ([]Tariff, error)
}

// CachedSource serves eligible-tariff lookups through a short-lived Redis
// cache. Catalog writes invalidate affected keys; the TTL bounds staleness
// when invalidation is missed.
type CachedSource struct {
	Store Source
	Cache *Cache
}

// ListEligible returns the cached eligible set when present, falling back to
// the store otherwise. The service type is normalized once here so the cache
// key and the catalog lookup cannot disagree on spelling.
func (c CachedSource) ListEligible(ctx context.Context, serviceType string, weightKg float64) ([]Tariff, error) {
	serviceType = NormalizeService(serviceType)
	key := cacheKey(serviceType, weightKg)
	if c.Cache != nil && c.Cache.client != nil {
		data, err := c.Cache.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached []Tariff
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil && len(cached) > 0 {
				return cached, nil
			}
		} else if err != redis.Nil {
			return nil, err
		}
	}
	tariffs, err := c.Store.ListEligible(ctx, serviceType, weightKg)
	if err != nil {
		return nil, err
	}
	// Empty sets are never cached: a misspelled or not-yet-seeded service
	// type must not shadow correct lookups for a full TTL window.
	if len(tariffs) > 0 && c.Cache != nil && c.Cache.client != nil && c.Cache.ttl > 0 {
		if data, err := json.Marshal(tariffs); err == nil {
			_ = c.Cache.client.Set(ctx, key, data, c.Cache.ttl).Err()
		}
	}
	return tariffs, nil
}
