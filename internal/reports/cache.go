package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyDashboard = "reports:dashboard"
	cacheKeyVendors   = "reports:vendors"
	cacheTTL          = 5 * time.Minute
)

// Cache keeps rendered reports in Redis so the dashboard does not hit the
// aggregate queries on every page load. Misses are not errors.
type Cache struct {
	client *redis.Client
}

// NewCache wraps a Redis client. A nil client disables caching.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) get(ctx context.Context, key string, target any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reports: cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("reports: cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, value any) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("reports: cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		return fmt.Errorf("reports: cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the cached reports, forcing the next read to recompute.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, cacheKeyDashboard, cacheKeyVendors).Err(); err != nil {
		return fmt.Errorf("reports: cache invalidate: %w", err)
	}
	return nil
}
