// Package cache provides Redis-backed read caches for hot domain objects.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leogadddd/ordura-v2/internal/domain"
)

// productKeyPrefix namespaces product entries in Redis.
const productKeyPrefix = "ordura:product:"

// defaultProductTTL bounds staleness for cached products.
const defaultProductTTL = 5 * time.Minute

// ProductCache caches individual products in Redis.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a product cache. A non-positive ttl falls back to
// the default.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = defaultProductTTL
	}
	return &ProductCache{client: client, ttl: ttl}
}

// Get returns the cached product, or (nil, nil) on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached product: %w", err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		// A corrupt entry is treated as a miss after removal.
		c.client.Del(ctx, productKeyPrefix+id)
		return nil, nil
	}

	return &product, nil
}

// Set stores the product with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product for cache: %w", err)
	}

	if err := c.client.Set(ctx, productKeyPrefix+product.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached product: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for the given product ID.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("invalidate cached product: %w", err)
	}
	return nil
}
