package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shopfront/internal/models"
)

const FeaturedKey = "featured_products"

// Featured caches the featured product list as one JSON value. It is
// rewritten whenever a product's featured flag flips, so it carries no TTL
// unless one is given.
type Featured struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewFeatured(rdb redis.UniversalClient, ttl time.Duration) *Featured {
	return &Featured{rdb: rdb, ttl: ttl}
}

// Get reports false on a cache miss.
func (c *Featured) Get(ctx context.Context) ([]models.Product, bool, error) {
	b, err := c.rdb.Get(ctx, FeaturedKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get featured cache: %w", err)
	}
	var products []models.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, false, fmt.Errorf("decode featured cache: %w", err)
	}
	return products, true, nil
}

func (c *Featured) Set(ctx context.Context, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	b, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, FeaturedKey, b, c.ttl).Err()
}

func (c *Featured) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, FeaturedKey).Err()
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context) ([]models.Product, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, []models.Product) error         { return nil }
func (Nop) Invalidate(context.Context) error                    { return nil }
