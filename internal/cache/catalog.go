// Package cache provides an optional Redis read-through cache for the
// product catalog. The catalog changes rarely and is read on every order,
// so a short TTL keeps pricing fresh while absorbing list traffic.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kiranakart/kirana-backend/internal/domain/product"
)

const (
	catalogKey = "kirana:catalog"
	catalogTTL = 30 * time.Second
)

var _ product.Repository = (*CatalogCache)(nil)

// CatalogCache decorates a product.Repository with a Redis cache of the full
// catalog list. Point lookups bypass the cache; List serves from Redis when
// fresh. Cache failures are logged and fall through to the repository, so a
// Redis outage degrades to direct reads instead of failing orders.
type CatalogCache struct {
	inner  product.Repository
	client *redis.Client
}

// NewCatalogCache wraps repo with the given Redis client.
func NewCatalogCache(inner product.Repository, client *redis.Client) *CatalogCache {
	return &CatalogCache{inner: inner, client: client}
}

// List returns the cached catalog when present, otherwise reads through and
// repopulates the cache.
func (c *CatalogCache) List(ctx context.Context) ([]product.Product, error) {
	val, err := c.client.Get(ctx, catalogKey).Bytes()
	switch {
	case err == nil:
		var products []product.Product
		if err := json.Unmarshal(val, &products); err == nil {
			return products, nil
		}
		zctx.From(ctx).Warn("Corrupt catalog cache entry, rereading", zap.Error(err))
	case !errors.Is(err, redis.Nil):
		zctx.From(ctx).Warn("Catalog cache read failed", zap.Error(err))
	}

	products, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, catalogKey, payload, catalogTTL).Err(); err != nil {
			zctx.From(ctx).Warn("Catalog cache write failed", zap.Error(err))
		}
	}

	return products, nil
}

// GetByID reads directly from the repository.
func (c *CatalogCache) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return c.inner.GetByID(ctx, id)
}

// GetByIDs reads directly from the repository. Order pricing needs current
// prices, so line-item lookups never come from the cache.
func (c *CatalogCache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return c.inner.GetByIDs(ctx, ids)
}
