package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/shopfront/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ProductStore is the authoritative product source, usually MySQL.
// (nil, nil) means the product does not exist.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// ProductCache is the time-bounded cache in front of the store,
// usually Redis.
type ProductCache interface {
	GetProductCache(ctx context.Context, productID string) (*models.Product, error)
	CacheProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, productID string) error
}

// Catalog is a read-only product lookup with a bounded freshness window.
type Catalog struct {
	store  ProductStore
	cache  ProductCache
	group  singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

func New(store ProductStore, cache ProductCache, ttl time.Duration, logger *zap.Logger) *Catalog {
	return &Catalog{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetProduct is cache-aside: Redis first, then the store, with singleflight
// collapsing concurrent misses on the same id into one store read.
// (nil, nil) means the product does not exist.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if product, err := c.cache.GetProductCache(ctx, id); err == nil {
		return product, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		if product, err := c.cache.GetProductCache(ctx, id); err == nil {
			return product, nil
		}

		product, err := c.store.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return (*models.Product)(nil), nil
		}

		if err := c.cache.CacheProduct(ctx, product, c.ttl); err != nil {
			c.logger.Warn("Failed to cache product", zap.String("product_id", id), zap.Error(err))
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

// GetProducts batch-fetches unique ids in parallel. Individual lookup
// failures and missing products are excluded from the result, never
// returned as errors: partial data is acceptable to callers.
func (c *Catalog) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	unique := dedupe(ids)

	var mu sync.Mutex
	result := make(map[string]models.Product, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range unique {
		id := id
		g.Go(func() error {
			product, err := c.GetProduct(gctx, id)
			if err != nil {
				c.logger.Warn("Product lookup failed", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			if product == nil {
				return nil
			}
			mu.Lock()
			result[id] = *product
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Invalidate drops the cached entry so the next read sees fresh aggregates.
func (c *Catalog) Invalidate(ctx context.Context, id string) error {
	return c.cache.InvalidateProduct(ctx, id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
