// Package catalog serves the branch-scoped product list from a cache in
// front of the product store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"shopdesk/internal/domain"
	applog "shopdesk/internal/log"
	"shopdesk/internal/metrics"
)

// Source lists active, in-stock products of a branch, including products
// shared by all branches of the business.
type Source interface {
	ListProducts(ctx context.Context, businessID, branchID string) ([]domain.Product, error)
}

type Catalog struct {
	src   Source
	cache Cache
	sfg   singleflight.Group

	// gen counts invalidations per key; a load started before one is not cached.
	mu  sync.Mutex
	gen map[string]uint64
}

func New(src Source, cache Cache) *Catalog {
	return &Catalog{src: src, cache: cache, gen: map[string]uint64{}}
}

func (c *Catalog) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}

func (c *Catalog) bump(key string) {
	c.mu.Lock()
	c.gen[key]++
	c.mu.Unlock()
}

// Products returns the branch catalog, loading it from the source on a miss.
func (c *Catalog) Products(ctx context.Context, businessID, branchID string) ([]domain.Product, error) {
	key := cacheKey(businessID, branchID)

	ps, err := c.cache.Get(ctx, key)
	if err == nil {
		metrics.CatalogLookups.WithLabelValues("hit").Inc()
		return ps, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		applog.L().Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.CatalogLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		g := c.generation(key)
		ps, err := c.src.ListProducts(ctx, businessID, branchID)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if c.generation(key) != g {
			return ps, nil
		}
		if err := c.cache.Set(ctx, key, ps); err != nil {
			applog.L().Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]domain.Product)), nil
}

func (c *Catalog) Snapshot(ctx context.Context, businessID, branchID string) (*Snapshot, error) {
	ps, err := c.Products(ctx, businessID, branchID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(branchID, ps), nil
}

// Invalidate drops the cached catalog of each listed branch.
func (c *Catalog) Invalidate(ctx context.Context, businessID string, branchIDs ...string) error {
	var errs []error
	for _, b := range branchIDs {
		key := cacheKey(businessID, b)
		c.bump(key)
		c.sfg.Forget(key)
		if err := c.cache.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Snapshot is an immutable view of one branch catalog. It satisfies
// cart.StockSource.
type Snapshot struct {
	BranchID string
	products []domain.Product
	byID     map[string]int
}

func NewSnapshot(branchID string, ps []domain.Product) *Snapshot {
	s := &Snapshot{BranchID: branchID, products: ps, byID: make(map[string]int, len(ps))}
	for i, p := range ps {
		s.byID[p.ID] = i
	}
	return s
}

func (s *Snapshot) Product(id string) (domain.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Filter matches q case-insensitively against name and SKU, and category
// exactly when given.
func (s *Snapshot) Filter(q, category string) []domain.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []domain.Product
	for _, p := range s.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}
