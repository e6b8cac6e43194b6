package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopdesk/internal/domain"
)

var ErrCacheMiss = errors.New("catalog: cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]domain.Product, error)
	Set(ctx context.Context, key string, products []domain.Product) error
	Delete(ctx context.Context, key string) error
}

func cacheKey(businessID, branchID string) string {
	return fmt.Sprintf("catalog:%s:%s", businessID, branchID)
}

type memEntry struct {
	products []domain.Product
	expires  time.Time
}

// MemoryCache is a process-local Cache used when no Redis is configured.
type MemoryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memEntry
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, items: map[string]memEntry{}, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]domain.Product, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return nil, ErrCacheMiss
	}
	return clone(e.products), nil
}

func (m *MemoryCache) Set(_ context.Context, key string, products []domain.Product) error {
	m.mu.Lock()
	m.items[key] = memEntry{products: clone(products), expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func clone(ps []domain.Product) []domain.Product {
	out := make([]domain.Product, len(ps))
	copy(out, ps)
	return out
}
