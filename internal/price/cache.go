// internal/price/cache.go
package price

import (
	"context"
	"sync"
	"time"

	"github.com/rovshanmuradov/solana-research/internal/domain"
)

type cachedPrice struct {
	value   domain.Metric
	fetched time.Time
}

// Cache memoizes another Lookup for ttl. Unavailable answers are cached too;
// errors are not.
type Cache struct {
	next Lookup
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedPrice
}

// NewCache wraps next.
func NewCache(next Lookup, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedPrice),
	}
}

// Price implements Lookup.
func (c *Cache) Price(ctx context.Context, mint string) (domain.Metric, error) {
	c.mu.RLock()
	e, ok := c.entries[mint]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return e.value, nil
	}

	v, err := c.next.Price(ctx, mint)
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	c.entries[mint] = cachedPrice{value: v, fetched: c.now()}
	c.mu.Unlock()
	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
