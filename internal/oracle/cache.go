package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/mtlprog/basket/internal/domain"
)

const defaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	price     domain.Price
	expiresAt time.Time
}

// Cached wraps an Oracle and remembers successful lookups for a fixed TTL.
type Cached struct {
	next    Oracle
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCached creates a caching oracle. A non-positive ttl uses the 30s default.
func NewCached(next Oracle, ttl time.Duration) *Cached {
	if next == nil {
		panic("oracle.NewCached: next oracle must not be nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cached) PriceOf(ctx context.Context, assetID string) (domain.Price, error) {
	if p, ok := c.get(assetID); ok {
		return p, nil
	}
	p, err := c.next.PriceOf(ctx, assetID)
	if err != nil {
		return domain.Price{}, err
	}
	c.set(assetID, p)
	return p, nil
}

// Invalidate drops a cached price, e.g. after an admin override.
func (c *Cached) Invalidate(assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, assetID)
}

// Reset drops every cached price.
func (c *Cached) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cached) get(key string) (domain.Price, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return domain.Price{}, false
	}
	return entry.price, true
}

func (c *Cached) set(key string, p domain.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		price:     p,
		expiresAt: time.Now().Add(c.ttl),
	}
}
