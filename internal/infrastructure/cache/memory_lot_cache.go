package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fulfillment/backend/internal/domain/catalog"
)

// lotEntry represents a cached lot resolution with expiration
type lotEntry struct {
	lot       string
	expiresAt time.Time
}

// MemoryLotCache caches lot resolutions in an in-memory map in front of
// another resolver. Only successful resolutions are cached so that a newly
// activated lot for a previously unmapped base code is visible immediately.
// This is suitable for single-instance deployments and testing.
type MemoryLotCache struct {
	inner     catalog.LotResolver
	ttl       time.Duration
	mu        sync.RWMutex
	entries   map[string]lotEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryLotCache creates a new in-memory lot cache around the inner
// resolver. It starts a background goroutine to clean up expired entries.
func NewMemoryLotCache(inner catalog.LotResolver, ttl time.Duration) *MemoryLotCache {
	cache := &MemoryLotCache{
		inner:    inner,
		ttl:      ttl,
		entries:  make(map[string]lotEntry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Resolve implements catalog.LotResolver
func (c *MemoryLotCache) Resolve(ctx context.Context, baseCode string) (string, bool, error) {
	c.mu.RLock()
	e, exists := c.entries[baseCode]
	c.mu.RUnlock()

	if exists && time.Now().Before(e.expiresAt) {
		return e.lot, true, nil
	}

	lot, ok, err := c.inner.Resolve(ctx, baseCode)
	if err != nil || !ok {
		return lot, ok, err
	}

	c.mu.Lock()
	c.entries[baseCode] = lotEntry{
		lot:       lot,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return lot, true, nil
}

// Invalidate drops the cached resolution for a base code
func (c *MemoryLotCache) Invalidate(baseCode string) {
	c.mu.Lock()
	delete(c.entries, baseCode)
	c.mu.Unlock()
}

// Close stops the cleanup goroutine
func (c *MemoryLotCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *MemoryLotCache) cleanupLoop() {
	defer c.wg.Done()

	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

// removeExpired removes all expired entries
func (c *MemoryLotCache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for baseCode, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, baseCode)
		}
	}
}

// Ensure MemoryLotCache implements LotResolver
var _ catalog.LotResolver = (*MemoryLotCache)(nil)
