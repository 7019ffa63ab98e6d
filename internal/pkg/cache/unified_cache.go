package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CacheMetrics tracks cache performance
type CacheMetrics struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// UnifiedCache is a generic TTL cache used for provider lookups (place
// details) so repeat views don't re-hit the Vietmap APIs. Counters are
// atomic since lookups run concurrently under the read lock.
type UnifiedCache[T any] struct {
	mu     sync.RWMutex
	items  map[string]cacheEntry[T]
	ttl    time.Duration
	name   string // For logging/debugging
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	logger *zap.Logger
}

type cacheEntry[T any] struct {
	value      T
	expiration int64
}

// NewUnifiedCache creates a new generic cache with specified TTL and name
func NewUnifiedCache[T any](ttl time.Duration, name string, logger *zap.Logger) *UnifiedCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &UnifiedCache[T]{
		items:  make(map[string]cacheEntry[T]),
		ttl:    ttl,
		name:   name,
		logger: logger,
	}
	go c.cleanup()
	return c
}

// Set stores an item in the cache with the given key
func (c *UnifiedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheEntry[T]{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	c.sets.Add(1)
}

// Get retrieves an item from the cache
func (c *UnifiedCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || time.Now().UnixNano() > item.expiration {
		c.misses.Add(1)
		var zero T
		return zero, false
	}

	c.hits.Add(1)
	return item.value, true
}

// Delete removes an item from the cache
func (c *UnifiedCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// GetMetrics returns current cache metrics
func (c *UnifiedCache[T]) GetMetrics() CacheMetrics {
	return CacheMetrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

// Size returns the number of items in the cache
func (c *UnifiedCache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanup runs periodically to remove expired items
func (c *UnifiedCache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now().UnixNano()
		expiredCount := 0

		for key, item := range c.items {
			if now > item.expiration {
				delete(c.items, key)
				expiredCount++
			}
		}

		if expiredCount > 0 {
			c.logger.Info("Cache cleanup",
				zap.String("cache", c.name),
				zap.Int("expired_items", expiredCount),
				zap.Int("remaining_items", len(c.items)))
		}
		c.mu.Unlock()
	}
}
