// Package cache provides the process-wide result cache shared by all metadata
// operations. Entries expire lazily: an expired entry is dropped on the next
// access to its key, there is no background eviction.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a TTL memoization store keyed by canonical call signatures.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time
	writes  int
	hits    int
	misses  int
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.data, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the write lock: a concurrent Put may have refreshed it.
	if cur, exists := c.entries[key]; exists {
		if now.Before(cur.expiresAt) {
			c.hits++
			return cur.data, true
		}
		delete(c.entries, key)
	}
	c.misses++
	return nil, false
}

// Put stores value under key for ttl. A non-positive ttl is a no-op.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.writes%100 == 0 {
		c.sweepLocked()
	}
	c.entries[key] = entry{
		data:      value,
		expiresAt: c.now().Add(ttl),
	}
}

// Clear drops every entry immediately.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit/miss counters and the current entry count.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Do returns the cached value for key, or computes it with fn and caches it for ttl.
// Concurrent callers for the same key share one computation. When fn reports
// ok=false the value is returned but not cached.
func (c *Cache) Do(key string, ttl time.Duration, fn func() (any, bool)) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		value, ok := fn()
		if ok {
			c.Put(key, value, ttl)
		}
		return value, nil
	})
	return v
}

func (c *Cache) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
