package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// MemoryCache is an in-process ResponseCache with lazy expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	opts    Options
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		opts:    buildOptions(opts),
	}
}

// Name implements ResponseCache.
func (c *MemoryCache) Name() string { return "memory" }

// Get implements ResponseCache. Stale entries are evicted on read.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	ent, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if c.opts.Now().Sub(ent.storedAt) >= c.opts.TTL {
		c.mu.Lock()
		// a concurrent Put may have refreshed the entry
		if cur, ok := c.entries[key]; ok && cur.storedAt.Equal(ent.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return ent.value, true, nil
}

// Put implements ResponseCache.
func (c *MemoryCache) Put(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	c.entries[key] = memoryEntry{value: buf, storedAt: c.opts.Now()}
	c.mu.Unlock()
	return nil
}

// Purge drops every stale entry and returns how many were removed.
func (c *MemoryCache) Purge(_ context.Context) (int64, error) {
	now := c.opts.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int64
	for k, ent := range c.entries {
		if now.Sub(ent.storedAt) >= c.opts.TTL {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
