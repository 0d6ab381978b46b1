package cache

import (
	"context"
	"fmt"

	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/repository"
)

// DatabaseCache persists entries in the cache_entries table.
type DatabaseCache struct {
	repo *repository.CacheEntryRepository
	opts Options
}

// NewDatabaseCache creates a cache backed by the given repository.
func NewDatabaseCache(repo *repository.CacheEntryRepository, opts ...Option) *DatabaseCache {
	return &DatabaseCache{repo: repo, opts: buildOptions(opts)}
}

// Name implements ResponseCache.
func (c *DatabaseCache) Name() string { return "database" }

// Get implements ResponseCache. A stale row is deleted before reporting a
// miss unless a concurrent Put has replaced it in the meantime.
func (c *DatabaseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := c.repo.Get(ctx, c.opts.Name, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	if entry.IsStale(c.opts.Now(), c.opts.TTL) {
		if _, err := c.repo.DeleteIfUnchanged(ctx, c.opts.Name, key, entry.StoredAt); err != nil {
			return nil, false, fmt.Errorf("failed to evict stale cache entry: %w", err)
		}
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Put implements ResponseCache.
func (c *DatabaseCache) Put(ctx context.Context, key string, value []byte) error {
	entry := &domain.CacheEntry{
		Name:     c.opts.Name,
		Key:      key,
		Value:    value,
		StoredAt: c.opts.Now().UTC(),
	}
	if err := c.repo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge removes every row of this store older than the staleness window.
func (c *DatabaseCache) Purge(ctx context.Context) (int64, error) {
	cutoff := c.opts.Now().UTC().Add(-c.opts.TTL)
	// rows stored exactly at the cutoff are stale as well
	n, err := c.repo.DeleteBefore(ctx, c.opts.Name, cutoff.Add(1))
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return n, nil
}
