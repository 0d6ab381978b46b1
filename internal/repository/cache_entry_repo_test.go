package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/domain"
)

func newTestRepo(t *testing.T) *CacheEntryRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	return NewCacheEntryRepository(db)
}

func TestCacheEntryRepositoryUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, ok, err := repo.Get(ctx, "store", "https://x/categories")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "https://x/categories", Value: []byte(`[1]`), StoredAt: at}))
	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "https://x/categories", Value: []byte(`[2]`), StoredAt: at.Add(time.Minute)}))

	got, ok, err := repo.Get(ctx, "store", "https://x/categories")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[2]`, string(got.Value))
	assert.True(t, got.StoredAt.Equal(at.Add(time.Minute)))

	_, ok, err = repo.Get(ctx, "other", "https://x/categories")
	require.NoError(t, err)
	assert.False(t, ok, "names partition the table")
}

func TestCacheEntryRepositoryDeleteBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "old", Value: []byte(`1`), StoredAt: at}))
	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "new", Value: []byte(`2`), StoredAt: at.Add(10 * time.Minute)}))

	removed, err := repo.DeleteBefore(ctx, "store", at.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := repo.Count(ctx, "store")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCacheEntryRepositoryDeleteIfUnchanged(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "k", Value: []byte(`1`), StoredAt: at}))
	read, ok, err := repo.Get(ctx, "store", "k")
	require.NoError(t, err)
	require.True(t, ok)

	// rewritten after the read
	require.NoError(t, repo.Upsert(ctx, &domain.CacheEntry{Name: "store", Key: "k", Value: []byte(`2`), StoredAt: at.Add(6 * time.Minute)}))

	removed, err := repo.DeleteIfUnchanged(ctx, "store", "k", read.StoredAt)
	require.NoError(t, err)
	assert.False(t, removed)

	got, ok, err := repo.Get(ctx, "store", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `2`, string(got.Value))

	removed, err = repo.DeleteIfUnchanged(ctx, "store", "k", got.StoredAt)
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok, err = repo.Get(ctx, "store", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
