package cache

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/catknow/internal/storage"
)

type memoryObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjectStorage() *memoryObjectStorage {
	return &memoryObjectStorage{objects: make(map[string][]byte)}
}

func (s *memoryObjectStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryObjectStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryObjectStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func TestObjectCachePutGet(t *testing.T) {
	ctx := context.Background()
	store := newMemoryObjectStorage()
	c := NewObjectCache(store)

	key := "https://api.thecatapi.com/v1/images/abc"
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, key, []byte(`{"id":"abc","url":"u"}`)))

	objKey := c.ObjectKey(key)
	assert.True(t, strings.HasPrefix(objKey, DefaultName+"/"))
	assert.True(t, strings.HasSuffix(objKey, ".json"))
	exists, _ := store.Exists(ctx, objKey)
	assert.True(t, exists)

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"abc","url":"u"}`, string(got))
}

func TestObjectCacheStaleEntryIsDeleted(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryObjectStorage()
	c := NewObjectCache(store, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "https://x/categories", []byte(`[]`)))
	clock.Advance(DefaultTTL)

	_, ok, err := c.Get(ctx, "https://x/categories")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, _ := store.Exists(ctx, c.ObjectKey("https://x/categories"))
	assert.False(t, exists)
}

func TestObjectCacheRejectsNonJSON(t *testing.T) {
	c := NewObjectCache(newMemoryObjectStorage())
	assert.Error(t, c.Put(context.Background(), "k", []byte("not json")))
}
