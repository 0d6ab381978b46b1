package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/catknow/internal/storage"
)

type objectEnvelope struct {
	URL      string          `json:"url"`
	StoredAt time.Time       `json:"stored_at"`
	Body     json.RawMessage `json:"body"`
}

// ObjectCache stores entries as JSON objects in an S3-compatible bucket.
// The object key is "<name>/<sha256(url)>.json".
type ObjectCache struct {
	store storage.ObjectStorage
	opts  Options
}

// NewObjectCache creates a cache backed by object storage.
func NewObjectCache(store storage.ObjectStorage, opts ...Option) *ObjectCache {
	return &ObjectCache{store: store, opts: buildOptions(opts)}
}

// Name implements ResponseCache.
func (c *ObjectCache) Name() string { return "object" }

// ObjectKey returns the bucket key for a request URL.
func (c *ObjectCache) ObjectKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return c.opts.Name + "/" + hex.EncodeToString(sum[:]) + ".json"
}

// Get implements ResponseCache.
func (c *ObjectCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rc, err := c.store.Download(ctx, c.ObjectKey(key))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	var env objectEnvelope
	if err := json.NewDecoder(rc).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached object: %w", err)
	}
	// guard against hash collisions
	if env.URL != key {
		return nil, false, nil
	}
	if c.opts.Now().Sub(env.StoredAt) >= c.opts.TTL {
		if err := c.store.Delete(ctx, c.ObjectKey(key)); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return []byte(env.Body), true, nil
}

// Put implements ResponseCache. Values must be JSON documents.
func (c *ObjectCache) Put(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("refusing to cache non-JSON body for %s", key)
	}
	raw, err := json.Marshal(objectEnvelope{URL: key, StoredAt: c.opts.Now(), Body: value})
	if err != nil {
		return fmt.Errorf("failed to encode cached object: %w", err)
	}
	return c.store.Upload(ctx, c.ObjectKey(key), bytes.NewReader(raw), int64(len(raw)), "application/json")
}
