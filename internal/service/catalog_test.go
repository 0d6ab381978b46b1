package service

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/catknow/internal/cache"
	"github.com/timmy/catknow/internal/catapi"
	"github.com/timmy/catknow/internal/domain"
)

type fakeUpstream struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     atomic.Int32
	delay     time.Duration
	// when set, Get blocks until gate is closed or ctx is done
	gate    chan struct{}
	entered chan struct{}
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{responses: map[string][]byte{}, errs: map[string]error{}}
}

func (f *fakeUpstream) URL(path string, query url.Values) string {
	u := "https://upstream.test/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (f *fakeUpstream) ImageURL(id string) string {
	return f.URL("/images/"+id, nil)
}

func (f *fakeUpstream) Get(ctx context.Context, rawURL string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.gate != nil {
		f.entered <- struct{}{}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, domain.NewTransportError(ctx.Err())
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if body, ok := f.responses[rawURL]; ok {
		return body, nil
	}
	return nil, domain.NewUpstreamError(http.StatusNotFound, "")
}

func TestCatalogServiceCachesResponses(t *testing.T) {
	up := newFakeUpstream()
	up.responses[up.URL(catapi.PathCategories, nil)] = []byte(`[{"id":1,"name":"hats"}]`)
	svc := NewCatalogService(up, cache.NewMemoryCache())
	ctx := context.Background()

	first, err := svc.Categories(ctx, FetchOptions{})
	require.NoError(t, err)
	second, err := svc.Categories(ctx, FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestCatalogServiceBypassCache(t *testing.T) {
	up := newFakeUpstream()
	up.responses[up.URL(catapi.PathCategories, nil)] = []byte(`[{"id":1,"name":"hats"}]`)
	c := cache.NewMemoryCache()
	svc := NewCatalogService(up, c)
	ctx := context.Background()

	_, err := svc.Categories(ctx, FetchOptions{BypassCache: true})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len(), "bypass must not write")

	_, err = svc.Categories(ctx, FetchOptions{})
	require.NoError(t, err)
	_, err = svc.Categories(ctx, FetchOptions{BypassCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(3), up.calls.Load(), "bypass must not read")
}

func TestCatalogServiceSearchImagesUsesDeterministicKey(t *testing.T) {
	up := newFakeUpstream()
	q := ImageQuery{Page: 1, Limit: 2}
	key := up.URL(catapi.PathImagesSearch, q.Values())
	up.responses[key] = []byte(`[{"id":"a","url":"https://cdn/a.jpg"},{"id":"b","url":"https://cdn/b.jpg","breeds":[]}]`)
	c := cache.NewMemoryCache()
	svc := NewCatalogService(up, c)

	body, err := svc.SearchImages(context.Background(), q, FetchOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"id":"a"`)

	cached, ok, err := c.Get(context.Background(), "https://upstream.test/v1/images/search?limit=2&page=1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, body, cached)
}

func TestCatalogServicePropagatesUpstreamStatus(t *testing.T) {
	up := newFakeUpstream()
	svc := NewCatalogService(up, cache.NewMemoryCache())

	_, err := svc.ImageByID(context.Background(), "missing", FetchOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, domain.CodeExternalAPIError, domain.AsAPIError(err).Code)
}

func TestCatalogServiceRejectsInvalidID(t *testing.T) {
	up := newFakeUpstream()
	svc := NewCatalogService(up, cache.NewMemoryCache())

	_, err := svc.ImageByID(context.Background(), "a/b", FetchOptions{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, domain.AsAPIError(err).Status)
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestCatalogServiceMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"not json", `<html>`, "decode images"},
		{"object instead of list", `{"id":"a"}`, "decode images"},
		{"image without url", `[{"id":"a"}]`, "image 0: missing url"},
		{"image without id", `[{"url":"u"}]`, "image 0: missing id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream()
			q := ImageQuery{Limit: 10}
			up.responses[up.URL(catapi.PathImagesSearch, q.Values())] = []byte(tt.body)
			c := cache.NewMemoryCache()
			svc := NewCatalogService(up, c)

			_, err := svc.SearchImages(context.Background(), q, FetchOptions{})
			require.Error(t, err)
			apiErr := domain.AsAPIError(err)
			assert.Equal(t, http.StatusBadGateway, apiErr.Status)
			assert.Equal(t, domain.CodeInvalidUpstreamResponse, apiErr.Code)
			assert.ErrorContains(t, apiErr.Err, tt.wantErr)
			assert.Equal(t, 0, c.Len(), "malformed payloads are never cached")
		})
	}
}

func TestCatalogServiceCoalescesConcurrentMisses(t *testing.T) {
	up := newFakeUpstream()
	up.delay = 50 * time.Millisecond
	up.responses[up.URL(catapi.PathCategories, nil)] = []byte(`[]`)
	svc := NewCatalogService(up, cache.NewMemoryCache())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Categories(context.Background(), FetchOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), up.calls.Load())
}

func TestCatalogServiceRefetchesAfterExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	up := newFakeUpstream()
	up.responses[up.URL(catapi.PathCategories, nil)] = []byte(`[]`)
	svc := NewCatalogService(up, cache.NewMemoryCache(cache.WithClock(clock)))
	ctx := context.Background()

	_, _ = svc.Categories(ctx, FetchOptions{})
	now = now.Add(4 * time.Minute)
	_, _ = svc.Categories(ctx, FetchOptions{})
	assert.Equal(t, int32(1), up.calls.Load())

	now = now.Add(time.Minute)
	_, _ = svc.Categories(ctx, FetchOptions{})
	assert.Equal(t, int32(2), up.calls.Load())
}

func TestCatalogServiceSharedFetchSurvivesCallerCancel(t *testing.T) {
	up := newFakeUpstream()
	up.gate = make(chan struct{})
	up.entered = make(chan struct{}, 1)
	up.responses[up.URL(catapi.PathCategories, nil)] = []byte(`[{"id":1,"name":"hats"}]`)
	svc := NewCatalogService(up, cache.NewMemoryCache())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := svc.Categories(leaderCtx, FetchOptions{})
		leaderDone <- err
	}()
	<-up.entered

	followerDone := make(chan error, 1)
	go func() {
		_, err := svc.Categories(context.Background(), FetchOptions{})
		followerDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(10 * time.Millisecond)
	close(up.gate)

	require.NoError(t, <-followerDone)
	require.NoError(t, <-leaderDone)
	assert.Equal(t, int32(1), up.calls.Load())
}
