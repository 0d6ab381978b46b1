package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/loader"
)

type fakeProxy struct {
	server    *httptest.Server
	calls     atomic.Int32
	lastQuery atomic.Value
	total     int
}

func newFakeProxy(t *testing.T, total int) *fakeProxy {
	t.Helper()
	p := &fakeProxy{total: total}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		_, _ = w.Write([]byte(`[{"id":5,"name":"boxes"},{"id":14,"name":"sinks"}]`))
	})
	mux.HandleFunc("/api/cats", func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		p.lastQuery.Store(r.URL.RawQuery)
		q := r.URL.Query()
		if q.Get("limit") == "101" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Limit cannot exceed 100","code":"INVALID_PARAMETER"}`))
			return
		}
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		_, _ = w.Write(imagesJSON(page*limit, min(p.total, (page+1)*limit)))
	})
	mux.HandleFunc("/api/cats/", func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		switch r.URL.Path {
		case "/api/cats/abc":
			_, _ = w.Write([]byte(`{"id":"abc","url":"https://cdn/abc.jpg","breeds":[{"id":"beng","name":"Bengal","energy_level":5}]}`))
		case "/api/cats/gone":
			http.Error(w, "gateway exploded", http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not Found","code":"EXTERNAL_API_ERROR"}`))
		}
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func imagesJSON(from, to int) []byte {
	out := []byte("[")
	for i := from; i < to; i++ {
		if i > from {
			out = append(out, ',')
		}
		id := "img" + strconv.Itoa(i)
		out = append(out, []byte(`{"id":"`+id+`","url":"https://cdn/`+id+`.jpg"}`)...)
	}
	return append(out, ']')
}

func newTestService(p *fakeProxy) *CatService {
	return NewCatService(&config.ClientConfig{BaseURL: p.server.URL + "/"})
}

func TestCatsQueryUsesHasBreedsWithoutCategory(t *testing.T) {
	p := newFakeProxy(t, 30)
	svc := newTestService(p)
	ctx := context.Background()

	_, err := svc.Cats(ctx, 0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, "has_breeds=1&limit=10&page=0", p.lastQuery.Load())

	_, err = svc.Cats(ctx, 2, 10, "5")
	require.NoError(t, err)
	assert.Equal(t, "category_ids=5&limit=10&page=2", p.lastQuery.Load())
}

func TestResponsesAreCached(t *testing.T) {
	p := newFakeProxy(t, 30)
	svc := newTestService(p)
	ctx := context.Background()

	first, err := svc.Categories(ctx)
	require.NoError(t, err)
	second, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []domain.Category{{ID: 5, Name: "boxes"}, {ID: 14, Name: "sinks"}}, first)
	assert.Equal(t, int32(1), p.calls.Load())

	svc.ClearCache()
	_, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCatDetails(t *testing.T) {
	p := newFakeProxy(t, 0)
	svc := newTestService(p)

	img, err := svc.CatDetails(context.Background(), "abc")
	require.NoError(t, err)
	breed, ok := img.PrimaryBreed()
	require.True(t, ok)
	assert.Equal(t, "Bengal", breed.Name)
	assert.Equal(t, 5, breed.EnergyLevel)
}

func TestCatDetailsEmptyIDIsRejectedLocally(t *testing.T) {
	p := newFakeProxy(t, 0)
	svc := newTestService(p)

	_, err := svc.CatDetails(context.Background(), "")
	require.Error(t, err)
	apiErr := domain.AsAPIError(err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, domain.CodeInvalidParameter, apiErr.Code)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestErrorEnvelopeIsDecoded(t *testing.T) {
	p := newFakeProxy(t, 0)
	svc := newTestService(p)
	ctx := context.Background()

	_, err := svc.CatDetails(ctx, "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, domain.CodeExternalAPIError, domain.AsAPIError(err).Code)

	_, err = svc.Cats(ctx, 0, 101, "")
	apiErr := domain.AsAPIError(err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, domain.CodeInvalidParameter, apiErr.Code)
	assert.Equal(t, "Limit cannot exceed 100", apiErr.Message)

	_, err = svc.CatDetails(ctx, "gone")
	apiErr = domain.AsAPIError(err)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, domain.CodeExternalAPIError, apiErr.Code)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestErrorsAreNotCached(t *testing.T) {
	p := newFakeProxy(t, 0)
	svc := newTestService(p)
	ctx := context.Background()

	_, _ = svc.CatDetails(ctx, "missing")
	_, _ = svc.CatDetails(ctx, "missing")
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestTransportFailure(t *testing.T) {
	p := newFakeProxy(t, 0)
	svc := newTestService(p)
	p.server.Close()

	_, err := svc.Categories(context.Background())
	apiErr := domain.AsAPIError(err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, domain.CodeInternalServerError, apiErr.Code)
}

func TestPageSourceShortPageEndsLoader(t *testing.T) {
	p := newFakeProxy(t, 9)
	svc := newTestService(p)
	l := loader.New(svc.PageSource(), loader.WithPageSize(10))

	require.True(t, l.LoadNext(context.Background()))
	s := l.State()
	assert.Len(t, s.Items, 9)
	assert.False(t, s.HasMore)
	assert.Equal(t, "img0", s.Items[0].ID)
}

func TestPageSourceFeedsLoaderInOrder(t *testing.T) {
	p := newFakeProxy(t, 17)
	svc := newTestService(p)
	l := loader.New(svc.PageSource(), loader.WithPageSize(12), loader.WithKey("5"))
	ctx := context.Background()

	for l.LoadNext(ctx) {
	}

	s := l.State()
	require.Len(t, s.Items, 17)
	for i, img := range s.Items {
		assert.Equal(t, "img"+strconv.Itoa(i), img.ID)
	}
}

func TestPageSourceFollowsKeyChange(t *testing.T) {
	p := newFakeProxy(t, 30)
	svc := newTestService(p)
	l := loader.New(svc.PageSource(), loader.WithPageSize(12), loader.WithKey("5"))
	ctx := context.Background()

	require.True(t, l.LoadNext(ctx))
	assert.Equal(t, "category_ids=5&limit=12&page=0", p.lastQuery.Load())

	require.True(t, l.SetKey(ctx, "14"))
	assert.Equal(t, "category_ids=14&limit=12&page=0", p.lastQuery.Load())

	require.True(t, l.SetKey(ctx, ""))
	assert.Equal(t, "has_breeds=1&limit=12&page=0", p.lastQuery.Load())
	assert.Len(t, l.State().Items, 12)
}
