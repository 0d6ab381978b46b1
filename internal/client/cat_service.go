// Package client is the consumer side of the catalog proxy. CatService talks
// to the proxy's /api routes and feeds the incremental loader.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apibillme/cache"
	"github.com/go-resty/resty/v2"

	"github.com/timmy/catknow/internal/config"
	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/loader"
	"github.com/timmy/catknow/internal/logger"
)

const (
	defaultBaseURL  = "http://localhost:3000"
	defaultCacheTTL = 5 * time.Minute
	cacheCapacity   = 512
)

// CatService reads categories and images through the proxy and keeps
// successful response bodies for five minutes.
type CatService struct {
	client  *resty.Client
	baseURL string

	// mu guards the cache pointer, which ClearCache swaps
	mu    sync.RWMutex
	cache cache.Cache
}

// NewCatService creates a proxy client.
// Parameters:
//   - cfg: client configuration; BaseURL defaults to http://localhost:3000.
// Returns:
//   - *CatService: initialized service.
func NewCatService(cfg *config.ClientConfig) *CatService {
	baseURL := defaultBaseURL
	var timeout time.Duration
	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		timeout = cfg.Timeout
	}

	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &CatService{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cache:   newResponseCache(),
	}
}

func newResponseCache() cache.Cache {
	return cache.New(cacheCapacity, cache.WithTTL(defaultCacheTTL))
}

// Categories returns every category.
func (s *CatService) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.getJSON(ctx, s.baseURL+"/api/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Cats returns one page of images. Without a category only images with
// breed data are requested.
func (s *CatService) Cats(ctx context.Context, page, limit int, categoryID string) ([]domain.CatImage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if categoryID != "" {
		q.Set("category_ids", categoryID)
	} else {
		q.Set("has_breeds", "1")
	}

	var images []domain.CatImage
	if err := s.getJSON(ctx, s.baseURL+"/api/cats?"+q.Encode(), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// CatDetails returns a single image with its breeds.
func (s *CatService) CatDetails(ctx context.Context, id string) (*domain.CatImage, error) {
	if id == "" {
		return nil, domain.NewValidationError("Cat ID is required")
	}

	var img domain.CatImage
	if err := s.getJSON(ctx, s.baseURL+"/api/cats/"+url.PathEscape(id), &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// ClearCache drops every cached response.
func (s *CatService) ClearCache() {
	s.mu.Lock()
	s.cache = newResponseCache()
	s.mu.Unlock()
}

// PageSource adapts Cats to the loader. The loader key is the category ID;
// an empty key lists images with breeds.
func (s *CatService) PageSource() loader.FetchFunc[domain.CatImage] {
	return func(ctx context.Context, categoryID string, page, limit int) ([]domain.CatImage, error) {
		return s.Cats(ctx, page, limit, categoryID)
	}
}

func (s *CatService) cached(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func (s *CatService) store(key string, body []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.cache.Set(key, body)
}

func (s *CatService) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	if body, ok := s.cached(rawURL); ok {
		logger.With(logger.Fields{logger.FieldCacheKey: rawURL}).Debug(ctx, "Client cache hit")
		return json.Unmarshal(body, out)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return domain.NewTransportError(fmt.Errorf("failed to call proxy: %w", err))
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode(), resp.Body())
	}

	body := resp.Body()
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewMalformedPayloadError(err)
	}
	s.store(rawURL, body)
	return nil
}

// decodeError turns an {error, code} envelope back into an APIError. Bodies
// that are not envelopes become EXTERNAL_API_ERROR with the status text.
func decodeError(status int, body []byte) error {
	var env domain.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Code != "" {
		return &domain.APIError{Status: status, Code: env.Code, Message: env.Error}
	}
	return domain.NewUpstreamError(status, http.StatusText(status))
}
