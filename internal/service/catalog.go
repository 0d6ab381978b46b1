package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/timmy/catknow/internal/cache"
	"github.com/timmy/catknow/internal/catapi"
	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/logger"
)

// Upstream is the outbound side of the proxy.
type Upstream interface {
	URL(path string, query url.Values) string
	ImageURL(id string) string
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// FetchOptions tunes a single proxy fetch.
type FetchOptions struct {
	// BypassCache skips both the cache read and the cache write.
	BypassCache bool
}

// CatalogService fetches catalog resources through the response cache.
type CatalogService struct {
	upstream Upstream
	cache    cache.ResponseCache
	group    singleflight.Group
}

// NewCatalogService creates a new catalog service.
// Parameters:
//   - upstream: client for the external catalog.
//   - responseCache: cache keyed by upstream URL.
//
// Returns:
//   - *CatalogService: initialized service.
func NewCatalogService(upstream Upstream, responseCache cache.ResponseCache) *CatalogService {
	return &CatalogService{
		upstream: upstream,
		cache:    responseCache,
	}
}

// Categories returns the raw category list.
func (s *CatalogService) Categories(ctx context.Context, opts FetchOptions) ([]byte, error) {
	return s.fetch(ctx, s.upstream.URL(catapi.PathCategories, nil), opts, validateCategories)
}

// SearchImages returns a raw page of images for q.
func (s *CatalogService) SearchImages(ctx context.Context, q ImageQuery, opts FetchOptions) ([]byte, error) {
	return s.fetch(ctx, s.upstream.URL(catapi.PathImagesSearch, q.Values()), opts, validateImages)
}

// ImageByID returns a single raw image record.
func (s *CatalogService) ImageByID(ctx context.Context, id string, opts FetchOptions) ([]byte, error) {
	if err := ValidateImageID(id); err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.upstream.ImageURL(id), opts, validateImage)
}

func (s *CatalogService) fetch(ctx context.Context, rawURL string, opts FetchOptions, validate func([]byte) error) ([]byte, error) {
	ctx = logger.SetComponent(ctx, "catalog")
	log := logger.With(logger.Fields{
		logger.FieldCacheKey:   rawURL,
		logger.FieldCacheStore: s.cache.Name(),
	})

	if opts.BypassCache {
		body, err := s.load(ctx, rawURL, validate)
		if err != nil {
			log.Warn(ctx, "Upstream fetch failed: %v", err)
		}
		return body, err
	}

	if body, ok, err := s.cache.Get(ctx, rawURL); err != nil {
		log.Warn(ctx, "Cache read failed, fetching upstream: %v", err)
	} else if ok {
		log.Debug(ctx, "Cache hit")
		return body, nil
	}

	// the shared call outlives any single caller; the client timeout bounds it
	sharedCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(rawURL, func() (interface{}, error) {
		start := time.Now()
		body, err := s.load(sharedCtx, rawURL, validate)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(sharedCtx, rawURL, body); err != nil {
			log.Warn(sharedCtx, "Cache write failed: %v", err)
		}
		log.WithDuration(time.Since(start).Milliseconds()).
			WithField(logger.FieldSize, len(body)).
			Info(sharedCtx, "Cache miss, fetched upstream")
		return body, nil
	})
	if err != nil {
		log.Warn(ctx, "Upstream fetch failed: %v", err)
		return nil, err
	}
	if shared {
		log.Debug(ctx, "Shared in-flight upstream fetch")
	}
	return v.([]byte), nil
}

func (s *CatalogService) load(ctx context.Context, rawURL string, validate func([]byte) error) ([]byte, error) {
	body, err := s.upstream.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := validate(body); err != nil {
		return nil, domain.NewMalformedPayloadError(err)
	}
	return body, nil
}

func validateCategories(body []byte) error {
	var categories []domain.Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return fmt.Errorf("decode categories: %w", err)
	}
	for i, c := range categories {
		if c.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
	}
	return nil
}

func validateImages(body []byte) error {
	var images []domain.CatImage
	if err := json.Unmarshal(body, &images); err != nil {
		return fmt.Errorf("decode images: %w", err)
	}
	for i, img := range images {
		if err := checkImage(img); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}
	return nil
}

func validateImage(body []byte) error {
	var img domain.CatImage
	if err := json.Unmarshal(body, &img); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return checkImage(img)
}

func checkImage(img domain.CatImage) error {
	if img.ID == "" {
		return fmt.Errorf("missing id")
	}
	if img.URL == "" {
		return fmt.Errorf("missing url")
	}
	return nil
}
