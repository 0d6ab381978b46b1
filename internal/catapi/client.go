// Package catapi is the outbound client for TheCatAPI catalog.
package catapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/timmy/catknow/internal/domain"
)

const (
	apiKeyHeader = "x-api-key"

	PathCategories   = "/categories"
	PathImagesSearch = "/images/search"
	pathImagePrefix  = "/images/"
)

// Config holds configuration for the upstream client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxRPS throttles outbound calls; 0 disables throttling.
	MaxRPS float64
	Burst  int
}

// Client performs read-only requests against the upstream catalog.
type Client struct {
	client  *resty.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a new upstream client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader(apiKeyHeader, cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), burst)
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter: limiter,
	}
}

// URL builds the absolute upstream URL for path and query.
// url.Values.Encode sorts keys, so equal queries always yield the same URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// ImageURL builds the upstream URL of a single image.
func (c *Client) ImageURL(id string) string {
	return c.URL(pathImagePrefix+url.PathEscape(id), nil)
}

// Get fetches rawURL and returns the response body of a 2xx response.
// Non-success statuses become upstream errors carrying the upstream status;
// network failures become transport errors.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.NewTransportError(fmt.Errorf("upstream throttle: %w", err))
		}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to call catalog API: %w", err))
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, domain.NewUpstreamError(resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}

	return resp.Body(), nil
}
