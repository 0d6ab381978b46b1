// Package cache provides the named response cache that sits in front of the
// upstream catalog. Entries are keyed by the full upstream request URL and
// read as absent once they are older than the staleness window.
package cache

import (
	"context"
	"time"
)

const (
	// DefaultName is the cache store name used when none is configured.
	DefaultName = "catknow-api-cache"
	// DefaultTTL is the staleness window measured from insertion.
	DefaultTTL = 5 * time.Minute
)

// ResponseCache stores raw upstream response bodies.
type ResponseCache interface {
	// Get returns the body stored under key. A stale or missing entry reports false.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key, replacing any previous entry.
	Put(ctx context.Context, key string, value []byte) error
	// Name returns the backend name used in logs.
	Name() string
}

// Clock returns the current time.
type Clock func() time.Time

// Options are shared by every backend.
type Options struct {
	Name string
	TTL  time.Duration
	Now  Clock
}

// Option configures a backend.
type Option func(*Options)

// WithName sets the cache store name.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithTTL sets the staleness window.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TTL = ttl }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now Clock) Option {
	return func(o *Options) { o.Now = now }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Name: DefaultName,
		TTL:  DefaultTTL,
		Now:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
