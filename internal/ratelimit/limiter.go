// Package ratelimit implements the per-identity sliding-window limiter that
// guards the proxy endpoints.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/catknow/internal/logger"
)

const (
	DefaultLimit  = 60
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool
	// Remaining is the number of requests left in the current window.
	Remaining int
	// RetryAfter is how long until the oldest request leaves the window. Zero when allowed.
	RetryAfter time.Duration
}

// SlidingWindow counts requests per identity over a trailing window.
type SlidingWindow struct {
	mu           sync.Mutex
	hits         map[string][]time.Time
	limit        int
	window       time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

// WithCleanupEvery sets the janitor interval.
func WithCleanupEvery(d time.Duration) Option {
	return func(s *SlidingWindow) { s.cleanupEvery = d }
}

// NewSlidingWindow creates a limiter allowing limit requests per window.
// Non-positive values fall back to the defaults.
func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	s := &SlidingWindow{
		hits:         make(map[string][]time.Time),
		limit:        limit,
		window:       window,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlidingWindow) Limit() int            { return s.limit }
func (s *SlidingWindow) Window() time.Duration { return s.window }

// Allow records a request for identity if it fits in the window.
// Denied requests are not recorded.
func (s *SlidingWindow) Allow(identity string) Decision {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.prune(s.hits[identity], now)
	if len(recent) >= s.limit {
		s.hits[identity] = recent
		return Decision{
			Allowed:    false,
			RetryAfter: s.window - now.Sub(recent[0]),
		}
	}

	recent = append(recent, now)
	s.hits[identity] = recent
	return Decision{
		Allowed:   true,
		Remaining: s.limit - len(recent),
	}
}

// prune drops timestamps with now-t >= window. Timestamps are kept in
// insertion order, so the expired ones form a prefix.
func (s *SlidingWindow) prune(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= s.window {
		i++
	}
	if i == 0 {
		return ts
	}
	out := make([]time.Time, len(ts)-i, len(ts)-i+1)
	copy(out, ts[i:])
	return out
}

// Cleanup forgets identities whose every request has left the window.
func (s *SlidingWindow) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ts := range s.hits {
		if len(s.prune(ts, now)) == 0 {
			delete(s.hits, id)
			removed++
		}
	}
	return removed
}

// Identities returns the number of tracked identities.
func (s *SlidingWindow) Identities() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// StartJanitor runs Cleanup periodically until ctx is cancelled.
func (s *SlidingWindow) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	ctx = logger.SetComponent(ctx, "ratelimit")
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Cleanup(); n > 0 {
					logger.With(logger.Fields{"identities": s.Identities()}).
						WithCount(n).
						Debug(ctx, "Dropped idle identities")
				}
			}
		}
	}()
}
