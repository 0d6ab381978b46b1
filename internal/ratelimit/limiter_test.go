package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(0, 0).Add(offset)
}

func TestSlidingWindowScenario(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(3, 60000*time.Millisecond, WithClock(clock.Now))

	steps := []struct {
		at      time.Duration
		allowed bool
	}{
		{0, true},
		{10 * time.Second, true},
		{20 * time.Second, true},
		{30 * time.Second, false},
		{61 * time.Second, true},
	}
	for _, step := range steps {
		clock.Set(step.at)
		d := lim.Allow("1.2.3.4")
		assert.Equal(t, step.allowed, d.Allowed, "at %v", step.at)
	}
}

func TestSlidingWindowRetryAfter(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(1, time.Minute, WithClock(clock.Now))

	clock.Set(0)
	require.True(t, lim.Allow("a").Allowed)

	clock.Set(45 * time.Second)
	d := lim.Allow("a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 15*time.Second, d.RetryAfter)
}

func TestSlidingWindowBoundaryIsExclusive(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(1, time.Minute, WithClock(clock.Now))

	clock.Set(0)
	require.True(t, lim.Allow("a").Allowed)

	clock.Set(time.Minute - time.Millisecond)
	assert.False(t, lim.Allow("a").Allowed)

	clock.Set(time.Minute)
	assert.True(t, lim.Allow("a").Allowed, "a request exactly one window old no longer counts")
}

func TestSlidingWindowIdentitiesAreIndependent(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(1, time.Minute, WithClock(clock.Now))

	assert.True(t, lim.Allow("a").Allowed)
	assert.True(t, lim.Allow("b").Allowed)
	assert.False(t, lim.Allow("a").Allowed)
}

func TestSlidingWindowDeniedRequestsAreNotCounted(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(2, time.Minute, WithClock(clock.Now))

	clock.Set(0)
	lim.Allow("a")
	clock.Set(30 * time.Second)
	lim.Allow("a")
	for i := 0; i < 5; i++ {
		assert.False(t, lim.Allow("a").Allowed)
	}

	clock.Set(60 * time.Second)
	d := lim.Allow("a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestSlidingWindowCleanup(t *testing.T) {
	clock := &stepClock{}
	lim := NewSlidingWindow(5, time.Minute, WithClock(clock.Now))

	clock.Set(0)
	lim.Allow("a")
	clock.Set(30 * time.Second)
	lim.Allow("b")

	clock.Set(70 * time.Second)
	assert.Equal(t, 1, lim.Cleanup())
	assert.Equal(t, 1, lim.Identities())
}

func TestSlidingWindowConcurrentAllow(t *testing.T) {
	lim := NewSlidingWindow(50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lim.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestStartJanitorStopsWithContext(t *testing.T) {
	lim := NewSlidingWindow(1, time.Millisecond, WithCleanupEvery(time.Millisecond))
	lim.Allow("a")

	ctx, cancel := context.WithCancel(context.Background())
	lim.StartJanitor(ctx)

	assert.Eventually(t, func() bool { return lim.Identities() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestNewSlidingWindowDefaults(t *testing.T) {
	lim := NewSlidingWindow(0, 0)
	assert.Equal(t, DefaultLimit, lim.Limit())
	assert.Equal(t, DefaultWindow, lim.Window())
}
