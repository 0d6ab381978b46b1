// Package loader implements incremental (infinite-scroll) fetching: a
// page-cursor state machine and the viewport sentinel that drives it.
package loader

import (
	"context"
	"sync"
)

const (
	DefaultPageSize    = 12
	DefaultInitialPage = 0
)

// FetchFunc loads one page for the query key. A page shorter than limit is
// the last one.
type FetchFunc[T any] func(ctx context.Context, key string, page, limit int) ([]T, error)

// State is a snapshot of the loader.
type State[T any] struct {
	Key       string
	Items     []T
	Cursor    int
	HasMore   bool
	IsLoading bool
	Err       error
}

// Loader accumulates pages from a FetchFunc. Callers normally drive it from
// one goroutine; state is still guarded so fetches may complete elsewhere.
type Loader[T any] struct {
	fetch       FetchFunc[T]
	pageSize    int
	initialPage int

	mu          sync.Mutex
	state       State[T]
	generation  uint64
	subscribers []func(State[T])
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	pageSize    int
	initialPage int
	key         string
}

// WithPageSize sets the page size requested from the FetchFunc.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithInitialPage sets the first page index.
func WithInitialPage(page int) Option {
	return func(o *options) { o.initialPage = page }
}

// WithKey sets the initial query key.
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// New creates a loader. No page is fetched until LoadNext or Reset.
func New[T any](fetch FetchFunc[T], opts ...Option) *Loader[T] {
	o := options{pageSize: DefaultPageSize, initialPage: DefaultInitialPage}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}

	return &Loader[T]{
		fetch:       fetch,
		pageSize:    o.pageSize,
		initialPage: o.initialPage,
		state: State[T]{
			Key:     o.key,
			Items:   []T{},
			Cursor:  o.initialPage - 1,
			HasMore: true,
		},
	}
}

// PageSize returns the configured page size.
func (l *Loader[T]) PageSize() int { return l.pageSize }

// State returns a snapshot. The Items slice is a copy.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Loader[T]) snapshot() State[T] {
	s := l.state
	s.Items = append([]T(nil), l.state.Items...)
	if s.Items == nil {
		s.Items = []T{}
	}
	return s
}

// CanLoadMore reports whether a LoadNext call would fetch.
func (l *Loader[T]) CanLoadMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.state.IsLoading && l.state.HasMore
}

// Subscribe registers fn to receive a snapshot after every state change.
func (l *Loader[T]) Subscribe(fn func(State[T])) {
	l.mu.Lock()
	l.subscribers = append(l.subscribers, fn)
	l.mu.Unlock()
}

func (l *Loader[T]) notify(s State[T]) {
	l.mu.Lock()
	subs := make([]func(State[T]), len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// LoadNext fetches the page after Cursor and appends it. It returns false
// without fetching while a fetch is in flight or once the last page was seen.
// A failed fetch keeps items and cursor and records Err; there is no retry.
func (l *Loader[T]) LoadNext(ctx context.Context) bool {
	l.mu.Lock()
	if l.state.IsLoading || !l.state.HasMore {
		l.mu.Unlock()
		return false
	}
	l.state.IsLoading = true
	gen := l.generation
	key := l.state.Key
	page := l.state.Cursor + 1
	started := l.snapshot()
	l.mu.Unlock()

	l.notify(started)
	l.run(ctx, gen, key, page)
	return true
}

// run performs the fetch for key and page and applies its result unless a
// reset happened meanwhile.
func (l *Loader[T]) run(ctx context.Context, gen uint64, key string, page int) {
	items, err := l.fetch(ctx, key, page, l.pageSize)

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.state.Err = err
	} else {
		l.state.Items = append(l.state.Items, items...)
		l.state.HasMore = len(items) >= l.pageSize
		l.state.Cursor = page
		l.state.Err = nil
	}
	l.state.IsLoading = false
	done := l.snapshot()
	l.mu.Unlock()

	l.notify(done)
}

// Reset discards all items and fetches the first page again. Any fetch still
// in flight is superseded and its result ignored.
func (l *Loader[T]) Reset(ctx context.Context) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	key := l.state.Key
	l.state.Items = []T{}
	l.state.Cursor = l.initialPage - 1
	l.state.HasMore = true
	l.state.Err = nil
	l.state.IsLoading = true
	started := l.snapshot()
	l.mu.Unlock()

	l.notify(started)
	l.run(ctx, gen, key, l.initialPage)
}

// SetKey changes the query key. A key different from the current one resets
// the loader; an equal key is a no-op. It reports whether a reset happened.
func (l *Loader[T]) SetKey(ctx context.Context, key string) bool {
	l.mu.Lock()
	if l.state.Key == key {
		l.mu.Unlock()
		return false
	}
	l.state.Key = key
	l.mu.Unlock()

	l.Reset(ctx)
	return true
}

// Seed installs an already-fetched first page, as if LoadNext had returned it.
// Any in-flight fetch is superseded.
func (l *Loader[T]) Seed(items []T) {
	l.mu.Lock()
	l.generation++
	l.state.Items = append([]T{}, items...)
	l.state.Cursor = l.initialPage
	l.state.HasMore = len(items) >= l.pageSize
	l.state.IsLoading = false
	l.state.Err = nil
	s := l.snapshot()
	l.mu.Unlock()

	l.notify(s)
}
