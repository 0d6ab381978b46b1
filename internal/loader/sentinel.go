package loader

import "sync"

// DefaultMargin is how far ahead of the viewport's bottom edge the sentinel
// counts as visible.
const DefaultMargin = 200

// Gate reports whether more data may be requested.
type Gate interface {
	CanLoadMore() bool
}

// Viewport describes the scroll position. Offset and Height are the visible
// window, Boundary the position of the end of the rendered list. Units are
// up to the caller (pixels, rows).
type Viewport struct {
	Offset   int
	Height   int
	Boundary int
}

// Sentinel fires onWantsMore when the end of the list scrolls into view.
// It fires once per transition into view and never while the gate is closed.
type Sentinel struct {
	gate        Gate
	onWantsMore func()
	margin      int

	mu       sync.Mutex
	visible  bool
	viewport Viewport
	seen     bool
}

// NewSentinel creates a sentinel with the default margin.
func NewSentinel(gate Gate, onWantsMore func()) *Sentinel {
	return &Sentinel{gate: gate, onWantsMore: onWantsMore, margin: DefaultMargin}
}

// WithMargin overrides the lookahead margin.
func (s *Sentinel) WithMargin(margin int) *Sentinel {
	s.margin = margin
	return s
}

func (s *Sentinel) intersects(v Viewport) bool {
	return v.Boundary <= v.Offset+v.Height+s.margin
}

// Observe reports a new viewport and fires on a not-visible to visible
// transition. It returns whether onWantsMore was called.
func (s *Sentinel) Observe(v Viewport) bool {
	s.mu.Lock()
	was := s.visible
	now := s.intersects(v)
	s.visible = now
	s.viewport = v
	s.seen = true
	s.mu.Unlock()

	if now && !was {
		return s.fire()
	}
	return false
}

// Rearm re-evaluates the last viewport after the list changed, e.g. after a
// page was appended. If the end of the list is still visible it fires again.
func (s *Sentinel) Rearm() bool {
	s.mu.Lock()
	if !s.seen {
		s.mu.Unlock()
		return false
	}
	s.visible = s.intersects(s.viewport)
	visible := s.visible
	s.mu.Unlock()

	if visible {
		return s.fire()
	}
	return false
}

// UpdateBoundary moves the end-of-list position without changing the scroll
// window, then re-evaluates like Rearm.
func (s *Sentinel) UpdateBoundary(boundary int) bool {
	s.mu.Lock()
	s.viewport.Boundary = boundary
	s.mu.Unlock()
	return s.Rearm()
}

// Visible reports the last computed visibility.
func (s *Sentinel) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Sentinel) fire() bool {
	if s.gate != nil && !s.gate.CanLoadMore() {
		return false
	}
	s.onWantsMore()
	return true
}
