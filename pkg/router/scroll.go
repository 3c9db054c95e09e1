package router

import (
	"sync"

	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
)

// Viewport is the scrolling container of the document.
type Viewport interface {
	// ScrollTop returns the current vertical scroll offset.
	ScrollTop() float64

	// SetScrollTop scrolls to the given vertical offset.
	SetScrollTop(y float64)

	// AnchorTop returns the top of the element with the given id relative
	// to the visible area, and whether such an element exists.
	AnchorTop(id string) (float64, bool)
}

// ScrollOption configures a ScrollRestorer.
type ScrollOption func(*ScrollRestorer)

// WithScrollOffset subtracts offset when scrolling to a hash anchor, e.g.
// the height of a fixed header.
func WithScrollOffset(offset float64) ScrollOption {
	return func(s *ScrollRestorer) {
		s.offset = offset
	}
}

// WithoutHashScroll disables scrolling to hash anchors.
func WithoutHashScroll() ScrollOption {
	return func(s *ScrollRestorer) {
		s.hashScroll = false
	}
}

// ScrollRestorer remembers the scroll offset of every visited href.
// Back/forward navigations restore the remembered offset, other
// navigations scroll to the hash anchor or to the top.
type ScrollRestorer struct {
	viewport   Viewport
	offset     float64
	hashScroll bool

	mu        sync.Mutex
	current   string
	positions map[string]float64
}

// NewScrollRestorer creates a ScrollRestorer for viewport.
func NewScrollRestorer(viewport Viewport, opts ...ScrollOption) *ScrollRestorer {
	s := &ScrollRestorer{
		viewport:   viewport,
		hashScroll: true,
		positions:  make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records the current offset for the current href.
func (s *ScrollRestorer) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != "" {
		s.positions[s.current] = s.viewport.ScrollTop()
	}
}

// Restore saves the offset of the page being left and scrolls for o.
func (s *ScrollRestorer) Restore(o *nav.Opts) {
	s.mu.Lock()
	if s.current != "" {
		s.positions[s.current] = s.viewport.ScrollTop()
	}
	s.current = o.Href()
	saved, ok := s.positions[s.current]
	s.mu.Unlock()

	if o.Pop() && ok {
		s.viewport.SetScrollTop(saved)
		return
	}
	if s.hashScroll && o.Hash() != "" {
		if top, found := s.viewport.AnchorTop(o.Hash()); found {
			s.viewport.SetScrollTop(top - s.offset + s.viewport.ScrollTop())
			return
		}
	}
	s.viewport.SetScrollTop(0)
}

// ScrollListener adapts s to a router listener.
func ScrollListener[T any](s *ScrollRestorer) Listener[T] {
	return func(res resolve.Resolved[T]) {
		s.Restore(res.Opts)
	}
}
