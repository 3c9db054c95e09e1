package history

import (
	"slices"
	"strings"
	"sync"
)

// Adapter is the browser history collaborator of the router.
type Adapter interface {
	// Push adds a history entry.
	Push(state any, href string) error

	// Replace overwrites the current history entry.
	Replace(state any, href string) error

	// Location returns the current location.
	Location() Location

	// OnPopState registers a listener for back/forward navigation and
	// returns a function removing it.
	OnPopState(fn func(PopState)) (cancel func())

	// OnClick registers a listener for anchor clicks and returns a
	// function removing it. A listener returns true when it handled the
	// click and the default navigation must be prevented.
	OnClick(fn func(Click) bool) (cancel func())
}

// Location is the current document location.
type Location struct {
	// Origin is scheme, host and port (e.g. "https://example.com").
	Origin string

	// Path is the pathname, starting with "/".
	Path string

	// Search is the query string including the leading "?", or empty.
	Search string

	// Hash is the fragment including the leading "#", or empty.
	Hash string

	// State is the state object of the current history entry.
	State any
}

// Href returns path, search and hash.
func (l Location) Href() string {
	return l.Path + l.Search + l.Hash
}

// PopState is delivered on back/forward navigation.
type PopState struct {
	State any
}

// Click describes a click on an anchor element.
type Click struct {
	// Origin is the origin of the anchor's target.
	Origin string

	Path   string
	Search string
	Hash   string

	// Replace is set when the anchor carries the data-replace attribute.
	Replace bool
}

// Href returns path and search of the anchor's target.
func (c Click) Href() string {
	return c.Path + c.Search
}

// splitLocation splits an href into path, search and hash, keeping the
// "?" and "#" prefixes.
func splitLocation(href string) (path, search, hash string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href, hash = href[:i], href[i:]
	}
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href, search = href[:i], href[i:]
	}
	if href == "" {
		href = "/"
	}
	return href, search, hash
}

// listeners is a set of registered callbacks.
type listeners[E any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(E) bool
}

func (l *listeners[E]) add(fn func(E) bool) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(E) bool)
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// dispatch calls every listener outside the lock and reports whether any
// of them returned true.
func (l *listeners[E]) dispatch(e E) bool {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(E) bool, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	handled := false
	for _, fn := range fns {
		if fn(e) {
			handled = true
		}
	}
	return handled
}

func (l *listeners[E]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
