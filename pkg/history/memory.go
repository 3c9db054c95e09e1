package history

import (
	"net/url"
	"sync"
)

type entry struct {
	href  string
	state any
}

// Memory is an in-process history with a back/forward stack. Listeners are
// called synchronously from Back, Forward, Go and Click.
type Memory struct {
	mu      sync.Mutex
	origin  string
	entries []entry
	index   int

	pops   listeners[PopState]
	clicks listeners[Click]
}

var _ Adapter = (*Memory)(nil)

// NewMemory creates a history for origin whose single entry is href.
func NewMemory(origin, href string) *Memory {
	if href == "" {
		href = "/"
	}
	return &Memory{
		origin:  origin,
		entries: []entry{{href: href}},
	}
}

// Push adds an entry after the current one, dropping forward entries.
func (m *Memory) Push(state any, href string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], entry{href: href, state: state})
	m.index++
	return nil
}

// Replace overwrites the current entry.
func (m *Memory) Replace(state any, href string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = entry{href: href, state: state}
	return nil
}

// Location returns the current entry as a location.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[m.index]
	path, search, hash := splitLocation(e.href)
	return Location{Origin: m.origin, Path: path, Search: search, Hash: hash, State: e.state}
}

// OnPopState implements Adapter.
func (m *Memory) OnPopState(fn func(PopState)) func() {
	return m.pops.add(func(p PopState) bool {
		fn(p)
		return false
	})
}

// OnClick implements Adapter.
func (m *Memory) OnClick(fn func(Click) bool) func() {
	return m.clicks.add(fn)
}

// Back moves one entry back. It reports false at the start of the stack.
func (m *Memory) Back() bool { return m.Go(-1) }

// Forward moves one entry forward. It reports false at the end of the stack.
func (m *Memory) Forward() bool { return m.Go(1) }

// Go moves delta entries and fires popstate. Moves outside the stack are
// ignored.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	to := m.index + delta
	if delta == 0 || to < 0 || to >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = to
	state := m.entries[to].state
	m.mu.Unlock()

	m.pops.dispatch(PopState{State: state})
	return true
}

// Click simulates a click on an anchor and reports whether a listener
// prevented the default navigation. An unprevented same-origin click
// behaves like a document load and pushes the target.
func (m *Memory) Click(c Click) bool {
	if m.clicks.dispatch(c) {
		return true
	}
	if c.Origin == m.origin {
		_ = m.Push(nil, c.Path+c.Search+c.Hash)
	}
	return false
}

// ClickLink simulates a click on an anchor with the given href, resolved
// against the current location like a browser would.
func (m *Memory) ClickLink(href string, replace bool) bool {
	base, err := url.Parse(m.origin + m.Location().Href())
	if err != nil {
		return false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return false
	}
	u := base.ResolveReference(ref)

	c := Click{Origin: u.Scheme + "://" + u.Host, Path: u.EscapedPath(), Replace: replace}
	if u.RawQuery != "" {
		c.Search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		c.Hash = "#" + u.EscapedFragment()
	}
	return m.Click(c)
}

// Entries returns the hrefs of all entries and the current index.
func (m *Memory) Entries() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hrefs := make([]string, len(m.entries))
	for i, e := range m.entries {
		hrefs[i] = e.href
	}
	return hrefs, m.index
}

// Listeners returns the number of registered popstate and click listeners.
func (m *Memory) Listeners() (pops, clicks int) {
	return m.pops.len(), m.clicks.len()
}
