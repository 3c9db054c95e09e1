package nav

import (
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Opts is a navigation descriptor: a requested or resolved location plus
// the flags that control how it is written to history.
//
// Opts are immutable. Use Go, GoPath or WithParams to derive new values.
// Always handle Opts by pointer.
type Opts struct {
	path    []string
	search  map[string]string
	state   any
	hash    string
	replace bool
	pop     bool
	params  []string

	hrefOnce sync.Once
	href     string
}

// Option configures a descriptor at construction time.
type Option func(*meta)

// meta collects explicitly passed options. Unset options leave the
// values derived from the href untouched.
type meta struct {
	search    map[string]string
	hasSearch bool
	state     any
	hasState  bool
	hash      *string
	replace   *bool
	pop       *bool
}

// WithSearch sets the query parameters. It takes precedence over the query
// part of the href.
func WithSearch(search map[string]string) Option {
	return func(m *meta) {
		m.search = maps.Clone(search)
		m.hasSearch = true
	}
}

// WithSearchString sets the query parameters from a query string, with or
// without the leading "?". It takes precedence over the query part of the href.
func WithSearchString(query string) Option {
	return func(m *meta) {
		m.search = parseQuery(strings.TrimPrefix(query, "?"))
		m.hasSearch = true
	}
}

// WithState sets the opaque history state payload.
func WithState(state any) Option {
	return func(m *meta) {
		m.state = state
		m.hasState = true
	}
}

// WithHash sets the location hash (without "#").
func WithHash(hash string) Option {
	return func(m *meta) {
		h := strings.TrimPrefix(hash, "#")
		m.hash = &h
	}
}

// WithReplace controls whether the navigation replaces the current history
// entry instead of pushing a new one.
func WithReplace(replace bool) Option {
	return func(m *meta) {
		m.replace = &replace
	}
}

// WithPop marks the navigation as triggered by a back/forward event.
func WithPop(pop bool) Option {
	return func(m *meta) {
		m.pop = &pop
	}
}

func collect(opts []Option) meta {
	var m meta
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m meta) apply(o *Opts) {
	if m.hasSearch {
		o.search = m.search
	}
	if m.hasState {
		o.state = m.state
	}
	if m.hash != nil {
		o.hash = *m.hash
	}
	if m.replace != nil {
		o.replace = *m.replace
	}
	if m.pop != nil {
		o.pop = *m.pop
	}
	if o.search == nil {
		o.search = map[string]string{}
	}
}

// New creates a descriptor from an href such as "/docs/intro?lang=en#top".
// A missing leading slash is tolerated. Empty segments are dropped and
// segments are percent-decoded.
func New(href string, opts ...Option) *Opts {
	rawPath, query, hash := splitHref(href)
	o := &Opts{
		path: splitSegments(rawPath),
		hash: hash,
	}
	if query != "" {
		o.search = parseQuery(query)
	}
	collect(opts).apply(o)
	return o
}

// FromPath creates a descriptor from already split path segments.
// Empty segments are dropped.
func FromPath(segments []string, opts ...Option) *Opts {
	path := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			path = append(path, seg)
		}
	}
	o := &Opts{path: path}
	collect(opts).apply(o)
	return o
}

// Path returns the path segments.
func (o *Opts) Path() []string { return slices.Clone(o.path) }

// Search returns the query parameters.
func (o *Opts) Search() map[string]string { return maps.Clone(o.search) }

// SearchParam returns a single query parameter.
func (o *Opts) SearchParam(key string) (string, bool) {
	v, ok := o.search[key]
	return v, ok
}

// State returns the history state payload.
func (o *Opts) State() any { return o.state }

// Hash returns the location hash without "#".
func (o *Opts) Hash() string { return o.hash }

// Replace reports whether the navigation replaces the current history entry.
func (o *Opts) Replace() bool { return o.replace }

// Pop reports whether the navigation was triggered by a back/forward event.
func (o *Opts) Pop() bool { return o.pop }

// Params returns the segments captured by wildcard routes, outermost first.
func (o *Opts) Params() []string { return slices.Clone(o.params) }

// Param returns the i-th wildcard capture.
func (o *Opts) Param(i int) (string, bool) {
	if i < 0 || i >= len(o.params) {
		return "", false
	}
	return o.params[i], true
}

// PathString returns the escaped path, always starting with "/".
func (o *Opts) PathString() string {
	escaped := make([]string, len(o.path))
	for i, seg := range o.path {
		escaped[i] = url.PathEscape(seg)
	}
	return "/" + strings.Join(escaped, "/")
}

// SearchString returns the encoded query without "?". Keys are sorted.
func (o *Opts) SearchString() string {
	if len(o.search) == 0 {
		return ""
	}
	values := make(url.Values, len(o.search))
	for k, v := range o.search {
		values.Set(k, v)
	}
	return values.Encode()
}

// Href returns the canonical "/seg1/seg2?k=v" form. The hash is not part
// of the href.
func (o *Opts) Href() string {
	o.hrefOnce.Do(func() {
		o.href = o.PathString()
		if s := o.SearchString(); s != "" {
			o.href += "?" + s
		}
	})
	return o.href
}

// String implements fmt.Stringer.
func (o *Opts) String() string {
	if o == nil {
		return "<nil>"
	}
	return o.Href()
}

// Equal reports whether two descriptors have the same href, replace flag,
// state and captured params.
func (o *Opts) Equal(other *Opts) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	return o.Href() == other.Href() &&
		o.replace == other.replace &&
		slices.Equal(o.params, other.params) &&
		reflect.DeepEqual(o.state, other.state)
}

// SameLocation reports whether two descriptors point at the same href with
// the same state, ignoring flags and captures.
func (o *Opts) SameLocation(other *Opts) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.Href() == other.Href() && reflect.DeepEqual(o.state, other.state)
}

// Go creates a new descriptor for href. Only the replace flag is inherited;
// search, state and hash come from href and opts.
func (o *Opts) Go(href string, opts ...Option) *Opts {
	return New(href, o.inherit(opts)...)
}

// GoPath is like Go but takes path segments.
func (o *Opts) GoPath(segments []string, opts ...Option) *Opts {
	return FromPath(segments, o.inherit(opts)...)
}

func (o *Opts) inherit(opts []Option) []Option {
	return append([]Option{WithReplace(o.replace)}, opts...)
}

// WithParams returns a copy of o carrying the given wildcard captures.
func (o *Opts) WithParams(params []string) *Opts {
	c := o.clone()
	c.params = slices.Clone(params)
	return c
}

func (o *Opts) clone() *Opts {
	return &Opts{
		path:    o.path,
		search:  o.search,
		state:   o.state,
		hash:    o.hash,
		replace: o.replace,
		pop:     o.pop,
		params:  o.params,
	}
}

// splitHref splits an href into raw path, query and hash.
func splitHref(href string) (path, query, hash string) {
	href, hash, _ = strings.Cut(href, "#")
	path, query, _ = strings.Cut(href, "?")
	return path, query, hash
}

// splitSegments splits a raw path into decoded, non-empty segments.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
		segments = append(segments, p)
	}
	return segments
}

// parseQuery keeps the first value of every key. Malformed pairs are skipped.
func parseQuery(query string) map[string]string {
	values, _ := url.ParseQuery(query)
	search := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			search[k] = v[0]
		}
	}
	return search
}
