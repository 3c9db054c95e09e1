// Package navroute provides the public API for the navroute router.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/navroute"
//
// Usage:
//
//	routes := &route.Branch[string]{
//	    Index: navroute.Value("home"),
//	    Children: map[string]route.Node[string]{
//	        "docs": navroute.Value("docs"),
//	        "old":  navroute.To[string]("/docs", navroute.WithReplace(true)),
//	    },
//	}
//	r := navroute.NewRouter[string](routes, router.WithHistory[string](adapter))
//	err := r.Init(ctx)
//
// The subpackages hold the full API: nav for location descriptors, route for
// the tree, resolve for resolution, history for adapters and router for the
// stateful router.
package navroute

import (
	"github.com/vango-dev/navroute/pkg/history"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
	"github.com/vango-dev/navroute/pkg/router"
)

// =============================================================================
// Locations (re-export from nav)
// =============================================================================

// Opts is an immutable navigation descriptor.
type Opts = nav.Opts

// Option configures a descriptor.
type Option = nav.Option

// NewOpts builds a descriptor from an href.
var NewOpts = nav.New

// FromPath builds a descriptor from path segments.
var FromPath = nav.FromPath

// Parse canonicalizes and validates an href before building a descriptor.
var Parse = nav.Parse

var (
	WithSearch       = nav.WithSearch
	WithSearchString = nav.WithSearchString
	WithState        = nav.WithState
	WithHash         = nav.WithHash
	WithReplace      = nav.WithReplace
)

// =============================================================================
// Route tree (re-export from route)
// =============================================================================

// Guard runs before the resolver descends past a branch.
type Guard = route.Guard

// Value resolves to v.
func Value[T any](v T) route.Resolve[T] {
	return route.Value(v)
}

// To redirects to href, relative to the current location.
func To[T any](href string, opts ...nav.Option) route.Resolve[T] {
	return route.To[T](href, opts...)
}

// Layout resolves to index, or to wrap applied to a deeper match.
func Layout[T any](index T, wrap func(next T) T) route.Resolve[T] {
	return route.Layout(index, wrap)
}

// Compile builds a tree from "/a/*/c" style keys.
func Compile[T any](flat map[string]route.Node[T]) (*route.Branch[T], error) {
	return route.Compile[T](flat)
}

// Verify reports structural problems in a tree.
func Verify[T any](n route.Node[T]) error {
	return route.Verify[T](n)
}

// =============================================================================
// Resolution and routing
// =============================================================================

var (
	ErrRedirectLoop     = resolve.ErrRedirectLoop
	ErrTooManyRedirects = resolve.ErrTooManyRedirects
	ErrNoHistory        = router.ErrNoHistory
)

// NewResolver creates a resolver.
func NewResolver[T any](opts ...resolve.Option) *resolve.Resolver[T] {
	return resolve.New[T](opts...)
}

// NewRouter creates a router over routes.
func NewRouter[T any](routes route.Node[T], opts ...router.Option[T]) *router.Router[T] {
	return router.New[T](routes, opts...)
}

// NewMemoryHistory creates an in-memory history adapter at href.
func NewMemoryHistory(origin, href string) *history.Memory {
	return history.NewMemory(origin, href)
}
