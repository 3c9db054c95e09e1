package route

import (
	"context"

	"github.com/vango-dev/navroute/pkg/nav"
)

// WildcardKey is the flat route map key that Compile maps to Branch.Wildcard.
const WildcardKey = "*"

// Node is a node of the route tree: either a Resolve or a *Branch.
type Node[T any] interface {
	isNode()
}

// Resolve produces the content for a matched route, or a redirect.
// next holds the result of the more deeply matched resolver when this
// resolver is an index (virtual) route composing its descendants, and is
// nil otherwise.
type Resolve[T any] func(ctx context.Context, o *nav.Opts, next *T) (Result[T], error)

func (Resolve[T]) isNode() {}

// Guard runs before the resolver descends past a branch. Returning a
// non-nil descriptor redirects there; returning nil proceeds.
type Guard func(ctx context.Context, o *nav.Opts) (*nav.Opts, error)

// Branch maps path segments to child nodes.
type Branch[T any] struct {
	// Children are matched by exact segment name.
	Children map[string]Node[T]

	// Index is the content of the branch level itself. A Resolve index is
	// composed with deeper matches through its next argument. A *Branch
	// index is a virtual group: segments that match nothing else at this
	// level are retried against it.
	Index Node[T]

	// Guard is evaluated before descending into the branch's children or
	// its index.
	Guard Guard

	// Wildcard matches any single segment not matched by Children. The
	// segment is captured into the descriptor's params.
	Wildcard Node[T]
}

func (*Branch[T]) isNode() {}

// Child returns the exact child for a segment.
func (b *Branch[T]) Child(segment string) (Node[T], bool) {
	n, ok := b.Children[segment]
	return n, ok && n != nil
}

// Result is the tagged outcome of a Resolve: a value or a redirect.
type Result[T any] struct {
	value    T
	redirect *nav.Opts
}

// Done wraps a resolved value.
func Done[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Redirect requests a new resolution for the given descriptor.
func Redirect[T any](to *nav.Opts) Result[T] {
	return Result[T]{redirect: to}
}

// Value returns the resolved value. It is the zero value for redirects.
func (r Result[T]) Value() T { return r.value }

// Target returns the redirect descriptor, or nil.
func (r Result[T]) Target() *nav.Opts { return r.redirect }

// IsRedirect reports whether the result is a redirect.
func (r Result[T]) IsRedirect() bool { return r.redirect != nil }

// Value returns a resolver that yields v. Used as a branch index it
// passes a deeper match through unchanged, so only the branch's own path
// resolves to v.
func Value[T any](v T) Resolve[T] {
	return func(_ context.Context, _ *nav.Opts, next *T) (Result[T], error) {
		if next != nil {
			return Done(*next), nil
		}
		return Done(v), nil
	}
}

// To returns a resolver that redirects to href. The current replace flag
// is inherited as with nav.Opts.Go.
func To[T any](href string, opts ...nav.Option) Resolve[T] {
	return func(_ context.Context, o *nav.Opts, _ *T) (Result[T], error) {
		return Redirect[T](o.Go(href, opts...)), nil
	}
}

// Root returns a resolver that redirects to "/". It is the default
// not-found fallback.
func Root[T any]() Resolve[T] {
	return func(_ context.Context, o *nav.Opts, _ *T) (Result[T], error) {
		return Redirect[T](o.GoPath(nil)), nil
	}
}

// Layout returns an index resolver that yields index when nothing deeper
// matched and wrap(next) otherwise.
func Layout[T any](index T, wrap func(next T) T) Resolve[T] {
	return func(_ context.Context, _ *nav.Opts, next *T) (Result[T], error) {
		if next == nil {
			return Done(index), nil
		}
		return Done(wrap(*next)), nil
	}
}
