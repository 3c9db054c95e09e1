package resolve

import (
	"context"

	"github.com/vango-dev/navroute/pkg/nav"
)

// Report describes a finished resolution to middleware. On failure it is
// filled as far as the resolution got.
type Report struct {
	// Target is the descriptor the resolution started with.
	Target *nav.Opts

	// Canonical is the final descriptor, nil on failure.
	Canonical *nav.Opts

	// Visited is every descriptor requested, in order.
	Visited []*nav.Opts

	// NotFound is set when the last attempt used the not-found resolver.
	NotFound bool
}

// Redirects returns the number of redirects followed.
func (r *Report) Redirects() int {
	if r == nil || len(r.Visited) == 0 {
		return 0
	}
	return len(r.Visited) - 1
}

// Handler runs the rest of a resolution.
type Handler func(ctx context.Context) (*Report, error)

// Middleware wraps a resolution.
type Middleware interface {
	Handle(ctx context.Context, target *nav.Opts, next Handler) (*Report, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, target *nav.Opts, next Handler) (*Report, error)

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, target *nav.Opts, next Handler) (*Report, error) {
	return f(ctx, target, next)
}

// Compose builds a handler chain from middleware and a final handler.
// Middleware is executed in order (first to last), with the handler at the end.
func Compose(target *nav.Opts, mw []Middleware, handler Handler) Handler {
	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m, next := mw[i], chain
		chain = func(ctx context.Context) (*Report, error) {
			return m.Handle(ctx, target, next)
		}
	}
	return chain
}

// Chain combines multiple middleware into one, in order.
func Chain(mw ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, target *nav.Opts, next Handler) (*Report, error) {
		return Compose(target, mw, next)(ctx)
	})
}
