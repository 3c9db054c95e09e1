package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/route"
)

// DefaultMaxRedirects bounds the number of descriptors a single resolution
// may visit. Visiting one more fails with ErrTooManyRedirects.
const DefaultMaxRedirects = 10

// maxVirtualDepth bounds how often one segment may be retried against
// nested virtual branches.
const maxVirtualDepth = 64

// Resolved is the outcome of a successful resolution.
type Resolved[T any] struct {
	// Value is the output of the resolver chain.
	Value T

	// Opts is the canonical descriptor after redirects, carrying the
	// wildcard captures of the final match.
	Opts *nav.Opts
}

// Option configures a Resolver.
type Option func(*config)

type config struct {
	maxRedirects int
	logger       *slog.Logger
	middleware   []Middleware
}

// WithMaxRedirects sets the redirect bound. Values below one are ignored.
func WithMaxRedirects(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRedirects = n
		}
	}
}

// WithLogger sets the logger used for redirect and not-found events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMiddleware appends middleware wrapping every resolution.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *config) {
		c.middleware = append(c.middleware, mw...)
	}
}

// Resolver resolves descriptors against route trees. A Resolver holds no
// per-resolution state and is safe for concurrent use.
type Resolver[T any] struct {
	maxRedirects int
	logger       *slog.Logger
	middleware   []Middleware
}

// New creates a Resolver.
func New[T any](opts ...Option) *Resolver[T] {
	c := config{
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default().With("component", "resolve"),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &Resolver[T]{
		maxRedirects: c.maxRedirects,
		logger:       c.logger,
		middleware:   c.middleware,
	}
}

// MaxRedirects returns the configured redirect bound.
func (r *Resolver[T]) MaxRedirects() int {
	return r.maxRedirects
}

// Resolve resolves target against routes. notFound is used when no route
// matches; nil means redirect to "/".
func (r *Resolver[T]) Resolve(ctx context.Context, routes route.Node[T], target *nav.Opts, notFound route.Resolve[T]) (Resolved[T], error) {
	if target == nil {
		return Resolved[T]{}, ErrNilTarget
	}
	if notFound == nil {
		notFound = route.Root[T]()
	}

	var out Resolved[T]
	run := func(ctx context.Context) (*Report, error) {
		res, report, err := r.run(ctx, routes, target, notFound)
		out = res
		return report, err
	}

	if _, err := Compose(target, r.middleware, run)(ctx); err != nil {
		return Resolved[T]{}, err
	}
	return out, nil
}

// run follows redirects until a value is produced.
func (r *Resolver[T]) run(ctx context.Context, routes route.Node[T], target *nav.Opts, notFound route.Resolve[T]) (Resolved[T], *Report, error) {
	report := &Report{Target: target}
	requested := target

	for {
		if err := ctx.Err(); err != nil {
			return Resolved[T]{}, report, err
		}

		for _, v := range report.Visited {
			if v.Equal(requested) {
				chain := append(append([]*nav.Opts(nil), report.Visited...), v)
				return Resolved[T]{}, report, &RedirectError{Kind: ErrRedirectLoop, Chain: chain}
			}
		}
		report.Visited = append(report.Visited, requested)
		if len(report.Visited) > r.maxRedirects {
			chain := append([]*nav.Opts(nil), report.Visited...)
			return Resolved[T]{}, report, &RedirectError{Kind: ErrTooManyRedirects, Chain: chain}
		}

		p, err := r.match(ctx, routes, requested)
		if err != nil {
			return Resolved[T]{}, report, err
		}
		if p.redirect != nil {
			r.logger.Debug("guard redirect", "from", requested.Href(), "to", p.redirect.Href())
			requested = p.redirect
			continue
		}

		attempt := requested
		if len(p.params) > 0 {
			attempt = requested.WithParams(p.params)
		}
		chain := p.chain
		report.NotFound = p.notFound
		if p.notFound {
			r.logger.Debug("route not found", "href", attempt.Href())
			chain = []route.Resolve[T]{notFound}
		}

		res, err := execute(ctx, chain, attempt)
		if err != nil {
			return Resolved[T]{}, report, fmt.Errorf("resolve %s: %w", attempt.Href(), err)
		}
		if res.IsRedirect() {
			r.logger.Debug("redirect", "from", attempt.Href(), "to", res.Target().Href())
			requested = res.Target()
			continue
		}

		report.Canonical = attempt
		return Resolved[T]{Value: res.Value(), Opts: attempt}, report, nil
	}
}
