package resolve

import (
	"context"
	"fmt"

	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/route"
)

// plan is the outcome of matching one descriptor against the tree.
type plan[T any] struct {
	// chain holds the resolvers to run, outermost first.
	chain []route.Resolve[T]

	// params are the wildcard captures in traversal order.
	params []string

	// redirect is set when a guard redirected.
	redirect *nav.Opts

	notFound bool
}

// match walks the tree along o's path.
func (r *Resolver[T]) match(ctx context.Context, root route.Node[T], o *nav.Opts) (plan[T], error) {
	var p plan[T]
	cur := o
	node := root
	segs := o.Path()

	for i, virtual := 0, 0; i < len(segs); {
		b, ok := node.(*route.Branch[T])
		if !ok || b == nil {
			return plan[T]{notFound: true}, nil
		}

		if idx, ok := b.Index.(route.Resolve[T]); ok && idx != nil {
			p.chain = append(p.chain, idx)
		}
		if to, err := runGuard(ctx, b, cur); err != nil || to != nil {
			return plan[T]{redirect: to}, err
		}

		seg := segs[i]
		if child, ok := b.Child(seg); ok {
			node, i, virtual = child, i+1, 0
			continue
		}
		if b.Wildcard != nil {
			p.params = append(p.params, seg)
			cur = o.WithParams(p.params)
			node, i, virtual = b.Wildcard, i+1, 0
			continue
		}
		if vb, ok := b.Index.(*route.Branch[T]); ok && vb != nil {
			if virtual++; virtual > maxVirtualDepth {
				return plan[T]{}, fmt.Errorf("resolve: virtual routes nested deeper than %d at %q", maxVirtualDepth, seg)
			}
			node = vb
			continue
		}
		return plan[T]{notFound: true}, nil
	}

	for depth := 0; ; depth++ {
		if depth > maxVirtualDepth {
			return plan[T]{}, fmt.Errorf("resolve: index routes nested deeper than %d at %s", maxVirtualDepth, o.Href())
		}
		switch n := node.(type) {
		case route.Resolve[T]:
			if n == nil {
				return plan[T]{notFound: true}, nil
			}
			p.chain = append(p.chain, n)
			return p, nil
		case *route.Branch[T]:
			if n == nil {
				return plan[T]{notFound: true}, nil
			}
			if to, err := runGuard(ctx, n, cur); err != nil || to != nil {
				return plan[T]{redirect: to}, err
			}
			if n.Index == nil {
				return plan[T]{notFound: true}, nil
			}
			node = n.Index
		default:
			return plan[T]{notFound: true}, nil
		}
	}
}

func runGuard[T any](ctx context.Context, b *route.Branch[T], o *nav.Opts) (*nav.Opts, error) {
	if b.Guard == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	to, err := b.Guard(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("guard %s: %w", o.Href(), err)
	}
	return to, nil
}

// execute runs the chain innermost first, passing every result to the next
// outer resolver. A redirect stops the chain.
func execute[T any](ctx context.Context, chain []route.Resolve[T], o *nav.Opts) (route.Result[T], error) {
	var (
		res  route.Result[T]
		next *T
	)
	for i := len(chain) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return route.Result[T]{}, err
		}
		var err error
		res, err = chain[i](ctx, o, next)
		if err != nil {
			return route.Result[T]{}, err
		}
		if res.IsRedirect() {
			return res, nil
		}
		v := res.Value()
		next = &v
	}
	return res, nil
}
