// Package resolve implements the resolution engine: it matches a
// navigation descriptor against a route tree, runs guards, executes the
// chain of index and terminal resolvers, and follows redirects until a
// value is produced.
//
// # Matching
//
// The path is walked one segment at a time. At every branch on the way the
// branch's index resolver joins the chain and its guard runs. A segment is
// matched by exact child first, then by the branch wildcard (capturing the
// segment as a param), then by retrying it against a virtual index branch.
// When the path is consumed, a terminal resolver becomes the innermost
// chain entry; a terminal branch contributes its index instead.
//
// # Execution
//
// The chain runs innermost first. Every outer resolver receives the inner
// result as next:
//
//	routes := &route.Branch[string]{
//	    Index:    route.Layout("home", func(next string) string { return "<main>" + next + "</main>" }),
//	    Children: map[string]route.Node[string]{"about": route.Value("about")},
//	}
//	res, err := resolve.New[string]().Resolve(ctx, routes, nav.New("/about"), nil)
//	// res.Value == "<main>about</main>"
//
// A redirect result, or a guard returning a descriptor, restarts
// resolution with the new descriptor. Revisiting a descriptor fails with
// ErrRedirectLoop, and visiting more than the configured maximum fails
// with ErrTooManyRedirects.
package resolve
