// Package router ties the resolution engine to a history adapter.
//
// A Router owns a route tree. Every navigation, whether requested with Go
// or triggered by a popstate event or an anchor click, is resolved one at
// a time in arrival order. A successful resolution is broadcast to the
// OnResolve listeners and then written to history: pushed, or replaced
// when the resolved descriptor carries the replace flag.
//
// # Usage
//
//	h := history.NewMemory("https://example.com", "/")
//	r := router.New[string](routes, router.WithHistory[string](h))
//	r.OnResolve(func(res resolve.Resolved[string]) {
//	    render(res.Value)
//	})
//	if err := r.Init(ctx); err != nil {
//	    return err
//	}
//	defer r.Dispose()
//
//	err := r.Go(ctx, "/docs/intro", nav.WithReplace(true))
//
// On popstate and on Init the current location is resolved. When guards
// or redirects lead somewhere else, the history entry is replaced with the
// canonical location so back and forward keep working.
//
// Same-origin anchor clicks are routed internally. The data-replace
// attribute on the anchor requests a replace instead of a push.
package router
