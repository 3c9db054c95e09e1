// Package manifest builds route trees from declarative route manifests.
//
// A manifest maps slash-delimited keys to entries:
//
//	maxRedirects: 10
//	notFound: { redirect: "/" }
//	routes:
//	  "/": { content: "home" }
//	  "/docs": { layout: "<docs>{{next}}</docs>", content: "docs index" }
//	  "/docs/*": { content: "doc {{param0}}" }
//	  "/old": { redirect: "/docs", replace: true }
//	  "/admin": { guard: { query: "token", equals: "s3cret", redirect: "/" }, content: "admin" }
//
// Manifests are JSON, YAML or TOML, selected by extension, and are read
// from a local file or an s3://bucket/key object. Load decodes and
// validates, Build compiles the entries with route.Compile and checks the
// result with route.Verify. A Watcher rebuilds the tree when a local
// manifest changes:
//
//	src, _ := manifest.Open(ctx, "routes.yaml")
//	m, tree, err := manifest.LoadTree(ctx, src)
//	if err != nil {
//	    return err
//	}
//	r := router.New[string](tree, router.WithNotFound(m.NotFoundResolver()))
//
//	w := manifest.NewWatcher(manifest.WatcherConfig{Path: "routes.yaml"})
//	w.OnReload(func(rl manifest.Reload) { r.SetRoutes(rl.Tree) })
//	w.Start(ctx)
package manifest
