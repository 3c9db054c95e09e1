// Package nav provides the navigation descriptor shared by the resolver,
// the router and the history adapters.
//
// An Opts value describes a requested or resolved location: its path
// segments, query parameters, hash, an opaque state payload, and the
// replace/pop flags that control how the location is written to history.
// Opts are immutable once constructed.
//
// # Construction
//
//	o := nav.New("/docs/intro?lang=en")
//	o.Path()   // ["docs", "intro"]
//	o.Search() // {"lang": "en"}
//	o.Href()   // "/docs/intro?lang=en"
//
//	o = nav.FromPath([]string{"docs", "intro"}, nav.WithReplace(true))
//
// Untrusted input, such as paths received from a browser client, should go
// through Parse, which canonicalizes the path and rejects absolute URLs,
// backslashes, NUL bytes, invalid escapes and ".." segments that escape root.
//
// # Redirects
//
// Go derives a new descriptor from an existing one. Only the replace flag is
// inherited; search, state and params must be passed explicitly:
//
//	next := o.Go("/login", nav.WithState(o.Href()))
package nav
