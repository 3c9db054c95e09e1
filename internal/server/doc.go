// Package server implements navroute serve.
//
// A Server resolves locations against a route manifest and exposes:
//
//	GET /healthz            liveness and route count
//	GET /api/resolve?href=  one resolution as JSON
//	GET /api/routes         manifest route keys
//	GET /ws                 history socket; one router per connection
//	GET /navroute.js        browser client for /ws
//	GET /metrics            Prometheus metrics, when enabled
//
// Every socket connection gets its own router.Router sharing the server's
// resolver. SetManifest swaps the routes of all of them, which is how
// manifest hot reload reaches connected browsers.
package server
