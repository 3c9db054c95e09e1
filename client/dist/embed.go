package clientdist

import _ "embed"

// NavrouteJS is the browser client for history sockets.
//
// It is served by navroute serve at "/navroute.js".
//
//go:embed navroute.js
var NavrouteJS []byte
