// Package errors provides coded, actionable error messages for the navroute
// CLI.
//
// Library packages return plain wrapped errors and sentinels. The CLI and
// the manifest and config loaders convert them into *Error values that
// carry:
//   - a code (e.g. "E101") with a short message and a detailed explanation
//   - the manifest or config file location, with the surrounding lines
//   - a hint and an example of a correct definition
//   - a documentation link
//
// # Error Codes
//
//   - E1xx: route manifest loading, decoding and compilation
//   - E2xx: navroute.json configuration
//   - E3xx: route resolution
//
// # Usage
//
//	err := errors.New(errors.ManifestEntry).
//	    WithLocation("routes.yaml", 5, 15).
//	    WithSuggestion(`Start redirects with "/"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E103: Invalid route entry
//	//
//	//   routes.yaml:5:15
//	//
//	//       3 │     content: home
//	//       4 │   "/old":
//	//   →   5 │     redirect: old
//	//         │               ^
//	//       6 │   "/docs":
//	//       7 │     content: docs
//	//
//	//   Hint: Start redirects with "/"
package errors
