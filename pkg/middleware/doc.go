// Package middleware provides observability middleware for route resolution.
//
// This package includes:
//   - OpenTelemetry tracing of every resolution
//   - Prometheus metrics for resolutions and history sockets
//
// Both implement resolve.Middleware and are installed on a resolver:
//
//	metrics := middleware.Prometheus()
//	resolver := resolve.New[string](
//	    resolve.WithMiddleware(
//	        middleware.OpenTelemetry(),
//	        metrics,
//	    ),
//	)
//
// # OpenTelemetry Middleware
//
// Each resolution gets a "navroute.resolve" span carrying the requested
// href, the canonical href, the outcome and the redirect count. Guards and
// resolvers receive the span context and may start child spans:
//
//	func loadUser(ctx context.Context, o *nav.Opts, next *string) (route.Result[string], error) {
//	    ctx, span := tracer.Start(ctx, "load user")
//	    defer span.End()
//	    ...
//	}
//
// # Prometheus Metrics
//
//   - navroute_resolutions_total: Resolutions by outcome
//   - navroute_resolution_duration_seconds: Resolution duration histogram
//   - navroute_redirects: Redirects followed per successful resolution
//   - navroute_active_sockets: Connected history sockets
//   - navroute_socket_errors_total: Socket errors by type
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
