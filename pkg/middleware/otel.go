package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
)

// Default tracer name.
const defaultTracerName = "navroute"

// SpanName is the name of resolution spans.
const SpanName = "navroute.resolve"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "navroute").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// IncludeState records the descriptor's history state as an attribute.
	// State may contain user data, so this is disabled by default.
	IncludeState bool

	// Filter determines which resolutions to trace.
	// Return true to trace, false to skip. If nil, all are traced.
	Filter func(target *nav.Opts) bool

	// AttributeExtractor adds custom attributes for each traced resolution.
	AttributeExtractor func(target *nav.Opts) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeState enables recording history state in spans.
func WithIncludeState(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeState = include
	}
}

// WithFilter sets a filter function for resolutions.
func WithFilter(filter func(target *nav.Opts) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(target *nav.Opts) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every resolution.
//
// The span carries the requested href and, once resolution finishes, the
// canonical href and the number of redirects followed. The span context is
// passed down the chain so guards and resolvers can start child spans from
// their ctx.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	resolver := resolve.New[string](
//	    resolve.WithMiddleware(middleware.OpenTelemetry()),
//	)
func OpenTelemetry(opts ...OTelOption) resolve.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return resolve.MiddlewareFunc(func(ctx context.Context, target *nav.Opts, next resolve.Handler) (*resolve.Report, error) {
		if config.Filter != nil && !config.Filter(target) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("navroute.href", target.Href()),
			attribute.Bool("navroute.pop", target.Pop()),
			attribute.Bool("navroute.replace", target.Replace()),
		}
		if h := target.Hash(); h != "" {
			attrs = append(attrs, attribute.String("navroute.hash", h))
		}
		if config.IncludeState && target.State() != nil {
			attrs = append(attrs, attribute.String("navroute.state", formatState(target.State())))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(target)...)
		}

		spanCtx, span := tracer.Start(ctx, SpanName,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		report, err := next(spanCtx)

		span.SetAttributes(
			attribute.String("navroute.outcome", Outcome(report, err)),
			attribute.Int("navroute.redirects", report.Redirects()),
		)
		if report != nil && report.Canonical != nil {
			span.SetAttributes(attribute.String("navroute.canonical", report.Canonical.Href()))
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return report, err
	})
}

// SpanFromContext returns the resolution span inside guards and resolvers.
// It returns nil when the context carries no recording span.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

func formatState(state any) string {
	if s, ok := state.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", state)
}
