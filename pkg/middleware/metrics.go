package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
)

// Resolution outcomes used as the "outcome" label.
const (
	OutcomeOK               = "ok"
	OutcomeNotFound         = "not_found"
	OutcomeRedirectLoop     = "redirect_loop"
	OutcomeTooManyRedirects = "too_many_redirects"
	OutcomeCanceled         = "canceled"
	OutcomeError            = "error"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for resolution duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects Prometheus metrics for resolutions and history sockets.
// It implements resolve.Middleware.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	duration      prometheus.Histogram
	redirects     prometheus.Histogram
	activeSockets prometheus.Gauge
	socketErrors  *prometheus.CounterVec
}

// Prometheus registers the metrics with the configured registry and
// returns the middleware recording them.
//
// Metrics collected:
//   - navroute_resolutions_total: Counter of resolutions by outcome
//   - navroute_resolution_duration_seconds: Histogram of resolution duration
//   - navroute_redirects: Histogram of redirects followed per successful resolution
//   - navroute_active_sockets: Gauge of connected history sockets
//   - navroute_socket_errors_total: Counter of socket errors by type
//
// Registering twice with the same registry panics, as with promauto.
//
// Example:
//
//	metrics := middleware.Prometheus(middleware.WithNamespace("myapp"))
//	resolver := resolve.New[string](resolve.WithMiddleware(metrics))
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total number of route resolutions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolution_duration_seconds",
			Help:        "Route resolution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		redirects: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirects",
			Help:        "Redirects followed per successful resolution",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0, 1, resolve.DefaultMaxRedirects),
		}),

		activeSockets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sockets",
			Help:        "Number of connected history sockets",
			ConstLabels: config.ConstLabels,
		}),

		socketErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "socket_errors_total",
			Help:        "Total history socket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Handle implements resolve.Middleware.
func (m *Metrics) Handle(ctx context.Context, target *nav.Opts, next resolve.Handler) (*resolve.Report, error) {
	start := time.Now()
	report, err := next(ctx)
	m.duration.Observe(time.Since(start).Seconds())

	outcome := Outcome(report, err)
	m.resolutions.WithLabelValues(outcome).Inc()
	if err == nil {
		m.redirects.Observe(float64(report.Redirects()))
	}
	return report, err
}

// SocketOpened records a connected history socket.
func (m *Metrics) SocketOpened() {
	m.activeSockets.Inc()
}

// SocketClosed records a disconnected history socket.
func (m *Metrics) SocketClosed() {
	m.activeSockets.Dec()
}

// SocketError records a socket error, e.g. "handshake" or "read".
func (m *Metrics) SocketError(kind string) {
	m.socketErrors.WithLabelValues(kind).Inc()
}

// Outcome classifies a finished resolution. Error messages are never used
// as labels.
func Outcome(report *resolve.Report, err error) string {
	switch {
	case err == nil && report != nil && report.NotFound:
		return OutcomeNotFound
	case err == nil:
		return OutcomeOK
	case errors.Is(err, resolve.ErrRedirectLoop):
		return OutcomeRedirectLoop
	case errors.Is(err, resolve.ErrTooManyRedirects):
		return OutcomeTooManyRedirects
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
