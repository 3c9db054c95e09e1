package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/navroute/internal/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port        int
		host        string
		watch       bool
		traceStdout bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolution over HTTP and history sockets",
		Long: `Serve the route manifest.

Browsers connect to /ws and keep their history in sync with a
server-side router. Locations can also be resolved with
GET /api/resolve?href=/path.

Features:
  • Manifest hot reload (--watch, local manifests only)
  • Prometheus metrics (metrics.enabled in navroute.json)
  • OpenTelemetry spans per resolution (--trace-stdout)

Examples:
  navroute serve
  navroute serve --port=9000 --watch
  navroute serve --manifest=s3://site-config/routes.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if watch {
				cfg.Watch = true
			}
			if traceStdout {
				cfg.Tracing.Enabled = true
				cfg.Tracing.Stdout = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Log.NewLogger(os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Tracing.Stdout {
				shutdown, err := initStdoutTracing(cfg.Tracing.TracerName)
				if err != nil {
					return err
				}
				defer shutdown(context.Background())
			}

			m, tree, err := loadSite(ctx, cfg)
			if err != nil {
				return err
			}
			if cfg.Watch && cfg.IsRemoteManifest() {
				warn(cmd.ErrOrStderr(), "--watch ignored for %s", cfg.Manifest)
			}

			srv := server.New(server.Options{
				Config:   cfg,
				Manifest: m,
				Tree:     tree,
				Logger:   logger,
			})
			success(cmd.OutOrStdout(), "Serving %d routes at http://%s", len(m.Routes), cfg.Address())
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from navroute.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from navroute.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the manifest when it changes")
	cmd.Flags().BoolVar(&traceStdout, "trace-stdout", false, "Print resolution spans to standard output")

	return cmd
}

// initStdoutTracing installs a global tracer provider exporting to stdout.
func initStdoutTracing(name string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	if name == "" {
		name = "navroute"
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
