package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/pkg/manifest"
	"github.com/vango-dev/navroute/pkg/middleware"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
	"github.com/vango-dev/navroute/pkg/router"
)

// Options configures the server.
type Options struct {
	// Config is the project configuration.
	Config *config.Config

	// Manifest and Tree are the initial routes, as returned by
	// manifest.LoadTree.
	Manifest *manifest.Manifest
	Tree     *route.Branch[string]

	// Logger receives server diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Registry receives metrics when Config.Metrics is enabled. A nil
	// Registry creates one with Go and process collectors.
	Registry *prometheus.Registry

	// TracerProvider is used when Config.Tracing is enabled. Nil uses the
	// global provider.
	TracerProvider trace.TracerProvider
}

// site is the routing state swapped on manifest reload.
type site struct {
	manifest *manifest.Manifest
	tree     *route.Branch[string]
	notFound route.Resolve[string]
}

// Server serves resolution over HTTP and history sockets.
type Server struct {
	config   *config.Config
	logger   *slog.Logger
	resolver *resolve.Resolver[string]
	metrics  *middleware.Metrics
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	handler  http.Handler

	mu      sync.RWMutex
	site    site
	clients map[string]*router.Router[string]

	// baseCtx bounds socket sessions. It is canceled by Stop.
	baseCtx context.Context
	cancel  context.CancelFunc

	lifeMu     sync.Mutex
	running    bool
	httpServer *http.Server
	watcher    *manifest.Watcher
}

// New creates a server for the given routes.
func New(options Options) *Server {
	cfg := options.Config
	if cfg == nil {
		cfg = config.New()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config:  cfg,
		logger:  logger,
		clients: make(map[string]*router.Router[string]),
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	s.setSite(options.Manifest, options.Tree)

	var mw []resolve.Middleware
	if cfg.Tracing.Enabled {
		var otelOpts []middleware.OTelOption
		if cfg.Tracing.TracerName != "" {
			otelOpts = append(otelOpts, middleware.WithTracerName(cfg.Tracing.TracerName))
		}
		if options.TracerProvider != nil {
			otelOpts = append(otelOpts, middleware.WithTracerProvider(options.TracerProvider))
		}
		mw = append(mw, middleware.OpenTelemetry(otelOpts...))
	}
	if cfg.Metrics.Enabled {
		s.registry = options.Registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
			s.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		s.metrics = middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(s.registry),
		)
		mw = append(mw, s.metrics)
	}
	mw = append(mw, resolve.MiddlewareFunc(captureReport))

	maxRedirects := cfg.MaxRedirects
	if maxRedirects == 0 && options.Manifest != nil {
		maxRedirects = options.Manifest.MaxRedirects
	}
	resolverOpts := []resolve.Option{
		resolve.WithLogger(logger.With("component", "resolve")),
		resolve.WithMiddleware(mw...),
	}
	if maxRedirects > 0 {
		resolverOpts = append(resolverOpts, resolve.WithMaxRedirects(maxRedirects))
	}
	s.resolver = resolve.New[string](resolverOpts...)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.NoCache)
		r.Get("/resolve", s.handleResolve)
		r.Get("/routes", s.handleRoutes)
	})
	r.Get("/ws", s.handleSocket)
	r.Get("/navroute.js", s.handleClient)
	if s.registry != nil {
		r.Method(http.MethodGet, s.config.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Resolver returns the shared resolver.
func (s *Server) Resolver() *resolve.Resolver[string] {
	return s.resolver
}

// Resolve resolves o against the current routes.
func (s *Server) Resolve(ctx context.Context, o *nav.Opts) (resolve.Resolved[string], error) {
	return s.resolver.Resolve(ctx, s.current().tree, o, s.notFound)
}

// notFound defers to the current manifest so reloads apply to live routers.
func (s *Server) notFound(ctx context.Context, o *nav.Opts, next *string) (route.Result[string], error) {
	return s.current().notFound(ctx, o, next)
}

func (s *Server) current() site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site
}

func (s *Server) setSite(m *manifest.Manifest, tree *route.Branch[string]) {
	if m == nil {
		m = &manifest.Manifest{}
	}
	if tree == nil {
		tree = &route.Branch[string]{}
	}
	s.mu.Lock()
	s.site = site{manifest: m, tree: tree, notFound: m.NotFoundResolver()}
	s.mu.Unlock()
}

// SetManifest swaps the routes of the server and every connected client.
// The redirect limit is fixed when the server is created.
func (s *Server) SetManifest(m *manifest.Manifest, tree *route.Branch[string]) {
	s.setSite(m, tree)

	s.mu.RLock()
	routers := make([]*router.Router[string], 0, len(s.clients))
	for _, rt := range s.clients {
		routers = append(routers, rt)
	}
	s.mu.RUnlock()

	for _, rt := range routers {
		rt.SetRoutes(tree)
	}
	s.logger.Info("routes updated", "routes", len(m.Routes), "clients", len(routers))
}

// Clients returns the IDs of connected history sockets.
func (s *Server) Clients() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (s *Server) addClient(id string, rt *router.Router[string]) {
	s.mu.Lock()
	s.clients[id] = rt
	s.mu.Unlock()
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

// checkOrigin admits configured origins, or same-origin requests when none
// are configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.config.Server.Origins) > 0 {
		return slices.Contains(s.config.Server.Origins, origin)
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Start starts listening on the configured address and, when enabled,
// watches a local manifest. It blocks until ctx is done or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.running {
		s.lifeMu.Unlock()
		return nil
	}
	s.running = true

	if s.config.Watch && !s.config.IsRemoteManifest() {
		s.watcher = manifest.NewWatcher(manifest.WatcherConfig{
			Path:   s.config.ManifestLocation(),
			Logger: s.logger,
		})
		s.watcher.OnReload(func(r manifest.Reload) {
			s.SetManifest(r.Manifest, r.Tree)
		})
		if err := s.watcher.Start(ctx); err != nil {
			s.logger.Error("manifest watch failed", "error", err)
			s.watcher = nil
		}
	}

	s.httpServer = &http.Server{
		Addr:    s.config.Address(),
		Handler: s.handler,
	}
	s.lifeMu.Unlock()

	s.logger.Info("server running", "addr", s.config.Address())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop closes history sockets, stops the manifest watcher and shuts the
// listener down within the configured timeout.
func (s *Server) Stop() {
	s.cancel()

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout())
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown incomplete", "error", err)
		}
	}
}
