package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/navroute/client/dist"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/history"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/router"
)

// ResolveResponse is the body of GET /api/resolve.
type ResolveResponse struct {
	Href      string   `json:"href"`
	Canonical string   `json:"canonical"`
	Value     string   `json:"value"`
	Replace   bool     `json:"replace,omitempty"`
	Params    []string `json:"params,omitempty"`
	Visited   []string `json:"visited"`
	NotFound  bool     `json:"notFound,omitempty"`
}

type reportKey struct{}

// reportSink receives the report of a resolution made with its context.
type reportSink struct {
	report *resolve.Report
}

func withReportSink(ctx context.Context) (context.Context, *reportSink) {
	sink := &reportSink{}
	return context.WithValue(ctx, reportKey{}, sink), sink
}

func captureReport(ctx context.Context, _ *nav.Opts, next resolve.Handler) (*resolve.Report, error) {
	report, err := next(ctx)
	if sink, ok := ctx.Value(reportKey{}).(*reportSink); ok {
		sink.report = report
	}
	return report, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"routes":  len(s.current().manifest.Routes),
		"clients": len(s.Clients()),
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.current().manifest.Routes
	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	writeJSON(w, http.StatusOK, keys)
}

// handleResolve resolves the href query parameter.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	href := r.URL.Query().Get("href")
	if href == "" {
		href = "/"
	}
	target, err := nav.Parse(href)
	if err != nil {
		writeError(w, http.StatusBadRequest, LocationError(href, err))
		return
	}

	ctx, sink := withReportSink(r.Context())
	res, err := s.Resolve(ctx, target)
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, resolve.ErrRedirectLoop) || stderrors.Is(err, resolve.ErrTooManyRedirects) {
			status = http.StatusLoopDetected
		}
		writeError(w, status, ResolutionError(err))
		return
	}

	resp := ResolveResponse{
		Href:      target.Href(),
		Canonical: res.Opts.Href(),
		Value:     res.Value,
		Replace:   res.Opts.Replace(),
		Params:    res.Opts.Params(),
	}
	if rep := sink.report; rep != nil {
		resp.NotFound = rep.NotFound
		for _, o := range rep.Visited {
			resp.Visited = append(resp.Visited, o.Href())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(clientdist.NavrouteJS)
}

// handleSocket runs a router for one browser session.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := history.Accept(w, r, &s.upgrader, s.config.HistorySocket(s.logger))
	if err != nil {
		s.logger.Warn("socket rejected", "error", err)
		s.socketError("handshake")
		return
	}
	if s.metrics != nil {
		s.metrics.SocketOpened()
		defer s.metrics.SocketClosed()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.baseCtx, cancel)
	defer stop()

	logger := s.logger.With("socket_id", sock.ID())
	rt := router.New[string](s.current().tree,
		router.WithResolver[string](s.resolver),
		router.WithNotFound[string](s.notFound),
		router.WithHistory[string](sock),
		router.WithLogger[string](logger),
		router.WithOnResolve[string](func(res resolve.Resolved[string]) {
			if err := sock.SendResolved(res.Opts.Href(), res.Value); err != nil {
				logger.Debug("send resolved failed", "error", err)
				s.socketError("write")
			}
		}),
	)
	s.addClient(sock.ID(), rt)
	defer s.removeClient(sock.ID())

	if err := rt.Init(ctx); err != nil {
		logger.Warn("initial navigation failed", "href", sock.Location().Href(), "error", err)
	}
	defer rt.Dispose()

	if err := sock.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("socket closed", "error", err)
		s.socketError("read")
	}
}

func (s *Server) socketError(kind string) {
	if s.metrics != nil {
		s.metrics.SocketError(kind)
	}
}

// ResolutionError converts a resolution or location error into a coded
// error.
func ResolutionError(err error) *errors.Error {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded
	}

	var redirect *resolve.RedirectError
	switch {
	case stderrors.Is(err, resolve.ErrRedirectLoop):
		e := errors.New(errors.RedirectLoop).Wrap(err)
		if stderrors.As(err, &redirect) && len(redirect.Chain) > 0 {
			e = e.WithSuggestion("Check the redirect of " + redirect.Chain[len(redirect.Chain)-1].Href())
		}
		return e
	case stderrors.Is(err, resolve.ErrTooManyRedirects):
		return errors.New(errors.TooManyRedirects).Wrap(err).
			WithSuggestion(`Shorten the redirect chain or raise "maxRedirects"`)
	}
	return errors.New(errors.ResolverFailed).Wrap(err)
}

// LocationError reports an href rejected by nav.Parse.
func LocationError(href string, err error) *errors.Error {
	return errors.New(errors.InvalidLocation).
		WithDetail("Cannot navigate to " + strconv.Quote(href)).
		Wrap(err).
		WithSuggestion(`Use a path relative to the site root, such as "/docs"`)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e *errors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(e.FormatJSON() + "\n"))
}
