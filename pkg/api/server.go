// Package api serves load order resolution over HTTP.
//
// Routes:
//
//	GET  /healthz               liveness probe
//	GET  /v1/components         identifiers known to the registry
//	GET  /v1/components/{id}    one descriptor
//	POST /v1/resolve            load order and requirements
//	GET  /metrics               Prometheus metrics, when configured
//
// Errors are returned as {"error": {"code": ..., "message": ...}} with the
// code taken from pkg/errors. Every response carries an X-Request-ID header.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// DefaultMaxBodyBytes limits the size of a resolve request body.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Defaults to log.Default().
	Logger *log.Logger
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// MaxBodyBytes bounds request bodies. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// ResolveTimeout bounds a single resolution. Zero means no limit.
	ResolveTimeout time.Duration
}

// Server is an http.Handler exposing a registry and its resolver.
type Server struct {
	registry component.Registry
	runner   *loadorder.Runner
	opts     Options
	router   chi.Router
}

// New builds a server for reg.
func New(reg component.Registry, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		registry: reg,
		runner:   loadorder.NewRunner(reg, opts.Logger),
		opts:     opts,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/components", s.handleListComponents)
		r.Get("/components/{id}", s.handleGetComponent)
		r.Post("/resolve", s.handleResolve)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path, nil)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully, waiting up to five seconds for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.opts.Logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
