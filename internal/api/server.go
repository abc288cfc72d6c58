// Package api serves the optimization pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz        liveness probe
//	GET  /v1/passes      registered rewrite passes
//	POST /v1/optimize    optimize a JSON model (?passes=a,b&refresh=true)
//	POST /v1/inspect     summarize a JSON model
//	POST /v1/render      draw a JSON model (?format=svg|png|dot&rankdir=LR)
//
// Request bodies are JSON model documents as read by pkg/io. External data
// references are rejected, so a request can never read server files.
//
// Every optimize response carries an X-Run-ID header matching the run_id
// logged by the pipeline. Errors are returned as {"code": ..., "message": ...}
// with the status chosen from the error code.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/modelir/pkg/observability"
	"github.com/matzehuels/modelir/pkg/pipeline"
)

// Defaults for [Options].
const (
	DefaultMaxBodyBytes = 64 << 20
	DefaultReadTimeout  = 30 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// ReadTimeout bounds reading a request. Zero means DefaultReadTimeout.
	ReadTimeout time.Duration

	// Passes is used when a request names none.
	Passes []string

	// CacheTTL is passed to the pipeline for stored results.
	CacheTTL time.Duration
}

// Server routes HTTP requests to a pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options
	router chi.Router
}

// New creates a server. A nil logger discards output.
func New(runner *pipeline.Runner, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	s := &Server{runner: runner, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s.route(r, http.MethodGet, "/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		s.route(r, http.MethodGet, "/passes", s.handlePasses)
		s.route(r, http.MethodPost, "/optimize", s.handleOptimize)
		s.route(r, http.MethodPost, "/inspect", s.handleInspect)
		s.route(r, http.MethodPost, "/render", s.handleRender)
	})
	return r
}

// route registers h with request hooks and access logging under pattern.
func (s *Server) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		full := pattern
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			full = rctx.RoutePattern()
		}
		ctx := req.Context()
		observability.HTTP().OnRequest(ctx, method, full)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		h(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnResponse(ctx, method, full, status, dur)
		s.logger.Debug("request",
			"method", method,
			"route", full,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur)
	}))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
