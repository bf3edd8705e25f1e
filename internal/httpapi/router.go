// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Package httpapi exposes the agent's metrics and query surface over HTTP:
// a trimmed chi.Router middleware stack (RealIP, Recoverer, go-chi/cors,
// go-chi/httprate) in front of a much smaller route table than a
// general-purpose web API would need.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/promql"
	"github.com/tomtom215/rezolus-go/internal/sampler"
)

// Config tunes the router's CORS and rate-limiting middleware. Mirrors the
// teacher's ChiMiddlewareConfig, trimmed to the fields this surface needs.
type Config struct {
	Addr string

	CORSAllowedOrigins []string

	// QueryRateLimitRequests/Window bound the query and query_range
	// endpoints, the only handlers here expensive enough to need it —
	// /metrics and /status are cheap registry/map reads.
	QueryRateLimitRequests int
	QueryRateLimitWindow   time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig returns a secure-by-default configuration: no CORS origins
// allowed until explicitly configured.
func DefaultConfig() Config {
	return Config{
		Addr:                   "127.0.0.1:9172",
		CORSAllowedOrigins:     []string{},
		QueryRateLimitRequests: 60,
		QueryRateLimitWindow:   time.Minute,
		ShutdownTimeout:        10 * time.Second,
	}
}

// Deps are the components the router's handlers delegate to. Registry and
// Status are read continuously; the query engine is not part of Deps but is
// passed to NewRouter separately through an EngineHolder, whose function may
// return nil while no recording is loaded.
type Deps struct {
	Registry *metric.Registry
	Status   *sampler.StatusTracker
}

// NewRouter builds the chi.Router for the agent's HTTP surface: /metrics
// /metrics, /status (sampler health), and /api/v1/query[_range].
func NewRouter(cfg Config, deps Deps, engine *EngineHolder) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))

	r.Get("/metrics", metricsHandler(deps.Registry))
	r.Get("/status", statusHandler(deps.Status))

	r.Group(func(r chi.Router) {
		if cfg.QueryRateLimitRequests > 0 {
			r.Use(httprate.Limit(cfg.QueryRateLimitRequests, cfg.QueryRateLimitWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Get("/api/v1/query", queryHandler(engine))
		r.Get("/api/v1/query_range", queryRangeHandler(engine))
	})

	return r
}

// EngineHolder lets the query handlers see a promql.Engine that is loaded
// (or reloaded) after the router has already started serving — recordings
// are loaded asynchronously and can be replaced.
type EngineHolder struct {
	get func() *promql.Engine
}

// NewEngineHolder wraps a function returning the current engine, nil until
// the first recording loads.
func NewEngineHolder(get func() *promql.Engine) *EngineHolder {
	return &EngineHolder{get: get}
}

func (h *EngineHolder) current() *promql.Engine {
	if h == nil || h.get == nil {
		return nil
	}
	return h.get()
}

// Server is a suture.Service wrapping an *http.Server, grounded on the
// teacher's pattern of running the chi router under the supervisor tree
// rather than a bare ListenAndServe in main.
type Server struct {
	cfg    Config
	server *http.Server
}

// NewServer builds a Server ready to be added to a supervisor.Tree via
// AddAPIService.
func NewServer(cfg Config, deps Deps, engine *EngineHolder) *Server {
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:    cfg.Addr,
			Handler: NewRouter(cfg, deps, engine),
		},
	}
}

// Serve implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// String names the service for suture's logs.
func (s *Server) String() string { return "httpapi:" + s.cfg.Addr }
