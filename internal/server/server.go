// Package server exposes voting power results over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /version
//	GET  /metrics
//	GET  /v1/{space}/voting-power
//	POST /v1/{space}/voting-power            {"voters": [...], "delegationOverride": true}
//	GET  /v1/{space}/delegates/top           ?orderBy=power|count&limit=100&offset=0
//	GET  /v1/{space}/delegate/{address}
//	GET  /v1/{space}/delegate/{address}/tree
//	GET  /v1/{space}/history                 ?limit=10
//
// Errors are returned as {"error": {"code": "...", "message": "..."}}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/matzehuels/splitdelegation/pkg/pipeline"
	"github.com/matzehuels/splitdelegation/pkg/tree"
)

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	Logger *log.Logger

	// DelegationOverride is used when a request does not set it.
	DelegationOverride bool
	MaxTreeDepth       int

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string

	// Timeout bounds each request; zero disables it.
	Timeout time.Duration

	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	logger   *log.Logger
	validate *validator.Validate
	router   chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxTreeDepth <= 0 {
		opts.MaxTreeDepth = tree.DefaultMaxDepth
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler)
	if s.opts.Timeout > 0 {
		r.Use(middleware.Timeout(s.opts.Timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1/{space}", func(api chi.Router) {
		api.Get("/voting-power", s.handleVotingPower)
		api.Post("/voting-power", s.handleVotingPower)
		api.Get("/delegates/top", s.handleTopDelegates)
		api.Get("/delegate/{address}", s.handleDelegate)
		api.Get("/delegate/{address}/tree", s.handleTree)
		api.Get("/history", s.handleHistory)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
