// Package api serves the adjudicator over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/adjudicator/internal/claims"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/opensource-finance/adjudicator/internal/policy"
	"github.com/opensource-finance/adjudicator/internal/request"
	"github.com/opensource-finance/adjudicator/internal/underwriting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the API serves. Repo, Cache, Bus and
// Gatherer are optional.
type Dependencies struct {
	Claims       *claims.Service
	Underwriting *underwriting.Service
	Policies     *policy.Service
	Validator    *request.Validator

	Repo  domain.Repository
	Cache domain.Cache
	Bus   domain.EventBus

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Version string
}

// Server represents the HTTP API server.
type Server struct {
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, metricsCfg domain.MetricsConfig, deps Dependencies) *Server {
	handler := NewHandler(deps)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)                                    // CORS for browser clients
	router.Use(RecoverMiddleware)                                 // Recover from panics
	router.Use(middleware.RealIP)                                 // Extract real IP
	router.Use(TracingMiddleware)                                 // OpenTelemetry tracing
	router.Use(LoggingMiddleware(deps.Metrics))                   // Request logging and latency
	router.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst)) // Per-client token bucket
	router.Use(middleware.Compress(5))                            // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	if metricsCfg.Enabled && deps.Gatherer != nil {
		path := metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", handler.FileClaim)
			r.Get("/", handler.ListClaimsByStatus)
			r.Get("/{id}", handler.GetClaim)
			r.Get("/number/{claimNumber}", handler.GetClaimByNumber)
			r.Get("/customer/{customerId}", handler.ListClaimsByCustomer)
			r.Get("/policy/{policyId}", handler.ListClaimsByPolicy)
			r.Post("/{id}/approve", handler.ApproveClaim)
			r.Post("/{id}/settle", handler.SettleClaim)
			r.Post("/{id}/reject", handler.RejectClaim)
		})

		r.Route("/underwriting/cases", func(r chi.Router) {
			r.Post("/", handler.CreateCase)
			r.Get("/{id}", handler.GetCase)
			r.Get("/policy/{policyId}", handler.ListCasesByPolicy)
			r.Post("/{id}/review", handler.ReviewCase)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Post("/", handler.CreatePolicy)
			r.Get("/{id}", handler.GetPolicy)
			r.Get("/customer/{customerId}", handler.ListPoliciesByCustomer)
			r.Post("/{id}/activate", handler.ActivatePolicy)
			r.Post("/{id}/renew", handler.RenewPolicy)
			r.Post("/{id}/cancel", handler.CancelPolicy)
		})
	})

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
