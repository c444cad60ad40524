package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rosterwatch/rosterwatch/internal/config"
	"github.com/rosterwatch/rosterwatch/internal/handler"
	"github.com/rosterwatch/rosterwatch/internal/metrics"
	"github.com/rosterwatch/rosterwatch/internal/middleware"
	"github.com/rosterwatch/rosterwatch/internal/ratelimit"
)

// Route labels for instrumented endpoints.
const (
	routeStudents        = "/api/students"
	routeStudent         = "/api/students/:id"
	routeMockError       = "/api/mock-error"
	routeFrontendMetrics = "/api/frontend-metrics"
)

// routerDeps collects what setupRouter wires together.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *metrics.Registry
	limiter  ratelimit.Limiter

	health    *handler.HealthHandler
	students  *handler.StudentHandler
	frontend  *handler.FrontendHandler
	scrape    *handler.MetricsHandler
	mockError *handler.MockErrorHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Probes and scrape target are not instrumented
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.scrape.Metrics)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Enabled: d.cfg.IngestRateLimitEnabled,
	}

	r.Route("/api", func(r chi.Router) {
		// Throttled requests are still counted
		r.With(
			middleware.Instrument(d.registry, routeFrontendMetrics),
			middleware.RateLimitIP(rateLimitCfg),
		).Post("/frontend-metrics", d.frontend.Ingest)

		r.Route("/students", func(r chi.Router) {
			list := r.With(middleware.Instrument(d.registry, routeStudents))
			list.Get("/", d.students.List)
			list.Post("/", d.students.Create)

			one := r.With(middleware.Instrument(d.registry, routeStudent))
			one.Get("/{id}", d.students.Get)
			one.Patch("/{id}", d.students.Update)
			one.Delete("/{id}", d.students.Delete)
		})

		mock := r.With(middleware.Instrument(d.registry, routeMockError))
		mock.Get("/mock-error", d.mockError.Serve)
		mock.Post("/mock-error", d.mockError.Serve)
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
