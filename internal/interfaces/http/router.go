// Package http assembles the REST surface: the chi route tree, the server
// lifecycle, handlers and middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/prometheus"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http/handlers"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware the route tree mounts.
// Nil handlers leave their routes unregistered; nil middleware is skipped.
type RouterConfig struct {
	ScreeningHandler *handlers.ScreeningHandler
	STSHandler       *handlers.STSHandler
	ResolverHandler  *handlers.ResolverHandler
	CatalogHandler   *handlers.CatalogHandler
	HealthHandler    *handlers.HealthHandler

	Logger        logging.Logger
	LoggingConfig *middleware.LoggingConfig
	CORSConfig    *middleware.CORSConfig
	RateLimiter   middleware.RateLimiter
	RateLimitCfg  middleware.RateLimitConfig

	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree: public health and metrics
// endpoints plus the /api/v1 screening surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSConfig != nil {
		r.Use(middleware.CORS(*cfg.CORSConfig))
	}
	if cfg.Logger != nil {
		lc := middleware.DefaultLoggingConfig()
		if cfg.LoggingConfig != nil {
			lc = *cfg.LoggingConfig
		}
		r.Use(middleware.RequestLogging(cfg.Logger, lc))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimitCfg))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
	}

	// Exposed without auth; production fronts this with a firewall rule.
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerScreeningRoutes(api, cfg.ScreeningHandler)
		registerSTSRoutes(api, cfg.STSHandler)
		registerResolverRoutes(api, cfg.ResolverHandler)
		registerCatalogRoutes(api, cfg.CatalogHandler)
	})

	return r
}

func registerScreeningRoutes(r chi.Router, h *handlers.ScreeningHandler) {
	if h == nil {
		return
	}
	r.Route("/screenings", func(sr chi.Router) {
		sr.Post("/", h.Screen)
		sr.Get("/{requestID}", h.Lookup)
	})
}

func registerSTSRoutes(r chi.Router, h *handlers.STSHandler) {
	if h == nil {
		return
	}
	r.Post("/sts/screenings", h.Screen)
}

func registerResolverRoutes(r chi.Router, h *handlers.ResolverHandler) {
	if h == nil {
		return
	}
	r.Route("/resolver", func(rr chi.Router) {
		rr.Post("/runs", h.EnqueueRun)
		rr.Get("/parties", h.PartyRisk)
	})
}

func registerCatalogRoutes(r chi.Router, h *handlers.CatalogHandler) {
	if h == nil {
		return
	}
	r.Get("/checks", h.List)
}
