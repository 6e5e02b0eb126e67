// Package rest assembles the HTTP router and its middleware chain.
package rest

import (
	"net/http"

	"herdbook-backend/internal/config"
	"herdbook-backend/internal/interfaces/http/handlers"
	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/middleware"
	"herdbook-backend/internal/observability"
	breedservice "herdbook-backend/internal/service/breed"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Router creates and configures the HTTP router.
type Router struct {
	cfg       *config.Config
	logger    *logging.Logger
	collector *observability.Collector
	breeds    *breedservice.Service
	version   string
}

// NewRouter creates a router instance.
func NewRouter(
	cfg *config.Config,
	logger *logging.Logger,
	collector *observability.Collector,
	breeds *breedservice.Service,
	version string,
) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		breeds:    breeds,
		version:   version,
	}
}

// Setup configures all routes and middleware. The chain runs outermost
// to innermost: recovery, security headers, rate limiting, correlation
// and request logging, then response timing, so security headers and
// rate limiting cover every response while the logging layer sees the
// final status of each request.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recovery(rt.logger))
	router.Use(middleware.SecurityHeaders)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORS.AllowedOrigins,
		AllowedMethods: rt.cfg.CORS.AllowedMethods,
		AllowedHeaders: rt.cfg.CORS.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-ID", "X-Process-Time", "X-RateLimit-Remaining"},
		MaxAge:         rt.cfg.CORS.MaxAge,
	}))

	if rt.cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Calls:       rt.cfg.RateLimit.Calls,
			Period:      rt.cfg.RateLimit.Period,
			ExemptPaths: middleware.DefaultRateLimitConfig().ExemptPaths,
		}, rt.logger))
	}

	router.Use(middleware.RequestLogging(rt.logger, rt.collector))
	router.Use(middleware.Timing)

	if rt.cfg.CircuitBreaker.Enabled {
		router.Use(middleware.CircuitBreaker(middleware.CircuitBreakerConfig{
			Name:             "api",
			MaxRequests:      rt.cfg.CircuitBreaker.MaxRequests,
			Interval:         rt.cfg.CircuitBreaker.Interval,
			Timeout:          rt.cfg.CircuitBreaker.Timeout,
			FailureThreshold: rt.cfg.CircuitBreaker.FailureThreshold,
			MinRequests:      rt.cfg.CircuitBreaker.MinRequests,
		}, rt.logger))
	}

	monitoring := handlers.NewMonitoringHandler(rt.collector, rt.cfg.Logging.Dir, rt.version)
	monitoring.RegisterRoutes(router)

	breedHandler := handlers.NewBreedHandler(rt.breeds, rt.logger)
	router.Route("/api/v1", func(r chi.Router) {
		breedHandler.RegisterRoutes(r)
	})

	return router
}
