package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"herdbook-backend/internal/logging"
	"herdbook-backend/pkg/api"
	apperrors "herdbook-backend/pkg/errors"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig holds the breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns conservative settings that only
// trip on a sustained failure rate.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

var errUpstreamFailure = errors.New("upstream handler returned server error")

// CircuitBreaker sheds load when the handlers behind it keep failing.
// Responses with a 5xx status count as failures; an open breaker
// answers immediately with a dependency-failure envelope instead of
// letting requests pile onto a struggling backend.
func CircuitBreaker(cfg CircuitBreakerConfig, logger *logging.Logger) func(http.Handler) http.Handler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logging.LogSecurityEvent(logger, context.Background(), "circuit_breaker_state_change", logging.LevelWarning, logging.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			}
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (any, error) {
				rw := newResponseWriter(w)
				next.ServeHTTP(rw, r)
				if rw.statusCode >= 500 {
					return nil, errUpstreamFailure
				}
				return nil, nil
			})
			if err == nil || errors.Is(err, errUpstreamFailure) {
				// The handler already wrote its own response.
				return
			}

			requestID := logging.RequestIDFromContext(r.Context())
			if requestID == "" {
				requestID = r.Header.Get("X-Request-ID")
			}
			api.Error(w, requestID, apperrors.NewExternalService(cfg.Name, err))
		})
	}
}
