package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"herdbook-backend/internal/logging"
	"herdbook-backend/pkg/api"
	apperrors "herdbook-backend/pkg/errors"
)

// RateLimitConfig holds the sliding-window limiter settings.
type RateLimitConfig struct {
	Calls  int
	Period time.Duration
	// ExemptPaths are matched by prefix and never counted.
	ExemptPaths []string
}

// DefaultRateLimitConfig returns the limiter settings used when none
// are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Calls:       100,
		Period:      time.Minute,
		ExemptPaths: []string{"/health", "/docs", "/openapi.json"},
	}
}

// rateLimiter tracks request timestamps per client inside a sliding
// window. One mutex guards both the check and the append so two
// concurrent requests from the same client cannot both observe the
// last remaining slot.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	calls   int
	period  time.Duration

	lastCleanup time.Time
}

func newRateLimiter(calls int, period time.Duration) *rateLimiter {
	return &rateLimiter{
		clients:     make(map[string][]time.Time),
		calls:       calls,
		period:      period,
		lastCleanup: time.Now(),
	}
}

// allow decides the request and returns the remaining budget.
func (rl *rateLimiter) allow(client string, now time.Time) (ok bool, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.period)
	recent := rl.clients[client][:0]
	for _, t := range rl.clients[client] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.calls {
		rl.clients[client] = recent
		return false, 0
	}

	recent = append(recent, now)
	rl.clients[client] = recent

	// Drop idle clients every period so the map does not grow with
	// one entry per address forever.
	if now.Sub(rl.lastCleanup) > rl.period {
		for key, stamps := range rl.clients {
			if key == client {
				continue
			}
			live := stamps[:0]
			for _, t := range stamps {
				if t.After(cutoff) {
					live = append(live, t)
				}
			}
			if len(live) == 0 {
				delete(rl.clients, key)
			} else {
				rl.clients[key] = live
			}
		}
		rl.lastCleanup = now
	}

	return true, rl.calls - len(recent)
}

// RateLimit enforces a per-client sliding window and rejects excess
// requests with the standard error envelope and rate-limit headers.
func RateLimit(cfg RateLimitConfig, logger *logging.Logger) func(http.Handler) http.Handler {
	if cfg.Calls <= 0 {
		cfg.Calls = DefaultRateLimitConfig().Calls
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultRateLimitConfig().Period
	}
	rl := newRateLimiter(cfg.Calls, cfg.Period)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.ExemptPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			client := clientAddress(r)
			ok, remaining := rl.allow(client, time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Calls))
			w.Header().Set("X-RateLimit-Period", strconv.Itoa(int(cfg.Period.Seconds())))

			if !ok {
				retryAfter := int(cfg.Period.Seconds())
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				// The correlation middleware runs further in and never
				// sees rejected requests, so seed the id here. The same
				// id goes into the envelope and the security event.
				ctx, requestID := logging.SetCorrelation(
					r.Context(), r.Header.Get("X-Request-ID"), "", "")

				if logger != nil {
					logging.LogSecurityEvent(logger, ctx, "rate_limit_exceeded", logging.LevelWarning, logging.Fields{
						"client": client,
						"path":   r.URL.Path,
						"method": r.Method,
					})
				}

				api.Error(w, requestID, apperrors.NewRateLimited(retryAfter))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddress identifies the caller, honoring the first address of a
// forwarding chain when present.
func clientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
