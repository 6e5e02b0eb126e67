package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/observability"

	"github.com/go-chi/chi/v5"
)

// RequestLogging seeds the correlation context, logs the request
// lifecycle and feeds the metrics collector. It must run after the
// rate limiter so rejected requests are not double counted, and
// before the timing middleware so the request ID exists when response
// headers are stamped.
func RequestLogging(logger *logging.Logger, collector *observability.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := logging.SetCorrelation(
				r.Context(),
				r.Header.Get("X-Request-ID"),
				r.Header.Get("X-User-ID"),
				r.Header.Get("X-Session-ID"),
			)
			r = r.WithContext(ctx)

			started := time.Now()
			logger.Info(ctx, "Request started", logging.Fields{
				"method":       r.Method,
				"path":         r.URL.Path,
				"query_params": logging.RedactQuery(r.URL.RawQuery),
				"client":       clientAddress(r),
				"headers":      logging.RedactHeaders(r.Header),
			})

			rw := newResponseWriter(w)

			defer func() {
				elapsed := time.Since(started)

				if rec := recover(); rec != nil {
					logger.Error(ctx, "Request failed", recoveredError(rec), logging.Fields{
						"method":           r.Method,
						"path":             r.URL.Path,
						"response_time_ms": round2(elapsed.Seconds() * 1000),
					})
					collector.RecordRequest(routePattern(r), r.Method, http.StatusInternalServerError, elapsed.Seconds())
					panic(rec)
				}

				status := rw.statusCode
				fields := logging.Fields{
					"method":           r.Method,
					"path":             r.URL.Path,
					"status_code":      status,
					"response_time_ms": round2(elapsed.Seconds() * 1000),
					"response_size":    rw.written,
				}
				switch {
				case status >= 500:
					logger.Error(ctx, "Request completed", nil, fields)
				case status >= 400:
					logger.Warn(ctx, "Request completed", fields)
				default:
					logger.Info(ctx, "Request completed", fields)
				}

				collector.RecordRequest(routePattern(r), r.Method, status, elapsed.Seconds())
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// routePattern groups metrics by route template rather than raw path
// so "/api/v1/breeds/123" and "/api/v1/breeds/456" land in one bucket.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return &panicError{value: rec}
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
