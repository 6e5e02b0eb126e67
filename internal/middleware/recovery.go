package middleware

import (
	"fmt"
	"net/http"

	"herdbook-backend/internal/logging"
	"herdbook-backend/pkg/api"
	apperrors "herdbook-backend/pkg/errors"

	"github.com/google/uuid"
)

// Recovery converts handler panics into a standard internal-error
// envelope. It sits outermost so a panic anywhere in the chain still
// produces a well-formed response when nothing has been written yet.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ctx := r.Context()
				err := fmt.Errorf("panic: %v", rec)
				logger.Critical(ctx, "Unhandled panic", err, logging.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})

				// If a partial response went out there is nothing
				// left to do; the server closes the connection.
				if w.Header().Get("Content-Type") != "" {
					return
				}
				// The correlation middleware runs further in and seeds
				// its id on a derived request, so this context may not
				// carry one. The envelope still needs a usable id.
				requestID := logging.RequestIDFromContext(ctx)
				if requestID == "" {
					requestID = r.Header.Get("X-Request-ID")
				}
				if requestID == "" {
					requestID = uuid.New().String()
				}
				api.Error(w, requestID, apperrors.NewInternal(err))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
