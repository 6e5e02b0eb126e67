package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const correlationKey contextKey = "correlation"

// Correlation holds the per-request identifier slots. A zero value
// means the slot was never set for this scope.
type Correlation struct {
	RequestID string
	UserID    string
	SessionID string
}

// IsZero reports whether no slot is populated.
func (c Correlation) IsZero() bool {
	return c.RequestID == "" && c.UserID == "" && c.SessionID == ""
}

// SetCorrelation stores correlation slots in a new context scoped to the
// current request. A request id is generated when none is supplied. The
// returned context must be threaded through the handler call chain; the
// middleware chain is the only writer, everything else reads.
func SetCorrelation(ctx context.Context, requestID, userID, sessionID string) (context.Context, string) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	c := Correlation{RequestID: requestID, UserID: userID, SessionID: sessionID}
	return context.WithValue(ctx, correlationKey, c), requestID
}

// GetCorrelation returns the correlation slots for the current scope,
// or a zero Correlation when none were set.
func GetCorrelation(ctx context.Context) Correlation {
	if ctx == nil {
		return Correlation{}
	}
	if c, ok := ctx.Value(correlationKey).(Correlation); ok {
		return c
	}
	return Correlation{}
}

// RequestIDFromContext returns the current request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return GetCorrelation(ctx).RequestID
}
