package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"herdbook-backend/internal/logging"

	"github.com/google/uuid"
)

// Timing stamps X-Request-ID and X-Process-Time on every response. For
// JSON error responses it additionally injects a timestamp into the
// error body when the producer left it out; the rewrite is best effort
// and any body it cannot parse is passed through untouched.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := logging.RequestIDFromContext(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}
		tw := &timingWriter{
			ResponseWriter: w,
			requestID:      requestID,
			started:        time.Now(),
		}
		next.ServeHTTP(tw, r)
		tw.finish()
	})
}

type timingWriter struct {
	http.ResponseWriter
	requestID string
	started   time.Time

	statusCode int
	wroteHead  bool
	buffering  bool
	buf        bytes.Buffer
}

func (tw *timingWriter) WriteHeader(code int) {
	if tw.wroteHead {
		return
	}
	tw.statusCode = code
	tw.wroteHead = true

	h := tw.Header()
	h.Set("X-Request-ID", tw.requestID)
	h.Set("X-Process-Time", strconv.FormatFloat(time.Since(tw.started).Seconds(), 'f', 4, 64))

	if code >= 400 && strings.HasPrefix(h.Get("Content-Type"), "application/json") {
		// Hold the body back so finish can patch it; Content-Length
		// would no longer match after the rewrite.
		tw.buffering = true
		h.Del("Content-Length")
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	if !tw.wroteHead {
		tw.WriteHeader(http.StatusOK)
	}
	if tw.buffering {
		return tw.buf.Write(b)
	}
	return tw.ResponseWriter.Write(b)
}

// finish flushes a buffered error body, injecting a timestamp into the
// envelope when it is missing.
func (tw *timingWriter) finish() {
	if !tw.buffering {
		return
	}
	body := tw.buf.Bytes()
	if patched, ok := injectTimestamp(body); ok {
		body = patched
	}
	_, _ = tw.ResponseWriter.Write(body)
}

func injectTimestamp(body []byte) ([]byte, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	raw, ok := payload["error"]
	if !ok {
		return nil, false
	}
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}
	if _, ok := envelope["timestamp"]; ok {
		return nil, false
	}
	envelope["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	patchedErr, err := json.Marshal(envelope)
	if err != nil {
		return nil, false
	}
	payload["error"] = patchedErr
	patched, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return patched, true
}
