// Package api defines the wire contracts shared by every handler:
// the success writer and the normalized error envelope.
// It decouples the response structure from the internal domain models.
package api

import (
	"encoding/json"
	"net/http"

	"herdbook-backend/pkg/errors"
)

// Envelope is the client-visible body of every error response.
// Only the fixed message and category are ever rendered; underlying
// causes stay in the logs.
type Envelope struct {
	RequestID  string         `json:"request_id"`
	ErrorCode  errors.Code    `json:"error_code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Field      string         `json:"field,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	Operation  string         `json:"operation,omitempty"`
	Service    string         `json:"service,omitempty"`
	RetryAfter int            `json:"retry_after,omitempty"`
}

// ErrorBody wraps the envelope under the stable top-level "error" key.
type ErrorBody struct {
	Error Envelope `json:"error"`
}

// NewEnvelope builds an envelope from a classified error and request id.
func NewEnvelope(requestID string, appErr *errors.AppError) Envelope {
	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}
	return Envelope{
		RequestID:  requestID,
		ErrorCode:  appErr.Code,
		Message:    appErr.Message,
		Details:    details,
		Field:      appErr.Field,
		Resource:   appErr.Resource,
		Identifier: appErr.Identifier,
		Operation:  appErr.Operation,
		Service:    appErr.Service,
		RetryAfter: appErr.RetryAfter,
	}
}

// Success writes data as a JSON response with the given status code.
func Success(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing left to do for this response.
		return
	}
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error classifies err, writes the normalized envelope and returns the
// envelope that was sent so callers can log it.
func Error(w http.ResponseWriter, requestID string, err error) Envelope {
	appErr := errors.Classify(err)
	env := NewEnvelope(requestID, appErr)
	WriteEnvelope(w, appErr.HTTPStatus(), env)
	return env
}

// WriteEnvelope writes a prebuilt envelope with the given status.
func WriteEnvelope(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", string(env.ErrorCode))
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: env})
}
