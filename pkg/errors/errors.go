// Package errors defines the application error taxonomy.
// Every failure surfaced to a client is classified into exactly one of
// the closed set of codes below, each with a fixed HTTP status.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error category on the wire.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "RESOURCE_NOT_FOUND"
	CodeConflict        Code = "RESOURCE_CONFLICT"
	CodeDatabase        Code = "DATABASE_ERROR"
	CodeExternalService Code = "EXTERNAL_SERVICE_ERROR"
	CodeAuthentication  Code = "AUTHENTICATION_ERROR"
	CodeAuthorization   Code = "AUTHORIZATION_ERROR"
	CodeRateLimited     Code = "RATE_LIMIT_EXCEEDED"
	CodeIntegrity       Code = "INTEGRITY_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// AppError is the custom error type for the application.
// The optional fields are populated per category and carried into the
// response envelope; Err holds the underlying cause and is never
// rendered to clients.
type AppError struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error

	// Category-specific context.
	Field      string
	Resource   string
	Identifier string
	Operation  string
	Service    string
	RetryAfter int

	// schema marks the structural-validation variant of CodeValidation,
	// which maps to 422 instead of 400.
	schema bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the fixed status for this error's category.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		if e.schema {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeIntegrity:
		return http.StatusConflict
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Constructor functions for the taxonomy.

// NewValidation creates a semantic validation error (400).
func NewValidation(message, field string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Field: field}
}

// NewSchemaValidation creates the structural-schema variant of a
// validation error (422). Details carries the per-field breakdown.
func NewSchemaValidation(message string, details map[string]any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details, schema: true}
}

// NewNotFound creates a missing-resource error (404).
func NewNotFound(resource, identifier string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s with identifier '%s' not found", resource, identifier),
		Resource:   resource,
		Identifier: identifier,
	}
}

// NewConflict creates a unique-data conflict error (409).
func NewConflict(message, field string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Field: field}
}

// NewDatabase creates a persistence failure error (500).
func NewDatabase(operation string, err error) *AppError {
	return &AppError{
		Code:      CodeDatabase,
		Message:   "An internal database error occurred",
		Operation: operation,
		Err:       err,
	}
}

// NewIntegrity creates a unique-constraint violation error (409),
// distinguished from a generic persistence failure.
func NewIntegrity(operation string, err error) *AppError {
	return &AppError{
		Code:      CodeIntegrity,
		Message:   "Database constraint violation",
		Operation: operation,
		Err:       err,
	}
}

// NewExternalService creates a dependency call failure error (502).
func NewExternalService(service string, err error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("External service '%s' is unavailable", service),
		Service: service,
		Err:     err,
	}
}

// NewAuthentication creates a missing/invalid credentials error (401).
func NewAuthentication(message string) *AppError {
	if message == "" {
		message = "Authentication failed"
	}
	return &AppError{Code: CodeAuthentication, Message: message}
}

// NewAuthorization creates an insufficient-privilege error (403).
func NewAuthorization(message string) *AppError {
	if message == "" {
		message = "Insufficient permissions"
	}
	return &AppError{Code: CodeAuthorization, Message: message}
}

// NewRateLimited creates a quota-exceeded error (429).
func NewRateLimited(retryAfter int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many requests",
		RetryAfter: retryAfter,
	}
}

// NewInternal creates the catch-all error (500). The wrapped cause goes
// to the logs only; the fixed message is all a client sees.
func NewInternal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "An unexpected error occurred", Err: err}
}

// Wrap wraps an error with additional context, preserving its
// classification when it is already an AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		clone := *appErr
		clone.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return &clone
	}
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Classify maps any error to an AppError. Unrecognized errors become
// the generic internal category.
func Classify(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}

// CodeOf returns the taxonomy code for any error.
func CodeOf(err error) Code {
	return Classify(err).Code
}

// Type checking functions.

func is(err error, code Code) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return is(err, CodeValidation) }

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool { return is(err, CodeConflict) }

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool { return is(err, CodeRateLimited) }

// IsServerFault reports whether the error is server-caused
// (persistence, dependency, or unclassified failures). Client-caused
// categories are expected control flow and log at WARNING instead.
func IsServerFault(err error) bool {
	switch CodeOf(err) {
	case CodeDatabase, CodeExternalService, CodeInternal:
		return true
	}
	return false
}
