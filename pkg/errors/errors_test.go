package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		code   Code
		status int
	}{
		{"validation", NewValidation("bad input", "name"), CodeValidation, http.StatusBadRequest},
		{"schema validation", NewSchemaValidation("bad shape", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"not found", NewNotFound("breed", "b-1"), CodeNotFound, http.StatusNotFound},
		{"conflict", NewConflict("name taken", "name"), CodeConflict, http.StatusConflict},
		{"database", NewDatabase("create", stderrors.New("x")), CodeDatabase, http.StatusInternalServerError},
		{"integrity", NewIntegrity("create", stderrors.New("x")), CodeIntegrity, http.StatusConflict},
		{"external service", NewExternalService("registry", stderrors.New("x")), CodeExternalService, http.StatusBadGateway},
		{"authentication", NewAuthentication(""), CodeAuthentication, http.StatusUnauthorized},
		{"authorization", NewAuthorization(""), CodeAuthorization, http.StatusForbidden},
		{"rate limited", NewRateLimited(60), CodeRateLimited, http.StatusTooManyRequests},
		{"internal", NewInternal(stderrors.New("x")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.status, tc.err.HTTPStatus())
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("passes through app errors", func(t *testing.T) {
		appErr := NewNotFound("breed", "b-1")
		assert.Same(t, appErr, Classify(appErr))
	})

	t.Run("unknown errors become internal with a fixed message", func(t *testing.T) {
		cause := stderrors.New("pq: connection reset by peer")
		classified := Classify(cause)

		assert.Equal(t, CodeInternal, classified.Code)
		assert.Equal(t, "An unexpected error occurred", classified.Message)
		assert.NotContains(t, classified.Message, "connection reset")
	})

	t.Run("unwraps through wrapping", func(t *testing.T) {
		wrapped := Wrap(NewConflict("taken", "name"), "creating breed")
		assert.Equal(t, CodeConflict, CodeOf(wrapped))
		assert.True(t, IsConflict(wrapped))
	})
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("breed", "abc-123")
	assert.Equal(t, "breed with identifier 'abc-123' not found", err.Message)
	assert.Equal(t, "breed", err.Resource)
	assert.Equal(t, "abc-123", err.Identifier)
}

func TestIsServerFault(t *testing.T) {
	assert.True(t, IsServerFault(NewInternal(stderrors.New("x"))))
	assert.True(t, IsServerFault(NewDatabase("get", stderrors.New("x"))))
	assert.True(t, IsServerFault(NewExternalService("s", stderrors.New("x"))))
	assert.False(t, IsServerFault(NewValidation("bad", "f")))
	assert.False(t, IsServerFault(NewNotFound("breed", "b-1")))
	assert.False(t, IsServerFault(NewRateLimited(60)))
}

func TestWrapPreservesClassification(t *testing.T) {
	inner := NewValidation("name too short", "name")
	wrapped := Wrap(inner, "registering breed")

	require.True(t, IsValidation(wrapped))
	assert.Contains(t, wrapped.Error(), "registering breed")
	assert.Contains(t, wrapped.Error(), "name too short")
}
