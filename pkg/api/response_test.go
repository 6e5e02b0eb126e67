package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"herdbook-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("writes a stable envelope for every category", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			code   errors.Code
			status int
		}{
			{"validation", errors.NewValidation("bad", "name"), errors.CodeValidation, 400},
			{"schema", errors.NewSchemaValidation("bad shape", map[string]any{"name": "required"}), errors.CodeValidation, 422},
			{"not found", errors.NewNotFound("breed", "b-1"), errors.CodeNotFound, 404},
			{"conflict", errors.NewConflict("taken", "name"), errors.CodeConflict, 409},
			{"database", errors.NewDatabase("get", stderrors.New("x")), errors.CodeDatabase, 500},
			{"integrity", errors.NewIntegrity("put", stderrors.New("x")), errors.CodeIntegrity, 409},
			{"external", errors.NewExternalService("reg", stderrors.New("x")), errors.CodeExternalService, 502},
			{"authentication", errors.NewAuthentication(""), errors.CodeAuthentication, 401},
			{"authorization", errors.NewAuthorization(""), errors.CodeAuthorization, 403},
			{"rate limited", errors.NewRateLimited(60), errors.CodeRateLimited, 429},
			{"internal", errors.NewInternal(stderrors.New("x")), errors.CodeInternal, 500},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				Error(rec, "req-1", tc.err)

				assert.Equal(t, tc.status, rec.Code)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Equal(t, string(tc.code), rec.Header().Get("X-Error-Code"))

				var body ErrorBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "req-1", body.Error.RequestID)
				assert.Equal(t, tc.code, body.Error.ErrorCode)
				assert.NotEmpty(t, body.Error.Message)
				assert.NotNil(t, body.Error.Details)
			})
		}
	})

	t.Run("never echoes an unclassified error message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Error(rec, "req-2", stderrors.New("secret internal detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret internal detail")
		assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
	})

	t.Run("rate limited envelope carries retry_after", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Error(rec, "req-3", errors.NewRateLimited(60))

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 60, body.Error.RetryAfter)
	})
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"id": "b-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"b-1"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
