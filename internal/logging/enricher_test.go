package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricher(t *testing.T) {
	enricher := NewEnricher(ServiceInfo{Name: "herdbook-backend", Version: "test"})

	t.Run("stamps service, process and correlation", func(t *testing.T) {
		ctx, requestID := SetCorrelation(context.Background(), "", "u-1", "")

		record := enricher.Enrich(event{
			ctx:        ctx,
			level:      LevelInfo,
			logger:     "app.main",
			message:    "hello",
			callerSkip: 1,
		})

		assert.Equal(t, "herdbook-backend", record.Service.Name)
		assert.NotZero(t, record.Process.ID)
		assert.Equal(t, requestID, record.Correlation.RequestID)
		assert.Equal(t, "u-1", record.Correlation.UserID)
		assert.False(t, record.Timestamp.IsZero())
	})

	t.Run("redacts extras before they reach the record", func(t *testing.T) {
		record := enricher.Enrich(event{
			ctx:     context.Background(),
			level:   LevelInfo,
			logger:  "app.main",
			message: "login attempt",
			extra: map[string]any{
				"password": "hunter2",
				"username": "rider",
			},
			callerSkip: 1,
		})

		assert.Equal(t, FilterMarker, record.Extra["password"])
		assert.Equal(t, "rider", record.Extra["username"])
	})

	t.Run("captures exception detail for server-side inspection", func(t *testing.T) {
		cause := errors.New("connection refused")
		record := enricher.Enrich(event{
			ctx:        context.Background(),
			level:      LevelError,
			logger:     "app.repository.breeds",
			message:    "store unavailable",
			err:        cause,
			callerSkip: 1,
		})

		require.NotNil(t, record.Exception)
		assert.Equal(t, "connection refused", record.Exception.Message)
		assert.NotEmpty(t, record.Exception.Type)
		assert.NotEmpty(t, record.Exception.Traceback)
	})

	t.Run("tags by logger name and level", func(t *testing.T) {
		record := enricher.Enrich(event{
			ctx:        context.Background(),
			level:      LevelInfo,
			logger:     "app.request",
			message:    "Request completed",
			callerSkip: 1,
		})
		assert.True(t, record.HasTag("request"))

		record = enricher.Enrich(event{
			ctx:        context.Background(),
			level:      LevelError,
			logger:     "app.main",
			message:    "boom",
			callerSkip: 1,
		})
		assert.True(t, record.HasTag("security"))

		record = enricher.Enrich(event{
			ctx:        context.Background(),
			level:      LevelInfo,
			logger:     "app.service.breed",
			message:    "event",
			extra:      map[string]any{"business_event": "breed_registered"},
			callerSkip: 1,
		})
		assert.True(t, record.HasTag("business"))
	})
}
