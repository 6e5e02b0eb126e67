package logging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink collects emitted records for assertions.
type captureSink struct {
	mu      sync.Mutex
	records []*Record
}

func (s *captureSink) Emit(record *Record) {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) all() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

func newTestPipeline(level Level, filters []Filter) (*Pipeline, *captureSink) {
	sink := &captureSink{}
	p := NewPipeline(ServiceInfo{Name: "herdbook-backend"}, level, filters, []Sink{sink})
	return p, sink
}

func TestPipeline(t *testing.T) {
	t.Run("gates below the configured level", func(t *testing.T) {
		p, sink := newTestPipeline(LevelWarning, nil)
		logger := p.Logger("main")

		logger.Debug(context.Background(), "debug", nil)
		logger.Info(context.Background(), "info", nil)
		logger.Warn(context.Background(), "warn", nil)

		records := sink.all()
		require.Len(t, records, 1)
		assert.Equal(t, "warn", records[0].Message)
	})

	t.Run("pipeline filters run before sinks", func(t *testing.T) {
		p, sink := newTestPipeline(LevelDebug, []Filter{NewSecurityFilter()})
		logger := p.Logger("main")

		logger.Info(context.Background(), "suspicious payload detected", nil)

		records := sink.all()
		require.Len(t, records, 1)
		assert.True(t, records[0].SecurityEvent)
		assert.Equal(t, LevelWarning, records[0].Level)
	})

	t.Run("logger names are prefixed", func(t *testing.T) {
		p, _ := newTestPipeline(LevelInfo, nil)
		assert.Equal(t, "app.service.breed", p.Logger("service.breed").Name())
	})

	t.Run("error logs carry the cause", func(t *testing.T) {
		p, sink := newTestPipeline(LevelInfo, nil)
		logger := p.Logger("main")

		logger.Error(context.Background(), "store unavailable", errors.New("dial tcp: refused"), nil)

		records := sink.all()
		require.Len(t, records, 1)
		require.NotNil(t, records[0].Exception)
		assert.Equal(t, "dial tcp: refused", records[0].Exception.Message)
	})
}

func TestOperation(t *testing.T) {
	t.Run("success logs completion and a duration metric", func(t *testing.T) {
		p, sink := newTestPipeline(LevelDebug, nil)
		logger := p.Logger("service.breed")

		op := logger.StartOperation(context.Background(), "breed_create", Fields{"name": "Arabian"})
		op.End(nil)

		records := sink.all()
		require.Len(t, records, 2)
		assert.Equal(t, "Operation completed: breed_create", records[0].Message)
		assert.Equal(t, "success", records[0].Extra["status"])
		assert.Equal(t, "Performance metric: breed_create_duration", records[1].Message)
		assert.True(t, records[1].HasTag("performance"))
	})

	t.Run("failure logs at error with the cause type", func(t *testing.T) {
		p, sink := newTestPipeline(LevelDebug, nil)
		logger := p.Logger("service.breed")

		op := logger.StartOperation(context.Background(), "breed_create", nil)
		op.End(errors.New("boom"))

		records := sink.all()
		require.Len(t, records, 2)
		assert.Equal(t, LevelError, records[0].Level)
		assert.Equal(t, "error", records[0].Extra["status"])
		require.NotNil(t, records[0].Exception)
	})
}

func TestEventHelpers(t *testing.T) {
	t.Run("security events route by severity", func(t *testing.T) {
		p, sink := newTestPipeline(LevelDebug, nil)
		logger := p.Logger("security")

		LogSecurityEvent(logger, context.Background(), "rate_limit_exceeded", LevelWarning, Fields{"client": "10.0.0.1"})

		records := sink.all()
		require.Len(t, records, 1)
		assert.Equal(t, LevelWarning, records[0].Level)
		assert.Equal(t, "Security event: rate_limit_exceeded", records[0].Message)
		assert.True(t, records[0].HasTag("security"))
	})

	t.Run("business events are tagged", func(t *testing.T) {
		p, sink := newTestPipeline(LevelDebug, nil)
		logger := p.Logger("service.breed")

		LogBusinessEvent(logger, context.Background(), "breed_registered", Fields{"breed_id": "b-1"})

		records := sink.all()
		require.Len(t, records, 1)
		assert.True(t, records[0].HasTag("business"))
		assert.Equal(t, "breed_registered", records[0].Extra["event_name"])
	})
}
