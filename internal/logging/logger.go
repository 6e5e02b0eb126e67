// Package logging implements the structured log pipeline: per-request
// correlation, record enrichment and redaction, deterministic sampling
// and security filters, and async rotating file sinks, composed
// explicitly at startup.
package logging

import (
	"context"
	"time"
)

// Fields is the arbitrary extra payload attached to a log call. Values
// are redacted before the record leaves the enricher.
type Fields map[string]any

// Pipeline owns the enricher, the ordered filter list, and the ordered
// sink list. One pipeline serves the whole process; loggers are cheap
// named views onto it.
type Pipeline struct {
	enricher      *Enricher
	level         Level
	filters       []Filter
	sinks         []Sink
	slowThreshold time.Duration
}

// NewPipeline assembles a pipeline. Filters run in order and may drop
// or mutate records; each surviving record is offered to every sink in
// order.
func NewPipeline(service ServiceInfo, level Level, filters []Filter, sinks []Sink) *Pipeline {
	return &Pipeline{
		enricher:      NewEnricher(service),
		level:         level,
		filters:       filters,
		sinks:         sinks,
		slowThreshold: time.Second,
	}
}

// Logger returns a named logger backed by this pipeline.
func (p *Pipeline) Logger(name string) *Logger {
	return &Logger{pipeline: p, name: "app." + name}
}

// Close shuts the sinks down in order, draining pending backlogs.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Logger is a named view onto the pipeline.
type Logger struct {
	pipeline *Pipeline
	name     string
}

// Name returns the logger's full name.
func (l *Logger) Name() string { return l.name }

// Debug logs at DEBUG severity.
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelDebug, msg, nil, fields)
}

// Info logs at INFO severity.
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelInfo, msg, nil, fields)
}

// Warn logs at WARNING severity.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelWarning, msg, nil, fields)
}

// Error logs at ERROR severity with full exception capture.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ctx, LevelError, msg, err, fields)
}

// Critical logs at CRITICAL severity with full exception capture.
func (l *Logger) Critical(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ctx, LevelCritical, msg, err, fields)
}

func (l *Logger) log(ctx context.Context, level Level, msg string, err error, fields Fields) {
	p := l.pipeline
	if level < p.level {
		return
	}
	record := p.enricher.Enrich(event{
		ctx:        ctx,
		level:      level,
		logger:     l.name,
		message:    msg,
		extra:      fields,
		err:        err,
		callerSkip: 4, // runtime.Caller <- callerInfo <- Enrich <- log <- exported method
	})
	for _, f := range p.filters {
		if !f.Apply(record) {
			return
		}
	}
	for _, sink := range p.sinks {
		sink.Emit(record)
	}
}
