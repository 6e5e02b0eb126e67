package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// event is the raw input to the enricher: what a log call knows before
// any context is attached.
type event struct {
	ctx        context.Context
	level      Level
	logger     string
	message    string
	extra      map[string]any
	err        error
	callerSkip int
}

// Enricher transforms raw log events into fully structured records.
// Enrichment degrades gracefully: failure to collect optional context
// (system snapshot, caller info) never prevents the core
// message/level/timestamp from being emitted.
type Enricher struct {
	service ServiceInfo
}

// NewEnricher creates an enricher stamped with the service identity.
func NewEnricher(service ServiceInfo) *Enricher {
	if service.Hostname == "" {
		if host, err := os.Hostname(); err == nil {
			service.Hostname = host
		}
	}
	return &Enricher{service: service}
}

// Enrich builds a record from the event: base fields, correlation
// snapshot, conditional system block, redacted extras, exception info,
// and classification tags, in that order.
func (e *Enricher) Enrich(ev event) *Record {
	record := &Record{
		Timestamp: time.Now(),
		Level:     ev.level,
		Logger:    ev.logger,
		Message:   ev.message,
		Service:   e.service,
		Source:    callerInfo(ev.callerSkip),
		Process: ProcessInfo{
			ID:         os.Getpid(),
			Goroutines: runtime.NumGoroutine(),
		},
	}

	record.Correlation = GetCorrelation(ev.ctx)

	if ev.level >= LevelError {
		if snapshot, err := CaptureSystem(); err == nil {
			record.System = snapshot
		}
		// A failed snapshot is silently omitted.
	}

	if len(ev.extra) > 0 {
		redacted := Redact(ev.extra)
		if m, ok := redacted.(map[string]any); ok {
			record.Extra = m
		}
	}

	if ev.err != nil {
		record.Exception = &ExceptionInfo{
			Type:      fmt.Sprintf("%T", ev.err),
			Message:   ev.err.Error(),
			Traceback: string(debug.Stack()),
		}
	}

	e.tag(record)
	return record
}

// tag applies the classification heuristics.
func (e *Enricher) tag(record *Record) {
	name := strings.ToLower(record.Logger)
	if strings.Contains(name, "request") || strings.Contains(name, "access") {
		record.AddTag("request")
	}
	if strings.Contains(name, "database") || strings.Contains(name, "db") ||
		strings.Contains(name, "repository") {
		record.AddTag("database")
	}
	if strings.Contains(name, "security") || record.Level >= LevelError {
		record.AddTag("security")
	}
	if strings.Contains(strings.ToLower(record.Message), "performance") {
		record.AddTag("performance")
	}
	if record.Extra != nil {
		if _, ok := record.Extra["performance"]; ok {
			record.AddTag("performance")
		}
		if _, ok := record.Extra["business_event"]; ok {
			record.AddTag("business")
		}
	}
}

// callerInfo resolves the log call site, or zero values if the stack
// cannot be walked that far.
func callerInfo(skip int) SourceInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return SourceInfo{}
	}
	info := SourceInfo{File: trimPath(file), Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		info.Function = name
	}
	return info
}

func trimPath(file string) string {
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		return file[idx+1:]
	}
	return file
}
