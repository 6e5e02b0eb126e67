package logging

import (
	"encoding/json"
	"time"
)

// SourceInfo locates the call site that produced a record.
type SourceInfo struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// ProcessInfo identifies the emitting process.
type ProcessInfo struct {
	ID         int `json:"id"`
	Goroutines int `json:"goroutines"`
}

// ServiceInfo identifies the service emitting the record.
type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// ExceptionInfo carries the failure attached to a record. The full
// detail stays in the logs; clients only ever see the envelope.
type ExceptionInfo struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

// Record is one structured log entry, fully enriched and redacted.
// It is constructed by a log call, mutated by each filter in order,
// consumed once by each sink, then discarded.
type Record struct {
	Timestamp     time.Time
	Level         Level
	Logger        string
	Message       string
	Service       ServiceInfo
	Source        SourceInfo
	Process       ProcessInfo
	Correlation   Correlation
	System        *SystemSnapshot
	Extra         map[string]any
	Exception     *ExceptionInfo
	Tags          []string
	SecurityEvent bool
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag if not already present.
func (r *Record) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}

// wireRecord is the JSON shape written to sinks.
type wireRecord struct {
	Timestamp   string          `json:"@timestamp"`
	Level       string          `json:"level"`
	Logger      string          `json:"logger"`
	Message     string          `json:"message"`
	Service     ServiceInfo     `json:"service"`
	Source      SourceInfo      `json:"source"`
	Process     ProcessInfo     `json:"process"`
	Correlation map[string]any  `json:"correlation,omitempty"`
	System      *SystemSnapshot `json:"system,omitempty"`
	Extra       map[string]any  `json:"extra,omitempty"`
	Exception   *ExceptionInfo  `json:"exception,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// MarshalJSON serializes the record to the wire format. Empty
// correlation slots are omitted rather than serialized as nulls.
func (r *Record) MarshalJSON() ([]byte, error) {
	wire := wireRecord{
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		Level:     r.Level.String(),
		Logger:    r.Logger,
		Message:   r.Message,
		Service:   r.Service,
		Source:    r.Source,
		Process:   r.Process,
		System:    r.System,
		Extra:     r.Extra,
		Exception: r.Exception,
		Tags:      r.Tags,
	}
	if !r.Correlation.IsZero() {
		wire.Correlation = map[string]any{}
		if r.Correlation.RequestID != "" {
			wire.Correlation["request_id"] = r.Correlation.RequestID
		}
		if r.Correlation.UserID != "" {
			wire.Correlation["user_id"] = r.Correlation.UserID
		}
		if r.Correlation.SessionID != "" {
			wire.Correlation["session_id"] = r.Correlation.SessionID
		}
	}
	return json.Marshal(wire)
}
