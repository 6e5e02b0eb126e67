package logging

import (
	"context"
	"fmt"
	"time"
)

// LogSecurityEvent records a security event at the given severity with
// the structured payload the security sink expects.
func LogSecurityEvent(logger *Logger, ctx context.Context, eventType string, level Level, details Fields) {
	fields := Fields{
		"security_event": true,
		"event_type":     eventType,
		"event_details":  map[string]any(details),
	}
	msg := "Security event: " + eventType
	switch {
	case level >= LevelCritical:
		logger.Critical(ctx, msg, nil, fields)
	case level >= LevelError:
		logger.Error(ctx, msg, nil, fields)
	default:
		logger.Warn(ctx, msg, fields)
	}
}

// LogBusinessEvent records a named business event with structured data.
func LogBusinessEvent(logger *Logger, ctx context.Context, eventName string, details Fields) {
	logger.Info(ctx, "Business event: "+eventName, Fields{
		"business_event": true,
		"event_name":     eventName,
		"event_details":  map[string]any(details),
	})
}

// LogPerformanceMetric records a measured metric value routed to the
// performance sink.
func LogPerformanceMetric(logger *Logger, ctx context.Context, metricName string, value float64, unit string) {
	logger.Info(ctx, "Performance metric: "+metricName, Fields{
		"performance":  true,
		"metric_name":  metricName,
		"metric_value": value,
		"metric_unit":  unit,
	})
}

// Operation is a scoped timer around a unit of work. It replaces
// call-site decoration: start it when the work begins, End it exactly
// once when the work finishes.
type Operation struct {
	logger  *Logger
	ctx     context.Context
	name    string
	fields  Fields
	started time.Time
}

// StartOperation begins timing a named operation.
func (l *Logger) StartOperation(ctx context.Context, name string, fields Fields) *Operation {
	return &Operation{
		logger:  l,
		ctx:     ctx,
		name:    name,
		fields:  fields,
		started: time.Now(),
	}
}

// End completes the operation: success logs at INFO, or WARNING past
// the pipeline's slow threshold; failure logs at ERROR with the cause.
// Either way a duration metric is emitted to the performance sink.
func (op *Operation) End(err error) {
	elapsed := time.Since(op.started)
	elapsedMS := float64(elapsed.Microseconds()) / 1000

	fields := Fields{
		"operation":         op.name,
		"execution_time_ms": elapsedMS,
	}
	for k, v := range op.fields {
		fields[k] = v
	}

	status := "success"
	switch {
	case err != nil:
		status = "error"
		fields["status"] = status
		fields["error_type"] = fmt.Sprintf("%T", err)
		op.logger.Error(op.ctx, "Operation failed: "+op.name, err, fields)
	case elapsed > op.logger.pipeline.slowThreshold:
		fields["status"] = status
		op.logger.Warn(op.ctx, "Slow operation: "+op.name, fields)
	default:
		fields["status"] = status
		op.logger.Info(op.ctx, "Operation completed: "+op.name, fields)
	}

	LogPerformanceMetric(op.logger, op.ctx, op.name+"_duration", elapsedMS, "ms")
}
