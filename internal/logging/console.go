package logging

import (
	"go.uber.org/zap"
)

// ConsoleSink mirrors records to stdout through zap. It carries the
// same routing options as file sinks so the console participates in
// the ordered sink list like any other destination.
type ConsoleSink struct {
	opts   SinkOptions
	logger *zap.Logger
}

// NewConsoleSink builds a console sink. In development mode it uses the
// human-readable zap development encoder; otherwise production JSON.
func NewConsoleSink(development bool, opts SinkOptions) (*ConsoleSink, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(opts.MinLevel.zapLevel())
	logger, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		return nil, err
	}
	return &ConsoleSink{opts: opts, logger: logger}, nil
}

// Emit implements Sink.
func (s *ConsoleSink) Emit(record *Record) {
	if !s.opts.accepts(record) {
		return
	}
	fields := []zap.Field{
		zap.String("logger", record.Logger),
	}
	if record.Correlation.RequestID != "" {
		fields = append(fields, zap.String("request_id", record.Correlation.RequestID))
	}
	if record.Correlation.UserID != "" {
		fields = append(fields, zap.String("user_id", record.Correlation.UserID))
	}
	if len(record.Extra) > 0 {
		fields = append(fields, zap.Any("extra", record.Extra))
	}
	if record.Exception != nil {
		fields = append(fields, zap.String("exception_type", record.Exception.Type),
			zap.String("exception_message", record.Exception.Message))
	}
	if len(record.Tags) > 0 {
		fields = append(fields, zap.Strings("tags", record.Tags))
	}

	if ce := s.logger.Check(record.Level.zapLevel(), record.Message); ce != nil {
		ce.Time = record.Timestamp
		ce.Write(fields...)
	}
}

// Close flushes the underlying zap logger.
func (s *ConsoleSink) Close() error {
	// Sync on stdout commonly reports EINVAL; the flush still happened.
	_ = s.logger.Sync()
	return nil
}
