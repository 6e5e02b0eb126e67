package logging

import (
	"path/filepath"
)

// Config is the fixed logging configuration consumed at startup. It is
// populated from the application config and not reloaded dynamically.
type Config struct {
	Level       string
	Development bool
	Dir         string

	// Sampling applied to the main file in non-development mode.
	SampleRate float64
	LevelRates map[string]float64

	ServiceName    string
	ServiceVersion string
	Environment    string
}

const megabyte = 1024 * 1024

// Setup assembles the process-wide pipeline: security filter, then the
// ordered sink list (console, main, errors, security, performance,
// access). Each file is an independent async rotating sink.
func Setup(cfg Config) (*Pipeline, error) {
	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}

	level := ParseLevel(cfg.Level)
	if cfg.Development {
		level = LevelDebug
	}

	service := ServiceInfo{
		Name:        cfg.ServiceName,
		Version:     cfg.ServiceVersion,
		Environment: cfg.Environment,
	}

	var mainFilters []Filter
	if !cfg.Development {
		rate := cfg.SampleRate
		if rate <= 0 {
			rate = 0.1
		}
		levelRates := map[Level]float64{
			LevelDebug:   0.01,
			LevelInfo:    0.1,
			LevelWarning: 1.0,
		}
		for name, r := range cfg.LevelRates {
			levelRates[ParseLevel(name)] = r
		}
		mainFilters = []Filter{NewSamplingFilter(rate, levelRates)}
	}

	console, err := NewConsoleSink(cfg.Development, SinkOptions{MinLevel: level})
	if err != nil {
		return nil, err
	}
	sinks := []Sink{console}

	fileSinks := []struct {
		name    string
		maxMB   int64
		backups int
		opts    SinkOptions
	}{
		{"herdbook.log", 50, 10, SinkOptions{MinLevel: LevelInfo, Filters: mainFilters}},
		{"herdbook_errors.log", 25, 15, SinkOptions{MinLevel: LevelError}},
		{"herdbook_security.log", 10, 20, SinkOptions{MinLevel: LevelWarning, RequireTag: "security"}},
		{"herdbook_performance.log", 25, 5, SinkOptions{MinLevel: LevelInfo, RequireTag: "performance"}},
		{"herdbook_access.log", 100, 7, SinkOptions{MinLevel: LevelInfo, RequireTag: "request"}},
	}
	for _, fo := range fileSinks {
		sink, err := NewAsyncFileSink(filepath.Join(cfg.Dir, fo.name), fo.maxMB*megabyte, fo.backups, fo.opts)
		if err != nil {
			for _, opened := range sinks {
				_ = opened.Close()
			}
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return NewPipeline(service, level, []Filter{NewSecurityFilter()}, sinks), nil
}
