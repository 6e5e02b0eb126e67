// Package config provides layered configuration loading with file and
// environment sources, plus hot reloading in development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment is the deployment environment the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the root configuration for the service.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`

	Server         Server         `yaml:"server" json:"server"`
	Logging        Logging        `yaml:"logging" json:"logging"`
	RateLimit      RateLimit      `yaml:"rate_limit" json:"rate_limit"`
	CircuitBreaker CircuitBreaker `yaml:"circuit_breaker" json:"circuit_breaker"`
	CORS           CORS           `yaml:"cors" json:"cors"`

	// LoadedFrom records which sources contributed, for diagnostics.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server holds HTTP server settings.
type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Logging holds pipeline settings.
type Logging struct {
	Level      string             `yaml:"level" json:"level"`
	Dir        string             `yaml:"dir" json:"dir"`
	SampleRate float64            `yaml:"sample_rate" json:"sample_rate"`
	LevelRates map[string]float64 `yaml:"level_rates" json:"level_rates"`
}

// RateLimit holds sliding-window limiter settings.
type RateLimit struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Calls   int           `yaml:"calls" json:"calls"`
	Period  time.Duration `yaml:"period" json:"period"`
}

// CircuitBreaker holds breaker settings for the API.
type CircuitBreaker struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" json:"max_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests"`
}

// CORS holds cross-origin settings.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// Validate checks the configuration for values the service cannot run
// with. It is called once after all sources have been applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.RateLimit.Calls < 0 {
		return fmt.Errorf("rate limit calls must be non-negative: %d", c.RateLimit.Calls)
	}
	if c.Logging.SampleRate < 0 || c.Logging.SampleRate > 1 {
		return fmt.Errorf("log sample rate must be within [0, 1]: %f", c.Logging.SampleRate)
	}
	if c.CircuitBreaker.FailureThreshold < 0 || c.CircuitBreaker.FailureThreshold > 1 {
		return fmt.Errorf("circuit breaker failure threshold must be within [0, 1]: %f", c.CircuitBreaker.FailureThreshold)
	}
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment: %q", c.Environment)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// getEnvironment resolves the deployment environment from the process
// environment, defaulting to development.
func getEnvironment() Environment {
	switch strings.ToLower(os.Getenv("ENVIRONMENT")) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}
