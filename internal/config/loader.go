package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from layered sources. Later sources win:
// defaults, then base file, then environment file, then local
// overrides in development, then environment variables.
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders map[string]FileLoader
	// extensions preserves registration order so format lookup is
	// deterministic when a config exists in more than one format.
	extensions []string
}

// FileLoader parses one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target any) error
	Extension() string
}

// NewLoader creates a loader rooted at basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	l := &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: make(map[string]FileLoader),
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader registers a file loader for its extension. Earlier
// registrations win when a config exists in several formats.
func (l *Loader) RegisterLoader(loader FileLoader) {
	ext := loader.Extension()
	if _, exists := l.fileLoaders[ext]; !exists {
		l.extensions = append(l.extensions, ext)
	}
	l.fileLoaders[ext] = loader
}

// Load assembles the configuration from all sources and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads the named config with automatic format detection.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, ext := range l.extensions {
		loader := l.fileLoaders[ext]
		path := filepath.Join(l.basePath, name+"."+ext)

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables, the highest
// priority source.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LOG_DIR"); val != "" {
		cfg.Logging.Dir = val
	}
	if val := os.Getenv("LOG_SAMPLE_RATE"); val != "" {
		if rate, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Logging.SampleRate = rate
		}
	}
	if val := os.Getenv("RATE_LIMIT_ENABLED"); val != "" {
		cfg.RateLimit.Enabled = parseBool(val)
	}
	if val := os.Getenv("RATE_LIMIT_CALLS"); val != "" {
		if calls, err := strconv.Atoi(val); err == nil && calls > 0 {
			cfg.RateLimit.Calls = calls
		}
	}
	if val := os.Getenv("RATE_LIMIT_PERIOD"); val != "" {
		if period, err := time.ParseDuration(val); err == nil && period > 0 {
			cfg.RateLimit.Period = period
		}
	}
	if val := os.Getenv("CIRCUIT_BREAKER_ENABLED"); val != "" {
		cfg.CircuitBreaker.Enabled = parseBool(val)
	}
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.CORS.AllowedOrigins = strings.Split(val, ",")
	}
}

// defaultConfig makes the service runnable with no config files at
// all.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{
			Level:      "INFO",
			Dir:        "logs",
			SampleRate: 0.1,
			LevelRates: map[string]float64{
				"DEBUG":   0.01,
				"INFO":    0.1,
				"WARNING": 1.0,
			},
		},
		RateLimit: RateLimit{
			Enabled: true,
			Calls:   100,
			Period:  time.Minute,
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:          false,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         86400,
		},
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target any) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string { return "yaml" }

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target any) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// Load loads configuration for the environment named in ENVIRONMENT,
// reading files from CONFIG_DIR (default "config").
func Load() (*Config, error) {
	basePath := os.Getenv("CONFIG_DIR")
	return NewLoader(basePath, getEnvironment()).Load()
}
