package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"herdbook-backend/internal/config"
	"herdbook-backend/internal/interfaces/http/rest"
	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/observability"
	"herdbook-backend/internal/repository/memory"
	breedservice "herdbook-backend/internal/service/breed"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	// A missing .env file is fine; the environment itself still wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	pipeline, err := logging.Setup(logging.Config{
		Level:          cfg.Logging.Level,
		Development:    cfg.IsDevelopment(),
		Dir:            cfg.Logging.Dir,
		SampleRate:     cfg.Logging.SampleRate,
		LevelRates:     cfg.Logging.LevelRates,
		ServiceName:    "herdbook-backend",
		ServiceVersion: version,
		Environment:    string(cfg.Environment),
	})
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := pipeline.Logger("main")
	logger.Info(ctx, "Starting herdbook backend", logging.Fields{
		"version":     version,
		"environment": string(cfg.Environment),
		"config_from": cfg.LoadedFrom,
	})

	// Hot reload is development-only; configuration changes in other
	// environments take effect on restart.
	watcher, err := config.NewWatcher(cfg, pipeline.Logger("config"))
	if err != nil {
		logger.Warn(ctx, "Config watcher unavailable", logging.Fields{"error": err.Error()})
	} else {
		defer watcher.Stop()
	}

	collector := observability.NewCollector("herdbook")

	store := memory.NewBreedStore()
	if err := store.Seed(ctx); err != nil {
		logger.Error(ctx, "Failed to seed breed store", err, nil)
		pipeline.Close()
		os.Exit(1)
	}

	breeds := breedservice.NewService(store, pipeline.Logger("service.breed"))

	router := rest.NewRouter(cfg, pipeline.Logger("http"), collector, breeds, version)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", logging.Fields{"addr": server.Addr})
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Critical(ctx, "HTTP server failed", err, nil)
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutdown signal received", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Graceful shutdown failed", err, nil)
	}

	// Drain the async sinks last so every record from shutdown makes
	// it to disk.
	if err := pipeline.Close(); err != nil {
		log.Printf("failed to close log pipeline: %v", err)
	}
}
