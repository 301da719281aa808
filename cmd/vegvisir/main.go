package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skipulag/vegvisir/internal/api"
	"github.com/skipulag/vegvisir/internal/catalog"
	"github.com/skipulag/vegvisir/internal/config"
	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
	"github.com/skipulag/vegvisir/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog and engine
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error("failed to load catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	eng, err := engine.New(cat, logger)
	if err != nil {
		logger.Error("failed to calibrate engine", "error", err)
		os.Exit(1)
	}
	holder := engine.NewHolder(eng)

	// Run history (optional database)
	var runStore store.Store
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		runStore = db
		logger.Info("connected to database")
	} else {
		runStore = store.NewMemoryStore()
		logger.Info("no database configured, keeping run history in memory")
	}
	defer runStore.Close()

	// Event bus (optional)
	var eventClient events.Client = events.NoopClient{}
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			eventClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	sim := api.SimulationDefaults{
		DefaultTrials: cfg.Simulation.DefaultTrials,
		MaxTrials:     cfg.Simulation.MaxTrials,
		DefaultAlpha:  cfg.Simulation.DefaultAlpha,
		Workers:       cfg.Simulation.Workers,
		BatchSize:     cfg.Simulation.BatchSize,
	}

	// API server
	router := api.NewRouter(holder, runStore, eventClient, sim, cfg.Catalog.Path, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
