package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-reconciler/api/rest/handlers"
	"review-reconciler/api/rest/routes"
	"review-reconciler/config"
	"review-reconciler/core/fetcher"
	"review-reconciler/core/monitoring"
	"review-reconciler/core/poller"
	"review-reconciler/core/repository"
	"review-reconciler/core/submitter"
	"review-reconciler/core/tracker"
	"review-reconciler/logging"
	"review-reconciler/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	// Initialize content store and poller
	store, err := storage.NewContentStore(ctx, cfg.StoreBackend, cfg.AWSRegion, logger)
	if err != nil {
		logger.Fatal("Failed to initialize content store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewPollMetrics(registry)

	artifactFetcher := fetcher.NewArtifactFetcher(store, fetcher.WithLogger(logger))
	reportPoller := poller.NewReconcilingPoller(artifactFetcher,
		poller.WithMaxAttempts(cfg.MaxAttempts),
		poller.WithInterval(cfg.PollInterval),
		poller.WithRequireWellFormed(cfg.RequireWellFormed),
		poller.WithObserver(metrics),
		poller.WithLogger(logger),
	)

	// Initialize repositories
	runRepo := repository.NewRunRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize tracker
	sub := submitter.NewClient(cfg.APIBaseURL, nil, logger)
	runTracker := tracker.NewTracker(sub, reportPoller, runRepo, eventRepo, cfg.StoreBackend, logger)
	defer runTracker.Stop()

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r,
		handlers.NewRunHandler(runTracker, runRepo, eventRepo, logger),
		handlers.NewSnapshotHandler(reportPoller, cfg.StoreLocation()),
		registry,
	)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
