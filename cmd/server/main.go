// Package main provides the API server entry point for the cellar tracker service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cellar-tracker/internal/adapter"
	"github.com/cellar-tracker/internal/api"
	"github.com/cellar-tracker/internal/config"
	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Cellar tracker starting")

	// Database connections
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Repositories
	wineRepo := storage.NewWineRepository(postgres)
	userRepo := storage.NewUserRepository(postgres)
	shareRepo := storage.NewShareLinkRepository(postgres)
	consumptionRepo := storage.NewConsumptionRepository(clickhouse)
	cache := storage.NewCacheService(redis, cfg.Cache.TTL)
	sessions := storage.NewSessionStore(redis, 24*time.Hour)

	// External clients
	vivinoClient := adapter.NewVivinoClient(cfg.Vivino.BaseURL, cfg.Vivino.RequestsPerSecond)

	var scanService api.ScanServiceInterface
	if cfg.Vision.APIKey != "" {
		visionClient, err := adapter.NewVisionClient(cfg.Vision.APIKey, cfg.Vision.Model)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create vision client")
		}
		scanService = service.NewScanService(visionClient)
	} else {
		logger.Warn("No vision API key configured; label scanning disabled")
		scanService = service.NewScanService(adapter.DisabledLabelParser{})
	}

	// Services
	cellarService := service.NewCellarService(wineRepo, cache)
	enrichmentService := service.NewEnrichmentService(wineRepo, vivinoClient, cfg.Enrichment.FetchDelay)
	pairingService := service.NewPairingService(wineRepo)
	consumptionService := service.NewConsumptionService(wineRepo, consumptionRepo)
	shareService := service.NewShareService(shareRepo, wineRepo, cache, cfg.Cache.SharedViewTTL)

	server := api.NewServer(
		&api.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute, // the enrichment sweep blocks for candidate_count x fetch delay
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AuthedRPS:       cfg.RateLimit.AuthedRPS,
			AnonymousRPS:    cfg.RateLimit.AnonymousRPS,
		},
		&api.ServerDeps{
			CellarService:      cellarService,
			EnrichmentService:  enrichmentService,
			ScanService:        scanService,
			PairingService:     pairingService,
			ConsumptionService: consumptionService,
			ShareService:       shareService,
			Sessions:           sessions,
			Users:              userRepo,
			AdminChecker:       userRepo,
		},
	)

	// Start server in background so we can wait for shutdown signals
	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]interface{}{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		}).Info("HTTP server listening")
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server stopped unexpectedly")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}
