// Package main provides an operator CLI for running the Vivino enrichment
// sweep directly, without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cellar-tracker/internal/adapter"
	"github.com/cellar-tracker/internal/config"
	"github.com/cellar-tracker/internal/logging"
	"github.com/cellar-tracker/internal/service"
	"github.com/cellar-tracker/internal/storage"
)

func main() {
	var (
		dryRun = flag.Bool("dry-run", false, "Report candidates without fetching or writing")
		limit  = flag.Int("limit", 0, "Maximum candidates to process (default: ENRICHMENT_DEFAULT_LIMIT)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.FormatText,
	)
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	wineRepo := storage.NewWineRepository(postgres)
	vivinoClient := adapter.NewVivinoClient(cfg.Vivino.BaseURL, cfg.Vivino.RequestsPerSecond)
	enrichment := service.NewEnrichmentService(wineRepo, vivinoClient, cfg.Enrichment.FetchDelay)

	runLimit := *limit
	if runLimit <= 0 {
		runLimit = cfg.Enrichment.DefaultLimit
	}

	result, err := enrichment.Run(context.Background(), &service.EnrichmentInput{
		DryRun: *dryRun,
		Limit:  runLimit,
	})
	if err != nil {
		logger.WithError(err).Fatal("Enrichment sweep failed")
	}

	fmt.Println(result.Message)
	if result.Summary != nil {
		fmt.Printf("  total:    %d\n", result.Summary.Total)
		fmt.Printf("  enriched: %d\n", result.Summary.Enriched)
		fmt.Printf("  skipped:  %d\n", result.Summary.Skipped)
		fmt.Printf("  failed:   %d\n", result.Summary.Failed)
		fmt.Printf("  success:  %s\n", result.Summary.SuccessRate)
	}
	for _, preview := range result.WinesToProcess {
		url := ""
		if preview.VivinoURL != nil {
			url = *preview.VivinoURL
		}
		fmt.Printf("  would process %s - %s (%s)\n", preview.Producer, preview.WineName, url)
	}
	for _, e := range result.Progress.Errors {
		fmt.Printf("  error: wine %s: %s\n", e.WineID, e.Error)
	}
}
