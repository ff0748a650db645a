package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MHMB/pennywise-finance-app/internal/amqp"
	"github.com/MHMB/pennywise-finance-app/internal/analytics"
	"github.com/MHMB/pennywise-finance-app/internal/config"
	"github.com/MHMB/pennywise-finance-app/internal/export"
	applog "github.com/MHMB/pennywise-finance-app/internal/log"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
	"github.com/MHMB/pennywise-finance-app/internal/worker"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(cfg.LogLevel, "worker")
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exporter worker.SummaryExporter
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := export.NewSheetsExporter(ctx,
			cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.GoogleCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	engine := analytics.NewEngine(repo, repo)
	alertWorker := worker.NewAlertWorker(engine, exporter, logger.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return alertWorker.Run(ctx, amqpClient)
	})

	logger.Info("Starting pennywise-worker", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
