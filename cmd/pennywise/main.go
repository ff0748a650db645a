package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MHMB/pennywise-finance-app/internal/amqp"
	"github.com/MHMB/pennywise-finance-app/internal/analytics"
	"github.com/MHMB/pennywise-finance-app/internal/config"
	apphttp "github.com/MHMB/pennywise-finance-app/internal/http"
	applog "github.com/MHMB/pennywise-finance-app/internal/log"
	"github.com/MHMB/pennywise-finance-app/internal/services"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

func main() {
	// Load .env for local development; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(cfg.LogLevel, "server")
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP events disabled - no AMQP_URL provided")
	}

	engine := analytics.NewEngine(repo, repo)
	importSvc := services.NewImportService(repo, publisher, cfg.SkipDuplicates, logger.Logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		ImportMaxBytes: cfg.ImportMaxBytes,
		CacheSize:      cfg.ReportCacheSize,
		CacheTTL:       cfg.ReportCacheTTL,
	}, repo, engine, importSvc)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting pennywise server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
