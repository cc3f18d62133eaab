package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"raseed/internal/amqp"
	"raseed/internal/config"
	"raseed/internal/export"
	gsheet "raseed/internal/export/google"
	applog "raseed/internal/log"
	"raseed/internal/services"
	"raseed/internal/storage"
	"raseed/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("raseed-worker")
	applog.SetDefault(logger)

	logger.Info("Starting raseed-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker always runs against SQLite: snapshots must survive
	// restarts to feed the trend comparison.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var exporter export.ReportExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	snapshotService := services.NewSnapshotService(repo, repo)
	snapshotWorker := worker.NewSnapshotWorker(snapshotService, repo, exporter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catch up on months touched while the worker was down.
	logger.Info("Performing startup snapshot refresh...")
	if err := snapshotWorker.RefreshCurrentMonth(ctx); err != nil {
		logger.Error("Startup snapshot refresh failed", "error", err)
		// Keep going, the consumer will recompute as events arrive.
	}

	go func() {
		err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.ReceiptIngestedMessage) error {
				return snapshotWorker.HandleIngestedMessage(ctx, msg)
			})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	go snapshotWorker.RunPeriodicRefresh(ctx, cfg.SnapshotInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give the consumer a moment to ack in-flight messages.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
