package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"pache/internal/amqp"
	"pache/internal/backend"
	"pache/internal/config"
	applog "pache/internal/log"
	gsheet "pache/internal/sheets/google"
	"pache/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		applog.Setup("info", "text").Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting pache-worker", "backend", cfg.DataBackend)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store, err := backend.NewFactory(logger).CreateStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}
	exporter, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewExportWorker(store, exporter, language.Make(cfg.DisplayLang))

	// Recover from events missed while the worker was down.
	logger.Info("Performing startup export...")
	if err := w.ExportAll(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	err = amqpClient.ConsumePacheChanged(ctx, func(msg *amqp.PacheChangedMessage) error {
		return w.HandleChangeMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
