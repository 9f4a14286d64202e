// Command clinic-worker mirrors the payment ledger into a Google Sheet. It
// follows the change feed for incremental updates and re-exports the whole
// ledger every SYNC_INTERVAL.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"clinic/internal/cache"
	"clinic/internal/cli"
	"clinic/internal/log"
	"clinic/internal/sheets"
	gsheet "clinic/internal/sheets/google"
	"clinic/internal/sheets/memory"
	"clinic/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting clinic-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SharedBackend() {
		logger.Warn("DATA_BACKEND=memory is private to this process; the ledger will mirror local seed data, not the server's",
			"backend", cfg.DataBackend)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	backendRes := cli.InitStore(ctx, logger, cfg)
	defer backendRes.Cleanup()
	// The worker only reads; the seed must match the server's so both agree
	// on an empty store.
	store := cli.OpenState(ctx, cfg, backendRes.Store)

	caches := cache.NewManager()
	defer caches.Stop()

	var ledger sheets.PaymentLedger
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		caches.Register(client.RowCache())
		caches.StartCleanup(time.Minute)
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		ledger = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory ledger")
	}

	syncWorker := worker.NewSyncWorker(store, ledger, cfg.SyncInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := syncWorker.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return syncWorker.Stop(stopCtx)
	})

	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			err := amqpClient.ConsumeChanges(gctx, syncWorker.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping change feed consumption, relying on periodic export")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
