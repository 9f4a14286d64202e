// Command clinic-export writes the clinic workbook to disk.
//
//	clinic-export [-o path] [-csv]
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"clinic/internal/cli"
	"clinic/internal/core"
	"clinic/internal/export"
	"clinic/internal/log"
)

func main() {
	out := flag.String("o", "", "output file (default clinic_YYYYMMDD.xlsx in the working directory)")
	csvOnly := flag.Bool("csv", false, "write only the payments ledger as CSV")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	backendRes := cli.InitStore(ctx, logger, cfg)
	defer backendRes.Cleanup()
	snap := cli.OpenState(ctx, cfg, backendRes.Store).Snapshot()
	today := core.DateOf(time.Now().In(cfg.Location()))

	ext := "xlsx"
	if *csvOnly {
		ext = "csv"
	}
	path := *out
	if path == "" {
		path = export.Filename(today, ext)
	}

	var (
		data []byte
		err  error
	)
	if *csvOnly {
		data, err = export.PaymentsCSV(snap)
	} else {
		data, err = export.XLSX(snap, today)
	}
	if err != nil {
		logger.Error("Export failed", log.FieldError, err)
		os.Exit(1)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create output directory", log.FieldError, err, "dir", dir)
			os.Exit(1)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("Failed to write export", log.FieldError, err, "path", path)
		os.Exit(1)
	}
	logger.Info("Export written",
		log.FieldOperation, log.OpExport,
		"path", path,
		"clients", len(snap.Clients),
		"payments", len(snap.Payments))
}
