package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"clinic/internal/cli"
	apphttp "clinic/internal/http"
	"clinic/internal/log"
	"clinic/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	backendRes := cli.InitStore(ctx, logger, cfg)
	store := cli.OpenState(ctx, cfg, backendRes.Store)

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		publisher = client
	}
	svc := services.NewClinicService(store, publisher, services.WithClock(time.Now, cfg.Location()))

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPM:   cfg.RateLimitRPM,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Ready:          backendRes.Ready,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close change feed", log.FieldError, err)
		}
		if err := backendRes.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", log.FieldError, err)
		}
	})

	logger.Info("Starting clinic server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Location().String(),
		"change_feed", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
