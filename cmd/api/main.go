package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"customs-clearance/internal/api"
	"customs-clearance/internal/bootstrap"
	"customs-clearance/internal/config"
	"customs-clearance/internal/directory"
	"customs-clearance/internal/logging"
	appTemporal "customs-clearance/internal/temporal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	backends, err := bootstrap.Open(openCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("open backends", zap.Error(err))
	}
	defer backends.Close()

	var reviews api.ReviewSender
	if cfg.TemporalEnabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
		})
		if err != nil {
			logger.Fatal("connect temporal", zap.Error(err))
		}
		defer temporalClient.Close()
		reviews = appTemporal.NewReviewClient(temporalClient, cfg.TemporalTaskQueue, cfg.WorkflowIDPrefix)
	}

	h := api.NewHandler(cfg, backends.Tracker(logger), directory.NewMemoryStore(), reviews, backends.Checks, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr), zap.Bool("document_review", reviews != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
