package main

import (
	"context"
	"log"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"customs-clearance/internal/bootstrap"
	"customs-clearance/internal/config"
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

	if cfg.ShipmentStore != config.BackendPostgres {
		logger.Warn("worker shares no shipments with the api unless SHIPMENT_STORE=postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backends, err := bootstrap.Open(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("open backends", zap.Error(err))
	}
	defer backends.Close()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Fatal("connect temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	activities := &appTemporal.Activities{Tracker: backends.Tracker(logger)}

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(appTemporal.DocumentReviewWorkflow, workflow.RegisterOptions{Name: appTemporal.DocumentReviewWorkflowName})
	w.RegisterActivity(activities.ConfirmUploadActivity)
	w.RegisterActivity(activities.VerifyDocumentActivity)
	w.RegisterActivity(activities.FinalizeDocumentActivity)
	w.RegisterActivity(activities.RejectDocumentActivity)

	logger.Info("worker running", zap.String("task_queue", cfg.TemporalTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}
}
