package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"customs-clearance/internal/config"
	"customs-clearance/internal/events"
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

	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		logger.Fatal("connect minio", zap.Error(err))
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Fatal("connect temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	reviews := appTemporal.NewReviewClient(temporalClient, cfg.TemporalTaskQueue, cfg.WorkflowIDPrefix)
	source := events.NewMinioUploadEventSource(minioClient, cfg.MinioBucket, "", "", logger)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("listening for object-created events", zap.String("bucket", cfg.MinioBucket))
	err = source.Run(ctx, func(parent context.Context, event events.UploadEvent) error {
		execCtx, cancel := context.WithTimeout(parent, 15*time.Second)
		defer cancel()

		workflowID, started, err := reviews.StartReview(execCtx, appTemporal.WorkflowInput{
			ShipmentID:   event.ShipmentID,
			DocumentSlug: event.DocumentSlug,
			Filename:     event.Filename,
			ObjectKey:    event.ObjectKey,
		})
		if err != nil {
			return err
		}
		logger.Info("review workflow",
			zap.String("workflow_id", workflowID),
			zap.String("object_key", event.ObjectKey),
			zap.Bool("started", started),
		)
		return nil
	})
	if err != nil {
		logger.Fatal("event-handler stopped with error", zap.Error(err))
	}
}
