package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const objectCreatedEvent = "s3:ObjectCreated:*"

// UploadEvent is one stored shipment document, keyed shipmentID/docslug/filename.
type UploadEvent struct {
	ShipmentID   string
	DocumentSlug string
	Filename     string
	ObjectKey    string
	EventName    string
}

type UploadEventSource interface {
	Run(ctx context.Context, handler func(context.Context, UploadEvent) error) error
}

type MinioUploadEventSource struct {
	client *minio.Client
	bucket string
	prefix string
	suffix string
	logger *zap.Logger
}

func NewMinioUploadEventSource(client *minio.Client, bucket string, prefix string, suffix string, logger *zap.Logger) *MinioUploadEventSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinioUploadEventSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		suffix: suffix,
		logger: logger,
	}
}

func (s *MinioUploadEventSource) Run(ctx context.Context, handler func(context.Context, UploadEvent) error) error {
	notificationCh := s.client.ListenBucketNotification(ctx, s.bucket, s.prefix, s.suffix, []string{objectCreatedEvent})
	for {
		select {
		case <-ctx.Done():
			return nil
		case info, ok := <-notificationCh:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream closed")
			}
			if info.Err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream error: %w", info.Err)
			}
			for _, record := range info.Records {
				event, err := eventFromKey(record.S3.Object.Key, record.EventName)
				if err != nil {
					s.logger.Warn("skipping object", zap.String("key", record.S3.Object.Key), zap.Error(err))
					continue
				}
				if err := handler(ctx, event); err != nil {
					return err
				}
			}
		}
	}
}

func eventFromKey(encoded, eventName string) (UploadEvent, error) {
	objectKey, err := decodeObjectKey(encoded)
	if err != nil {
		return UploadEvent{}, err
	}
	shipmentID, slug, filename, err := parseObjectKey(objectKey)
	if err != nil {
		return UploadEvent{}, err
	}
	return UploadEvent{
		ShipmentID:   shipmentID,
		DocumentSlug: slug,
		Filename:     filename,
		ObjectKey:    objectKey,
		EventName:    eventName,
	}, nil
}

func decodeObjectKey(encoded string) (string, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("object key is empty")
	}
	return decoded, nil
}

func parseObjectKey(objectKey string) (string, string, string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(objectKey, "\\", "/"), "/")
	parts := strings.SplitN(cleaned, "/", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("object key %q does not match shipment_id/document/filename", objectKey)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return "", "", "", fmt.Errorf("object key %q has an empty segment", objectKey)
		}
	}
	return parts[0], parts[1], parts[2], nil
}
