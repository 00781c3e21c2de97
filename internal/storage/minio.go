package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore is the blob sink for uploaded shipment documents.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

func (m *MinioStore) Client() *minio.Client { return m.client }

func (m *MinioStore) Bucket() string { return m.bucket }

// ObjectKey is the layout the bucket notification source parses back.
func ObjectKey(shipmentID, documentSlug, filename string) string {
	return path.Join(shipmentID, documentSlug, path.Base(filename))
}

// PutDocument stores the content and returns a URL addressing the object.
func (m *MinioStore) PutDocument(ctx context.Context, shipmentID, documentSlug, filename, contentType string, content []byte) (string, error) {
	objectKey := ObjectKey(shipmentID, documentSlug, filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return m.client.EndpointURL().JoinPath(m.bucket, objectKey).String(), nil
}

func (m *MinioStore) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
