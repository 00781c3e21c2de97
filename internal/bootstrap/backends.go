// Package bootstrap opens the storage backends selected by configuration and
// assembles the tracker service on top of them.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"customs-clearance/internal/api"
	"customs-clearance/internal/config"
	"customs-clearance/internal/reference"
	"customs-clearance/internal/storage"
	"customs-clearance/internal/tracker"
)

type Backends struct {
	Shipments tracker.Repository
	Counter   reference.Counter
	Blobs     tracker.BlobStore
	Minio     *storage.MinioStore
	Checks    map[string]api.Pinger

	closers []func() error
}

// Open connects every backend named in cfg. On failure the backends opened so
// far are closed again.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *Backends, err error) {
	b := &Backends{Checks: make(map[string]api.Pinger)}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	var pg *storage.PostgresStore
	if cfg.NeedsPostgres() {
		pg, err = storage.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open postgres: %w", err)
		}
		b.closers = append(b.closers, pg.Close)
		if err = pg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap: postgres ping: %w", err)
		}
		b.Checks["postgres"] = pg
	}

	switch cfg.ShipmentStore {
	case config.BackendPostgres:
		b.Shipments = pg
	default:
		logger.Warn("shipments are kept in memory and lost on restart")
		b.Shipments = storage.NewMemoryStore()
	}

	switch cfg.CounterBackend {
	case config.BackendPostgres:
		b.Counter = pg
	case config.BackendRedis:
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		counter := storage.NewRedisCounter(client)
		b.Counter = counter
		b.Checks["redis"] = counter
	default:
		b.Counter = reference.NewMemoryCounter()
	}

	switch cfg.BlobBackend {
	case config.BackendMinio:
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect minio: %w", err)
		}
		b.Minio = store
		b.Blobs = store
		b.Checks["minio"] = store
	case config.BackendMemory:
		b.Blobs = storage.NewMemoryBlobStore()
	}

	logger.Info("backends ready",
		zap.String("shipment_store", cfg.ShipmentStore),
		zap.String("counter_backend", cfg.CounterBackend),
		zap.String("blob_backend", cfg.BlobBackend),
	)
	return b, nil
}

// OpenCounter connects only the reference counter named in cfg. The returned
// func releases its connection.
func OpenCounter(ctx context.Context, cfg config.Config) (reference.Counter, func(), error) {
	switch cfg.CounterBackend {
	case config.BackendPostgres:
		pg, err := storage.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: open postgres: %w", err)
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("bootstrap: postgres ping: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	case config.BackendRedis:
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return storage.NewRedisCounter(client), func() { _ = client.Close() }, nil
	default:
		return reference.NewMemoryCounter(), func() {}, nil
	}
}

// Tracker builds the shipment service over the opened backends.
func (b *Backends) Tracker(logger *zap.Logger, opts ...tracker.Option) *tracker.Service {
	return tracker.NewService(b.Shipments, reference.NewGenerator(b.Counter), b.Blobs, logger, opts...)
}

func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
	b.closers = nil
}
