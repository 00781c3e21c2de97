package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMinio    = "minio"
	BackendNone     = "none"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	AllowedUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	ShipmentStore  string `envconfig:"SHIPMENT_STORE" default:"memory"`
	CounterBackend string `envconfig:"COUNTER_BACKEND" default:"memory"`
	PostgresDSN    string `envconfig:"POSTGRES_DSN"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`

	BlobBackend    string `envconfig:"BLOB_BACKEND" default:"minio"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"clearance-documents"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	TemporalEnabled   bool   `envconfig:"TEMPORAL_ENABLED" default:"false"`
	TemporalAddress   string `envconfig:"TEMPORAL_ADDRESS" default:"localhost:7233"`
	TemporalNamespace string `envconfig:"TEMPORAL_NAMESPACE" default:"default"`
	TemporalTaskQueue string `envconfig:"TEMPORAL_TASK_QUEUE" default:"document-review-task-queue"`
	WorkflowIDPrefix  string `envconfig:"WORKFLOW_ID_PREFIX" default:"doc-review"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.ShipmentStore {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("config: SHIPMENT_STORE must be memory or postgres, got %q", c.ShipmentStore)
	}
	switch c.CounterBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("config: COUNTER_BACKEND must be memory, postgres or redis, got %q", c.CounterBackend)
	}
	switch c.BlobBackend {
	case BackendMinio, BackendMemory, BackendNone:
	default:
		return fmt.Errorf("config: BLOB_BACKEND must be minio, memory or none, got %q", c.BlobBackend)
	}
	if c.NeedsPostgres() && c.PostgresDSN == "" {
		return fmt.Errorf("config: POSTGRES_DSN is required")
	}
	if c.CounterBackend == BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("config: REDIS_ADDR is required")
	}
	if c.AllowedUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) NeedsPostgres() bool {
	return c.ShipmentStore == BackendPostgres || c.CounterBackend == BackendPostgres
}
