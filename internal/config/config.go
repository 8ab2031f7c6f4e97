package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker"   validate:"required"`
	Ingest   IngestConfig   `mapstructure:"ingest"   validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ScrapeCron is an optional cron expression; when set, the server
	// enqueues a scrape_new_data task on that schedule.
	ScrapeCron string `mapstructure:"scrape_cron"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// BrokerConfig contains the message broker connection settings.
// Exchange, queue, and routing key are fixed by the task topology and are
// not configurable; only the connection target varies by environment.
type BrokerConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// IngestConfig contains settings for the incremental ingestion pipeline.
type IngestConfig struct {
	// Source names the ingestion source whose watermark row tracks progress.
	Source string `mapstructure:"source" validate:"required"`
	// DataFile is the path to the scraped applicant data consumed by the
	// file-backed source.
	DataFile string `mapstructure:"data_file" validate:"required"`
	// LockPath is the filesystem location of the exclusion-lock marker.
	LockPath string `mapstructure:"lock_path" validate:"required"`
	// LockTTLMinutes, when positive, lets a new run reclaim a marker older
	// than this many minutes. Zero means stale markers must be cleared
	// manually.
	LockTTLMinutes int `mapstructure:"lock_ttl_minutes" validate:"gte=0"`
}

// WorkerConfig contains settings for the task consumer process.
type WorkerConfig struct {
	// Prefetch caps unacknowledged deliveries per consumer. One message at
	// a time is the backpressure default; raising it allows N concurrent
	// handlers, each with its own transaction.
	Prefetch int `mapstructure:"prefetch" validate:"required,gte=1"`
	// MetricsPort serves /metrics and /health for the worker.
	MetricsPort int `mapstructure:"metrics_port" validate:"required,gt=0,lt=65536"`
}
