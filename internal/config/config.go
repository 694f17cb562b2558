// Package config defines the configuration for the prison-events service.
// Configuration is loaded once at process start and is immutable thereafter.
// It follows 12-Factor principles: values come from the OS environment, with
// an optional local dotenv file for development. Any missing required value
// or invalid format fails the process immediately on startup.
package config

import "time"

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Sub-components receive only the
// specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev preprod prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"prison-events"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Listener  ListenerConfig
	Telemetry TelemetryConfig
	Admin     AdminConfig

	// Build metadata, injected via ldflags rather than the environment.
	Build BuildInfo
}

// ServerConfig holds HTTP server settings for the health/info/admin surface.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the NOMIS replica connection and pool tuning. The
// replica is read-only; the service issues point lookups only.
type DatabaseConfig struct {
	URL               string        `envconfig:"DATABASE_URL" validate:"required"`
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-2"`

	// Source queue carrying raw Xtag messages, and its dead-letter queue.
	EventQueueURL string `envconfig:"SQS_PRISON_EVENTS" validate:"required,url"`
	EventDLQURL   string `envconfig:"SQS_PRISON_EVENTS_DLQ" validate:"required,url"`

	// Destination topic for published domain events.
	EventTopicARN string `envconfig:"SNS_PRISON_EVENTS_TOPIC_ARN" validate:"required"`
}

// ListenerConfig tunes the SQS consumer loop.
type ListenerConfig struct {
	// Concurrency is the number of independent receive/process workers.
	// Each message is processed synchronously end-to-end by one worker.
	Concurrency int `envconfig:"LISTENER_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	// WaitTime is the SQS long-poll duration per receive call.
	WaitTime time.Duration `envconfig:"LISTENER_WAIT_TIME" default:"20s"`

	// BatchSize is the maximum messages fetched per receive call (SQS caps at 10).
	BatchSize int `envconfig:"LISTENER_BATCH_SIZE" default:"10" validate:"min=1,max=10"`
}

// TelemetryConfig holds CloudWatch telemetry settings.
type TelemetryConfig struct {
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"PrisonEvents"`
	Enabled   bool   `envconfig:"TELEMETRY_ENABLED" default:"true"`
}

// AdminConfig protects the housekeeping endpoint. TokenHash is the bcrypt
// hash of the operator bearer token; the plaintext token is never stored.
type AdminConfig struct {
	TokenHash string `envconfig:"ADMIN_TOKEN_BCRYPT_HASH" validate:"required"`
}

// BuildInfo carries build metadata injected at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}
