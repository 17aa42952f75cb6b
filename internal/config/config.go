// Package config provides centralized configuration management for the pipeline.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds settings for the operations HTTP server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, a
	// triggered run answers when the run completes)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// APIKeys guard POST /api/runs via the X-API-Key header.
	// Comma-separated. Empty leaves the trigger open.
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Required by every command that
	// touches the database; see RequireDatabase.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Source kinds for PipelineConfig.Source.
const (
	SourcePostgres = "postgres"
	SourceFiles    = "files"
)

// PipelineConfig holds settings for the bronze to silver run.
type PipelineConfig struct {
	// Source is where bronze batches come from: postgres or files (default: postgres)
	Source string `env:"PIPELINE_SOURCE" default:"postgres"`

	// SourceDir is the root of the bronze files when Source is files (default: datasets)
	SourceDir string `env:"PIPELINE_SOURCE_DIR" default:"datasets"`

	// Timeout bounds a whole run (default: 30m)
	Timeout time.Duration `env:"PIPELINE_TIMEOUT" default:"30m"`

	// EntityTimeout bounds reading and loading one entity (default: 10m)
	EntityTimeout time.Duration `env:"PIPELINE_ENTITY_TIMEOUT" default:"10m"`

	// AutoMigrate applies schema migrations before running (default: false)
	AutoMigrate bool `env:"PIPELINE_AUTO_MIGRATE" default:"false"`

	// ScheduleInterval makes the server refresh silver periodically (default: 0, off)
	ScheduleInterval time.Duration `env:"PIPELINE_SCHEDULE_INTERVAL" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the server (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
