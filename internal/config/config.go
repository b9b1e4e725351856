// Package config provides centralized configuration management for the
// service. It loads settings from environment variables with sensible
// defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all service configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Formats  FormatsConfig
	Storage  StorageConfig
	Webhook  WebhookConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadSize is the maximum accepted request body in bytes (default: 100MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"104857600"`
}

// DatabaseConfig holds PostgreSQL settings for the schema introspection
// endpoints. The database is optional: with no URL configured the service
// runs without the /api/db routes.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// FormatsConfig holds format definition loading settings.
type FormatsConfig struct {
	// Dir is the directory holding *.yml format definitions (default: ./formats)
	Dir string `env:"FORMATS_DIR" default:"./formats"`

	// CacheSize is the maximum number of parsed formats kept in memory (default: 64)
	CacheSize int `env:"FORMATS_CACHE_SIZE" default:"64"`

	// CacheTTL is how long a parsed format stays cached before the definition
	// file is re-read (default: 5m)
	CacheTTL time.Duration `env:"FORMATS_CACHE_TTL" default:"5m"`
}

// StorageConfig holds S3-compatible object storage settings used for
// s3:// inputs. Credentials fall back to the ambient AWS chain when unset.
type StorageConfig struct {
	// Endpoint overrides the S3 endpoint, for MinIO or GCS interoperability.
	Endpoint string `env:"S3_ENDPOINT"`

	// Region is the bucket region (default: us-east-1)
	Region string `env:"S3_REGION" default:"us-east-1"`

	// AccessKey and SecretKey are static credentials; leave empty to use the
	// default AWS credential chain.
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`

	// PathStyle forces path-style addressing, needed by most MinIO setups.
	PathStyle bool `env:"S3_PATH_STYLE" default:"false"`
}

// WebhookConfig holds settings for the report notification webhook.
type WebhookConfig struct {
	// URL is the endpoint every finished report is POSTed to. Empty disables
	// the webhook.
	URL string `env:"WEBHOOK_URL"`

	// Token is an optional bearer token sent with webhook requests.
	Token string `env:"WEBHOOK_TOKEN"`

	// Timeout is the per-request timeout for webhook delivery (default: 10s)
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
