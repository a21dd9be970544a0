// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Settings SettingsConfig
	Audit    AuditConfig
	Batch    BatchConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing the response (default: 11m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"11m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-batch requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DataConfig locates the table files and the relation catalog.
type DataConfig struct {
	// Dir holds one CSV file per table (required)
	Dir string `env:"DATA_DIR" required:"true"`

	// RelationFile is the foreign-key catalog CSV (required)
	RelationFile string `env:"RELATION_FILE" required:"true"`

	// RootTable is the table every batch targets (default: Device)
	RootTable string `env:"ROOT_TABLE" default:"Device"`

	// WriteBOM prefixes written tables with a UTF-8 byte order mark (default: true)
	WriteBOM bool `env:"DATA_WRITE_BOM" default:"true"`

	// TieBreak picks a relation when several link a child to the root: first or strict (default: first)
	TieBreak string `env:"RELATION_TIE_BREAK" default:"first"`

	// Canonical designates the winning relation per child, as Child=FKName pairs
	Canonical map[string]string `env:"RELATION_CANONICAL"`
}

// SettingsConfig selects where operator settings are kept.
type SettingsConfig struct {
	// Backend is file or bolt (default: file)
	Backend string `env:"SETTINGS_BACKEND" default:"file"`

	// DefaultsPath is the user defaults document (default: settings/defaults.json)
	DefaultsPath string `env:"SETTINGS_DEFAULTS_FILE" default:"settings/defaults.json"`

	// TemplatesPath is the child-row templates document (default: settings/child_templates.json)
	TemplatesPath string `env:"SETTINGS_CHILD_TEMPLATES_FILE" default:"settings/child_templates.json"`

	// VisibilityPath is the visibility document (default: settings/visibility.json)
	VisibilityPath string `env:"SETTINGS_VISIBILITY_FILE" default:"settings/visibility.json"`

	// BoltPath is the database file used by the bolt backend (default: settings/settings.db)
	BoltPath string `env:"SETTINGS_BOLT_PATH" default:"settings/settings.db"`
}

// AuditConfig holds the optional audit database settings.
type AuditConfig struct {
	// URL is the PostgreSQL connection string; empty logs audit entries instead
	// Supports both AUDIT_DATABASE_URL and DATABASE_URL env vars
	URL string `env:"AUDIT_DATABASE_URL" envAlt:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"AUDIT_DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"AUDIT_DB_MIN_CONNS" default:"1"`
}

// BatchConfig holds bulk batch processing settings.
type BatchConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"BATCH_MAX_FILE_SIZE" default:"52428800"`

	// MaxWait is how long a batch waits for the running one to finish (default: 30s)
	MaxWait time.Duration `env:"BATCH_MAX_WAIT" default:"30s"`

	// Timeout is the maximum duration of a single batch (default: 10m)
	Timeout time.Duration `env:"BATCH_TIMEOUT" default:"10m"`

	// HistorySize is how many batch results are kept for the history view (default: 20)
	HistorySize int `env:"BATCH_HISTORY_SIZE" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
