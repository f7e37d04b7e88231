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
	Database DatabaseConfig
	Export   ExportConfig
	Grid     GridConfig
	Features FeatureConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the connection settings for the store database.
type DatabaseConfig struct {
	// Driver selects the SQL dialect and client: mysql or postgres (default: mysql)
	Driver string `env:"DB_DRIVER" default:"mysql"`

	// URL is the connection string (required).
	// MySQL expects a go-sql-driver DSN, Postgres a postgres:// URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// TablePrefix is prepended to every store table name (default: none)
	TablePrefix string `env:"DB_TABLE_PREFIX"`

	// MaxConns is the maximum number of open connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of idle connections kept open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ExportConfig holds order export post-processing settings.
type ExportConfig struct {
	// VarDir is the writable directory export files live under (default: var)
	VarDir string `env:"EXPORT_VAR_DIR" default:"var"`

	// FallbackDir is tried under VarDir when a file path does not resolve (default: export)
	FallbackDir string `env:"EXPORT_FALLBACK_DIR" default:"export"`

	// UnwantedColumns are header names dropped from every export.
	UnwantedColumns []string `env:"EXPORT_UNWANTED_COLUMNS" default:"Grand Total (Base),Grand Total (Purchased),Total Refunded,Allocated sources,Pickup Location Code,Created by (Login as Customer),Tracking Information,Lock,Meta Order ID"`

	// PhoneColumn is kept once; later duplicates are dropped (default: Customer Phone)
	PhoneColumn string `env:"EXPORT_PHONE_COLUMN" default:"Customer Phone"`

	// LegacyCharset decodes fields that are not valid UTF-8 (default: windows-1256)
	LegacyCharset string `env:"EXPORT_LEGACY_CHARSET" default:"windows-1256"`

	// MaxConcurrent is the maximum number of exports generated in parallel (default: 2)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long an export waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"30s"`

	// Retention is how long generated exports are kept; 0 keeps them forever (default: 24h)
	Retention time.Duration `env:"EXPORT_RETENTION" default:"24h"`

	// CleanupInterval is how often expired exports are removed (default: 1h)
	CleanupInterval time.Duration `env:"EXPORT_CLEANUP_INTERVAL" default:"1h"`
}

// GridConfig holds order grid column settings.
type GridConfig struct {
	// Placeholder is shown when an order has no region or city (default: غير محدد)
	Placeholder string `env:"GRID_PLACEHOLDER" default:"غير محدد"`

	// Separator joins product names and SKUs (default: " | ")
	Separator string `env:"GRID_SEPARATOR" default:" | "`

	// PageSize is the number of orders per grid page (default: 50)
	PageSize int `env:"GRID_PAGE_SIZE" default:"50"`
}

// FeatureConfig holds the default value of each feature flag.
// Store-scoped rows in the settings store take precedence.
type FeatureConfig struct {
	ExcelExport       bool `env:"FEATURE_EXCEL_EXPORT" default:"true"`
	GovernorateFilter bool `env:"FEATURE_GOVERNORATE_FILTER" default:"false"`
	ProductColumns    bool `env:"FEATURE_PRODUCT_COLUMNS" default:"true"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key validation on /api routes (default: false)
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
