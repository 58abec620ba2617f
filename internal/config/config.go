// Package config provides centralized configuration management for the application.
// Settings come from environment variables with sensible defaults and are
// validated on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on
	Port int `env:"SERVER_PORT" envDefault:"8000" validate:"min=1,max=65535"`

	// ReadTimeout bounds reading the whole request, body included
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s" validate:"gte=0"`

	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s" validate:"gte=0"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s" validate:"gte=0"`

	// ShutdownTimeout is how long graceful shutdown waits for in-flight work
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s" validate:"gt=0"`
}

// DatabaseConfig holds settings for the optional run history database.
// Run history is disabled when URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted as a fallback.
	URL string `env:"DATABASE_URL"`

	MaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1"`

	MinConns int32 `env:"DB_MIN_CONNS" envDefault:"0" validate:"min=0"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h" validate:"gt=0"`

	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m" validate:"gt=0"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted request body in bytes (10 MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10485760" validate:"min=1"`

	// MaxConcurrent is the number of validations allowed to run at once
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" envDefault:"5" validate:"min=1"`

	// MaxWaitTime is how long a request waits for a validation slot
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" envDefault:"30s" validate:"gt=0"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// RequestsPerMinute is the default limit per client IP
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"100" validate:"min=0"`

	// ValidateLimit is the per-minute limit for POST /validate
	ValidateLimit int `env:"RATE_LIMIT_VALIDATE" envDefault:"30" validate:"min=0"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists proxy CIDRs whose forwarding headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES" validate:"dive,cidr"`

	// AllowedOrigins is the CORS origin list; "*" allows any origin
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" envDefault:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`

	// Format is the log format: text or json
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
