// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables, an optional TOML file and
// tag defaults, and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Every setting can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Query    QueryConfig
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

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// RateLimit is the number of requests allowed per client IP per
	// RateWindow; 0 disables rate limiting (default: 100)
	RateLimit int `env:"RATE_LIMIT" default:"100"`

	// RateWindow is the rate limiting window (default: 1m)
	RateWindow time.Duration `env:"RATE_WINDOW" default:"1m"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty it is composed
	// from the POSTGRES_* parts below.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	User     string `env:"POSTGRES_USER" default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"POSTGRES_HOST" default:"localhost"`
	Port     int    `env:"POSTGRES_PORT" default:"5432"`
	Name     string `env:"POSTGRES_DB" default:"postgres"`
	SSLMode  string `env:"POSTGRES_SSLMODE" default:"disable"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// HealthCheckPeriod is how often idle connections are checked (default: 1m)
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" default:"1m"`

	// ConnectTimeout bounds the initial connect and ping (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// QueryConfig holds data-access behavior settings.
type QueryConfig struct {
	// Distinct makes list-all lookups return unique values (default: true)
	Distinct bool `env:"QUERY_DISTINCT" default:"true"`

	// Timeout bounds a single facade call (default: 10s)
	Timeout time.Duration `env:"QUERY_TIMEOUT" default:"10s"`

	// OffersLimit is the default number of offers returned (default: 5)
	OffersLimit int `env:"QUERY_OFFERS_LIMIT" default:"5"`

	// StatsInterval is how often pool statistics are logged; 0 disables (default: 5m)
	StatsInterval time.Duration `env:"DB_STATS_INTERVAL" default:"5m"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey protects write endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP / X-Forwarded-For
	// headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnString returns URL when set, otherwise a postgres:// URL built from
// the individual connection parts.
func (c *DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}
