// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...Option) initializer to build a Config with defaults.
// - Load layers a YAML file and STREAMWISE_ env vars on top of New.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the repository backend: memory, sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is passed to the SQL driver. Ignored for memory.
	DBDSN string `koanf:"db_dsn"`

	// AuthSecret signs HS256 bearer tokens.
	AuthSecret string `koanf:"auth_secret"`
	AuthIssuer string `koanf:"auth_issuer"`

	// TokenTTLMinutes bounds tokens issued by POST /auth/token.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// AuthDevTokens enables POST /auth/token.
	AuthDevTokens bool `koanf:"auth_dev_tokens"`

	// CORSOrigins lists allowed browser origins, comma separated in env.
	CORSOrigins []string `koanf:"cors_origins"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// CoalesceSize caps the number of pending student keys tracked for coalescing.
	CoalesceSize int `koanf:"coalesce_size"`

	// CatalogPath points to a YAML course catalog. Empty uses the built-in list.
	CatalogPath string `koanf:"catalog_path"`

	// MaxListLimit caps GET /school/students?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// RequestTimeoutMS bounds every HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
}

// Option mutates a Config built by New.
type Option func(*Config)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithDB selects the storage driver and DSN.
func WithDB(driver, dsn string) Option {
	return func(c *Config) {
		c.DBDriver = driver
		c.DBDSN = dsn
	}
}

// WithAuthSecret overrides the token signing secret.
func WithAuthSecret(secret string) Option {
	return func(c *Config) { c.AuthSecret = secret }
}

// New creates a Config with defaults, then applies opts.
func New(opts ...Option) *Config {
	c := &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		DBDriver:         DriverMemory,
		AuthSecret:       "dev-secret-change-me",
		AuthIssuer:       "streamwise",
		TokenTTLMinutes:  60,
		AuthDevTokens:    false,
		CORSOrigins:      []string{"http://localhost:5173"},
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU(),
		CoalesceSize:     50_000,
		MaxListLimit:     200,
		RequestTimeoutMS: 15_000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
