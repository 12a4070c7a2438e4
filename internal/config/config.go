// Package config provides centralized configuration management for catalogio.
// It loads configuration from environment variables with defaults and
// validates every setting on startup so a misconfigured deployment fails fast.
package config

import "time"

// Store backends understood by Backend.
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Category fallback strategies for rows without a resolvable category.
const (
	FallbackFirstCategory = "first_category"
	FallbackStoreID       = "store_id"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Supabase SupabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Import   ImportConfig
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

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects the catalog backend.
type StoreConfig struct {
	// Backend is one of postgres, supabase, sqlite, memory (default: postgres)
	Backend string `env:"STORE_BACKEND" default:"postgres"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SupabaseConfig holds hosted backend settings for the supabase backend.
type SupabaseConfig struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL string `env:"SUPABASE_URL"`

	// Key is the API key sent with every request. An anon key keeps
	// row-level security in force; a service key bypasses it.
	Key string `env:"SUPABASE_KEY" envAlt:"SUPABASE_ANON_KEY"`

	// ExportBucket is the storage bucket exports are published to (default: exports)
	ExportBucket string `env:"SUPABASE_EXPORT_BUCKET" default:"exports"`
}

// SQLiteConfig holds settings for the local sqlite backend.
type SQLiteConfig struct {
	// Path is the database file; ":memory:" keeps everything in process (default: catalog.db)
	Path string `env:"SQLITE_PATH" default:"catalog.db"`
}

// RedisConfig holds settings for the optional import result store.
type RedisConfig struct {
	// URL enables Redis-backed import results when set, e.g. redis://localhost:6379/0
	URL string `env:"REDIS_URL"`

	// KeyPrefix namespaces result keys (default: catalogio:import:)
	KeyPrefix string `env:"REDIS_KEY_PREFIX" default:"catalogio:import:"`
}

// ImportConfig holds CSV import processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel import jobs (default: 3)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single import job (default: 30m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"30m"`

	// RatePerSecond is the sustained row rate against the store; 0 disables throttling (default: 100)
	RatePerSecond float64 `env:"IMPORT_RATE_PER_SECOND" default:"100"`

	// Burst is the number of rows allowed back to back (default: 10)
	Burst int `env:"IMPORT_RATE_BURST" default:"10"`

	// CategoryFallback picks the category for rows without one:
	// first_category or store_id (default: first_category)
	CategoryFallback string `env:"IMPORT_CATEGORY_FALLBACK" default:"first_category"`

	// ResultTTL is how long finished import results stay retrievable (default: 1h)
	ResultTTL time.Duration `env:"IMPORT_RESULT_TTL" default:"1h"`
}

// RateLimitConfig holds HTTP rate limiting settings per client IP.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for the import endpoint (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey enables API key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
