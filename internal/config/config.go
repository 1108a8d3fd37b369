// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and TALENTFLOW_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

const minJWTSecretLen = 32

// Config contains process configuration.
type Config struct {
	// Env selects logger flavour: development, staging, production, test.
	Env string `koanf:"env"`
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the entity store: memory, sqlite, postgres.
	StoreDriver string `koanf:"store_driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`
	// DatabaseURL is the PostgreSQL DSN used by the postgres driver.
	DatabaseURL string `koanf:"database_url"`
	// DBMaxConns caps the PostgreSQL pool size.
	DBMaxConns int `koanf:"db_max_conns"`

	// CacheBackend selects memory or redis.
	CacheBackend  string `koanf:"cache_backend"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	// CacheListTTL bounds staleness of aggregate list views.
	CacheListTTL time.Duration `koanf:"cache_list_ttl"`
	// CacheDetailTTL bounds staleness of per-entity views.
	CacheDetailTTL time.Duration `koanf:"cache_detail_ttl"`

	// RequestTimeout is the deadline applied to each use-case.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// JWTSecret signs and verifies session tokens.
	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	// BlobDir is where uploaded resumes are stored.
	BlobDir string `koanf:"blob_dir"`

	// SyncURL is the spreadsheet webhook; empty disables syncing.
	SyncURL       string        `koanf:"sync_url"`
	SyncTimeout   time.Duration `koanf:"sync_timeout"`
	SyncWorkers   int           `koanf:"sync_workers"`
	SyncQueueSize int           `koanf:"sync_queue_size"`
	SyncDedupe    int           `koanf:"sync_dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		Env:            "development",
		LogLevel:       "info",
		Addr:           ":9080",
		StoreDriver:    StoreMemory,
		SQLitePath:     "talentflow.db",
		DBMaxConns:     20,
		CacheBackend:   CacheMemory,
		RedisAddr:      "localhost:6379",
		CacheListTTL:   60 * time.Second,
		CacheDetailTTL: 5 * time.Minute,
		RequestTimeout: 10 * time.Second,
		JWTTTL:         15 * time.Minute,
		BlobDir:        "uploads",
		SyncTimeout:    10 * time.Second,
		SyncWorkers:    runtime.NumCPU(),
		SyncQueueSize:  1_000,
		SyncDedupe:     10_000,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !validEnvs[c.Env]:
		return fmt.Errorf("%w: invalid env %q (must be one of: development, staging, production, test)", ErrInvalidConfig, c.Env)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store_driver %q: %w", ErrInvalidConfig, c.StoreDriver, ErrUnknownBackend)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache_backend %q: %w", ErrInvalidConfig, c.CacheBackend, ErrUnknownBackend)
	}

	if c.CacheListTTL <= 0 || c.CacheDetailTTL <= 0 {
		return fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidConfig)
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("%w: jwt_secret must be at least %d characters: %w", ErrInvalidConfig, minJWTSecretLen, ErrWeakSecret)
	}
	if c.SyncURL != "" && c.SyncWorkers < 1 {
		return fmt.Errorf("%w: sync_workers must be at least 1 when sync_url is set", ErrInvalidConfig)
	}
	return nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Addr=%s, Store=%s, Cache=%s, ListTTL=%s, DetailTTL=%s, Sync=%t, SyncWorkers=%d}",
		c.Env, c.Addr, c.StoreDriver, c.CacheBackend, c.CacheListTTL, c.CacheDetailTTL, c.SyncURL != "", c.SyncWorkers)
}
