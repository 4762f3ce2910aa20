package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal container images

	"github.com/caarlos0/env/v11"
)

// Store backends understood by the collector.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds configuration for the collector.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Local    bool   `env:"LOCAL" envDefault:"false"`

	Store     StoreConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Flush     FlushConfig
	CORS      CORSConfig
	Tracking  TrackingConfig
	Dashboard DashboardConfig
	Archive   ArchiveConfig
}

// StoreConfig selects and tunes the key-value backend
type StoreConfig struct {
	Backend      string `env:"STORE_BACKEND" envDefault:"redis"`
	KeyPrefix    string `env:"STORE_KEY_PREFIX" envDefault:"log:"`
	ListPageSize int    `env:"STORE_LIST_PAGE_SIZE" envDefault:"1000"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string        `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
}

// FlushConfig guards the bulk delete endpoint
type FlushConfig struct {
	Password     string `env:"FLUSH_PASSWORD"`
	PasswordHash string `env:"FLUSH_PASSWORD_HASH"` // bcrypt, takes precedence over Password
	Concurrency  int    `env:"FLUSH_CONCURRENCY" envDefault:"0"`
}

// CORSConfig lists the origins echoed back in Access-Control-Allow-Origin
type CORSConfig struct {
	AllowedOrigins        []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://dbraun1991.github.io"`
	AllowedOriginPrefixes []string `env:"CORS_ALLOWED_ORIGIN_PREFIXES" envSeparator:"," envDefault:"http://localhost,http://127.0.0.1"`
	AllowNullOrigin       bool     `env:"CORS_ALLOW_NULL_ORIGIN" envDefault:"true"`
}

// TrackingConfig controls how beacons are turned into records
type TrackingConfig struct {
	Timezone        string   `env:"TRACKING_TIMEZONE" envDefault:"Europe/Berlin"`
	ClientIPHeaders []string `env:"TRACKING_CLIENT_IP_HEADERS" envSeparator:"," envDefault:"CF-Connecting-IP,X-Forwarded-For,X-Real-IP"`
	MaxBodyBytes    int64    `env:"TRACKING_MAX_BODY_BYTES" envDefault:"65536"`
}

// DashboardConfig holds presentation settings for the admin view
type DashboardConfig struct {
	SiteURL string `env:"DASHBOARD_SITE_URL" envDefault:"https://dbraun1991.github.io/diffcomparison/"`
}

// ArchiveConfig holds configuration for the S3 export taken before a flush
type ArchiveConfig struct {
	Enabled  bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	S3Bucket string `env:"ARCHIVE_S3_BUCKET"`
	S3Region string `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	S3Prefix string `env:"ARCHIVE_S3_PREFIX" envDefault:"archive/"`
	Endpoint string `env:"ARCHIVE_S3_ENDPOINT"` // S3-compatible endpoint, e.g. MinIO
	PodName  string `env:"POD_NAME" envDefault:"collector-0"`

	AccessKeyID     string `env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"ARCHIVE_S3_SECRET_ACCESS_KEY"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Store.KeyPrefix == "" {
		return fmt.Errorf("STORE_KEY_PREFIX must not be empty")
	}
	if c.Store.ListPageSize <= 0 {
		return fmt.Errorf("STORE_LIST_PAGE_SIZE must be positive, got %d", c.Store.ListPageSize)
	}
	if c.Flush.Concurrency < 0 {
		return fmt.Errorf("FLUSH_CONCURRENCY must not be negative, got %d", c.Flush.Concurrency)
	}
	if c.Tracking.MaxBodyBytes <= 0 {
		return fmt.Errorf("TRACKING_MAX_BODY_BYTES must be positive, got %d", c.Tracking.MaxBodyBytes)
	}
	if _, err := time.LoadLocation(c.Tracking.Timezone); err != nil {
		return fmt.Errorf("invalid TRACKING_TIMEZONE %q: %w", c.Tracking.Timezone, err)
	}
	if c.Archive.Enabled && c.Archive.S3Bucket == "" {
		return fmt.Errorf("ARCHIVE_S3_BUCKET is required when ARCHIVE_ENABLED is set")
	}

	return nil
}

// FlushEnabled reports whether any flush secret is configured.
func (c *Config) FlushEnabled() bool {
	return c.Flush.Password != "" || c.Flush.PasswordHash != ""
}
