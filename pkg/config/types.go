// Package config provides configuration management for the storefront.
package config

import "time"

// Storage drivers for the favorites persistence medium.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Gallery   GalleryConfig   `mapstructure:"gallery"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// StorageConfig selects and tunes the key-value medium favorites are
// persisted to.
type StorageConfig struct {
	Driver       string        `mapstructure:"driver"`
	Dir          string        `mapstructure:"dir"` // file driver only
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	BreakerMaxFailures int           `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GalleryConfig holds catalog browsing settings. Price bounds are
// presentation defaults for the price filter, not catalog invariants.
type GalleryConfig struct {
	PriceMin  int64 `mapstructure:"price_min"`
	PriceMax  int64 `mapstructure:"price_max"`
	PriceStep int64 `mapstructure:"price_step"`

	FeaturedArtworks int `mapstructure:"featured_artworks"`
	FeaturedArtists  int `mapstructure:"featured_artists"`
	RelatedLimit     int `mapstructure:"related_limit"`

	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// FavoritesConfig holds favorites store settings.
type FavoritesConfig struct {
	StorageKey     string `mapstructure:"storage_key"`
	DefaultProfile string `mapstructure:"default_profile"`
	FlushSchedule  string `mapstructure:"flush_schedule"` // cron spec for retrying failed writes

	// Sync broadcasts changes over Redis so other instances sharing the
	// storage backend drop their cached copy of the profile.
	Sync bool `mapstructure:"sync"`
}

// Rate limiter backends.
const (
	LimiterLocal = "local"
	LimiterRedis = "redis"
)

// RateLimitConfig limits favorite toggles per profile. The local backend
// keeps a token bucket per profile in process; redis shares a fixed window
// across instances.
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Backend     string        `mapstructure:"backend"`
	ToggleLimit int64         `mapstructure:"toggle_limit"`
	Window      time.Duration `mapstructure:"window"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
}

// NeedsRedis reports whether any enabled feature requires a Redis client.
func (c *Config) NeedsRedis() bool {
	return c.Storage.Driver == DriverRedis || c.Gallery.CacheEnabled || c.Favorites.Sync ||
		(c.RateLimit.Enabled && c.RateLimit.Backend == LimiterRedis)
}
