package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. AW_STORAGE_DRIVER.
const EnvPrefix = "AW"

// FileLoader loads configuration from a YAML file and environment variables.
type FileLoader struct {
	configPath string
	validator  *Validator
}

// NewFileLoader creates a new file loader. An empty path searches
// ./config/config.yaml and ./config.yaml and tolerates neither existing.
func NewFileLoader(configPath string) *FileLoader {
	return &FileLoader{
		configPath: configPath,
		validator:  NewValidator(),
	}
}

// Load reads, defaults and validates the configuration.
func (l *FileLoader) Load() (*Config, error) {
	v := newViper()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode(v)
}

func (l *FileLoader) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dir", "./data/favorites")
	v.SetDefault("storage.write_timeout", 2*time.Second)
	v.SetDefault("storage.breaker_max_failures", 5)
	v.SetDefault("storage.breaker_timeout", 30*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "artwall")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("gallery.price_min", 0)
	v.SetDefault("gallery.price_max", 50_000_000)
	v.SetDefault("gallery.price_step", 1_000_000)
	v.SetDefault("gallery.featured_artworks", 8)
	v.SetDefault("gallery.featured_artists", 4)
	v.SetDefault("gallery.related_limit", 4)
	v.SetDefault("gallery.cache_enabled", false)
	v.SetDefault("gallery.cache_ttl", time.Minute)

	v.SetDefault("favorites.storage_key", "art-favorites")
	v.SetDefault("favorites.default_profile", "default")
	v.SetDefault("favorites.flush_schedule", "@every 1m")
	v.SetDefault("favorites.sync", false)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.backend", LimiterLocal)
	v.SetDefault("rate_limit.toggle_limit", 120)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "artwall-storefront")
	v.SetDefault("telemetry.service_version", "dev")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.otlp_endpoint", "")
}
