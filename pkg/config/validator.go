package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration. Backend sections are only
// checked when a feature actually uses them.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := v.ValidateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if cfg.NeedsRedis() {
		if err := v.ValidateRedis(&cfg.Redis); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if cfg.Storage.Driver == DriverPostgres {
		if err := v.ValidatePostgres(&cfg.Postgres); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if err := v.ValidateGallery(&cfg.Gallery); err != nil {
		return fmt.Errorf("gallery: %w", err)
	}
	if err := v.ValidateFavorites(&cfg.Favorites); err != nil {
		return fmt.Errorf("favorites: %w", err)
	}
	if cfg.Favorites.Sync && cfg.Storage.Driver == DriverMemory {
		return fmt.Errorf("favorites: sync needs a shared storage driver")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Backend != LimiterLocal && cfg.RateLimit.Backend != LimiterRedis {
			return fmt.Errorf("rate_limit: unknown backend %q", cfg.RateLimit.Backend)
		}
		if cfg.RateLimit.ToggleLimit <= 0 {
			return fmt.Errorf("rate_limit: toggle_limit must be positive")
		}
		if cfg.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit: window must be positive")
		}
	}
	return nil
}

// ValidateServer validates server configuration.
func (v *Validator) ValidateServer(cfg *ServerConfig) error {
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", cfg.HTTPPort)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	switch cfg.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid mode: %q", cfg.Mode)
	}
	return nil
}

// ValidateStorage validates the favorites persistence settings.
func (v *Validator) ValidateStorage(cfg *StorageConfig) error {
	switch cfg.Driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	case DriverFile:
		if cfg.Dir == "" {
			return fmt.Errorf("dir is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown driver: %q", cfg.Driver)
	}
	if cfg.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}
	if cfg.BreakerMaxFailures < 0 {
		return fmt.Errorf("breaker_max_failures cannot be negative")
	}
	return nil
}

// ValidateRedis validates Redis configuration.
func (v *Validator) ValidateRedis(cfg *RedisConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.PoolSize < 0 || cfg.MinIdleConns < 0 {
		return fmt.Errorf("pool settings cannot be negative")
	}
	if cfg.MinIdleConns > cfg.PoolSize && cfg.PoolSize > 0 {
		return fmt.Errorf("min_idle_conns cannot exceed pool_size")
	}
	return nil
}

// ValidatePostgres validates PostgreSQL configuration.
func (v *Validator) ValidatePostgres(cfg *PostgresConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.User == "" {
		return fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return fmt.Errorf("database is required")
	}
	if cfg.MaxConns < 0 || cfg.MinConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	if cfg.MinConns > cfg.MaxConns && cfg.MaxConns > 0 {
		return fmt.Errorf("min_conns cannot exceed max_conns")
	}
	return nil
}

// ValidateGallery validates catalog browsing settings.
func (v *Validator) ValidateGallery(cfg *GalleryConfig) error {
	if cfg.PriceMin < 0 {
		return fmt.Errorf("price_min cannot be negative")
	}
	if cfg.PriceMax < cfg.PriceMin {
		return fmt.Errorf("price_max (%d) is below price_min (%d)", cfg.PriceMax, cfg.PriceMin)
	}
	if cfg.PriceStep <= 0 {
		return fmt.Errorf("price_step must be positive")
	}
	if cfg.FeaturedArtworks < 0 || cfg.FeaturedArtists < 0 || cfg.RelatedLimit < 0 {
		return fmt.Errorf("selection limits cannot be negative")
	}
	if cfg.CacheEnabled && cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive when the cache is enabled")
	}
	return nil
}

// ValidateFavorites validates favorites store settings.
func (v *Validator) ValidateFavorites(cfg *FavoritesConfig) error {
	if cfg.StorageKey == "" {
		return fmt.Errorf("storage_key is required")
	}
	if cfg.DefaultProfile == "" {
		return fmt.Errorf("default_profile is required")
	}
	if cfg.FlushSchedule != "" {
		if _, err := cron.ParseStandard(cfg.FlushSchedule); err != nil {
			return fmt.Errorf("invalid flush_schedule: %w", err)
		}
	}
	return nil
}
