package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileLoader_Load_Success(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9000
storage:
  driver: file
  dir: /tmp/favs
gallery:
  price_max: 20000000
  cache_enabled: true
  cache_ttl: 30s
redis:
  host: cache.internal
  port: 6380
favorites:
  storage_key: art-favorites-v2
`)

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/favs", cfg.Storage.Dir)
	assert.Equal(t, int64(20_000_000), cfg.Gallery.PriceMax)
	assert.Equal(t, 30*time.Second, cfg.Gallery.CacheTTL)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "art-favorites-v2", cfg.Favorites.StorageKey)
	assert.True(t, cfg.NeedsRedis())
}

func TestFileLoader_Load_WithDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, int64(0), cfg.Gallery.PriceMin)
	assert.Equal(t, int64(50_000_000), cfg.Gallery.PriceMax)
	assert.Equal(t, int64(1_000_000), cfg.Gallery.PriceStep)
	assert.Equal(t, 8, cfg.Gallery.FeaturedArtworks)
	assert.Equal(t, 4, cfg.Gallery.RelatedLimit)
	assert.Equal(t, "art-favorites", cfg.Favorites.StorageKey)
	assert.Equal(t, "default", cfg.Favorites.DefaultProfile)
	assert.False(t, cfg.NeedsRedis())
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	_, err := NewFileLoader("/nonexistent/path/config.yaml").Load()
	assert.Error(t, err)
}

func TestFileLoader_Load_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `invalid: yaml: content: [}]`)
	_, err := NewFileLoader(path).Load()
	assert.Error(t, err)
}

func TestFileLoader_Load_RejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: sqlite\n")
	_, err := NewFileLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestFileLoader_Load_RejectsInvertedPriceBounds(t *testing.T) {
	path := writeConfig(t, "gallery:\n  price_min: 100\n  price_max: 10\n")
	_, err := NewFileLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_max")
}

func TestFileLoader_Load_EnvOnly(t *testing.T) {
	t.Setenv("AW_SERVER_HTTP_PORT", "7070")
	t.Setenv("AW_STORAGE_DRIVER", "redis")
	t.Setenv("AW_FAVORITES_FLUSH_SCHEDULE", "@every 30s")

	cfg, err := NewFileLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "@every 30s", cfg.Favorites.FlushSchedule)
	assert.True(t, cfg.NeedsRedis())
}

func TestValidator_Favorites(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateFavorites(&FavoritesConfig{StorageKey: "k", DefaultProfile: "p", FlushSchedule: "*/5 * * * *"}))
	assert.Error(t, v.ValidateFavorites(&FavoritesConfig{StorageKey: "k", DefaultProfile: "p", FlushSchedule: "every now and then"}))
	assert.Error(t, v.ValidateFavorites(&FavoritesConfig{DefaultProfile: "p"}))
}

func TestValidator_PostgresOnlyWhenSelected(t *testing.T) {
	path := writeConfig(t, "postgres:\n  host: \"\"\n")
	_, err := NewFileLoader(path).Load()
	require.NoError(t, err)

	path = writeConfig(t, "storage:\n  driver: postgres\npostgres:\n  host: \"\"\n")
	_, err = NewFileLoader(path).Load()
	assert.Error(t, err)
}

func TestValidator_SyncNeedsSharedStorage(t *testing.T) {
	path := writeConfig(t, "favorites:\n  sync: true\n")
	_, err := NewFileLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync")

	path = writeConfig(t, "storage:\n  driver: postgres\nfavorites:\n  sync: true\n")
	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.True(t, cfg.NeedsRedis())
}

func TestValidator_RateLimitBackend(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  enabled: true\n")
	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, LimiterLocal, cfg.RateLimit.Backend)
	assert.False(t, cfg.NeedsRedis(), "the local limiter runs without redis")

	path = writeConfig(t, "rate_limit:\n  enabled: true\n  backend: redis\n")
	cfg, err = NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.True(t, cfg.NeedsRedis())

	path = writeConfig(t, "rate_limit:\n  enabled: true\n  backend: memcached\n")
	_, err = NewFileLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}
