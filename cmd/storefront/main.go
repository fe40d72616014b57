package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/cron"
	"github.com/artwall/storefront/internal/handler"
	"github.com/artwall/storefront/internal/repository"
	"github.com/artwall/storefront/internal/service"
	"github.com/artwall/storefront/pkg/breaker"
	"github.com/artwall/storefront/pkg/config"
	"github.com/artwall/storefront/pkg/db"
	"github.com/artwall/storefront/pkg/limiter"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/redis"
	"github.com/artwall/storefront/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", os.Getenv("AW_CONFIG"), "path to config.yaml")
	catalogPath := flag.String("catalog", "", "catalog JSON file; the bundled catalog when empty")
	flag.Parse()

	if err := run(*configPath, *catalogPath); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath string) error {
	cfg, err := config.NewFileLoader(configPath).Load()
	if err != nil {
		return err
	}

	log, closeLog, err := initLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Info("Starting storefront", logger.String("storage", cfg.Storage.Driver))

	ctx := context.Background()

	tp, shutdownTelemetry, err := telemetry.Init(ctx, &telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	metrics, err := telemetry.NewMetrics(tp)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	health := db.NewHealthChecker(2 * time.Second)

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redis.NewClient(&redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxRetries:   3,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		health.Register("redis", redisClient)
		log.Info("Connected to Redis", logger.String("host", cfg.Redis.Host))
	}

	kv, closeKV, err := initStorage(ctx, cfg, redisClient, health, log)
	if err != nil {
		return err
	}
	defer closeKV()

	var catalogRepo repository.CatalogRepository = repository.NewEmbeddedCatalogRepository()
	if catalogPath != "" {
		catalogRepo = repository.NewFileCatalogRepository(catalogPath)
	}
	catalog, err := repository.LoadCatalog(ctx, catalogRepo)
	if err != nil {
		return err
	}
	log.Info("Catalog loaded",
		logger.Int("artworks", catalog.Len()),
		logger.String("version", catalog.Version()),
	)

	var galleryCache service.GalleryCache
	if cfg.Gallery.CacheEnabled {
		galleryCache = redis.NewSingleFlightCache(redisClient)
	}
	catalogService := service.NewCatalogService(catalog, service.GalleryOptions{
		PriceMin:         cfg.Gallery.PriceMin,
		PriceMax:         cfg.Gallery.PriceMax,
		PriceStep:        cfg.Gallery.PriceStep,
		FeaturedArtworks: cfg.Gallery.FeaturedArtworks,
		FeaturedArtists:  cfg.Gallery.FeaturedArtists,
		RelatedLimit:     cfg.Gallery.RelatedLimit,
		CacheTTL:         cfg.Gallery.CacheTTL,
	}, galleryCache, log, metrics)
	favoriteService := service.NewFavoriteService(kv, cfg.Favorites.StorageKey, cfg.Storage.Driver, log, metrics)
	applicationService := service.NewApplicationService(log)

	if cfg.Favorites.Sync {
		bus := redis.NewPubSub(redisClient, log)
		defer bus.Close()
		if err := service.NewFavoriteSync(bus, favoriteService, log).Start(); err != nil {
			return fmt.Errorf("failed to start favorites sync: %w", err)
		}
	}

	cronManager := cron.NewCronManager(favoriteService, cfg.Favorites.FlushSchedule, log)
	if err := cronManager.Start(); err != nil {
		return fmt.Errorf("failed to start cron manager: %w", err)
	}

	routerCfg := handler.RouterConfig{
		Catalog:        catalogService,
		Favorites:      favoriteService,
		Applications:   applicationService,
		Health:         health,
		Telemetry:      tp,
		Metrics:        metrics,
		Log:            log,
		DefaultProfile: cfg.Favorites.DefaultProfile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        cfg.Telemetry.ServiceVersion,
	}
	switch {
	case !cfg.RateLimit.Enabled:
	case cfg.RateLimit.Backend == config.LimiterRedis:
		routerCfg.ToggleLimiter = limiter.NewActionLimiter(redisClient, "favorite_toggle", cfg.RateLimit.ToggleLimit, cfg.RateLimit.Window)
	default:
		routerCfg.ToggleLimiter = limiter.NewLocalLimiter(cfg.RateLimit.ToggleLimit, cfg.RateLimit.Window)
	}
	gin.SetMode(cfg.Server.Mode)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.HTTPPort),
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down storefront", logger.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server failed", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", logger.Error(err))
	}
	cronManager.Stop()
	if err := cronManager.RunFlushNow(shutdownCtx); err != nil {
		log.Error("Unsaved favorites lost on shutdown", logger.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", logger.Error(err))
	}

	log.Info("storefront stopped")
	return nil
}

func initLogger(cfg *config.LogConfig) (logger.Logger, func(), error) {
	out := io.Writer(os.Stdout)
	closer := func() {}
	if cfg.File != "" {
		w, err := logger.NewRotateWriter(&logger.RotateConfig{
			Filename:   cfg.File,
			MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
			MaxBackups: cfg.MaxBackups,
		})
		if err != nil {
			return nil, nil, err
		}
		out, closer = w, func() { _ = w.Close() }
	}
	return logger.New(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		Output:     out,
		TimeFormat: time.RFC3339,
		Caller:     true,
	}), closer, nil
}

// initStorage opens the favorites KVStore selected by cfg.Storage.Driver.
// Network backends sit behind a circuit breaker.
func initStorage(ctx context.Context, cfg *config.Config, redisClient *redis.Client, health *db.HealthChecker, log logger.Logger) (repository.KVStore, func(), error) {
	noop := func() {}
	withBreaker := func(kv repository.KVStore) repository.KVStore {
		cb := breaker.New(breaker.Config{
			Name:        cfg.Storage.Driver,
			MaxFailures: cfg.Storage.BreakerMaxFailures,
			Timeout:     cfg.Storage.BreakerTimeout,
		})
		guarded := repository.NewBreakerKV(kv, cb, cfg.Storage.WriteTimeout)
		health.Register("storage_breaker", guarded)
		return guarded
	}

	switch cfg.Storage.Driver {
	case config.DriverFile:
		kv, err := repository.NewFileKV(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open favorites dir: %w", err)
		}
		return kv, noop, nil

	case config.DriverRedis:
		return withBreaker(repository.NewRedisKV(redisClient)), noop, nil

	case config.DriverPostgres:
		pgCfg := &db.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			Database:        cfg.Postgres.Database,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}
		if err := migrate(ctx, pgCfg, log); err != nil {
			return nil, nil, err
		}
		pool, err := db.NewPool(ctx, pgCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		health.Register("postgres", pool)
		log.Info("Database connected successfully", logger.String("database", pgCfg.Database))
		return withBreaker(repository.NewPostgresKV(pool)), pool.Close, nil

	default:
		log.Warn("Favorites are kept in memory and lost on restart")
		return repository.NewMemoryKV(), noop, nil
	}
}

func migrate(ctx context.Context, cfg *db.Config, log logger.Logger) error {
	conn, err := db.OpenSQL(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	m, err := db.NewMigrator(conn, repository.MigrationsFS, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if version, dirty, err := m.Version(); err == nil {
		log.Info("Migrations applied", logger.Int("version", int(version)), logger.Bool("dirty", dirty))
	}
	return nil
}
