package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/middleware"
	"github.com/artwall/storefront/internal/service"
	"github.com/artwall/storefront/pkg/db"
	apperrors "github.com/artwall/storefront/pkg/errors"
	"github.com/artwall/storefront/pkg/httputil"
	"github.com/artwall/storefront/pkg/logger"
	"github.com/artwall/storefront/pkg/telemetry"
)

// RouterConfig collects everything the HTTP surface depends on.
type RouterConfig struct {
	Catalog      *service.CatalogService
	Favorites    *service.FavoriteService
	Applications *service.ApplicationService
	Health       *db.HealthChecker
	Telemetry    *telemetry.Provider
	Metrics      *telemetry.Metrics
	Log          logger.Logger

	// ToggleLimiter rate limits favorite toggles per profile; nil disables it.
	ToggleLimiter  middleware.Limiter
	DefaultProfile string
	AllowedOrigins []string
	Version        string
}

// NewRouter builds the gin engine serving /api/v1, /health and /metrics.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.NewNoop()
	}
	if cfg.Health == nil {
		cfg.Health = db.NewHealthChecker(0)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(cfg.Log),
		httputil.RequestIDMiddleware(),
		middleware.Tracing(cfg.Telemetry),
		middleware.Logging(cfg.Log, cfg.Metrics),
		httputil.CORSMiddleware(cfg.AllowedOrigins),
		httputil.SecurityHeadersMiddleware(),
	)

	r.GET("/health", NewHealthHandler(cfg.Health, cfg.Version).Check)
	r.GET("/metrics", gin.WrapH(cfg.Telemetry.MetricsHandler()))

	catalog := NewCatalogHandler(cfg.Catalog)
	favorites := NewFavoriteHandler(cfg.Favorites, cfg.Catalog)
	applications := NewApplicationHandler(cfg.Applications)

	api := r.Group("/api/v1", middleware.Profile(cfg.DefaultProfile))
	{
		api.GET("/artworks", catalog.Gallery)
		api.GET("/artworks/filters", catalog.Filters)
		api.GET("/artworks/featured", catalog.Featured)
		api.GET("/artworks/:id", catalog.Artwork)
		api.GET("/artists", catalog.Artists)
		api.GET("/artists/:id", catalog.Artist)

		toggle := []gin.HandlerFunc{favorites.Toggle}
		if cfg.ToggleLimiter != nil {
			toggle = append([]gin.HandlerFunc{middleware.RateLimit(cfg.ToggleLimiter, cfg.Log)}, toggle...)
		}
		api.GET("/favorites", favorites.List)
		api.GET("/favorites/:id", favorites.Status)
		api.POST("/favorites/:id/toggle", toggle...)

		api.POST("/applications", applications.Submit)
	}

	r.NoRoute(func(c *gin.Context) {
		httputil.ErrorResponse(c, apperrors.ErrNotFound.WithDetails(map[string]string{"path": c.Request.URL.Path}))
	})
	return r
}
