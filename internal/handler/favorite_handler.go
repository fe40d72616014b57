package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/service"
	"github.com/artwall/storefront/pkg/httputil"
)

// FavoriteHandler serves the profile's favorites.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	catalog   *service.CatalogService
}

// NewFavoriteHandler creates a favorites handler.
func NewFavoriteHandler(favorites *service.FavoriteService, catalog *service.CatalogService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, catalog: catalog}
}

// FavoritesResponse is the favorites page payload.
type FavoritesResponse struct {
	IDs      []string             `json:"ids"`
	Artworks []domain.ArtworkView `json:"artworks"`
	Count    int                  `json:"count"`
}

// StatusResponse reports whether one artwork is liked.
type StatusResponse struct {
	ArtworkID string `json:"artworkId"`
	Liked     bool   `json:"liked"`
}

// List returns the favorite IDs in insertion order together with the liked
// catalog artworks.
func (h *FavoriteHandler) List(c *gin.Context) {
	ids, err := h.favorites.List(c.Request.Context(), httputil.GetProfileID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, FavoritesResponse{
		IDs:      ids,
		Artworks: h.catalog.Liked(ids),
		Count:    len(ids),
	})
}

// Status reports whether the artwork is a favorite.
func (h *FavoriteHandler) Status(c *gin.Context) {
	id := c.Param("id")
	liked, err := h.favorites.IsFavorite(c.Request.Context(), httputil.GetProfileID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, StatusResponse{ArtworkID: id, Liked: liked})
}

// Toggle flips the artwork's favorite status.
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	result, err := h.favorites.Toggle(c.Request.Context(), httputil.GetProfileID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, result)
}
