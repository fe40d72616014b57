package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/service"
	apperrors "github.com/artwall/storefront/pkg/errors"
	"github.com/artwall/storefront/pkg/httputil"
)

// CatalogHandler serves the gallery, artwork and artist pages.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Gallery lists artworks matching the query string filters.
//
//	GET /artworks?q=&category=&style=&minPrice=&maxPrice=&sortBy=
func (h *CatalogHandler) Gallery(c *gin.Context) {
	state, err := h.filterState(c)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.catalog.Gallery(c.Request.Context(), state)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, result)
}

func (h *CatalogHandler) filterState(c *gin.Context) (domain.FilterState, error) {
	state := h.catalog.DefaultFilterState()
	state.Query = c.Query("q")
	state.Categories = queryList(c, "category")
	state.Styles = queryList(c, "style")
	state.SortKey = domain.ParseSortKey(c.Query("sortBy"))

	var err error
	if state.PriceMin, err = queryInt64(c, "minPrice", state.PriceMin); err != nil {
		return state, err
	}
	if state.PriceMax, err = queryInt64(c, "maxPrice", state.PriceMax); err != nil {
		return state, err
	}
	if state.PriceMin > state.PriceMax {
		return state, apperrors.ErrInvalidInput.WithDetails(map[string]string{"minPrice": "must not exceed maxPrice"})
	}
	return state, nil
}

// queryList accepts repeated keys, the key[] form and comma-separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range append(c.QueryArray(key), c.QueryArray(key+"[]")...) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryInt64(c *gin.Context, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, apperrors.ErrInvalidInput.WithDetails(map[string]string{key: "must be a non-negative integer"})
	}
	return v, nil
}

// Filters describes the categories, styles, price range and sort options.
func (h *CatalogHandler) Filters(c *gin.Context) {
	httputil.SuccessResponse(c, h.catalog.FilterMetadata())
}

// Featured returns the home page selection.
func (h *CatalogHandler) Featured(c *gin.Context) {
	httputil.SuccessResponse(c, h.catalog.Featured())
}

// Artwork returns one artwork priced with the optional frame query param.
func (h *CatalogHandler) Artwork(c *gin.Context) {
	detail, err := h.catalog.Artwork(c.Param("id"), c.Query("frame"))
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, detail)
}

// Artists lists every artist.
func (h *CatalogHandler) Artists(c *gin.Context) {
	httputil.SuccessResponse(c, h.catalog.Artists())
}

// Artist returns one artist with their artworks.
func (h *CatalogHandler) Artist(c *gin.Context) {
	profile, err := h.catalog.Artist(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.SuccessResponse(c, profile)
}
