package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/service"
	"github.com/artwall/storefront/pkg/httputil"
)

// ApplicationHandler accepts join-artist applications.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler creates an application handler.
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Submit validates and records an application.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var app domain.ArtistApplication
	if err := httputil.BindAndValidate(c, &app); err != nil {
		handleError(c, err)
		return
	}

	receipt, err := h.applications.Submit(c.Request.Context(), &app)
	if err != nil {
		handleError(c, err)
		return
	}
	httputil.CreatedResponse(c, receipt)
}
