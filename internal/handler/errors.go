package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/internal/service"
	apperrors "github.com/artwall/storefront/pkg/errors"
	"github.com/artwall/storefront/pkg/httputil"
)

// handleError maps domain errors onto the response envelope.
func handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	httputil.ErrorResponse(c, toAppError(err))
}

func toAppError(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	// 404
	case errors.Is(err, domain.ErrArtworkNotFound):
		return apperrors.ErrArtworkNotFound
	case errors.Is(err, domain.ErrArtistNotFound):
		return apperrors.ErrArtistNotFound

	// 400
	case errors.Is(err, domain.ErrInvalidArtworkID):
		return apperrors.ErrInvalidArtwork
	case errors.Is(err, domain.ErrInvalidProfileID):
		return apperrors.ErrInvalidProfile
	case errors.Is(err, domain.ErrUnknownFrame):
		return apperrors.ErrInvalidInput.WithDetails(map[string]string{"frame": err.Error()})

	// 422
	case errors.Is(err, domain.ErrMissingInformation),
		errors.Is(err, domain.ErrArtTypeRequired),
		errors.Is(err, domain.ErrTermsRequired),
		errors.Is(err, domain.ErrBioTooLong),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrUnknownArtType),
		errors.Is(err, domain.ErrUnknownStyle):
		return apperrors.ErrValidationFailed.WithDetails(err.Error())

	// 503
	case errors.Is(err, service.ErrFavoritesUnavailable):
		return apperrors.ErrServiceUnavailable.WithError(err)

	default:
		return apperrors.ErrInternal.WithError(err)
	}
}
