package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/pkg/logger"
)

// ApplicationService accepts artist applications. Accepted applications are
// acknowledged and logged; nothing is stored.
type ApplicationService struct {
	log logger.Logger
	now func() time.Time
}

// NewApplicationService creates the service.
func NewApplicationService(log logger.Logger) *ApplicationService {
	return &ApplicationService{log: log, now: time.Now}
}

// Submit validates app and returns a receipt.
func (s *ApplicationService) Submit(ctx context.Context, app *domain.ArtistApplication) (*domain.ApplicationReceipt, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}

	receipt := &domain.ApplicationReceipt{
		Reference:   uuid.New().String(),
		FullName:    app.FullName,
		Email:       app.Email,
		SubmittedAt: s.now().UTC(),
	}
	s.log.WithContext(ctx).Info("artist application received",
		logger.String("reference", receipt.Reference),
		logger.String("city", app.City),
		logger.Int("art_types", len(app.ArtTypes)),
		logger.String("experience", app.Experience),
	)
	return receipt, nil
}
