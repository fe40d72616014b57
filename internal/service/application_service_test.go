package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artwall/storefront/internal/domain"
	"github.com/artwall/storefront/pkg/logger"
)

func TestApplicationService_Submit(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: logger.InfoLevel, Output: &buf})
	svc := NewApplicationService(log)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("UZT", 5*3600)) }

	app := &domain.ArtistApplication{
		FullName:   "Malika Yusupova",
		Email:      "malika@example.uz",
		City:       "Bukhara",
		ArtTypes:   []string{"Textile Art", "Miniature"},
		AgreeTerms: true,
	}
	receipt, err := svc.Submit(context.Background(), app)
	require.NoError(t, err)

	_, err = uuid.Parse(receipt.Reference)
	assert.NoError(t, err)
	assert.Equal(t, "Malika Yusupova", receipt.FullName)
	assert.Equal(t, time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC), receipt.SubmittedAt)

	out := buf.String()
	assert.Contains(t, out, "artist application received")
	assert.Contains(t, out, receipt.Reference)
	assert.False(t, strings.Contains(out, "malika@example.uz"), "email is not logged")
}

func TestApplicationService_Rejects(t *testing.T) {
	svc := NewApplicationService(logger.Nop())

	_, err := svc.Submit(context.Background(), &domain.ArtistApplication{FullName: "X", Email: "x@y", City: "Khiva"})
	assert.ErrorIs(t, err, domain.ErrArtTypeRequired)
}
