package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	p, shutdown, err := Init(context.Background(), &Config{ServiceName: "svc"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := p.StartSpan(context.Background(), "noop")
	span.SetAttribute("k", 1)
	span.SetError(errors.New("boom"))
	span.End()
	assert.Empty(t, TraceIDFromContext(ctx))
}

func TestInit_MetricsExposed(t *testing.T) {
	p, shutdown, err := Init(context.Background(), &Config{ServiceName: "artwall-storefront", Enabled: true})
	require.NoError(t, err)
	defer shutdown(context.Background())

	m, err := NewMetrics(p)
	require.NoError(t, err)
	ctx := context.Background()
	m.GalleryQuery(ctx, "newest", 3)
	m.Toggle(ctx, true)
	m.PersistFailure(ctx, "redis")
	m.CacheLookup(ctx, false)
	m.HTTPRequest(ctx, http.MethodGet, "/api/v1/artworks", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	assert.Contains(t, text, "artwall_storefront_gallery_queries_total")
	assert.Contains(t, text, "artwall_storefront_favorites_toggles_total")
	assert.Contains(t, text, "artwall_storefront_favorites_persist_failures_total")
	assert.Contains(t, text, "go_goroutines")
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	require.NotNil(t, m)
	m.Toggle(context.Background(), false)
	m.CacheLookup(context.Background(), true)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "artwall_storefront", sanitizeName("artwall-storefront"))
	assert.Equal(t, "a_b_c", sanitizeName("a.b c"))
}
