package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the storefront's instruments.
type Metrics struct {
	galleryQueries  metric.Int64Counter
	galleryResults  metric.Int64Histogram
	toggles         metric.Int64Counter
	persistFailures metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	httpRequests    metric.Int64Counter
	httpDuration    metric.Float64Histogram
}

// NewMetrics creates the storefront instruments on p's meter.
func NewMetrics(p *Provider) (*Metrics, error) {
	m := p.Meter()
	var (
		out Metrics
		err error
	)
	if out.galleryQueries, err = m.Int64Counter("gallery_queries_total",
		metric.WithDescription("Gallery queries by sort key")); err != nil {
		return nil, err
	}
	if out.galleryResults, err = m.Int64Histogram("gallery_result_size",
		metric.WithDescription("Artworks returned per gallery query"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100)); err != nil {
		return nil, err
	}
	if out.toggles, err = m.Int64Counter("favorites_toggles_total",
		metric.WithDescription("Favorite toggles by resulting state")); err != nil {
		return nil, err
	}
	if out.persistFailures, err = m.Int64Counter("favorites_persist_failures_total",
		metric.WithDescription("Failed writes of a favorites record")); err != nil {
		return nil, err
	}
	if out.cacheHits, err = m.Int64Counter("cache_gallery_hits_total",
		metric.WithDescription("Gallery cache hits")); err != nil {
		return nil, err
	}
	if out.cacheMisses, err = m.Int64Counter("cache_gallery_misses_total",
		metric.WithDescription("Gallery cache misses")); err != nil {
		return nil, err
	}
	if out.httpRequests, err = m.Int64Counter("http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if out.httpDuration, err = m.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0)); err != nil {
		return nil, err
	}
	return &out, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(NewNoop())
	return m
}

// GalleryQuery records one gallery query and its result size.
func (m *Metrics) GalleryQuery(ctx context.Context, sortKey string, results int) {
	attrs := metric.WithAttributes(attribute.String("sort", sortKey))
	m.galleryQueries.Add(ctx, 1, attrs)
	m.galleryResults.Record(ctx, int64(results), attrs)
}

// Toggle records a favorite toggle. liked is the state after the toggle.
func (m *Metrics) Toggle(ctx context.Context, liked bool) {
	state := "removed"
	if liked {
		state = "added"
	}
	m.toggles.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// PersistFailure records a failed favorites write on backend.
func (m *Metrics) PersistFailure(ctx context.Context, backend string) {
	m.persistFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
}

// CacheLookup records a gallery cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, elapsed.Seconds(), attrs)
}
