// Package telemetry wires OpenTelemetry tracing and metrics for the
// storefront. Metrics are exposed in Prometheus format; traces are exported
// over OTLP gRPC when an endpoint is configured.
//
// Usage:
//
//	p, shutdown, err := telemetry.Init(ctx, &telemetry.Config{
//	    ServiceName:  "artwall-storefront",
//	    Enabled:      true,
//	    OTLPEndpoint: "otel-collector:4317",
//	})
//	defer shutdown(context.Background())
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // "development", "staging", "production"
	OTLPEndpoint   string // gRPC endpoint, e.g. "otel-collector:4317"; empty disables tracing
	Enabled        bool
}

// Provider exposes the tracer and meter used by the service along with the
// Prometheus registry backing /metrics.
type Provider struct {
	tracer   trace.Tracer
	meter    metric.Meter
	registry *promclient.Registry
}

// ShutdownFunc flushes and shuts down telemetry providers.
type ShutdownFunc func(context.Context) error

// Init initialises OpenTelemetry. When cfg.Enabled is false the returned
// provider records nothing and its metrics handler serves an empty registry.
func Init(ctx context.Context, cfg *Config) (*Provider, ShutdownFunc, error) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if !cfg.Enabled {
		return NewNoop(), func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
			attribute.String("service.namespace", "artwall"),
		),
		resource.WithProcessPID(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("build otel resource: %w", err)
	}

	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricExporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithNamespace(sanitizeName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(metricExporter),
	)
	otel.SetMeterProvider(meterProvider)

	shutdowns := []func(context.Context) error{meterProvider.Shutdown}
	tracer := tracenoop.NewTracerProvider().Tracer(cfg.ServiceName)

	if cfg.OTLPEndpoint != "" {
		conn, err := grpc.NewClient(cfg.OTLPEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to otel collector %s: %w", cfg.OTLPEndpoint, err)
		}
		traceExporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithGRPCConn(conn),
			otlptracegrpc.WithTimeout(10*time.Second),
		)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("create trace exporter: %w", err)
		}

		samplingRate := 0.1
		if cfg.Environment != "production" {
			samplingRate = 1.0
		}
		tracerProvider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter,
				sdktrace.WithBatchTimeout(5*time.Second),
				sdktrace.WithMaxExportBatchSize(512),
			),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRate))),
		)
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		tracer = tracerProvider.Tracer(cfg.ServiceName)
		shutdowns = append(shutdowns, tracerProvider.Shutdown, func(context.Context) error { return conn.Close() })
	}

	p := &Provider{
		tracer:   tracer,
		meter:    meterProvider.Meter(cfg.ServiceName),
		registry: registry,
	}

	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return p, shutdown, nil
}

// NewNoop returns a provider whose instruments discard everything.
func NewNoop() *Provider {
	return &Provider{
		tracer:   tracenoop.NewTracerProvider().Tracer(""),
		meter:    noop.NewMeterProvider().Meter(""),
		registry: promclient.NewRegistry(),
	}
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Meter returns the meter.
func (p *Provider) Meter() metric.Meter { return p.meter }

// MetricsHandler serves the Prometheus registry.
func (p *Provider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// StartSpan starts a span and returns the context carrying it.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, s := p.tracer.Start(ctx, name, opts...)
	return ctx, &otelSpan{span: s}
}

// Span is the subset of trace.Span used by the service.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	SetError(err error)
}

type otelSpan struct{ span trace.Span }

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(anyAttr(key, value))
}

func (s *otelSpan) SetError(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

// TraceIDFromContext extracts the trace ID string from context.
func TraceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

func anyAttr(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

func sanitizeName(s string) string {
	out := make([]byte, len(s))
	for i := range s {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out[i] = c
		} else {
			out[i] = '_'
		}
	}
	return string(out)
}
