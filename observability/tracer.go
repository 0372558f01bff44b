package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer and meter name used by chatstream.
const InstrumentationName = "github.com/kbukum/chatstream"

// Span names.
const (
	SpanStreamSession = "stream.session"
	SpanHTTPRequest   = "http.request"
)

// Attribute keys.
const (
	AttrSessionID   = "chatstream.session.id"
	AttrUnits       = "chatstream.stream.units"
	AttrOutcome     = "chatstream.stream.outcome"
	AttrFailureKind = "chatstream.stream.failure_kind"
	AttrPolicy      = "chatstream.stream.policy"
	AttrURL         = "url.full"
	AttrStatusCode  = "http.response.status_code"
)

// InitTracer installs a global tracer provider exporting to cfg.Endpoint.
// The provider must be shut down on exit.
func InitTracer(ctx context.Context, cfg Config, service, version string) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("observability: create trace exporter: %w", err)
	}

	res, err := newResource(service, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// newResource describes the process. The attributes are schemaless so the
// merge with resource.Default never conflicts on schema URL.
func newResource(service, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create resource: %w", err)
	}
	return res, nil
}

// Tracer returns the chatstream tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span with the chatstream tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}
