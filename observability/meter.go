package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a global meter provider exporting to cfg.Endpoint.
// The provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, service, version string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("observability: create metric exporter: %w", err)
	}

	res, err := newResource(service, version)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the chatstream meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// StreamMetrics holds the instruments recorded by stream sessions. A nil
// *StreamMetrics records nothing.
type StreamMetrics struct {
	sessions  metric.Int64Counter
	units     metric.Int64Counter
	bytes     metric.Int64Counter
	malformed metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewStreamMetrics creates the stream instruments on meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	sessions, err := meter.Int64Counter("chatstream.stream.sessions",
		metric.WithDescription("Stream sessions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create sessions counter: %w", err)
	}
	units, err := meter.Int64Counter("chatstream.stream.units",
		metric.WithDescription("JSON objects dispatched to consumers"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create units counter: %w", err)
	}
	bytes, err := meter.Int64Counter("chatstream.stream.bytes",
		metric.WithDescription("Response body bytes read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create bytes counter: %w", err)
	}
	malformed, err := meter.Int64Counter("chatstream.stream.malformed",
		metric.WithDescription("Balanced spans that failed to parse"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create malformed counter: %w", err)
	}
	duration, err := meter.Float64Histogram("chatstream.stream.duration",
		metric.WithDescription("Stream session duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create duration histogram: %w", err)
	}
	return &StreamMetrics{
		sessions:  sessions,
		units:     units,
		bytes:     bytes,
		malformed: malformed,
		duration:  duration,
	}, nil
}

// RecordUnit counts one dispatched unit.
func (m *StreamMetrics) RecordUnit(ctx context.Context) {
	if m == nil {
		return
	}
	m.units.Add(ctx, 1)
}

// RecordBytes counts n body bytes.
func (m *StreamMetrics) RecordBytes(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.Add(ctx, int64(n))
}

// RecordMalformed counts one malformed fragment.
func (m *StreamMetrics) RecordMalformed(ctx context.Context, policy string) {
	if m == nil {
		return
	}
	m.malformed.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", policy)))
}

// RecordSession records a finished session. kind is empty on completion.
func (m *StreamMetrics) RecordSession(ctx context.Context, outcome, kind string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("failure_kind", kind),
	)
	m.sessions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RequestMetrics holds HTTP server instruments for the mock backend.
type RequestMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRequestMetrics creates the HTTP server instruments on meter.
func NewRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	total, err := meter.Int64Counter("chatstream.http.requests",
		metric.WithDescription("HTTP requests served"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create request counter: %w", err)
	}
	duration, err := meter.Float64Histogram("chatstream.http.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create request histogram: %w", err)
	}
	return &RequestMetrics{total: total, duration: duration}, nil
}

// RecordRequest records one served request.
func (m *RequestMetrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.total.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}
