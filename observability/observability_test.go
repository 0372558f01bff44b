package observability

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestStreamMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	m.RecordUnit(ctx)
	m.RecordUnit(ctx)
	m.RecordBytes(ctx, 128)
	m.RecordBytes(ctx, 0)
	m.RecordMalformed(ctx, "stall")
	m.RecordSession(ctx, "completed", "", 250*time.Millisecond)

	data := collect(t, reader)
	if got := sumOf(t, data["chatstream.stream.units"]); got != 2 {
		t.Errorf("expected 2 units, got %d", got)
	}
	if got := sumOf(t, data["chatstream.stream.bytes"]); got != 128 {
		t.Errorf("expected 128 bytes, got %d", got)
	}
	if got := sumOf(t, data["chatstream.stream.malformed"]); got != 1 {
		t.Errorf("expected 1 malformed, got %d", got)
	}
	if got := sumOf(t, data["chatstream.stream.sessions"]); got != 1 {
		t.Errorf("expected 1 session, got %d", got)
	}
	hist, ok := data["chatstream.stream.duration"].(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("expected one duration sample, got %+v", data["chatstream.stream.duration"])
	}
}

func TestStreamMetrics_Nil(t *testing.T) {
	var m *StreamMetrics
	ctx := context.Background()
	m.RecordUnit(ctx)
	m.RecordBytes(ctx, 10)
	m.RecordMalformed(ctx, "resync")
	m.RecordSession(ctx, "failed", "transport", time.Second)
}

func TestRequestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewRequestMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordRequest(context.Background(), "GET", "/health", 200, time.Millisecond)
	if got := sumOf(t, collect(t, reader)["chatstream.http.requests"]); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestStartSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer(InstrumentationName).Start(context.Background(), SpanStreamSession)
	span.End()
	if len(sr.Ended()) != 1 || sr.Ended()[0].Name() != SpanStreamSession {
		t.Errorf("expected one %s span, got %v", SpanStreamSession, sr.Ended())
	}

	ctx, noop := StartSpan(context.Background(), "x")
	defer noop.End()
	if ctx == nil {
		t.Error("expected a context from StartSpan")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "ParentBased{root:AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "ParentBased{root:TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		got := sampler(tt.rate).Description()
		if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
			t.Errorf("rate %v: expected description starting %q, got %q", tt.rate, tt.want, got)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("chatstream", "1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "chatstream" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected service.name attribute, got %v", res.Attributes())
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "chatstream", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || !cfg.Insecure || cfg.SampleRate != 1.0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestServiceHealth(t *testing.T) {
	sh := NewServiceHealth("mock", "dev")
	sh.AddComponent(Health{Name: "store", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "agent", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "other", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down to stick, got %s", sh.Status)
	}
	if len(sh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(sh.Components))
	}
}
