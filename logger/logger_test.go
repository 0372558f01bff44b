package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "test-svc", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSON(t *testing.T) {
	l, buf := jsonLogger("debug")
	l.Debug("hello", Fields(FieldSessionID, "s-1", FieldUnits, 3))

	m := decodeLine(t, buf)
	if m["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", m["message"])
	}
	if m["service"] != "test-svc" {
		t.Errorf("expected service 'test-svc', got %v", m["service"])
	}
	if m[FieldSessionID] != "s-1" {
		t.Errorf("expected session_id 's-1', got %v", m[FieldSessionID])
	}
	if m[FieldUnits] != float64(3) {
		t.Errorf("expected units 3, got %v", m[FieldUnits])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := jsonLogger("warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	l.Warn("kept")
	if decodeLine(t, buf)["level"] != "warn" {
		t.Errorf("expected warn level, got %q", buf.String())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := jsonLogger("loud")
	l.Debug("dropped")
	l.Info("kept")
	if !strings.Contains(buf.String(), "kept") || strings.Contains(buf.String(), "dropped") {
		t.Errorf("expected info level, got %q", buf.String())
	}
}

func TestWithComponentAndFields(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithComponent("stream").WithFields(map[string]interface{}{"k": "v"}).Info("x")

	m := decodeLine(t, buf)
	if m[FieldComponent] != "stream" {
		t.Errorf("expected component 'stream', got %v", m[FieldComponent])
	}
	if m["k"] != "v" {
		t.Errorf("expected k=v, got %v", m["k"])
	}
}

func TestWithError(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithError(errors.New("boom")).Error("failed")
	if decodeLine(t, buf)["error"] != "boom" {
		t.Errorf("expected error 'boom', got %q", buf.String())
	}
}

func TestWithContext_SpanIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	l, buf := jsonLogger("info")
	l.WithContext(ctx).Info("traced")
	m := decodeLine(t, buf)
	if m[FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace_id %s, got %v", span.SpanContext().TraceID(), m[FieldTraceID])
	}

	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger without a span in context")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "svc", &buf)
	l.Info("ready", Fields("addr", ":8000"))
	out := buf.String()
	if !strings.Contains(out, "[INF]") || !strings.Contains(out, "ready") || !strings.Contains(out, "addr:") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing", Fields("a", 1))
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{Level: "DEBUG"}
	cfg.ApplyDefaults()
	if cfg.Level != "debug" || cfg.Format != FormatConsole || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := Config{Level: "info", Format: "xml", Output: "stderr"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("expected odd trailing key to be dropped, got %v", f)
	}
	d := DurationFields("run", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", d[FieldDuration])
	}
	e := ErrorFields("run", errors.New("x"))
	if e[FieldError] != "x" {
		t.Errorf("expected error x, got %v", e[FieldError])
	}
	m := MergeWithDuration(nil, time.Second)
	if m[FieldDuration] != int64(1000) {
		t.Errorf("expected 1000ms, got %v", m[FieldDuration])
	}
}
