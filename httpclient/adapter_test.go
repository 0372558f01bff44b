package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/chatstream/resilience"
)

type agent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, Timeout: 5 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestGet(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/playground/agents" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "chatstream/") {
			t.Errorf("expected chatstream user agent, got %q", r.Header.Get("User-Agent"))
		}
		_ = json.NewEncoder(w).Encode([]agent{{AgentID: "echo", Name: "Echo"}})
	})

	resp, err := Get[[]agent](a, context.Background(), "/v1/playground/agents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 || len(resp.Data) != 1 || resp.Data[0].AgentID != "echo" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestPost_JSON(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		var in agent
		_ = json.NewDecoder(r.Body).Decode(&in)
		in.Name = strings.ToUpper(in.Name)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})

	resp, err := Post[agent](a, context.Background(), "/agents", agent{AgentID: "a", Name: "echo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.Data.Name != "ECHO" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDelete(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	resp, err := Delete[map[string]string](a, context.Background(), "/delete-session/x")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || resp.Data != nil {
		t.Errorf("expected empty 204, got %+v", resp)
	}
}

func TestSend_NonJSON(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>proxy page</html>"))
	})
	_, err := Get[[]agent](a, context.Background(), "/v1/playground/agents")
	if err == nil || !strings.Contains(err.Error(), "text/html") {
		t.Errorf("expected non-JSON error, got %v", err)
	}
}

func TestRequestOptions(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("agent_id") != "echo" {
			t.Errorf("expected agent_id query, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-Trace") != "1" {
			t.Errorf("expected X-Trace header")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Default") != "yes" {
			t.Errorf("expected default header")
		}
		_, _ = w.Write([]byte(`[]`))
	}, func(c *Config) { c.Headers = map[string]string{"X-Default": "yes"} })

	_, err := Get[[]agent](a, context.Background(), "/sessions",
		WithQueryParam("agent_id", "echo"),
		WithHeader("X-Trace", "1"),
		WithRequestAuth(BearerAuth("tok")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorResponse(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Session not found"}`))
	})

	resp, err := Get[agent](a, context.Background(), "/sessions/x")
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
	var e *Error
	if !asError(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.StatusCode != 404 || e.Reason() != "Session not found" {
		t.Errorf("unexpected error %v", e)
	}

	raw, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: "/sessions/x"})
	if raw == nil || raw.StatusCode != 404 || err == nil {
		t.Errorf("expected raw response with error, got %+v %v", raw, err)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}

func TestDo_FormBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "demo" || r.PostForm.Get("password") != "p&ss" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
	})
	_, err := a.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/token",
		Body:   FormBody{"username": "demo", "password": "p&ss"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_Multipart(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("message") != "hi" || r.FormValue("stream") != "true" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("files")
		if err != nil {
			t.Fatalf("missing file: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "notes.txt" || string(data) != "hello" {
			t.Errorf("unexpected file %s %q", hdr.Filename, data)
		}
		if hdr.Header.Get("Content-Type") != "text/plain" {
			t.Errorf("unexpected file type %q", hdr.Header.Get("Content-Type"))
		}
	})
	_, err := a.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/runs",
		Body: &MultipartBody{
			Fields: map[string]string{"message": "hi", "stream": "true"},
			Files:  []FileField{{FieldName: "files", FileName: "notes.txt", ContentType: "text/plain", Reader: strings.NewReader("hello")}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMultipartBody_FieldOrder(t *testing.T) {
	m := &MultipartBody{Fields: map[string]string{"stream": "true", "message": "hi", "monitor": "false"}}
	r, ct, err := m.encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(ct, "multipart/form-data") {
		t.Errorf("unexpected content type %q", ct)
	}
	data, _ := io.ReadAll(r)
	body := string(data)
	iMessage := strings.Index(body, `name="message"`)
	iMonitor := strings.Index(body, `name="monitor"`)
	iStream := strings.Index(body, `name="stream"`)
	if iMessage < 0 || !(iMessage < iMonitor && iMonitor < iStream) {
		t.Errorf("expected fields in key order, got %q", body)
	}
}

func TestDo_Retry(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}, func(c *Config) {
		c.Retry = &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	})

	resp, err := Get[map[string]string](a, context.Background(), "/health")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Data["status"] != "ok" || calls.Load() != 3 {
		t.Errorf("expected 3 calls and ok, got %d %+v", calls.Load(), resp.Data)
	}
}

func TestDo_RetryStopsOnPermanent(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, func(c *Config) {
		c.Retry = &resilience.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond}
	})

	if _, err := a.Do(context.Background(), Request{Path: "/x"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call for a 400, got %d", calls.Load())
	}
}

func TestDoStream(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		flusher := w.(http.Flusher)
		for _, part := range []string{`{"a":`, `1}{"b"`, `:2}`} {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	}, func(c *Config) { c.Timeout = 10 * time.Millisecond })

	resp, err := a.DoStream(context.Background(), Request{Method: http.MethodPost, Path: "/runs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != `{"a":1}{"b":2}` {
		t.Errorf("unexpected body %q", data)
	}
	if !strings.HasPrefix(resp.ContentType(), "application/json") {
		t.Errorf("unexpected content type %q", resp.ContentType())
	}
}

func TestDoStream_ErrorStatus(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"bad request"}`))
	})
	resp, err := a.DoStream(context.Background(), Request{Method: http.MethodPost, Path: "/runs"})
	if resp != nil {
		t.Error("expected no stream response")
	}
	var e *Error
	if !asError(err, &e) || e.StatusCode != 400 || e.Reason() != "bad request" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDoStream_ConnectionError(t *testing.T) {
	a, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = a.DoStream(context.Background(), Request{Path: "/runs"})
	if !IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for invalid base url")
	}
}

func TestDoStream_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"event":"RunStarted"}`))
	})

	resp, err := a.DoStream(context.Background(), Request{Method: http.MethodPost, Path: "/runs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(sr.Ended()); n != 0 {
		t.Fatalf("expected the span to stay open while the body is read, got %d ended", n)
	}
	_, _ = io.ReadAll(resp.Body)
	_ = resp.Close()
	_ = resp.Close()

	if _, err := a.DoStream(context.Background(), Request{Method: http.MethodGet, Path: "/missing"}); err == nil {
		t.Fatal("expected error for 404")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for i, want := range []int64{200, 404} {
		if spans[i].Name() != "http.request" {
			t.Errorf("expected http.request span, got %q", spans[i].Name())
		}
		var status int64
		for _, kv := range spans[i].Attributes() {
			if kv.Key == "http.response.status_code" {
				status = kv.Value.AsInt64()
			}
		}
		if status != want {
			t.Errorf("expected status %d on span %d, got %d", want, i, status)
		}
	}
}
