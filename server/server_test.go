package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/chatstream/errors"
	"github.com/kbukum/chatstream/logger"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop())
	s.ApplyMiddleware()
	s.GinEngine().GET("/ok", func(c *gin.Context) { RespondOK(c, gin.H{"ok": true}) })
	s.GinEngine().GET("/missing", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("Session", "x"))
	})
	s.GinEngine().GET("/boom", func(c *gin.Context) {
		RespondWithError(c, fmt.Errorf("database exploded"))
	})
	s.GinEngine().GET("/panic", func(c *gin.Context) { panic("boom") })
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Header
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/ok", 200, `{"ok":true}`},
		{"/missing", 404, `{"detail":"Session not found"}`},
		{"/boom", 500, `{"detail":"internal server error"}`},
		{"/panic", 500, "{\"detail\":\"Internal Server Error\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body, header := get(t, ts.URL+tt.path)
			if status != tt.wantStatus || body != tt.wantBody {
				t.Errorf("expected %d %s, got %d %s", tt.wantStatus, tt.wantBody, status, body)
			}
			if header.Get("X-Request-Id") == "" {
				t.Error("expected X-Request-Id header")
			}
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop())
	s.GinEngine().GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.httpServer.Addr = "127.0.0.1:0"
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status, body, _ := get(t, "http://"+s.Addr()+"/ok")
	if status != 200 || body != "ok" {
		t.Errorf("expected 200 ok, got %d %q", status, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Port != 8000 || cfg.WriteTimeout != 0 || cfg.MaxBodyBytes != 10<<20 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid port")
	}
}
