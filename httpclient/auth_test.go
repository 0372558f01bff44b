package httpclient

import (
	"context"
	"net/http"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	auth := BearerAuth("my-token")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer my-token" {
		t.Errorf("got %q, want %q", got, "Bearer my-token")
	}
}

func TestBearerAuth_EmptyToken(t *testing.T) {
	auth := BearerAuth("")
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestRequestAuth_OverridesDefault(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "gateway" {
			t.Errorf("expected static header, got %q", got)
		}
	}, func(c *Config) {
		c.Auth = BearerAuth("default")
		c.Headers = map[string]string{"X-Api-Key": "gateway"}
	})
	if _, err := Get[struct{}](a, context.Background(), "/login", WithRequestAuth(BearerAuth(""))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNilAuth(t *testing.T) {
	var auth *AuthConfig
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	auth.apply(req)
	if len(req.Header) != 0 {
		t.Errorf("expected no headers, got %v", req.Header)
	}
}
