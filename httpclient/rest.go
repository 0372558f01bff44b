package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// TypedResponse is a 2xx response with its JSON body decoded into Data.
type TypedResponse[T any] struct {
	StatusCode int
	Headers    map[string]string
	Data       T
}

// RequestOption adjusts one request before it is sent.
type RequestOption func(*Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam sets a query parameter.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithRequestAuth replaces the adapter's auth for one request. BearerAuth("")
// sends the request without credentials.
func WithRequestAuth(auth *AuthConfig) RequestOption {
	return func(r *Request) { r.Auth = auth }
}

func Get[T any](a *Adapter, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return Send[T](a, ctx, Request{Method: http.MethodGet, Path: path}, opts...)
}

func Post[T any](a *Adapter, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return Send[T](a, ctx, Request{Method: http.MethodPost, Path: path, Body: body}, opts...)
}

func Delete[T any](a *Adapter, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return Send[T](a, ctx, Request{Method: http.MethodDelete, Path: path}, opts...)
}

// Send runs req and decodes the body into T. An empty body or a 204 leaves
// Data at its zero value. Failure statuses return the classified *Error;
// an undecodable body names its media type when that is not JSON.
func Send[T any](a *Adapter, ctx context.Context, req Request, opts ...RequestOption) (*TypedResponse[T], error) {
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers}
	body := bytes.TrimSpace(resp.Body)
	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out.Data); err != nil {
		if mt, _, perr := mime.ParseMediaType(resp.Headers["Content-Type"]); perr == nil && mt != "application/json" {
			return nil, fmt.Errorf("httpclient: expected a JSON response, got %s", mt)
		}
		return nil, fmt.Errorf("httpclient: decode response: %w", err)
	}
	return out, nil
}
