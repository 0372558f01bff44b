package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/chatstream/httpclient"
)

// Body is an open response body.
type Body struct {
	io.ReadCloser
	// ContentType is the response Content-Type header, used to pick the
	// charset.
	ContentType string
}

// Transport opens streaming requests. Open returns an error for send
// failures and non-success statuses; an *httpclient.Error keeps its
// response reason.
type Transport interface {
	Open(ctx context.Context, req Request) (*Body, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (*Body, error)

// Open calls f.
func (f TransportFunc) Open(ctx context.Context, req Request) (*Body, error) {
	return f(ctx, req)
}

// HTTPTransport opens requests with an httpclient.Adapter.
type HTTPTransport struct {
	adapter *httpclient.Adapter
}

// NewHTTPTransport creates a Transport backed by adapter.
func NewHTTPTransport(adapter *httpclient.Adapter) *HTTPTransport {
	return &HTTPTransport{adapter: adapter}
}

// Open sends req and returns the body of a 2xx response. Bodies other than
// multipart and form bodies are sent as JSON: a []byte, json.RawMessage or
// io.Reader is taken as already encoded, anything else (strings included)
// is marshaled. Content-Type defaults to application/json for them.
func (t *HTTPTransport) Open(ctx context.Context, req Request) (*Body, error) {
	body, err := jsonBody(req.Body)
	if err != nil {
		return nil, httpclient.NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	headers := req.Headers
	if body != nil && !isForm(body) && !hasHeader(headers, "Content-Type") {
		headers = make(map[string]string, len(req.Headers)+1)
		for k, v := range req.Headers {
			headers[k] = v
		}
		headers["Content-Type"] = "application/json"
	}

	resp, err := t.adapter.DoStream(ctx, httpclient.Request{
		Method:  req.Method,
		Path:    req.URL,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}
	return &Body{ReadCloser: resp.Body, ContentType: resp.ContentType()}, nil
}

func isForm(body any) bool {
	switch body.(type) {
	case *httpclient.MultipartBody, httpclient.FormBody:
		return true
	}
	return false
}

func jsonBody(body any) (any, error) {
	switch v := body.(type) {
	case nil, *httpclient.MultipartBody, httpclient.FormBody, io.Reader:
		return body, nil
	case json.RawMessage:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
