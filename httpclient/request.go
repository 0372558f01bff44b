package httpclient

import (
	"io"
	"net/url"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is resolved against BaseURL unless it is an absolute URL.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is encoded according to its type; see the package docs.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// FormBody is an application/x-www-form-urlencoded body.
type FormBody map[string]string

func (f FormBody) encode() string {
	v := make(url.Values, len(f))
	for key, value := range f {
		v.Set(key, value)
	}
	return v.Encode()
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StreamResponse is a successful response whose body has not been read.
// The caller must close it.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       io.ReadCloser
}

// ContentType returns the response Content-Type header.
func (r *StreamResponse) ContentType() string {
	return r.Headers["Content-Type"]
}

// Close releases the connection.
func (r *StreamResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
