package stream

import (
	"net/http"

	"github.com/kbukum/chatstream/validation"
)

// Request describes a streaming request.
type Request struct {
	URL string `json:"url" validate:"required,url"`
	// Method defaults to POST.
	Method  string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH"`
	Headers map[string]string `json:"headers"`
	// Body is a *httpclient.MultipartBody, an httpclient.FormBody or any
	// JSON-serializable value. []byte and io.Reader bodies are sent as
	// already encoded JSON.
	Body any `json:"-"`
}

// Validate checks the request fields.
func (r Request) Validate() error {
	return validation.Validate(r)
}

// clone returns a copy with its own header map and the default method.
func (r Request) clone() Request {
	out := r
	if out.Method == "" {
		out.Method = http.MethodPost
	}
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	return out
}
