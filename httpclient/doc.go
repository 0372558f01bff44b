// Package httpclient is the HTTP transport used to talk to the playground
// backend.
//
// An Adapter resolves request paths against a base URL, encodes bodies,
// applies default headers and authentication, classifies failure statuses
// into *Error values and optionally retries idempotent calls. DoStream
// returns the open response body for incremental consumption.
//
// # Bodies
//
// Request.Body selects the encoding and the Content-Type header:
//
//   - *MultipartBody: multipart/form-data with a generated boundary
//   - FormBody: application/x-www-form-urlencoded
//   - string: text/plain
//   - []byte, io.Reader: sent as is, no Content-Type
//   - anything else: JSON, application/json
//
// A Content-Type set in the request headers always wins.
//
// # Usage
//
//	a, err := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8000"})
//	resp, err := httpclient.Get[[]Agent](a, ctx, "/v1/playground/agents")
package httpclient
