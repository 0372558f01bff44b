package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/resilience"
	"github.com/kbukum/chatstream/version"
)

// Adapter is a configured HTTP client with auth, TLS and optional retries.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	userAgent  string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for request logging.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.WithComponent("httpclient")
		}
	}
}

// WithTransport replaces the HTTP round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) {
		a.httpClient.Transport = rt
	}
}

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is kept
// for Do; DoStream only reuses its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(a *Adapter) {
		a.userAgent = ua
	}
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config:    cfg,
		log:       logger.Nop(),
		userAgent: version.UserAgent(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Do executes an HTTP request and returns the complete response. Non-2xx
// responses are returned together with a classified *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry != nil {
		cfg := *a.config.Retry
		if cfg.RetryIf == nil {
			cfg.RetryIf = IsRetryable
		}
		if cfg.OnRetry == nil {
			cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
				a.log.Warn("retrying request", map[string]interface{}{
					logger.FieldMethod: req.Method,
					logger.FieldPath:   req.Path,
					"attempt":          attempt,
					logger.FieldError:  err.Error(),
					"wait_ms":          wait.Milliseconds(),
				})
			}
		}
		var last *Response
		_, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
			resp, err := a.execute(ctx, req)
			last = resp
			return resp, err
		})
		return last, err
	}
	return a.execute(ctx, req)
}

// DoStream executes an HTTP request and returns the open response body.
// The request is bounded by ctx only. A non-2xx status is returned as an
// *Error with the body read up to a bounded size. Retries are not applied.
// The caller must close the returned StreamResponse.
func (a *Adapter) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest,
		attribute.String("http.request.method", req.Method),
		attribute.String(observability.AttrURL, a.resolve(req.Path)),
	)

	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}

	streamClient := &http.Client{Transport: a.httpClient.Transport}
	start := time.Now()
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, a.transportError(ctx, req, err)
	}
	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		classified := ClassifyStatusCode(resp.StatusCode, body)
		span.SetStatus(codes.Error, classified.Reason())
		span.End()
		a.logResponse(req, resp.StatusCode, time.Since(start), classified)
		return nil, classified
	}
	a.logResponse(req, resp.StatusCode, time.Since(start), nil)

	return &StreamResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       &spanBody{ReadCloser: resp.Body, span: span},
	}, nil
}

// spanBody ends the request span when the streamed body is closed.
type spanBody struct {
	io.ReadCloser
	span trace.Span
	once sync.Once
}

func (b *spanBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() { b.span.End() })
	return err
}

// Unwrap returns the underlying *http.Client.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Config returns the adapter's configuration.
func (a *Adapter) Config() Config {
	return a.config
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

func (a *Adapter) execute(ctx context.Context, req Request) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest,
		attribute.String("http.request.method", req.Method),
		attribute.String(observability.AttrURL, a.resolve(req.Path)),
	)
	defer span.End()

	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, a.transportError(ctx, req, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}
	if classified := ClassifyStatusCode(resp.StatusCode, body); classified != nil {
		span.SetStatus(codes.Error, classified.Reason())
		a.logResponse(req, resp.StatusCode, time.Since(start), classified)
		return result, classified
	}
	a.logResponse(req, resp.StatusCode, time.Since(start), nil)
	return result, nil
}

func (a *Adapter) transportError(ctx context.Context, req Request, err error) *Error {
	var e *Error
	if ctx.Err() != nil {
		e = NewTimeoutError(err)
	} else {
		e = NewConnectionError(err)
	}
	a.log.Debug("request failed", map[string]interface{}{
		logger.FieldMethod: req.Method,
		logger.FieldPath:   req.Path,
		logger.FieldError:  err.Error(),
	})
	return e
}

func (a *Adapter) logResponse(req Request, status int, d time.Duration, err *Error) {
	fields := logger.MergeWithDuration(map[string]interface{}{
		logger.FieldMethod: req.Method,
		logger.FieldPath:   req.Path,
		logger.FieldStatus: status,
	}, d)
	if err != nil {
		fields[logger.FieldError] = err.Reason()
	}
	a.log.Debug("request completed", fields)
}

func (a *Adapter) resolve(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, a.resolve(req.Path), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	if a.userAgent != "" {
		httpReq.Header.Set("User-Agent", a.userAgent)
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case *MultipartBody:
		return v.encode()
	case FormBody:
		return strings.NewReader(v.encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
