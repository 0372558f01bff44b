package playground

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	apperrors "github.com/kbukum/chatstream/errors"
	"github.com/kbukum/chatstream/httpclient"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/resilience"
	"github.com/kbukum/chatstream/stream"
)

const service = "playground"

// Client talks to a playground backend.
type Client struct {
	cfg     Config
	http    *httpclient.Adapter
	streams *stream.Client
	log     *logger.Logger

	mu    sync.RWMutex
	token string
}

type clientOptions struct {
	log        *logger.Logger
	streamOpts []stream.Option
	httpOpts   []httpclient.Option
	retry      *resilience.RetryConfig
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger for REST calls and stream sessions.
func WithLogger(l *logger.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithStreamOptions sets options applied to every StreamRun session.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(o *clientOptions) { o.streamOpts = append(o.streamOpts, opts...) }
}

// WithHTTPOptions passes options to the underlying httpclient.Adapter.
func WithHTTPOptions(opts ...httpclient.Option) Option {
	return func(o *clientOptions) { o.httpOpts = append(o.httpOpts, opts...) }
}

// WithRetry enables retries for REST calls. StreamRun is never retried.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *clientOptions) { o.retry = &cfg }
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}

	httpCfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: cfg.Headers,
	}
	if o.retry != nil {
		retry := *o.retry
		if retry.RetryIf == nil {
			retry.RetryIf = httpclient.IsRetryable
		}
		httpCfg.Retry = &retry
	}
	adapter, err := httpclient.New(httpCfg, append([]httpclient.Option{httpclient.WithLogger(o.log)}, o.httpOpts...)...)
	if err != nil {
		return nil, err
	}

	streamOpts := append([]stream.Option{stream.WithLogger(o.log)}, o.streamOpts...)
	return &Client{
		cfg:     cfg,
		http:    adapter,
		streams: stream.New(stream.NewHTTPTransport(adapter), streamOpts...),
		log:     o.log.WithComponent(service),
		token:   cfg.Token,
	}, nil
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token. An empty token logs out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Streams returns the stream client used by StreamRun.
func (c *Client) Streams() *stream.Client {
	return c.streams
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Status returns the status code of /v1/playground/status. A backend that
// cannot be reached reports 503.
func (c *Client) Status(ctx context.Context) (int, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/v1/playground/status"})
	if resp != nil {
		return resp.StatusCode, nil
	}
	if err != nil && ctx.Err() != nil {
		return 0, ctx.Err()
	}
	c.log.Debug("playground unreachable", map[string]interface{}{logger.FieldError: errString(err)})
	return http.StatusServiceUnavailable, nil
}

// Agents lists the agents of the playground.
func (c *Client) Agents(ctx context.Context) ([]Agent, error) {
	resp, err := httpclient.Get[[]Agent](c.http, ctx, "/v1/playground/agents")
	if err != nil {
		return nil, convert(err)
	}
	return resp.Data, nil
}

// ComboboxAgents lists the agents shaped for a picker.
func (c *Client) ComboboxAgents(ctx context.Context) ([]ComboboxAgent, error) {
	agents, err := c.Agents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ComboboxAgent, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.combobox())
	}
	return out, nil
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	if username == "" {
		return nil, apperrors.MissingField("username")
	}
	resp, err := httpclient.Post[Token](c.http, ctx, "/login",
		httpclient.FormBody{"username": username, "password": password},
		httpclient.WithRequestAuth(httpclient.BearerAuth("")),
	)
	if err != nil {
		return nil, convert(err)
	}
	c.SetToken(resp.Data.AccessToken)
	c.log.Debug("logged in", map[string]interface{}{"username": username, "role": resp.Data.Role})
	return &resp.Data, nil
}

// NewSession creates an empty session.
func (c *Client) NewSession(ctx context.Context) (*SessionOut, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Post[SessionOut](c.http, ctx, "/new-session", nil, auth)
	if err != nil {
		return nil, convert(err)
	}
	return &resp.Data, nil
}

// Sessions lists the user's sessions, newest first.
func (c *Client) Sessions(ctx context.Context) ([]SessionEntry, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Get[[]SessionOut](c.http, ctx, "/sessions", auth)
	if err != nil {
		return nil, convert(err)
	}
	out := make([]SessionEntry, 0, len(resp.Data))
	for _, s := range resp.Data {
		out = append(out, SessionEntry{
			SessionID: s.SessionID,
			Title:     s.SessionName,
			CreatedAt: s.CreatedAt.Unix(),
		})
	}
	return out, nil
}

// SessionSummaries lists the user's sessions with message counts.
func (c *Client) SessionSummaries(ctx context.Context) ([]SessionSummary, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Get[[]SessionSummary](c.http, ctx, "/get-sessions", auth)
	if err != nil {
		return nil, convert(err)
	}
	return resp.Data, nil
}

// Session returns one session with its messages.
func (c *Client) Session(ctx context.Context, id string) (*SessionDetail, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Get[SessionDetail](c.http, ctx, "/sessions/"+url.PathEscape(id), auth)
	if err != nil {
		return nil, convert(err)
	}
	return &resp.Data, nil
}

// DeleteSession deletes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	auth, err := c.auth()
	if err != nil {
		return err
	}
	_, err = httpclient.Delete[map[string]string](c.http, ctx, "/delete-session/"+url.PathEscape(id), auth)
	return convert(err)
}

// Chats returns the messages of one session in order.
func (c *Client) Chats(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Get[[]ChatMessage](c.http, ctx, "/chats/"+url.PathEscape(sessionID), auth)
	if err != nil {
		return nil, convert(err)
	}
	return resp.Data, nil
}

// Messages returns every message of the user in order.
func (c *Client) Messages(ctx context.Context) ([]ChatMessage, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.Get[[]ChatMessage](c.http, ctx, "/get-messages", auth)
	if err != nil {
		return nil, convert(err)
	}
	return resp.Data, nil
}

type sendMessageBody struct {
	Text      string  `json:"text"`
	SessionID *string `json:"session_id"`
}

// SendMessage sends text to the agent and returns both stored messages. An
// empty sessionID starts a new session.
func (c *Client) SendMessage(ctx context.Context, text, sessionID string) (*SendResult, error) {
	auth, err := c.auth()
	if err != nil {
		return nil, err
	}
	body := sendMessageBody{Text: text}
	if sessionID != "" {
		body.SessionID = &sessionID
	}
	resp, err := httpclient.Post[SendResult](c.http, ctx, "/send-message", body, auth)
	if err != nil {
		return nil, convert(err)
	}
	return &resp.Data, nil
}

// RunStreamRequest builds the streaming request for an agent run.
func (c *Client) RunStreamRequest(req RunRequest) (stream.Request, error) {
	agent := req.AgentID
	if agent == "" {
		agent = c.cfg.AgentID
	}
	if agent == "" {
		return stream.Request{}, apperrors.MissingField("agent_id")
	}
	target, err := url.JoinPath(c.cfg.BaseURL, "v1/playground/agents", agent, "runs")
	if err != nil {
		return stream.Request{}, apperrors.InvalidInput("agent_id", err.Error())
	}

	body := &httpclient.MultipartBody{Fields: map[string]string{
		"message":    req.Message,
		"stream":     "true",
		"monitor":    "false",
		"session_id": req.SessionID,
	}}
	for _, f := range req.Files {
		body.Files = append(body.Files, httpclient.FileField{
			FieldName:   "files",
			FileName:    f.Name,
			ContentType: f.ContentType,
			Data:        f.Data,
		})
	}

	out := stream.Request{URL: target, Method: http.MethodPost, Body: body}
	if token := c.Token(); token != "" {
		out.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return out, nil
}

// StreamRun posts an agent run and dispatches each RunResponse object to h
// as it arrives. It blocks until the session ends.
func (c *Client) StreamRun(ctx context.Context, req RunRequest, h stream.Handlers, opts ...stream.Option) stream.Outcome {
	sreq, err := c.RunStreamRequest(req)
	if err != nil {
		f := &stream.Failure{Kind: stream.KindTransport, Reason: err.Error(), Err: err}
		if h.OnError != nil {
			h.OnError(f)
		}
		return stream.Outcome{Status: stream.OutcomeFailed, Failure: f}
	}
	return c.streams.Run(ctx, sreq, h, opts...)
}

func (c *Client) auth() (httpclient.RequestOption, error) {
	token := c.Token()
	if token == "" {
		return nil, apperrors.Unauthorized("")
	}
	return httpclient.WithRequestAuth(httpclient.BearerAuth(token)), nil
}

// convert maps httpclient errors to AppErrors carrying the backend reason.
func convert(err error) error {
	if err == nil {
		return nil
	}
	var he *httpclient.Error
	if !errors.As(err, &he) {
		return err
	}
	switch {
	case he.StatusCode > 0:
		return apperrors.Upstream(he.StatusCode, he.Reason()).WithCause(err)
	case he.Code == httpclient.ErrCodeTimeout:
		return apperrors.Timeout(service + " request").WithCause(err)
	default:
		return apperrors.ConnectionFailed(service, err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
