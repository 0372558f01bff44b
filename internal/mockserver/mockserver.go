package mockserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kbukum/chatstream/auth"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/server"
)

// DefaultUsers are the users added when Config.SeedUsers is set.
var DefaultUsers = []struct {
	User
	Password string
}{
	{User{Username: "manager", Role: "manager", Location: "NY", Description: "Manages operations"}, "manager123"},
	{User{Username: "finance", Role: "finance", Location: "London", Description: "Handles finance"}, "finance123"},
	{User{Username: "operations", Role: "operations", Location: "Delhi", Description: "Runs operations"}, "operations123"},
	{User{Username: "planner", Role: "planner", Location: "Berlin", Description: "Plans logistics"}, "planner123"},
}

// Server is the mock playground backend.
type Server struct {
	srv    *server.Server
	store  *Store
	hasher auth.Hasher
	log    *logger.Logger
}

type serverOptions struct {
	agents  []Agent
	store   *Store
	metrics *observability.RequestMetrics
}

// Option configures a Server.
type Option func(*serverOptions)

// WithAgent registers an agent. The first agent also answers
// /send-message. Without agents an EchoAgent with ID "echo" is used.
func WithAgent(a Agent) Option {
	return func(o *serverOptions) { o.agents = append(o.agents, a) }
}

// WithStore uses s instead of an empty store.
func WithStore(s *Store) Option {
	return func(o *serverOptions) { o.store = s }
}

// WithRequestMetrics records request metrics.
func WithRequestMetrics(m *observability.RequestMetrics) Option {
	return func(o *serverOptions) { o.metrics = m }
}

// New creates the mock backend.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.agents) == 0 {
		o.agents = []Agent{NewEchoAgent("echo")}
	}
	if o.store == nil {
		o.store = NewStore()
	}

	tokens, err := auth.NewTokenService(cfg.Token)
	if err != nil {
		return nil, err
	}

	s := &Server{
		srv:    server.New(cfg.Server, log),
		store:  o.store,
		hasher: auth.NewBcryptHasher(auth.WithCost(cfg.BcryptCost)),
		log:    log.WithComponent("mockserver"),
	}
	if cfg.SeedUsers {
		for _, du := range DefaultUsers {
			if _, err := s.AddUser(du.User, du.Password); err != nil {
				return nil, err
			}
		}
	}

	h := &handlers{
		cfg:    cfg,
		store:  o.store,
		tokens: tokens,
		hasher: s.hasher,
		agents: make(map[string]Agent, len(o.agents)),
		log:    s.log,
	}
	for _, a := range o.agents {
		id := a.Info().AgentID
		if _, dup := h.agents[id]; dup {
			return nil, fmt.Errorf("mockserver: duplicate agent %q", id)
		}
		h.agents[id] = a
		h.order = append(h.order, id)
	}

	s.srv.ApplyMiddleware()
	h.register(s.srv.GinEngine(), o.metrics)
	return s, nil
}

// AddUser hashes password and registers u.
func (s *Server) AddUser(u User, password string) (User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, fmt.Errorf("mockserver: add user %s: %w", u.Username, err)
	}
	u.PasswordHash = hash
	return s.store.AddUser(u), nil
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler()
}

// Start serves on the configured address.
func (s *Server) Start(ctx context.Context) error {
	return s.srv.Start(ctx)
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Stop(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr()
}
