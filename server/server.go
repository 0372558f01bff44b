package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/server/middleware"
)

// Server is an HTTP server backed by Gin.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger
	listener   net.Listener
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Nop()
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine: engine,
		mux:    mux,
		config: cfg,
		log:    log.WithComponent("server"),
	}
	s.handler = mux
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// ApplyMiddleware wraps the root handler with recovery, request IDs, CORS,
// the body size limit and request logging, outermost first.
func (s *Server) ApplyMiddleware() {
	chain := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
	}
	if s.config.MaxBodyBytes > 0 {
		chain = append(chain, middleware.BodySizeLimit(s.config.MaxBodyBytes))
	}
	chain = append(chain, middleware.RequestLogger(s.log))
	s.handler = middleware.Chain(chain...)(s.mux)
}

// Handler returns the full handler stack with h2c support.
func (s *Server) Handler() http.Handler {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          time.Duration(s.config.IdleTimeout) * time.Second,
	}
	return h2c.NewHandler(s.handler, h2s)
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener
	s.httpServer.Handler = s.Handler()
	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": s.Addr(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
