package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the jukebox backend.
// Implementations handle specific endpoints (authentication, health, one entity resource).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

var _ Router = (*BasicRouter)(nil)

// Options configures [New].
type Options struct {
	Config      shared.ServerConfig
	Development bool
	Logger      *log.Logger
}

// Server is the REST backend: the catalogue resources, authentication and health, behind the middleware stack.
type Server struct {
	router *BasicRouter
	http   *http.Server
	logger *log.Logger
}

// New wires the repositories for db into a router.
//
// Middleware runs outermost first: recovery, request logging, security headers, rate limiting, CORS, then
// bearer authentication on every route except authentication and health.
func New(db *sql.DB, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	cfg := opts.Config

	tokens, err := NewTokenProvider(cfg.JWTSecret, cfg.TokenValidity, cfg.TokenValidityRememberMe)
	if err != nil {
		return nil, err
	}

	router := NewBasicRouter()
	router.Use(
		Recoverer(logger),
		RequestLogger(logger),
		SecureHeaders(opts.Development),
		RateLimit(cfg.RateLimit, cfg.RateWindow),
		CORS(cfg.CORSOrigins),
	)

	router.Handler(NewHealthHandler(db))
	router.Handler(NewAuthHandler(repositories.NewUserRepository(db), tokens, logger))

	api := router.With(Authenticate(tokens, models.RoleUser))
	api.Handler(NewEntityHandler[models.Album](repositories.NewAlbumRepository(db), "album", "albums", logger))
	api.Handler(NewEntityHandler[models.Singer](repositories.NewSingerRepository(db), "singer", "singers", logger))
	api.Handler(NewEntityHandler[models.Song](repositories.NewSongRepository(db), "song", "songs", logger))

	return &Server{
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe serves until [Server.Shutdown] is called, which is not reported as an error.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until [Server.Shutdown] is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.http.Shutdown(ctx)
}
