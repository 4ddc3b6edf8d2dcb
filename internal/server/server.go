// Package server provides the HTTP server for the SOAP web service.
//
// The server exposes:
//
// # SOAP Endpoint
//
// POST {basePath} - Receives SOAP 1.1 and 1.2 messages. Requests carrying a
// WS-Security UsernameToken are authenticated against the configured user
// store before reaching the endpoint, which echoes the request.
//
// # User Administration (requires X-Admin-Key)
//
//   - GET    /admin/users            - List usernames
//   - POST   /admin/users            - Create a user
//   - GET    /admin/users/{username} - Get a user
//   - DELETE /admin/users/{username} - Delete a user
//
// # Health & Metrics
//
//   - GET /health  - Liveness probe
//   - GET /ready   - Readiness probe (pings the user store)
//   - GET /metrics - Prometheus metrics (if enabled)
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goodstudio/spring-projects-spring-ws/internal/config"
	"github.com/goodstudio/spring-projects-spring-ws/internal/storage"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/transport"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/wss"
)

// Server is the SOAP web service HTTP server
type Server struct {
	config      *config.Config
	logger      *slog.Logger
	httpSrv     *http.Server
	store       storage.UserStore
	cache       authn.UserCache
	encoder     authn.PasswordEncoder
	interceptor *wss.Interceptor
	soap        *transport.HTTPServer
}

// New creates a new server. A nil cache disables user caching.
func New(ctx context.Context, cfg *config.Config, store storage.UserStore, cache authn.UserCache, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = authn.NopUserCache{}
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		store:   store,
		cache:   cache,
		encoder: newEncoder(&cfg.Security),
	}

	if err := s.seedUsers(ctx); err != nil {
		return nil, fmt.Errorf("seeding users: %w", err)
	}

	// Initialize WS-Security
	provider := authn.NewDAOProvider(store, s.encoder,
		authn.WithUserCache(cache),
		authn.WithProviderLogger(logger),
	)
	manager := authn.NewProviderManager(logger, provider)

	handler, err := wss.NewPasswordValidationHandler(manager,
		wss.WithIgnoreFailure(cfg.Security.IgnoreFailure),
		wss.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing password validation: %w", err)
	}

	s.interceptor, err = wss.NewInterceptor(&wss.InterceptorConfig{
		ValidationHandler:    handler,
		RequireUsernameToken: cfg.Security.Required,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing security interceptor: %w", err)
	}

	s.soap = transport.NewHTTPServer("", nil, s.interceptor.Wrap(transport.EchoReceiver()),
		transport.WithPath(s.basePath()),
		transport.WithServerLogger(logger),
	)

	// Set up HTTP routes
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func newEncoder(cfg *config.SecurityConfig) authn.PasswordEncoder {
	if cfg.PasswordEncoder == config.EncoderPlain {
		return authn.NoopEncoder{}
	}
	return authn.NewBcryptEncoder(cfg.BcryptCost)
}

// seedUsers stores the users listed in the configuration, encoding their passwords
func (s *Server) seedUsers(ctx context.Context) error {
	for _, u := range s.config.Security.Users {
		password, err := s.encodePassword(u.Password)
		if err != nil {
			return fmt.Errorf("encoding password for %s: %w", u.Username, err)
		}
		user := &storage.User{
			Username:    u.Username,
			Password:    password,
			Authorities: u.Authorities,
			Disabled:    u.Disabled,
			Locked:      u.Locked,
		}
		if err := s.store.SaveUser(ctx, user); err != nil {
			return err
		}
		s.cache.Remove(ctx, u.Username)
	}
	if n := len(s.config.Security.Users); n > 0 {
		s.logger.Info("seeded users", "count", n)
	}
	return nil
}

// encodePassword encodes raw unless it already is a bcrypt hash
func (s *Server) encodePassword(raw string) (string, error) {
	if _, ok := s.encoder.(*authn.BcryptEncoder); ok && isBcryptHash(raw) {
		return raw, nil
	}
	return s.encoder.Encode(raw)
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func (s *Server) basePath() string {
	basePath := strings.TrimSuffix(s.config.Server.BasePath, "/")
	if basePath == "" {
		basePath = "/ws"
	}
	return basePath
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins listening on the specified address
func (s *Server) Start(addr string) error {
	s.httpSrv.Addr = addr
	s.logger.Info("starting server", "addr", addr, "path", s.basePath(), "tls", s.config.Server.TLS.Enabled)
	if s.config.Server.TLS.Enabled {
		return s.httpSrv.ListenAndServeTLS(
			s.config.Server.TLS.CertFile,
			s.config.Server.TLS.KeyFile,
		)
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	if s.store != nil {
		return s.store.Close(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	if s.config.Metrics.Metrics.Enabled {
		mux.Handle("GET "+s.config.Metrics.Metrics.Path, promhttp.Handler())
	}

	// SOAP endpoint (secured by WS-Security)
	mux.Handle(s.basePath(), s.soap.Handler())

	// User management API (admin-only)
	mux.HandleFunc("GET /admin/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("POST /admin/users", s.withAdmin(s.handleCreateUser))
	mux.HandleFunc("GET /admin/users/{username}", s.withAdmin(s.handleGetUser))
	mux.HandleFunc("DELETE /admin/users/{username}", s.withAdmin(s.handleDeleteUser))
}

// Middleware

// withAdmin requires the configured admin API key
func (s *Server) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-Admin-Key")
		adminKey := s.config.Server.AdminKey
		if apiKey == "" || adminKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) != 1 {
			s.jsonError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.jsonError(w, "user store not ready", http.StatusServiceUnavailable)
		return
	}
	s.jsonResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
}

// User handlers

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.jsonResponse(w, map[string][]string{"users": names}, http.StatusOK)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	password, err := s.encoder.Encode(req.Password)
	if err != nil {
		s.logger.Error("failed to encode password", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	user := &storage.User{
		Username:    req.Username,
		Password:    password,
		Authorities: req.Authorities,
		Disabled:    req.Disabled,
		Locked:      req.Locked,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			s.jsonError(w, "user already exists", http.StatusConflict)
			return
		}
		s.logger.Error("failed to create user", "error", err)
		s.jsonError(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	s.logger.Info("user created", "username", user.Username)
	s.jsonResponse(w, user, http.StatusCreated)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	user, err := s.store.GetUser(r.Context(), username)
	if err != nil {
		s.logger.Error("failed to get user", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		s.jsonError(w, "user not found", http.StatusNotFound)
		return
	}

	s.jsonResponse(w, user, http.StatusOK)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if err := s.store.DeleteUser(r.Context(), username); err != nil {
		s.logger.Error("failed to delete user", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.cache.Remove(r.Context(), username)

	w.WriteHeader(http.StatusNoContent)
}

// Request/Response types

type CreateUserRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Authorities []string `json:"authorities,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
	Locked      bool     `json:"locked,omitempty"`
}

// Helpers

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	s.jsonResponse(w, map[string]string{"error": message}, status)
}
