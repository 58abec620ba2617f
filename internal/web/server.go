// Package web provides the HTTP server and handlers for the CSV validation service.
package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/csvcheck/internal/config"
	"github.com/JonMunkholm/csvcheck/internal/core"
	mw "github.com/JonMunkholm/csvcheck/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RunIDHeader carries the ID of the validation run that produced a report.
const RunIDHeader = "X-Validation-Run-ID"

// HealthCheck probes a dependency for /healthz.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP server for the validation service.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
	dbCheck  HealthCheck
}

// Option configures a Server.
type Option func(*Server)

// WithDatabaseCheck reports database reachability on /healthz.
func WithDatabaseCheck(check HealthCheck) Option {
	return func(s *Server) { s.dbCheck = check }
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RunIDHeader, middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	validate := http.HandlerFunc(s.handleValidate)
	if s.cfg.Rate.Enabled && s.cfg.Rate.ValidateLimit > 0 {
		s.router.With(s.rateLimit(s.cfg.Rate.ValidateLimit)).Post("/validate", validate)
	} else {
		s.router.Post("/validate", validate)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleRecentRuns)
		r.Get("/uploads/status", s.handleUploadStatus)
	})
}

// rateLimit returns a per-IP limiter allowing rate requests per minute.
func (s *Server) rateLimit(rate int) func(http.Handler) http.Handler {
	rl := newRateLimiter(rate, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl.middleware(s)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", strings.Join([]string{
				"default-src 'self'",
				"style-src 'self' 'unsafe-inline'",
				"img-src 'self' data:",
				"form-action 'self'",
				"frame-ancestors 'none'",
			}, "; "))
		}

		next.ServeHTTP(w, r)
	})
}
