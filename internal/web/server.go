// Package web provides the HTTP server and handlers for product import and export.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/catalogio/internal/config"
	"github.com/JonMunkholm/catalogio/internal/core"
	"github.com/JonMunkholm/catalogio/internal/web/middleware"
)

// Server is the HTTP server for the catalog import service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	// Per-IP limiters; nil when rate limiting is disabled.
	apiLimiter    *middleware.RateLimiter
	importLimiter *middleware.RateLimiter

	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewServer creates a Server for service configured by cfg.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cfg.Rate.Enabled {
		s.apiLimiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute)
		s.importLimiter = middleware.NewRateLimiter(cfg.Rate.ImportLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(s.securityHeaders)

	if s.apiLimiter != nil {
		s.router.Use(s.apiLimiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		// Progress streams stay open for the whole import.
		r.Get("/imports/{importID}/progress", s.handleImportProgress)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.requestTimeout()))

			if s.importLimiter != nil {
				r.With(s.importLimiter.Handler).Post("/imports", s.handleStartImport)
			} else {
				r.Post("/imports", s.handleStartImport)
			}
			r.Get("/imports/{importID}", s.handleImportResult)

			r.Get("/export", s.handleExport)
			r.Post("/export/publish", s.handlePublishExport)

			// {format} or {format}.xlsx
			r.Get("/templates/{format}", s.handleTemplate)
		})
	})
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.Server.RequestTimeout > 0 {
		return s.cfg.Server.RequestTimeout
	}
	return 60 * time.Second
}

// Start begins listening for HTTP requests and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	go s.pruneLimiters()

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// pruneLimiters drops idle clients from the rate limiters every minute.
func (s *Server) pruneLimiters() {
	if s.apiLimiter == nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.apiLimiter.Prune()
			s.importLimiter.Prune()
		case <-s.stop:
			return
		}
	}
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Responses are data and HTMX fragments; nothing needs to load from them.
		if s.cfg.Security.EnableCSP {
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
