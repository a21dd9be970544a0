// Package web provides the HTTP server and handlers for the bulk editing UI and API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/devicebulk/internal/config"
	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/web/middleware"
)

// Server is the HTTP server for the bulk editing application.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	validate *validator.Validate
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
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

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes. Batch routes run without the request
// timeout; the service bounds them with the batch timeout instead.
func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

		// Pages
		r.Get("/", s.handleDashboard)
		r.Get("/tables/{name}", s.handleTableView)
		r.Get("/history", s.handleHistoryPage)
		r.Get("/settings", s.handleSettingsPage)
	})
	s.router.Post("/batches", s.handleBatchForm)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Post("/batches/{op}", s.handleBatch)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

			// Tables
			r.Get("/tables", s.handleListTables)
			r.Get("/tables/{name}", s.handleGetTable)
			r.Get("/tables/{name}/export", s.handleExportTable)
			r.Get("/batch-template", s.handleBatchTemplate)
			r.Post("/reload", s.handleReload)

			// Settings
			r.Get("/defaults", s.handleGetDefaults)
			r.Put("/defaults", s.handlePutDefaults)
			r.Get("/defaults/detected", s.handleDetectedDefaults)
			r.Get("/child-templates", s.handleGetTemplates)
			r.Put("/child-templates", s.handlePutTemplates)
			r.Get("/visibility", s.handleGetVisibility)
			r.Put("/visibility", s.handlePutVisibility)

			// History and status
			r.Get("/history", s.handleHistory)
			r.Get("/status", s.handleStatus)
			r.Get("/audit", s.handleAudit)
		})
	})
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

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
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
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
