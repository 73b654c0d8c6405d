package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerlink/internal/api/handlers"
	"ledgerlink/internal/api/middleware"
	"ledgerlink/internal/infrastructure/storage"
	"ledgerlink/internal/invoicing"
	"ledgerlink/internal/reconcile"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	reconciler *reconcile.Service
	invoicer   *invoicing.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, reconciler *reconcile.Service, invoicer *invoicing.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:     cfg,
		router:     chi.NewRouter(),
		logger:     logger,
		repo:       repo,
		reconciler: reconciler,
		invoicer:   invoicer,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Transactions, suggestions, auto-reconcile
		transactionsHandler := handlers.NewTransactionsHandler(s.repo, s.reconciler)
		r.Get("/transactions", transactionsHandler.List)
		r.Get("/transactions/{id}", transactionsHandler.Get)
		r.Get("/transactions/{id}/suggestions", transactionsHandler.Suggestions)
		r.Post("/transactions/{id}/auto-reconcile", transactionsHandler.AutoReconcile)

		// Reconciliations
		reconciliationsHandler := handlers.NewReconciliationsHandler(s.reconciler)
		r.Post("/reconciliations", reconciliationsHandler.Create)
		r.Get("/reconciliations", reconciliationsHandler.List)
		r.Get("/reconciliations/stats", reconciliationsHandler.Stats)

		// Invoices
		invoicesHandler := handlers.NewInvoicesHandler(s.invoicer)
		r.Post("/invoices", invoicesHandler.Create)
		r.Get("/invoices", invoicesHandler.List)
		r.Get("/invoices/{id}", invoicesHandler.Get)
		r.Patch("/invoices/{id}", invoicesHandler.Update)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
