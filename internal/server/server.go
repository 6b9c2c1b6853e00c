// Package server provides the HTTP server and routing for the frontier
// engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	comparatorhandlers "github.com/aristath/frontier/internal/modules/comparator/handlers"
	historyhandlers "github.com/aristath/frontier/internal/modules/history/handlers"
	loaderhandlers "github.com/aristath/frontier/internal/modules/loader/handlers"
	optimizerhandlers "github.com/aristath/frontier/internal/modules/optimizer/handlers"
	portfoliohandlers "github.com/aristath/frontier/internal/modules/portfolio/handlers"
)

// Config holds server configuration
type Config struct {
	Log                zerolog.Logger
	Cfg                *config.Config
	HistoryDB          *database.DB
	CacheDB            *database.DB
	OptimizerHandlers  *optimizerhandlers.Handler
	ComparatorHandlers *comparatorhandlers.Handler
	PortfolioHandlers  *portfoliohandlers.Handler
	LoaderHandlers     *loaderhandlers.Handler
	HistoryHandlers    *historyhandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	systemHandlers *SystemHandlers
	cfg            Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.HistoryDB, cfg.CacheDB),
		cfg:            cfg,
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler: s.router,
		// Simulation runs with large K take a while; the write timeout
		// has to cover a full 1M-candidate batch.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if devMode {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		s.cfg.OptimizerHandlers.RegisterRoutes(r)
		s.cfg.ComparatorHandlers.RegisterRoutes(r)
		s.cfg.PortfolioHandlers.RegisterRoutes(r)
		s.cfg.LoaderHandlers.RegisterRoutes(r)
		s.cfg.HistoryHandlers.RegisterRoutes(r)

		r.Get("/system/health", s.systemHandlers.HandleHealth)
		r.Get("/system/info", s.systemHandlers.HandleInfo)
	})
}

// Start begins serving HTTP requests, blocking until shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
