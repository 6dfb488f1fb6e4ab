package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pr-radar/internal/auth"
	"pr-radar/internal/core"
	"pr-radar/internal/features/radar"
	"pr-radar/internal/server/handlers"
)

type Server struct {
	config      *core.Config
	logger      *core.Logger
	db          *core.Database
	authService *auth.Service
	registry    *core.Registry
	server      *http.Server
}

// New wires the database, features and routes for config
func New(config *core.Config, logger *core.Logger) (*Server, error) {
	db, err := core.OpenSQLite(config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(logger, config.Auth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	registry := core.NewRegistry(logger)

	if config.IsFeatureEnabled("radar") {
		radarFeature, err := radar.NewFeature(logger, db, radar.NewConfig(config))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create radar feature: %w", err)
		}
		if err := registry.Register(radarFeature); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to register radar feature: %w", err)
		}
	}

	srv := &Server{
		config:      config,
		logger:      logger,
		db:          db,
		authService: authService,
		registry:    registry,
	}

	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	portalHandler := handlers.NewPortalHandler(s.logger, s.registry, s.db)
	authHandler := auth.NewHandler(s.authService, s.logger)
	authMiddleware := auth.NewMiddleware(s.authService, s.logger)

	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(requestIDContext)

	mux.Get("/health", portalHandler.HealthCheckHandler)
	mux.Get("/features", portalHandler.FeaturesHandler)

	mux.Post("/auth/login", authHandler.LoginHandler)
	mux.Post("/auth/logout", authHandler.LogoutHandler)
	mux.Get("/auth/status", authHandler.StatusHandler)

	public, admin := s.registry.SplitRoutes()
	for _, route := range public {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	// Mutating feature routes require an admin token
	mux.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAdmin)
		for _, route := range admin {
			r.Method(route.Method, route.Path, route.Handler)
		}
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// requestIDContext copies chi's request id under the key core.Logger reads
func requestIDContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), core.RequestIDKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Init initializes every enabled feature
func (s *Server) Init(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}
	return nil
}

// Start serves HTTP until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops features, the HTTP server and the database
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
