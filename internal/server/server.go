// Package server wires the local row-store server: routes, middleware, and
// the dependency graph from the SQLite backend up to the HTTP handlers.
//
// The server exposes the same REST dialect a hosted row store does, so the
// rest adapter in internal/rowstore/rest can point at either without the
// client core noticing the difference.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snipspace/internal/handler"
	"github.com/sakif/snipspace/internal/identity"
	"github.com/sakif/snipspace/internal/middleware"
	"github.com/sakif/snipspace/internal/repository/store"
	"github.com/sakif/snipspace/internal/rowstore/sqlite"
)

type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqlite.Store
}

// New assembles the dependency chain: SQLite store → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := identity.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens)
	return s, nil
}

// Handler exposes the router, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(tokens *identity.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(store.NewUserStore(s.db), tokens, s.logger)
	rowsHandler := handler.NewRowsHandler(s.db, s.logger)

	s.router.Post("/auth/signup", authHandler.HandleSignUp)
	s.router.Post("/auth/signin", authHandler.HandleSignIn)

	s.router.Route("/rest/v1", func(r chi.Router) {
		// Reads run through OptionalAuth: anonymous callers can still query
		// public snippets, the handler scopes everything else per session.
		r.With(identity.OptionalAuth(tokens)).Get("/{collection}", rowsHandler.HandleSelect)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireAuth(tokens))
			r.Post("/{collection}", rowsHandler.HandleInsert)
			r.Patch("/{collection}", rowsHandler.HandleUpdate)
			r.Delete("/{collection}", rowsHandler.HandleDelete)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully
// and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
