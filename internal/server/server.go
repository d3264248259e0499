package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lgu-records/recordkeeper/internal/app"
	"github.com/lgu-records/recordkeeper/internal/handlers"
	"github.com/lgu-records/recordkeeper/internal/logging"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	app        *app.App
}

// New constructs a Server over a, with basic middleware and defaults.
func New(a *app.App) (*Server, error) {
	jwtSecret := strings.TrimSpace(a.Config.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	router := NewRouter(a, jwtSecret)

	port := a.Config.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	httpServer.RegisterOnShutdown(a.Hub.Close)

	return &Server{
		httpServer: httpServer,
		router:     router,
		app:        a,
	}, nil
}

// NewRouter builds every route. The event stream sits outside the request
// timeout since it stays open.
func NewRouter(a *app.App, jwtSecret string) *chi.Mux {
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(a.Logger),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/events", func(r chi.Router) {
		handlers.EventRouter(r, a.Hub, a.Users, authMiddleware)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, a.Users, jwtSecret)
		})
		r.Route("/records", func(r chi.Router) {
			handlers.RecordRouter(r, a.Records, a.Users, authMiddleware)
		})
		r.Route("/stats", func(r chi.Router) {
			handlers.StatsRouter(r, a.Records, a.Users, authMiddleware)
		})
		r.Route("/export", func(r chi.Router) {
			handlers.ExportRouter(r, a.Transfer, a.Users, authMiddleware)
		})
		r.Route("/import", func(r chi.Router) {
			handlers.ImportRouter(r, a.Transfer, a.Users, authMiddleware)
		})
		r.Route("/backups", func(r chi.Router) {
			handlers.BackupRouter(r, a.Backups, a.Users, authMiddleware)
		})
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.app.Logger.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
