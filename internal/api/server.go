// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package api exposes the ReelVault REST surface: registration, login, the
// bearer-token guard, self-service profile routes, and the read-only movie
// catalog.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/observability"
)

// Server is the API HTTP server.
type Server struct {
	addr      string
	auth      *auth.Service
	movies    catalog.MovieRepository
	genres    catalog.GenreRepository
	directors catalog.DirectorRepository
	actors    catalog.ActorRepository
	logger    *slog.Logger
	metrics   *observability.Metrics

	listener   net.Listener
	httpServer *http.Server
}

// Deps bundles the server's collaborators. Metrics may be nil.
type Deps struct {
	Auth      *auth.Service
	Movies    catalog.MovieRepository
	Genres    catalog.GenreRepository
	Directors catalog.DirectorRepository
	Actors    catalog.ActorRepository
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// NewServer creates an API server listening on addr once started.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if deps.Movies == nil || deps.Genres == nil || deps.Directors == nil || deps.Actors == nil {
		return nil, oops.Errorf("catalog repositories are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{
		addr:      addr,
		auth:      deps.Auth,
		movies:    deps.Movies,
		genres:    deps.Genres,
		directors: deps.Directors,
		actors:    deps.Actors,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}, nil
}

// Router builds the route tree. Exposed for httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.countRequests)

	// Public routes.
	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/users", s.handleRegister)

	// Everything else sits behind the bearer guard.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Use(s.requireSelf)
			r.Get("/", s.handleGetUser)
			r.Put("/", s.handleUpdateUser)
			r.Delete("/", s.handleDeleteUser)
			r.Post("/movies/{movieID}", s.handleAddFavorite)
			r.Delete("/movies/{movieID}", s.handleRemoveFavorite)
		})

		r.Get("/movies", s.handleListMovies)
		r.Get("/movies/{movieID}", s.handleGetMovie)
		r.Get("/genres", s.handleListGenres)
		r.Get("/genres/{name}", s.handleGetGenre)
		r.Get("/directors", s.handleListDirectors)
		r.Get("/directors/{name}", s.handleGetDirector)
		r.Get("/actors", s.handleListActors)
		r.Get("/actors/{name}", s.handleGetActor)
	})

	return r
}

// Start begins serving. It returns an error channel that receives any error
// from the HTTP server after startup; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_api_server").Wrap(err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the listen address, or empty when not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
