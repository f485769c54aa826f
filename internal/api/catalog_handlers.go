// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/reelvault/reelvault/internal/catalog"
)

// nameParam extracts the {name} route parameter. chi leaves percent-encoding
// in place when the request path carried any, so decode it here.
func nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		badRequest(w, "invalid name")
		return "", false
	}
	return name, true
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.movies.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if movies == nil {
		movies = []catalog.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	movie, err := s.movies.GetByID(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound(w, "movie not found")
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.genres.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if genres == nil {
		genres = []catalog.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

func (s *Server) handleListDirectors(w http.ResponseWriter, r *http.Request) {
	directors, err := s.directors.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if directors == nil {
		directors = []catalog.Director{}
	}
	writeJSON(w, http.StatusOK, directors)
}

func (s *Server) handleGetGenre(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	genre, err := s.genres.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound(w, "genre not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genre)
}

func (s *Server) handleGetDirector(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	director, err := s.directors.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound(w, "director not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, director)
}

func (s *Server) handleListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.actors.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if actors == nil {
		actors = []catalog.Actor{}
	}
	writeJSON(w, http.StatusOK, actors)
}

func (s *Server) handleGetActor(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	actor, err := s.actors.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound(w, "actor not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}
