// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
)

// Handlers below run behind requireAuth and requireSelf, so the context user
// is always the owner of the targeted record.

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user.Public())
}

type updateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		badRequest(w, "birthday must be formatted YYYY-MM-DD")
		return
	}

	user := UserFromContext(r.Context())
	updated, err := s.auth.UpdateProfile(r.Context(), user.ID, auth.ProfileUpdate{
		Email:    req.Email,
		Birthday: birthday,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := s.auth.DeleteAccount(r.Context(), user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	// The movie must exist before the favorite row is written; a dangling
	// favorite would otherwise surface as a foreign key error.
	if _, err := s.movies.GetByID(r.Context(), movieID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			notFound(w, "movie not found")
			return
		}
		s.writeError(w, r, err)
		return
	}

	user := UserFromContext(r.Context())
	updated, err := s.auth.AddFavorite(r.Context(), user.ID, movieID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(w, r)
	if !ok {
		return
	}

	user := UserFromContext(r.Context())
	updated, err := s.auth.RemoveFavorite(r.Context(), user.ID, movieID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public())
}

func movieIDParam(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	raw := chi.URLParam(r, "movieID")
	id, err := ulid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid movie id")
		return ulid.ULID{}, false
	}
	return id, true
}
