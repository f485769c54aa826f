// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// birthdayLayout is the accepted wire format for birthdays.
const birthdayLayout = "2006-01-02"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  auth.PublicUser `json:"user"`
	Token string          `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.countLogin("invalid_credentials")
		badRequest(w, loginFailureMessage)
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.countLogin(loginOutcome(err))
		s.writeLoginError(w, r, err)
		return
	}

	s.countLogin("success")
	writeJSON(w, http.StatusOK, loginResponse{User: user.Public(), Token: token})
}

func loginOutcome(err error) string {
	switch errutil.Code(err) {
	case auth.CodeAccountLocked:
		return "locked"
	case auth.CodeUnavailable:
		return "unavailable"
	default:
		return "invalid_credentials"
	}
}

type registerRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.countRegistration("invalid_input")
		badRequest(w, "invalid request body")
		return
	}

	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		s.countRegistration("invalid_input")
		badRequest(w, "birthday must be formatted YYYY-MM-DD")
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Password, req.Email, birthday)
	if err != nil {
		s.countRegistration(registrationOutcome(err))
		s.writeError(w, r, err)
		return
	}

	s.countRegistration("success")
	writeJSON(w, http.StatusCreated, user.Public())
}

func registrationOutcome(err error) string {
	switch errutil.Code(err) {
	case auth.CodeUsernameTaken:
		return "username_taken"
	case auth.CodeUnavailable:
		return "unavailable"
	default:
		return "invalid_input"
	}
}

func parseBirthday(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(birthdayLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
