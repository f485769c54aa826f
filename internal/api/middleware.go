// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// requireAuth is the bearer-token guard. It rejects requests without a valid
// Authorization header before any handler logic runs, and attaches the
// resolved user to the request context on success.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.countTokenCheck("unauthenticated")
			writeJSON(w, http.StatusUnauthorized, errorBody{
				Message: "unauthorized",
				Code:    auth.CodeUnauthenticated,
			})
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.countTokenCheck(tokenOutcome(err))
			s.writeError(w, r, err)
			return
		}

		s.countTokenCheck("success")
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func tokenOutcome(err error) string {
	switch errutil.Code(err) {
	case auth.CodeTokenExpired:
		return "expired"
	case auth.CodeInvalidToken:
		return "invalid"
	case auth.CodeUnavailable:
		return "unavailable"
	default:
		return "unauthenticated"
	}
}

// requireSelf authorizes the authenticated user against the {username} route
// parameter. Runs inside requireAuth.
func (s *Server) requireSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		target := chi.URLParam(r, "username")
		if err := auth.AuthorizeSelf(user, target); err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// countRequests records per-route request metrics. The chi route pattern is
// only known after routing, so the counter is read post-serve.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if s.metrics == nil {
			return
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequestsTotal.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Inc()
	})
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countTokenCheck(outcome string) {
	if s.metrics != nil {
		s.metrics.TokenVerificationsTotal.WithLabelValues(outcome).Inc()
	}
}
