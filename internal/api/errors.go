// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// loginFailureMessage is deliberately vague: it never reveals whether the
// username or the password was wrong.
const loginFailureMessage = "Something is not right"

// errorBody is the JSON shape of every error response. The message is the
// class-level description only; specifics stay in the server log.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusForCode maps an oops error code to an HTTP status and a class-level
// message.
func statusForCode(code string) (int, string) {
	switch code {
	case auth.CodeInvalidInput, auth.CodeEmptyPassword:
		return http.StatusBadRequest, "invalid request"
	case auth.CodeInvalidCredentials:
		return http.StatusBadRequest, loginFailureMessage
	case auth.CodeUsernameTaken:
		return http.StatusConflict, "username already taken"
	case auth.CodeUnauthenticated, auth.CodeInvalidToken:
		return http.StatusUnauthorized, "unauthorized"
	case auth.CodeTokenExpired:
		return http.StatusUnauthorized, "token expired"
	case auth.CodePermissionDenied:
		return http.StatusForbidden, "forbidden"
	case auth.CodeAccountLocked:
		return http.StatusTooManyRequests, "account temporarily locked"
	case auth.CodeUnavailable:
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure means the client is gone
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to an HTTP error response and logs the details.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	status, message := statusForCode(code)

	if status >= http.StatusInternalServerError {
		errutil.LogError(s.logger, "request failed", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			"code", code, "status", status, "path", r.URL.Path)
	}

	body := errorBody{Message: message}
	if status == http.StatusUnauthorized || status == http.StatusTooManyRequests {
		body.Code = code
	}
	if status == http.StatusTooManyRequests {
		if d, ok := retryAfter(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d)))
		}
	}
	writeJSON(w, status, body)
}

// retryAfter extracts the lockout remainder attached to an account-locked
// error.
func retryAfter(err error) (time.Duration, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return 0, false
	}
	d, ok := oopsErr.Context()["retry_after"].(time.Duration)
	return d, ok
}

// retryAfterSeconds rounds up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// writeLoginError is writeError with the credential classes collapsed into
// the generic login failure body.
func (s *Server) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch errutil.Code(err) {
	case auth.CodeInvalidInput, auth.CodeEmptyPassword, auth.CodeInvalidCredentials:
		s.logger.DebugContext(r.Context(), "login rejected", "code", errutil.Code(err))
		writeJSON(w, http.StatusBadRequest, errorBody{Message: loginFailureMessage})
	default:
		s.writeError(w, r, err)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Message: message})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: message})
}
