// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when the store rejects a duplicate username.
var ErrUsernameTaken = errors.New("username already taken")

// Error codes used across the auth subsystem. The HTTP layer maps these to
// response statuses; response bodies carry only class-level messages.
const (
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeUnauthenticated    = "AUTH_UNAUTHENTICATED"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	CodePermissionDenied   = "AUTH_PERMISSION_DENIED"
	CodeAccountLocked      = "AUTH_ACCOUNT_LOCKED"
	CodeUnavailable        = "AUTH_UNAVAILABLE"
	CodeSigningError       = "AUTH_SIGNING_ERROR"
)
