// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package api

import (
	"context"

	"github.com/reelvault/reelvault/internal/auth"
)

type contextKey string

const userContextKey contextKey = "user"

func withUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user attached by the guard
// middleware, or nil outside a guarded route.
func UserFromContext(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userContextKey).(*auth.User)
	return user
}
