// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package authtest provides test helpers for the auth subsystem.
package authtest

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/reelvault/reelvault/internal/auth"
)

// MemoryRepository is an in-memory auth.UserRepository for tests.
// Safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[ulid.ULID]*auth.User

	// Err, when set, is returned by every method. Simulates an unavailable
	// credential store.
	Err error
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[ulid.ULID]*auth.User)}
}

// Create stores a new user.
func (r *MemoryRepository) Create(_ context.Context, user *auth.User) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return auth.ErrUsernameTaken
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

// GetByID retrieves a user by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// GetByUsername retrieves a user by exact username match.
func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

// Update updates an existing user.
func (r *MemoryRepository) Update(_ context.Context, user *auth.User) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return auth.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

// UpdatePassword updates only the password hash for a user.
func (r *MemoryRepository) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// Delete removes a user.
func (r *MemoryRepository) Delete(_ context.Context, id ulid.ULID) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// AddFavorite adds a movie to the user's favorites. Idempotent.
func (r *MemoryRepository) AddFavorite(_ context.Context, id ulid.ULID, movieID ulid.ULID) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	if !slices.Contains(user.FavoriteMovies, movieID) {
		user.FavoriteMovies = append(user.FavoriteMovies, movieID)
	}
	return nil
}

// RemoveFavorite removes a movie from the user's favorites. Idempotent.
func (r *MemoryRepository) RemoveFavorite(_ context.Context, id ulid.ULID, movieID ulid.ULID) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	user.FavoriteMovies = slices.DeleteFunc(user.FavoriteMovies, func(m ulid.ULID) bool {
		return m == movieID
	})
	return nil
}
