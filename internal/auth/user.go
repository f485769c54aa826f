// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User represents a registered account (the authenticated principal).
type User struct {
	ID             ulid.ULID
	Username       string
	PasswordHash   string
	Email          *string
	Birthday       *time.Time
	FavoriteMovies []ulid.ULID
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the redacted view of a User returned to clients.
// It never carries the password hash.
type PublicUser struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    *string    `json:"email,omitempty"`
	Birthday *time.Time `json:"birthday,omitempty"`

	FavoriteMovies []string  `json:"favoriteMovies"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewUser creates a validated User. The passwordHash must come from a
// PasswordHasher; NewUser never accepts a plaintext password.
func NewUser(username, passwordHash string, email *string, birthday *time.Time) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Birthday:     birthday,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Public returns the client-safe view of the user.
func (u *User) Public() PublicUser {
	favorites := make([]string, 0, len(u.FavoriteMovies))
	for _, id := range u.FavoriteMovies {
		favorites = append(favorites, id.String())
	}
	return PublicUser{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Birthday:       u.Birthday,
		FavoriteMovies: favorites,
		CreatedAt:      u.CreatedAt,
	}
}

// IsLocked returns true if the user is currently locked out.
func (u *User) IsLocked() bool {
	return IsLockedOut(u.LockedUntil)
}

// RecordFailure increments the failure counter and sets lockout if threshold reached.
func (u *User) RecordFailure() {
	u.FailedAttempts++
	u.LockedUntil = ComputeLockoutTime(u.FailedAttempts)
	u.UpdatedAt = time.Now()
}

// RecordSuccess resets failure counter and lockout.
func (u *User) RecordSuccess() {
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = time.Now()
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidInput).Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code(CodeInvalidInput).
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code(CodeInvalidInput).
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeInvalidInput).
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// UserRepository is the credential store contract. GetByUsername and GetByID
// are the only calls the token and credential verifiers make; both are pure
// reads. The remaining methods serve the registration and profile lifecycle.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrUsernameTaken
	// if the username is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns an error wrapping ErrNotFound
	// if no such user exists.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by exact username match.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// Delete removes a user.
	Delete(ctx context.Context, id ulid.ULID) error

	// AddFavorite and RemoveFavorite maintain the user's favorite movie set.
	// Both are idempotent.
	AddFavorite(ctx context.Context, id ulid.ULID, movieID ulid.ULID) error
	RemoveFavorite(ctx context.Context, id ulid.ULID, movieID ulid.ULID) error
}
