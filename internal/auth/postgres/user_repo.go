// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package postgres implements the auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
)

// pool is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so pgxmock can drive unit tests without a database.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(p pool) *UserRepository {
	return &UserRepository{pool: p}
}

// Create stores a new user. A duplicate username surfaces as
// auth.ErrUsernameTaken via the unique index on users.username.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, password_hash, email, birthday,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.Email,
		user.Birthday,
		user.FailedAttempts,
		user.LockedUntil,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_CREATE_FAILED").
				With("username", user.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, email, birthday,
		       failed_attempts, locked_until, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}

	if err := r.loadFavorites(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername retrieves a user by exact username match. Login is
// case-sensitive; the unique index on username is what enforces uniqueness.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, email, birthday,
		       failed_attempts, locked_until, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username)

	user, err := r.scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}

	if err := r.loadFavorites(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update updates an existing user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $2, password_hash = $3, email = $4, birthday = $5,
		    failed_attempts = $6, locked_until = $7, updated_at = $8
		WHERE id = $1
	`,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.Email,
		user.Birthday,
		user.FailedAttempts,
		user.LockedUntil,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword updates only the password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id.String(), passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a user. Favorites are removed by the ON DELETE CASCADE on
// user_favorites.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// AddFavorite adds a movie to the user's favorites. Idempotent.
func (r *UserRepository) AddFavorite(ctx context.Context, id ulid.ULID, movieID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_favorites (user_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, movie_id) DO NOTHING
	`, id.String(), movieID.String())
	if err != nil {
		return oops.Code("USER_ADD_FAVORITE_FAILED").
			With("user_id", id.String()).
			With("movie_id", movieID.String()).
			Wrap(err)
	}
	return nil
}

// RemoveFavorite removes a movie from the user's favorites. Idempotent.
func (r *UserRepository) RemoveFavorite(ctx context.Context, id ulid.ULID, movieID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_favorites WHERE user_id = $1 AND movie_id = $2
	`, id.String(), movieID.String())
	if err != nil {
		return oops.Code("USER_REMOVE_FAVORITE_FAILED").
			With("user_id", id.String()).
			With("movie_id", movieID.String()).
			Wrap(err)
	}
	return nil
}

// scanUser scans a user row.
func (r *UserRepository) scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	var idStr string

	err := row.Scan(
		&idStr,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Birthday,
		&user.FailedAttempts,
		&user.LockedUntil,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	return &user, nil
}

// loadFavorites populates the user's favorite movie IDs.
func (r *UserRepository) loadFavorites(ctx context.Context, user *auth.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT movie_id FROM user_favorites WHERE user_id = $1 ORDER BY movie_id
	`, user.ID.String())
	if err != nil {
		return oops.Code("USER_LOAD_FAVORITES_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return oops.Code("USER_LOAD_FAVORITES_FAILED").
				With("operation", "scan favorite row").
				Wrap(err)
		}
		movieID, err := ulid.Parse(idStr)
		if err != nil {
			return oops.Code("USER_CORRUPT_ID").
				With("movie_id", idStr).
				Wrap(err)
		}
		user.FavoriteMovies = append(user.FavoriteMovies, movieID)
	}

	if err := rows.Err(); err != nil {
		return oops.Code("USER_LOAD_FAVORITES_FAILED").
			With("operation", "iterate favorites").
			Wrap(err)
	}
	return nil
}
