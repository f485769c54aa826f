// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/auth/authtest"
	"github.com/reelvault/reelvault/pkg/errutil"
)

func newTestService(t *testing.T) (*auth.Service, *authtest.MemoryRepository) {
	t.Helper()
	repo := authtest.NewMemoryRepository()
	hasher := auth.NewArgon2idHasher(auth.FastParams)
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
	require.NoError(t, err)
	svc, err := auth.NewService(repo, hasher, tokens)
	require.NoError(t, err)
	return svc, repo
}

func TestNewService_NilDependencies(t *testing.T) {
	repo := authtest.NewMemoryRepository()
	hasher := auth.NewArgon2idHasher(auth.FastParams)
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
	require.NoError(t, err)

	tests := []struct {
		name        string
		users       auth.UserRepository
		hasher      auth.PasswordHasher
		tokens      *auth.Tokens
		expectError string
	}{
		{"nil user repository", nil, hasher, tokens, "user repository is required"},
		{"nil password hasher", repo, nil, tokens, "password hasher is required"},
		{"nil token issuer", repo, hasher, nil, "token issuer is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewService(tt.users, tt.hasher, tt.tokens)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

// brokenHasher fails every hash; construction must surface it because the
// service derives its timing decoy hash up front.
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("no entropy") }

func (brokenHasher) Verify(string, string) (bool, error) { return false, errors.New("no entropy") }

func (brokenHasher) NeedsRehash(string) bool { return false }

func TestNewService_HasherFailure(t *testing.T) {
	repo := authtest.NewMemoryRepository()
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
	require.NoError(t, err)

	svc, err := auth.NewService(repo, brokenHasher{}, tokens)
	require.Error(t, err)
	assert.Nil(t, svc)
	errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		svc, repo := newTestService(t)

		user, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "alice01", user.Username)
		assert.NotEqual(t, "Str0ng!Pass", user.PasswordHash)
		assert.Contains(t, user.PasswordHash, "$argon2id$")

		stored, err := repo.GetByUsername(ctx, "alice01")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Register(ctx, "1bad", "Str0ng!Pass", nil, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidInput)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Register(ctx, "alice01", "", nil, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeEmptyPassword)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, err = svc.Register(ctx, "alice01", "OtherPass1!", nil, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUsernameTaken)
	})

	t.Run("store failure maps to unavailable", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.Err = errors.New("connection refused")

		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
	})
}

func TestService_VerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("correct credentials resolve the user", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		user, err := svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("unknown user and wrong password fail identically", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, unknownErr := svc.VerifyCredentials(ctx, "nosuchuser", "Str0ng!Pass")
		require.Error(t, unknownErr)
		errutil.AssertErrorCode(t, unknownErr, auth.CodeInvalidCredentials)

		_, wrongErr := svc.VerifyCredentials(ctx, "alice01", "WrongPass1!")
		require.Error(t, wrongErr)
		errutil.AssertErrorCode(t, wrongErr, auth.CodeInvalidCredentials)

		// No distinguishing signal in the returned error messages.
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("username match is case-sensitive", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, err = svc.VerifyCredentials(ctx, "Alice01", "Str0ng!Pass")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		for range auth.LockoutThreshold {
			_, err = svc.VerifyCredentials(ctx, "alice01", "WrongPass1!")
			require.Error(t, err)
		}

		// Even the correct password is rejected while locked.
		_, err = svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeAccountLocked)
	})

	t.Run("locked rejection carries the retry remainder", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		for range auth.LockoutThreshold {
			_, err = svc.VerifyCredentials(ctx, "alice01", "WrongPass1!")
			require.Error(t, err)
		}

		_, err = svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeAccountLocked)

		oopsErr, ok := oops.AsOops(err)
		require.True(t, ok)
		remaining, ok := oopsErr.Context()["retry_after"].(time.Duration)
		require.True(t, ok)
		assert.Greater(t, remaining, time.Duration(0))
		assert.LessOrEqual(t, remaining, auth.LockoutDuration)
	})

	t.Run("expired lockout admits the correct password", func(t *testing.T) {
		svc, repo := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		for range auth.LockoutThreshold {
			_, err = svc.VerifyCredentials(ctx, "alice01", "WrongPass1!")
			require.Error(t, err)
		}

		// Rewind the lockout stamp past its expiry.
		stored, err := repo.GetByUsername(ctx, "alice01")
		require.NoError(t, err)
		expired := time.Now().Add(-time.Minute)
		stored.LockedUntil = &expired
		require.NoError(t, repo.Update(ctx, stored))

		user, err := svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)
		assert.Zero(t, user.FailedAttempts)
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		svc, repo := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, err = svc.VerifyCredentials(ctx, "alice01", "WrongPass1!")
		require.Error(t, err)

		_, err = svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)

		stored, err := repo.GetByUsername(ctx, "alice01")
		require.NoError(t, err)
		assert.Zero(t, stored.FailedAttempts)
	})

	t.Run("store failure maps to unavailable, not invalid credentials", func(t *testing.T) {
		svc, repo := newTestService(t)
		repo.Err = errors.New("connection refused")

		_, err := svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
	})

	t.Run("rehashes on login after profile change", func(t *testing.T) {
		repo := authtest.NewMemoryRepository()
		tokens, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
		require.NoError(t, err)

		// Register under the fast profile, then log in under the default one.
		fastSvc, err := auth.NewService(repo, auth.NewArgon2idHasher(auth.FastParams), tokens)
		require.NoError(t, err)
		registered, err := fastSvc.Register(context.Background(), "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		strongSvc, err := auth.NewService(repo, auth.NewArgon2idHasher(auth.DefaultParams), tokens)
		require.NoError(t, err)
		_, err = strongSvc.VerifyCredentials(context.Background(), "alice01", "Str0ng!Pass")
		require.NoError(t, err)

		stored, err := repo.GetByID(context.Background(), registered.ID)
		require.NoError(t, err)
		assert.NotEqual(t, registered.PasswordHash, stored.PasswordHash)
		assert.Contains(t, stored.PasswordHash, "m=65536")
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("returns user and token", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		user, token, err := svc.Login(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "alice01", user.Username)
	})

	t.Run("bad credentials yield no token", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, token, err := svc.Login(ctx, "alice01", "Str0ng!Pass")
		require.Error(t, err)
		assert.Empty(t, token)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh token resolves the same user", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, token, err := svc.Login(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("token for a deleted user is unauthenticated", func(t *testing.T) {
		svc, repo := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, token, err := svc.Login(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, registered.ID))

		_, err = svc.Authenticate(ctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnauthenticated)
	})

	t.Run("store failure during lookup is unavailable", func(t *testing.T) {
		svc, repo := newTestService(t)
		_, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		_, token, err := svc.Login(ctx, "alice01", "Str0ng!Pass")
		require.NoError(t, err)

		repo.Err = errors.New("connection refused")
		_, err = svc.Authenticate(ctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
	})

	t.Run("missing token is unauthenticated", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Authenticate(ctx, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnauthenticated)
	})
}

func TestAuthorizeSelf(t *testing.T) {
	user := &auth.User{Username: "alice01"}

	t.Run("own record is allowed", func(t *testing.T) {
		assert.NoError(t, auth.AuthorizeSelf(user, "alice01"))
	})

	t.Run("another user's record is denied", func(t *testing.T) {
		err := auth.AuthorizeSelf(user, "bob02")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodePermissionDenied)
	})

	t.Run("nil user is unauthenticated", func(t *testing.T) {
		err := auth.AuthorizeSelf(nil, "alice01")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnauthenticated)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates email and birthday", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		email := "alice@example.com"
		birthday := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
		updated, err := svc.UpdateProfile(ctx, registered.ID, auth.ProfileUpdate{
			Email:    &email,
			Birthday: &birthday,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Email)
		assert.Equal(t, email, *updated.Email)
		require.NotNil(t, updated.Birthday)
		assert.Equal(t, birthday, *updated.Birthday)
	})

	t.Run("password change rehashes and old password stops working", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		newPassword := "N3w!Passw0rd"
		_, err = svc.UpdateProfile(ctx, registered.ID, auth.ProfileUpdate{Password: &newPassword})
		require.NoError(t, err)

		_, err = svc.VerifyCredentials(ctx, "alice01", "Str0ng!Pass")
		require.Error(t, err)

		_, err = svc.VerifyCredentials(ctx, "alice01", newPassword)
		require.NoError(t, err)
	})

	t.Run("unknown user is unauthenticated", func(t *testing.T) {
		svc, _ := newTestService(t)
		email := "ghost@example.com"
		_, err := svc.UpdateProfile(ctx, auth.User{}.ID, auth.ProfileUpdate{Email: &email})
		require.Error(t, err)
	})

	t.Run("password change uses the dedicated store operation", func(t *testing.T) {
		repo := &spyRepository{MemoryRepository: authtest.NewMemoryRepository()}
		hasher := auth.NewArgon2idHasher(auth.FastParams)
		tokens, err := auth.NewTokens(auth.TokenConfig{Secret: testSecret})
		require.NoError(t, err)
		svc, err := auth.NewService(repo, hasher, tokens)
		require.NoError(t, err)

		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		newPassword := "N3w!Passw0rd"
		_, err = svc.UpdateProfile(ctx, registered.ID, auth.ProfileUpdate{Password: &newPassword})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.updatePasswordCalls)
		assert.Zero(t, repo.updateCalls)

		// Profile fields still go through the general update.
		email := "alice@example.com"
		_, err = svc.UpdateProfile(ctx, registered.ID, auth.ProfileUpdate{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.updatePasswordCalls)
		assert.Equal(t, 1, repo.updateCalls)
	})
}

// spyRepository counts which update paths the service takes.
type spyRepository struct {
	*authtest.MemoryRepository
	updateCalls         int
	updatePasswordCalls int
}

func (r *spyRepository) Update(ctx context.Context, user *auth.User) error {
	r.updateCalls++
	return r.MemoryRepository.Update(ctx, user)
}

func (r *spyRepository) UpdatePassword(ctx context.Context, id ulid.ULID, hash string) error {
	r.updatePasswordCalls++
	return r.MemoryRepository.UpdatePassword(ctx, id, hash)
}

func TestService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the account", func(t *testing.T) {
		svc, repo := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteAccount(ctx, registered.ID))

		_, err = repo.GetByID(ctx, registered.ID)
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("unknown account is unauthenticated", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.DeleteAccount(ctx, ulid.Make())
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnauthenticated)
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		svc, repo := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		repo.Err = errors.New("connection reset")
		err = svc.DeleteAccount(ctx, registered.ID)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
	})
}

func TestService_Favorites(t *testing.T) {
	ctx := context.Background()

	t.Run("add and remove round-trip", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		movieID := ulid.Make()
		updated, err := svc.AddFavorite(ctx, registered.ID, movieID)
		require.NoError(t, err)
		assert.Contains(t, updated.FavoriteMovies, movieID)

		updated, err = svc.RemoveFavorite(ctx, registered.ID, movieID)
		require.NoError(t, err)
		assert.NotContains(t, updated.FavoriteMovies, movieID)
	})

	t.Run("removing an absent favorite is a no-op", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		updated, err := svc.RemoveFavorite(ctx, registered.ID, ulid.Make())
		require.NoError(t, err)
		assert.Empty(t, updated.FavoriteMovies)
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		svc, repo := newTestService(t)
		registered, err := svc.Register(ctx, "alice01", "Str0ng!Pass", nil, nil)
		require.NoError(t, err)

		repo.Err = errors.New("connection reset")
		_, err = svc.AddFavorite(ctx, registered.ID, ulid.Make())
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, auth.CodeUnavailable)
	})
}
