// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reelvault/auth")

// DefaultLookupTimeout bounds the credential store lookup during token
// authentication. A timed-out lookup is a rejection, never a success.
const DefaultLookupTimeout = 5 * time.Second

// Service provides authentication operations.
type Service struct {
	users         UserRepository
	hasher        PasswordHasher
	tokens        *Tokens
	lookupTimeout time.Duration
	logger        *slog.Logger
	dummyHash     string
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *Tokens) (*Service, error) {
	return NewServiceWithLogger(users, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit audit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, tokens *Tokens, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	// Hash a throwaway plaintext with the configured profile so verifying
	// against it costs the same as a real credential check.
	dummyHash, err := hasher.Hash(dummyPlaintext)
	if err != nil {
		return nil, oops.Code(CodeUnavailable).
			With("operation", "derive dummy hash").
			Wrap(err)
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		lookupTimeout: DefaultLookupTimeout,
		logger:        logger,
		dummyHash:     dummyHash,
	}, nil
}

// Tokens returns the service's token issuer.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// SetLookupTimeout overrides the credential store lookup timeout used during
// token authentication. Non-positive values are ignored.
func (s *Service) SetLookupTimeout(d time.Duration) {
	if d > 0 {
		s.lookupTimeout = d
	}
}

// dummyPlaintext seeds the service's dummy hash, verified in place of a real
// credential when the username is unknown. Hashing it with the service's own
// hasher keeps the work factor identical to real verifications, so the
// unknown-user path costs the same as a wrong-password one.
//
//nolint:gosec // G101: not a credential, only a timing decoy.
const dummyPlaintext = "reelvault-timing-decoy"

// Register creates a new user. The password is hashed before anything is
// persisted; the plaintext never leaves this call.
func (s *Service) Register(ctx context.Context, username, password string, email *string, birthday *time.Time) (*User, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer span.End()

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := NewUser(username, hash, email, birthday)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, oops.Code(CodeUsernameTaken).
				With("username", username).
				Wrap(err)
		}
		span.SetStatus(otelcodes.Error, "create user failed")
		return nil, oops.Code(CodeUnavailable).
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("user registered", "username", username, "user_id", user.ID.String())
	return user, nil
}

// VerifyCredentials resolves a username and plaintext password to a User.
// Unknown-user and wrong-password both fail with AUTH_INVALID_CREDENTIALS:
// the caller gets no signal to enumerate usernames. The internal audit log
// distinguishes the cause; the plaintext password is never logged.
// Uses constant-time operations to prevent timing-based username enumeration.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*User, error) {
	ctx, span := tracer.Start(ctx, "auth.verify_credentials")
	defer span.End()

	user, lookupErr := s.users.GetByUsername(ctx, username)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	var targetHash string
	var userExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			// Use dummy hash - still perform verification to maintain constant time
			targetHash = s.dummyHash
			userExists = false
		} else {
			span.SetStatus(otelcodes.Error, "store lookup failed")
			return nil, oops.Code(CodeUnavailable).
				With("operation", "get user by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify password (constant-time operation for timing attack prevention)
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// For dummy hash verification errors, just treat as invalid
		if !userExists {
			s.logger.Info("login failed", "username", username, "cause", "unknown user")
			return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
		}
		span.SetStatus(otelcodes.Error, "hash verification failed")
		return nil, oops.Code(CodeUnavailable).
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	// If user doesn't exist OR password invalid, return same error
	if !userExists || !valid {
		if userExists {
			// Record failure only for existing users
			user.RecordFailure()
			_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort
			limit := CheckFailures(user.FailedAttempts, user.LockedUntil)
			s.logger.Info("login failed", "username", username, "cause", "wrong password",
				"failed_attempts", user.FailedAttempts, "next_attempt_delay", limit.Delay)
			if user.IsLocked() {
				s.logger.Warn("account locked", "username", username,
					"failed_attempts", user.FailedAttempts, "locked_until", user.LockedUntil)
			}
		} else {
			s.logger.Info("login failed", "username", username, "cause", "unknown user")
		}
		return nil, oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
	}

	// Check lockout AFTER password verification to maintain constant time
	if limit := CheckFailures(user.FailedAttempts, user.LockedUntil); limit.IsLockedOut {
		s.logger.Info("login rejected", "username", username, "cause", "account locked",
			"retry_after", limit.LockoutRemaining)
		return nil, oops.Code(CodeAccountLocked).
			With("locked_until", user.LockedUntil).
			With("retry_after", limit.LockoutRemaining).
			Errorf("account is temporarily locked")
	}

	// Success - reset failure counter
	user.RecordSuccess()

	// Recompute the hash if the work-factor profile changed
	if s.hasher.NeedsRehash(user.PasswordHash) {
		newHash, hashErr := s.hasher.Hash(password)
		if hashErr == nil {
			user.PasswordHash = newHash
		}
	}

	// Update user with reset failure count (and possibly upgraded hash)
	// Ignore errors - login should succeed even if update fails
	_ = s.users.Update(ctx, user) //nolint:errcheck // Best effort, login succeeds regardless

	s.logger.Info("login successful", "username", username, "user_id", user.ID.String())
	return user, nil
}

// Login verifies credentials and issues a session token. This is the whole
// login flow: Verifier then Issuer.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate validates a bearer token and resolves the calling user.
// Stateless per call; terminal outcomes are exactly authenticated(user) or
// rejected(reason). The store lookup is timeout-bound and fails closed.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*User, error) {
	ctx, span := tracer.Start(ctx, "auth.authenticate")
	defer span.End()

	subject, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	user, err := s.users.GetByID(lookupCtx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Token subject deleted after issuance.
			return nil, oops.Code(CodeUnauthenticated).
				With("user_id", subject.String()).
				Errorf("user no longer exists")
		}
		span.SetStatus(otelcodes.Error, "store lookup failed")
		span.SetAttributes(attribute.String("user_id", subject.String()))
		return nil, oops.Code(CodeUnavailable).
			With("operation", "get user by id").
			Wrap(err)
	}

	return user, nil
}

// AuthorizeSelf checks that the authenticated user is operating on its own
// record. Kept distinct from authentication failures so the HTTP layer can
// map it to 403 rather than 401.
func AuthorizeSelf(user *User, targetUsername string) error {
	if user == nil {
		return oops.Code(CodeUnauthenticated).Errorf("no authenticated user")
	}
	if user.Username != targetUsername {
		return oops.Code(CodePermissionDenied).
			With("target", targetUsername).
			Errorf("cannot operate on another user's record")
	}
	return nil
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Email    *string
	Birthday *time.Time
	Password *string
}

// UpdateProfile applies a profile update, hashing a new password if one is
// given. Returns the updated user.
func (s *Service) UpdateProfile(ctx context.Context, id ulid.ULID, update ProfileUpdate) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUnauthenticated).Wrap(err)
		}
		return nil, oops.Code(CodeUnavailable).
			With("operation", "get user by id").
			Wrap(err)
	}

	if update.Password != nil {
		hash, hashErr := s.hasher.Hash(*update.Password)
		if hashErr != nil {
			return nil, hashErr
		}
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return nil, oops.Code(CodeUnavailable).
				With("operation", "update password").
				Wrap(err)
		}
		user.PasswordHash = hash
		user.UpdatedAt = time.Now()
	}

	if update.Email != nil || update.Birthday != nil {
		if update.Email != nil {
			user.Email = update.Email
		}
		if update.Birthday != nil {
			user.Birthday = update.Birthday
		}
		user.UpdatedAt = time.Now()

		if err := s.users.Update(ctx, user); err != nil {
			return nil, oops.Code(CodeUnavailable).
				With("operation", "update user").
				Wrap(err)
		}
	}
	return user, nil
}

// DeleteAccount removes a user's account. Favorites go with it.
func (s *Service) DeleteAccount(ctx context.Context, id ulid.ULID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeUnauthenticated).Wrap(err)
		}
		return oops.Code(CodeUnavailable).
			With("operation", "delete user").
			Wrap(err)
	}
	s.logger.Info("account deleted", "user_id", id.String())
	return nil
}

// AddFavorite adds movieID to the user's favorites and returns the updated
// user. Adding an existing favorite is a no-op.
func (s *Service) AddFavorite(ctx context.Context, id, movieID ulid.ULID) (*User, error) {
	if err := s.users.AddFavorite(ctx, id, movieID); err != nil {
		return nil, oops.Code(CodeUnavailable).
			With("operation", "add favorite").
			Wrap(err)
	}
	return s.refreshUser(ctx, id)
}

// RemoveFavorite removes movieID from the user's favorites and returns the
// updated user. Removing an absent favorite is a no-op.
func (s *Service) RemoveFavorite(ctx context.Context, id, movieID ulid.ULID) (*User, error) {
	if err := s.users.RemoveFavorite(ctx, id, movieID); err != nil {
		return nil, oops.Code(CodeUnavailable).
			With("operation", "remove favorite").
			Wrap(err)
	}
	return s.refreshUser(ctx, id)
}

func (s *Service) refreshUser(ctx context.Context, id ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUnauthenticated).Wrap(err)
		}
		return nil, oops.Code(CodeUnavailable).
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}
