// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	// DefaultTokenTTL is the fixed lifetime of an issued token. The server
	// holds no session state, so expiry is the only thing that ends a session.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// MinSecretLength is the minimum signing secret size in bytes.
	MinSecretLength = 32
)

// TokenConfig configures the token issuer and verifier. The secret is
// process-wide, sourced from configuration at startup; rotating it
// invalidates all previously issued tokens.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Tokens issues and verifies HS256-signed session tokens. Read-only after
// construction, safe for unlimited concurrent use.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a Tokens instance. An absent or short secret is a fatal
// configuration error: the process must refuse to serve traffic rather than
// sign tokens with a guessable key.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code(CodeSigningError).Errorf("token signing secret is required")
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, oops.Code(CodeSigningError).
			With("min_bytes", MinSecretLength).
			Errorf("token signing secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, oops.Code(CodeSigningError).Errorf("token TTL cannot be negative")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &Tokens{secret: cfg.Secret, ttl: cfg.TTL}, nil
}

// TTL returns the configured token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue mints a signed token asserting the user's identity. The subject is
// the user's durable ID, not a mutable display field.
func (t *Tokens) Issue(user *User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code(CodeSigningError).With("operation", "sign token").Wrap(err)
	}
	return signed, nil
}

// Verify validates a raw token's signature and expiry and returns the
// subject user ID. Expiry is reported as AUTH_TOKEN_EXPIRED, distinct from
// AUTH_INVALID_TOKEN, so clients can prompt for re-login.
func (t *Tokens) Verify(raw string) (ulid.ULID, error) {
	if raw == "" {
		return ulid.ULID{}, oops.Code(CodeUnauthenticated).Errorf("missing token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		// Pin the signing method to defeat algorithm-confusion attacks.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ulid.ULID{}, oops.Code(CodeTokenExpired).Wrap(err)
		}
		return ulid.ULID{}, oops.Code(CodeInvalidToken).Wrap(err)
	}

	subject, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code(CodeInvalidToken).
			With("operation", "parse subject").
			Wrap(err)
	}
	return subject, nil
}
