// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package auth provides the credential and session-token core for ReelVault.
//
// # Domain Types
//
// User is the authenticated principal. Create one through NewUser, which
// validates the username and password hash; direct struct initialization
// bypasses validation and may create invalid state. Repository
// implementations receive pre-validated types from the constructor.
//
// # Services
//
// Service coordinates the credential flow: Register hashes and persists a
// new user, VerifyCredentials resolves a username/password pair to a User,
// and Authenticate resolves a bearer token to a User. Tokens are stateless
// HS256 JWTs minted by Tokens.Issue; the server keeps no session state, so
// an issued token stays valid until its expiry.
//
// All failures carry oops codes from the taxonomy in errors.go. Credential
// failures never distinguish unknown-user from wrong-password.
package auth
