// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/observability"
	"github.com/reelvault/reelvault/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// Connect opens the database pool.
	// Default: store.Connect
	Connect func(ctx context.Context, databaseURL string) (*pgxpool.Pool, error)

	// Migrate applies pending migrations before serving.
	// Default: runs store.NewMigrator(url).Up()
	Migrate func(databaseURL string) error

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the HTTP API server.
	// Default: api.NewServer
	APIServerFactory func(addr string, deps api.Deps) (APIServer, error)
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer interface wraps the methods used from api.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Shutdown(ctx context.Context) error
	Addr() string
}

func defaultMigrate(databaseURL string) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
