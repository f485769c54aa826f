// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/auth"
	authpg "github.com/reelvault/reelvault/internal/auth/postgres"
	catalogpg "github.com/reelvault/reelvault/internal/catalog/postgres"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/logging"
	"github.com/reelvault/reelvault/internal/observability"
	"github.com/reelvault/reelvault/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server. Pending database migrations are applied
before the server begins accepting requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd, nil)
		},
	}

	// Flag names follow config paths so they layer over file and env values.
	cmd.Flags().String("server.addr", "", "HTTP listen address")
	cmd.Flags().String("server.metrics_addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "", "log format (json or text)")

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.Connect == nil {
		deps.Connect = store.Connect
	}
	if deps.Migrate == nil {
		deps.Migrate = defaultMigrate
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, rc observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, rc)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(addr string, d api.Deps) (APIServer, error) {
			return api.NewServer(addr, d)
		}
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("reelvault", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"hash_profile", cfg.Auth.HashProfile,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := deps.Migrate(cfg.Database.URL); err != nil {
		return err
	}
	logger.Info("database migrations applied")

	pool, err := deps.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: []byte(cfg.Auth.TokenSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	hasher := auth.NewArgon2idHasher(cfg.HashParams())
	users := authpg.NewUserRepository(pool)

	svc, err := auth.NewServiceWithLogger(users, hasher, tokens, logger)
	if err != nil {
		return err
	}
	svc.SetLookupTimeout(cfg.Auth.LookupTimeout)

	// Readiness tracks the database: a pool that cannot ping is not ready.
	readiness := func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Auth.LookupTimeout)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	}

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, readiness)
		metrics = obsServer.Metrics()
	}

	apiServer, err := deps.APIServerFactory(cfg.Server.Addr, api.Deps{
		Auth:      svc,
		Movies:    catalogpg.NewMovieRepository(pool),
		Genres:    catalogpg.NewGenreRepository(pool),
		Directors: catalogpg.NewDirectorRepository(pool),
		Actors:    catalogpg.NewActorRepository(pool),
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if obsServer != nil {
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return startErr
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiErrChan, err := apiServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	cmd.Println("Server started on " + apiServer.Addr())
	logger.Info("server ready", "addr", apiServer.Addr())

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a server reports a fatal
// error. It exits when an error arrives, the channel closes, or the context
// is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
