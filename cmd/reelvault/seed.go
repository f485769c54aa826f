// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelvault/reelvault/internal/seed"
	"github.com/reelvault/reelvault/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Apply a catalog seed file",
		Long: `Loads a catalog seed YAML file and inserts its genres, directors and
movies. This command is idempotent - rows whose name or title already
exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, path string, cfg *seedConfig) error {
	databaseURL, err := databaseURLFromEnv()
	if err != nil {
		return err
	}

	f, err := seed.Load(path)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		_ = m.Close()
		return err
	}
	if err := m.Close(); err != nil {
		return err
	}

	stats, err := seed.Apply(ctx, pool, f)
	if err != nil {
		return err
	}

	cmd.Printf("Seeded %d genre(s), %d director(s), %d movie(s), %d actor(s)\n",
		stats.Genres, stats.Directors, stats.Movies, stats.Actors)
	slog.Info("catalog seeded",
		"path", path,
		"genres", stats.Genres,
		"directors", stats.Directors,
		"movies", stats.Movies,
		"actors", stats.Actors,
	)
	return nil
}
