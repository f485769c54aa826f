// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/reelvault/reelvault/internal/seed"
)

// NewValidateSeedCmd creates the validate-seed subcommand.
func NewValidateSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seed <file>...",
		Short: "Validate catalog seed files without touching the database",
		Long: `Validates seed YAML files against the catalog seed schema.
Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed file errors early:
  reelvault validate-seed seeds/catalog.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSeed(cmd, args)
		},
	}
}

func runValidateSeed(cmd *cobra.Command, paths []string) error {
	var failed int
	for _, path := range paths {
		f, err := seed.Load(path)
		if err != nil {
			failed++
			slog.Error("seed validation failed", "path", path, "error", err)
			continue
		}
		cmd.Printf("%s: %d genre(s), %d director(s), %d movie(s), %d actor(s)\n",
			path, len(f.Genres), len(f.Directors), len(f.Movies), len(f.Actors))
	}

	if failed > 0 {
		return oops.Code("SEED_INVALID").
			Errorf("validation failed: %d of %d seed files invalid", failed, len(paths))
	}
	slog.Info("all seed files valid", "count", len(paths))
	return nil
}
