package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ReelVault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reelvault",
		Short: "ReelVault - a movie catalog API with account management",
		Long: `ReelVault serves a movie catalog over HTTP with user accounts,
token-based authentication and per-user favorite lists.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// databaseURLFromEnv reads the database URL for commands that run outside
// the full config layer. REELVAULT_DATABASE_URL wins; DATABASE_URL is
// accepted for compatibility with common tooling.
func databaseURLFromEnv() (string, error) {
	if url := os.Getenv("REELVAULT_DATABASE_URL"); url != "" {
		return url, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", oops.Code("CONFIG_INVALID").
		Errorf("REELVAULT_DATABASE_URL environment variable is required")
}
