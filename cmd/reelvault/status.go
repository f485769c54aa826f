// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelvault/reelvault/internal/store"
)

// MigrationStatus holds the schema state reported by the status command.
type MigrationStatus struct {
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
	Pending []uint `json:"pending,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database schema status",
		Long:  `Show the current migration version and any pending migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	return withMigrator(cmd, func(m *store.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		pending, err := m.PendingMigrations()
		if err != nil {
			return err
		}

		status := MigrationStatus{Version: version, Dirty: dirty, Pending: pending}

		if cfg.jsonOutput {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Println(formatStatus(status))
		return nil
	})
}

func formatStatus(status MigrationStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema version: %d", status.Version)
	if status.Dirty {
		b.WriteString(" (dirty)")
	}
	b.WriteString("\n")

	if len(status.Pending) == 0 {
		b.WriteString("Pending migrations: none")
		return b.String()
	}

	parts := make([]string, len(status.Pending))
	for i, v := range status.Pending {
		parts[i] = fmt.Sprintf("%06d", v)
	}
	fmt.Fprintf(&b, "Pending migrations: %s", strings.Join(parts, ", "))
	return b.String()
}
