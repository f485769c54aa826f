// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package xdg provides XDG Base Directory paths for ReelVault.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "reelvault"

// ConfigDir returns the XDG config directory for reelvault.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}
