// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ReelVault Contributors

// Package config loads and validates server configuration.
//
// Sources are layered, later wins: built-in defaults, an optional YAML
// config file, REELVAULT_* environment variables, then command-line flags.
// The token secret is deliberately absent from the defaults: the server
// refuses to start without one.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/xdg"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "REELVAULT_CONFIG"

// minTokenSecretLength matches auth.MinSecretLength; validation happens here
// so a bad secret fails at startup, not at the first login.
const minTokenSecretLength = auth.MinSecretLength

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	// TokenSecret signs JWTs. Required, at least 32 bytes. Never logged.
	TokenSecret string `koanf:"token_secret"`
	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration `koanf:"token_ttl"`
	// HashProfile selects argon2id parameters: "default" or "fast".
	// "fast" exists for development; production keeps "default".
	HashProfile string `koanf:"hash_profile"`
	// LookupTimeout bounds the credential-store lookup during token
	// authentication.
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MetricsAddr:     ":9090",
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:      auth.DefaultTokenTTL,
			HashProfile:   "default",
			LookupTimeout: auth.DefaultLookupTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional config file at
// path (or $REELVAULT_CONFIG when path is empty), environment, and flags.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path == "" {
		// The XDG config file is optional; an explicit path is not.
		if candidate := DefaultPath(); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider("REELVAULT_", ".", envTransform), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the XDG location of the config file,
// $XDG_CONFIG_HOME/reelvault/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// envVarPaths maps REELVAULT_* environment variables to config paths.
// Unknown variables are ignored.
var envVarPaths = map[string]string{
	"SERVER_ADDR":      "server.addr",
	"METRICS_ADDR":     "server.metrics_addr",
	"SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"DATABASE_URL":     "database.url",
	"TOKEN_SECRET":     "auth.token_secret",
	"TOKEN_TTL":        "auth.token_ttl",
	"HASH_PROFILE":     "auth.hash_profile",
	"LOOKUP_TIMEOUT":   "auth.lookup_timeout",
	"LOG_LEVEL":        "log.level",
	"LOG_FORMAT":       "log.format",
}

func envTransform(key string) string {
	return envVarPaths[strings.TrimPrefix(key, "REELVAULT_")]
}

// Validate rejects configurations the server cannot start with.
// Error messages never include the secret value.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (REELVAULT_DATABASE_URL)")
	}
	if c.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.token_secret is required (REELVAULT_TOKEN_SECRET)")
	}
	if len(c.Auth.TokenSecret) < minTokenSecretLength {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.token_secret must be at least %d bytes, got %d",
				minTokenSecretLength, len(c.Auth.TokenSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Auth.HashProfile {
	case "default", "fast":
	default:
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.hash_profile must be %q or %q, got %q",
				"default", "fast", c.Auth.HashProfile)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			Errorf("log.format must be %q or %q, got %q", "json", "text", c.Log.Format)
	}
	return nil
}

// HashParams returns the argon2id parameters for the configured profile.
func (c *Config) HashParams() auth.Params {
	if c.Auth.HashProfile == "fast" {
		return auth.FastParams
	}
	return auth.DefaultParams
}
