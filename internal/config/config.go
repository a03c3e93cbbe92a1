// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

// Package config loads and validates service configuration. The result is
// an explicit object constructed once at startup and passed into
// constructors; nothing in this package is mutable global state.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Default values.
const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultTokenTTL    = 24 * time.Hour
	DefaultBcryptCost  = 10
)

// Environment variable names consulted when the file and flags leave a
// mandatory value unset.
const (
	envDatabaseURL = "DATABASE_URL"
	envAuthSecret  = "CIVICORE_AUTH_SECRET"
)

// AuthConfig holds the credential/session settings.
type AuthConfig struct {
	// Secret signs bearer tokens. Mandatory; there is no fallback value.
	Secret string `koanf:"secret"`

	// BcryptCost is the hashing cost factor. Zero selects the default.
	BcryptCost int `koanf:"bcrypt_cost"`

	// TokenTTL bounds token validity. Zero issues tokens without expiry.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// Config is the root configuration object.
type Config struct {
	DatabaseURL string     `koanf:"database_url"`
	HTTPAddr    string     `koanf:"http_addr"`
	MetricsAddr string     `koanf:"metrics_addr"`
	LogFormat   string     `koanf:"log_format"`
	Auth        AuthConfig `koanf:"auth"`
}

// Load merges defaults, an optional YAML file, CLI flags, and the
// environment (for the two mandatory secrets-adjacent values), then
// validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		HTTPAddr:    DefaultHTTPAddr,
		MetricsAddr: DefaultMetricsAddr,
		LogFormat:   DefaultLogFormat,
		Auth: AuthConfig{
			BcryptCost: DefaultBcryptCost,
			TokenTTL:   DefaultTokenTTL,
		},
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(envDatabaseURL)
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = os.Getenv(envAuthSecret)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing or nonsensical values. The signing secret
// and database URL are mandatory: an insecure built-in default is worse
// than refusing to start.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database_url is required (or set %s)", envDatabaseURL)
	}
	if c.Auth.Secret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.secret is required (or set %s)", envAuthSecret)
	}
	if c.HTTPAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.bcrypt_cost must be between %d and %d, got %d",
				bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.Auth.TokenTTL < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("auth.token_ttl cannot be negative")
	}
	return nil
}
