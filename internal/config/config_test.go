// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "civicore.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"database_url": "postgres://localhost/civicore",
		"auth": map[string]any{
			"secret": "test-secret",
		},
	})

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultBcryptCost, cfg.Auth.BcryptCost)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"database_url": "postgres://localhost/civicore",
		"http_addr":    ":9999",
		"log_format":   "text",
		"auth": map[string]any{
			"secret":      "test-secret",
			"bcrypt_cost": 12,
			"token_ttl":   "1h",
		},
	})

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"database_url": "postgres://localhost/civicore",
		"http_addr":    ":9999",
		"auth": map[string]any{
			"secret": "test-secret",
		},
	})

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http_addr", "", "HTTP listen address")
	require.NoError(t, flags.Parse([]string{"--http_addr", ":7777"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTPAddr)
}

func TestLoad_EnvironmentFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/civicore")
	t.Setenv("CIVICORE_AUTH_SECRET", "env-secret")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/civicore", cfg.DatabaseURL)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL: "postgres://localhost/civicore",
			HTTPAddr:    DefaultHTTPAddr,
			MetricsAddr: DefaultMetricsAddr,
			LogFormat:   DefaultLogFormat,
			Auth: AuthConfig{
				Secret:     "test-secret",
				BcryptCost: DefaultBcryptCost,
				TokenTTL:   DefaultTokenTTL,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing database URL",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "database_url",
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Auth.Secret = "" },
			wantErr: "auth.secret",
		},
		{
			name:    "missing http addr",
			mutate:  func(c *Config) { c.HTTPAddr = "" },
			wantErr: "http_addr",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "log_format",
		},
		{
			name:    "bcrypt cost too low",
			mutate:  func(c *Config) { c.Auth.BcryptCost = 2 },
			wantErr: "bcrypt_cost",
		},
		{
			name:    "bcrypt cost too high",
			mutate:  func(c *Config) { c.Auth.BcryptCost = 32 },
			wantErr: "bcrypt_cost",
		},
		{
			name:    "negative token TTL",
			mutate:  func(c *Config) { c.Auth.TokenTTL = -time.Hour },
			wantErr: "token_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
