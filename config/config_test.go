/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/statstore/config"
	"github.com/suparena/statstore/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "thermostat", cfg.Storage.Database)
	assert.Equal(t, 128, cfg.Statements.CacheSize)
	assert.False(t, cfg.SSL.Enabled)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "statstore.yaml", `
storage:
  url: mongodb://db.example.com:27017
  database: stats
  serverSelectionTimeout: 3s
ssl:
  enabled: true
  disableHostnameVerification: true
statements:
  cacheSize: 16
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.example.com:27017", cfg.Storage.URL)
	assert.Equal(t, "stats", cfg.Storage.Database)
	assert.Equal(t, 3*time.Second, cfg.Storage.ServerSelectionTimeout)
	assert.Equal(t, 10*time.Second, cfg.Storage.ConnectTimeout)
	assert.True(t, cfg.SSL.Enabled)
	assert.True(t, cfg.SSL.DisableHostnameVerification)
	assert.Equal(t, 16, cfg.Statements.CacheSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STATSTORE_STORAGE_DATABASE", "fromenv")
	t.Setenv("STATSTORE_SSL_ENABLED", "true")
	t.Setenv("STATSTORE_STORAGE_CONNECT_TIMEOUT", "250ms")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Storage.Database)
	assert.True(t, cfg.SSL.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.ConnectTimeout)

	t.Run("BadBoolean", func(t *testing.T) {
		t.Setenv("STATSTORE_SSL_ENABLED", "maybe")
		_, err := config.Load("")
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestDotEnv(t *testing.T) {
	// godotenv does not override variables that are already set.
	t.Setenv("STATSTORE_LOGGING_LEVEL", "")
	require.NoError(t, os.Unsetenv("STATSTORE_LOGGING_LEVEL"))
	path := writeFile(t, ".env", "STATSTORE_LOGGING_LEVEL=DEBUG\n")

	cfg, err := config.Load("", path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"EmptyURL", func(c *config.Config) { c.Storage.URL = "" }},
		{"WrongScheme", func(c *config.Config) { c.Storage.URL = "http://localhost" }},
		{"EmptyDatabase", func(c *config.Config) { c.Storage.Database = " " }},
		{"NegativeTimeout", func(c *config.Config) { c.Storage.ConnectTimeout = -time.Second }},
		{"CertWithoutKey", func(c *config.Config) { c.SSL.CertFile = "client.pem" }},
		{"NegativeCache", func(c *config.Config) { c.Statements.CacheSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.True(t, errors.IsValidationError(cfg.Validate()))
		})
	}

	assert.NoError(t, config.Default().Validate())
	srv := config.Default()
	srv.Storage.URL = "mongodb+srv://cluster0.example.net/?retryWrites=true"
	assert.NoError(t, srv.Validate())
}

func TestCredentials(t *testing.T) {
	t.Setenv("STATSTORE_USERNAME", "agent")
	t.Setenv("STATSTORE_PASSWORD", "s3cret")

	var creds config.EnvCredentials
	assert.Equal(t, "agent", creds.Username())
	pw := creds.Password()
	assert.Equal(t, []byte("s3cret"), pw)
	pw[0] = 0
	assert.Equal(t, []byte("s3cret"), creds.Password())

	static := config.StaticCredentials{User: "u", Secret: []byte("p")}
	p := static.Password()
	p[0] = 0
	assert.Equal(t, []byte("p"), static.Secret)
}
