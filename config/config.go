/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/joho/godotenv"
	"github.com/suparena/statstore/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STATSTORE_"

// Config is the complete StatStore configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	SSL        SSLConfig        `yaml:"ssl"`
	Logging    LoggingConfig    `yaml:"logging"`
	Statements StatementsConfig `yaml:"statements"`
	Setup      SetupConfig      `yaml:"setup"`
}

type StorageConfig struct {
	URL                    string        `yaml:"url"`
	Database               string        `yaml:"database"`
	ServerSelectionTimeout time.Duration `yaml:"serverSelectionTimeout"`
	ConnectTimeout         time.Duration `yaml:"connectTimeout"`
}

// SSLConfig controls TLS towards the backing store.
type SSLConfig struct {
	Enabled                     bool   `yaml:"enabled"`
	DisableHostnameVerification bool   `yaml:"disableHostnameVerification"`
	CAFile                      string `yaml:"caFile"`
	CertFile                    string `yaml:"certFile"`
	KeyFile                     string `yaml:"keyFile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StatementsConfig struct {
	// CacheSize bounds the number of parsed descriptors kept per factory.
	CacheSize int `yaml:"cacheSize"`
}

type SetupConfig struct {
	// DataDir holds the setup stamp file.
	DataDir string `yaml:"dataDir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			URL:                    "mongodb://127.0.0.1:27518",
			Database:               "thermostat",
			ServerSelectionTimeout: 10 * time.Second,
			ConnectTimeout:         10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "CONSOLE",
		},
		Statements: StatementsConfig{
			CacheSize: 128,
		},
		Setup: SetupConfig{
			DataDir: ".",
		},
	}
}

// Load reads the YAML file at path (skipped when empty), then the given
// .env files (missing ones are ignored), then STATSTORE_* environment
// variables, and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("STORAGE_URL", &c.Storage.URL)
	str("STORAGE_DATABASE", &c.Storage.Database)
	str("SSL_CA_FILE", &c.SSL.CAFile)
	str("SSL_CERT_FILE", &c.SSL.CertFile)
	str("SSL_KEY_FILE", &c.SSL.KeyFile)
	str("LOGGING_LEVEL", &c.Logging.Level)
	str("LOGGING_FORMAT", &c.Logging.Format)
	str("SETUP_DATA_DIR", &c.Setup.DataDir)

	bools := map[string]*bool{
		"SSL_ENABLED":                       &c.SSL.Enabled,
		"SSL_DISABLE_HOSTNAME_VERIFICATION": &c.SSL.DisableHostnameVerification,
	}
	for name, dst := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.NewValidationError(EnvPrefix+name, "not a boolean: "+v)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"STORAGE_SERVER_SELECTION_TIMEOUT": &c.Storage.ServerSelectionTimeout,
		"STORAGE_CONNECT_TIMEOUT":          &c.Storage.ConnectTimeout,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.NewValidationError(EnvPrefix+name, "not a duration: "+v)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "STATEMENTS_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"STATEMENTS_CACHE_SIZE", "not an integer: "+v)
		}
		c.Statements.CacheSize = n
	}
	return nil
}

// Validate checks the storage URL and the settings that have no usable zero value.
func (c *Config) Validate() error {
	url := strings.TrimSpace(c.Storage.URL)
	if url == "" {
		return errors.NewValidationError("storage.url", "required")
	}
	if !strings.HasPrefix(url, "mongodb://") && !strings.HasPrefix(url, "mongodb+srv://") {
		return errors.NewValidationError("storage.url", "scheme must be mongodb or mongodb+srv")
	}
	if !strfmt.Default.Validates("uri", url) {
		return errors.NewValidationError("storage.url", "not a valid URI")
	}
	if strings.TrimSpace(c.Storage.Database) == "" {
		return errors.NewValidationError("storage.database", "required")
	}
	if c.Storage.ServerSelectionTimeout < 0 || c.Storage.ConnectTimeout < 0 {
		return errors.NewValidationError("storage", "timeouts must not be negative")
	}
	if c.SSL.CertFile != "" && c.SSL.KeyFile == "" {
		return errors.NewValidationError("ssl.keyFile", "required with ssl.certFile")
	}
	if c.Statements.CacheSize < 0 {
		return errors.NewValidationError("statements.cacheSize", "must not be negative")
	}
	return nil
}
