// Package config loads the vcledger configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DatabaseConfig selects the storage backend. For sqlite the DSN is a file
// path; for pgx it is a Postgres connection string.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// LedgerConfig holds ledger defaults.
type LedgerConfig struct {
	// DefaultExpiryMonths applies to organizations without lot settings.
	DefaultExpiryMonths int `toml:"default_expiry_months"`
}

// LogConfig controls logging.
type LogConfig struct {
	Path string `toml:"path"`
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "vcledger.sqlite3"},
		Ledger:   LedgerConfig{DefaultExpiryMonths: 24},
		Log:      LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server: addr is required"))
	}

	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database: invalid driver %q (expected sqlite or pgx)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database: dsn is required"))
	}

	if c.Ledger.DefaultExpiryMonths < 1 || c.Ledger.DefaultExpiryMonths > 600 {
		errs = append(errs, errors.New("ledger: default_expiry_months must be between 1 and 600"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log: invalid level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
