package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	cfg.Database.DSN = ""
	cfg.Ledger.DefaultExpiryMonths = 0
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"invalid driver", "dsn is required", "default_expiry_months", "invalid level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcledger.toml")
	data := `
[server]
addr = "127.0.0.1:9000"

[database]
driver = "pgx"
dsn = "postgres://ledger@localhost/ledger"

[ledger]
default_expiry_months = 36
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != path {
		t.Errorf("expected path %q, got %q", path, loaded)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Database.Driver != "pgx" || cfg.Ledger.DefaultExpiryMonths != 36 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Log.Path != "" {
		t.Errorf("expected empty log path, got %q", cfg.Log.Path)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcledger.toml")
	if err := os.WriteFile(path, []byte("[log]\npath = \"ledger.log\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Ledger.DefaultExpiryMonths != 24 || cfg.Log.Path != "ledger.log" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "missing.toml"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[database]\ndriver = \"oracle\"\n"), 0600)
	if _, _, err := Load(bad); err == nil {
		t.Error("expected validation error")
	}

	unknown := filepath.Join(dir, "unknown.toml")
	os.WriteFile(unknown, []byte("[server]\nport = 80\n"), 0600)
	if _, _, err := Load(unknown); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Log.Path = "x.log"
	cfg.Log.Level = "warn"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}
