package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/erazemk/vcledger/internal/config"
	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, "pgx", "postgres://localhost/ledger", "", "")

	if cfg.Database.Driver != "pgx" || cfg.Database.DSN != "postgres://localhost/ledger" {
		t.Errorf("expected database flags to override, got %+v", cfg.Database)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected unset addr flag to keep %q, got %q", ":8080", cfg.Server.Addr)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for range 2 {
		if err := bootstrap(ctx, database, "secret", "Registry"); err != nil {
			t.Fatalf("bootstrap: %v", err)
		}
	}

	orgs, err := store.ListOrganizations(ctx, database, "")
	if err != nil {
		t.Fatalf("ListOrganizations: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Type != model.OrgTypeAdmin || orgs[0].Name != "Registry" {
		t.Errorf("expected a single admin organization, got %+v", orgs)
	}
}
