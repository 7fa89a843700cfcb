package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/api"
	"github.com/erazemk/vcledger/internal/auth"
	"github.com/erazemk/vcledger/internal/config"
	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/ledger"
	"github.com/erazemk/vcledger/internal/metrics"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout
// and ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// setupLogger configures structured logging. ERROR goes to stderr, everything
// else at or above level to stdout. If logPath is non-empty, all records are
// also written to that file. Returns a cleanup function that closes the log
// file (if opened).
func setupLogger(logPath, level string) (func(), error) {
	minLevel := parseLevel(level)
	opts := &slog.HandlerOptions{Level: minLevel}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    minLevel,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("vcledger", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var driver string
	fs.StringVar(&driver, "driver", "", "")

	var dsn string
	fs.StringVar(&dsn, "db", "", "")
	fs.StringVar(&dsn, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var adminName string
	fs.StringVar(&adminName, "admin", "Registry", "")
	fs.StringVar(&adminName, "u", "Registry", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	var issueFor int64
	fs.Int64Var(&issueFor, "issue-token", 0, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: vcledger [flags]

Flags:
  -c, -config <path>      TOML config file (default: vcledger.toml if present)
  -driver <name>          database driver: sqlite or pgx (default: sqlite)
  -d, -db <dsn>           SQLite path or Postgres DSN (default: vcledger.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -admin <name>       admin organization created on first run (default: Registry)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -issue-token <org id>   print a new API token for an organization and exit
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, loadedFrom, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, driver, dsn, addr, logPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}
	if loadedFrom != "" {
		slog.Info("configuration loaded", "path", loadedFrom)
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "driver", cfg.Database.Driver)

	// Load JWT secret from database (auto-generated on first run).
	ctx := context.Background()
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	if issueFor > 0 {
		if err := printToken(ctx, database, jwtSecret, issueFor); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := bootstrap(ctx, database, jwtSecret, adminName); err != nil {
		slog.Error("failed to initialize registry", "error", err)
		os.Exit(1)
	}

	rec := metrics.New()
	engine := ledger.New(database,
		ledger.WithMetrics(rec),
		ledger.WithDefaultExpiryMonths(cfg.Ledger.DefaultExpiryMonths),
	)

	handler := api.LoggingMiddleware(rec)(api.NewRouter(database, engine, jwtSecret, rec))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// applyFlags overrides configuration values with the flags that were given.
func applyFlags(cfg *config.Config, driver, dsn, addr, logPath string) {
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Log.Path = logPath
	}
}

// bootstrap creates the admin organization on an empty registry and prints
// a token for it. Nothing happens once any organization exists.
func bootstrap(ctx context.Context, database *sqlx.DB, secret, adminName string) error {
	n, err := store.CountOrganizations(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	org, err := store.CreateOrganization(ctx, database, adminName, model.OrgTypeAdmin, time.Now().UTC())
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(secret, org.ID, org.Type, 0)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println("Registry initialized.")
	fmt.Println()
	fmt.Println("Admin organization created:")
	fmt.Printf("  Name:  %s\n", org.Name)
	fmt.Printf("  ID:    %d\n", org.ID)
	fmt.Printf("  Token: %s\n", token)
	fmt.Println()
	fmt.Println("Save this token. Use -issue-token to create more.")
	fmt.Println()
	return nil
}

// printToken prints a new token for an active organization.
func printToken(ctx context.Context, database *sqlx.DB, secret string, orgID int64) error {
	org, err := store.GetOrganization(ctx, database, orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("organization %d not found", orgID)
	}
	if org.Status != model.OrgStatusActive {
		return fmt.Errorf("organization %d is %s", org.ID, org.Status)
	}

	token, err := auth.GenerateToken(secret, org.ID, org.Type, 0)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Println(token)
	return nil
}
