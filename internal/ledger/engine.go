// Package ledger implements the virtual code ownership ledger: lot
// registration, FIFO allocation, transfers between owners, recalls and the
// history query surface.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Recorder receives one observation per engine operation.
type Recorder interface {
	Observe(operation, result string, units int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, string, int, time.Duration) {}

// Engine executes ledger operations against a database. It is safe for
// concurrent use.
type Engine struct {
	db                  *sqlx.DB
	clock               func() time.Time
	metrics             Recorder
	defaultExpiryMonths int
	newCode             func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for every timestamp the engine writes.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMetrics sets the recorder that observes engine operations.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.metrics = r
		}
	}
}

// WithDefaultExpiryMonths sets the shelf life used for organizations that
// have no lot settings.
func WithDefaultExpiryMonths(months int) Option {
	return func(e *Engine) {
		if months > 0 {
			e.defaultExpiryMonths = months
		}
	}
}

// WithCodeGenerator replaces the generator for new virtual code strings.
func WithCodeGenerator(gen func() string) Option {
	return func(e *Engine) { e.newCode = gen }
}

// DefaultExpiryMonths is the shelf life used when neither the organization
// nor the engine configures one.
const DefaultExpiryMonths = 24

// New returns an engine backed by database.
func New(database *sqlx.DB, opts ...Option) *Engine {
	e := &Engine{
		db:                  database,
		clock:               time.Now,
		metrics:             nopRecorder{},
		defaultExpiryMonths: DefaultExpiryMonths,
		newCode:             newCodeString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// newCodeString returns a 32 character upper-case hex code.
func newCodeString() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// now returns the current time at the precision every supported database
// round-trips exactly.
func (e *Engine) now() time.Time {
	return e.clock().UTC().Truncate(time.Microsecond)
}

// today returns the current date at midnight UTC.
func (e *Engine) today() time.Time {
	return dateOnly(e.now())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inTx runs fn in a transaction, committing only if fn returns nil.
func (e *Engine) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// observe records the outcome of an operation and logs infrastructure
// failures.
func (e *Engine) observe(op string, start time.Time, units int, err error) {
	result := "ok"
	if err != nil {
		result = string(CodeOf(err))
		if result == "" {
			result = "error"
		}
		if Retryable(err) {
			slog.Error("ledger operation failed", "operation", op, "error", err)
		}
	}
	e.metrics.Observe(op, result, units, time.Since(start))
}
