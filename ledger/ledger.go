// Package ledger records which patches have already been applied, giving
// Apply its at-most-once semantics (spec §4.4).
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/correlator-io/patchkit/engine"
	"github.com/correlator-io/patchkit/sqlvalue"
)

// DefaultTable is the ledger table name used when WithTable does not
// override it.
const DefaultTable = "_patchkit_applied"

// ErrBlankPatchID is returned by HasBeenApplied and RecordApplication when
// called with an empty patch id.
var ErrBlankPatchID = errors.New("ledger: patch id must not be blank")

// Manager is the idempotency gate the orchestrator consults before and
// after running a patch. A nil Manager disables idempotency entirely
// (PatchKitConfig.Idempotency == nil), per spec §6.
type Manager interface {
	// Initialize creates the ledger's backing storage if absent. Safe to
	// call repeatedly and must run outside any mutating transaction.
	Initialize(ctx context.Context, eng engine.Engine) error

	// HasBeenApplied reports whether patchID already has a successful
	// ledger entry.
	HasBeenApplied(ctx context.Context, eng engine.Engine, patchID string) (bool, error)

	// RecordApplication inserts a ledger row for patchID at the current
	// time. Called after the write transaction commits, outside of it.
	RecordApplication(ctx context.Context, eng engine.Engine, patchID, metadata string) error
}

// Clock returns the current time as epoch milliseconds. It exists so the
// ledger's timestamps can be made deterministic in tests.
type Clock func() int64

// Ledger is the default SQLite-table backed Manager described in spec
// §4.4: one row per successfully applied patch id, keyed by a unique index.
type Ledger struct {
	table  string
	clock  Clock
	logger *slog.Logger
}

// Option configures a Ledger constructed by New.
type Option func(*Ledger)

// WithTable overrides the ledger table name (default DefaultTable).
func WithTable(table string) Option {
	return func(l *Ledger) {
		if table != "" {
			l.table = table
		}
	}
}

// WithClock overrides the ledger's time source (default: wall-clock
// epoch-millis). Tests inject a fixed clock for deterministic assertions.
func WithClock(clock Clock) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger overrides the ledger's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New constructs a Ledger backed by DefaultTable, a wall-clock Clock, and a
// JSON slog.Logger writing to stdout, each overridable via opts.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		table: DefaultTable,
		clock: systemClockMillis,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Ledger) Initialize(ctx context.Context, eng engine.Engine) error {
	createTable := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (patch_id TEXT PRIMARY KEY, applied_at INTEGER NOT NULL, metadata TEXT)`,
		l.table,
	)
	if _, err := eng.Execute(ctx, createTable, nil); err != nil {
		return fmt.Errorf("ledger: create table %s: %w", l.table, err)
	}

	createIndex := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_patch_id ON %s (patch_id)`,
		l.table, l.table,
	)
	if _, err := eng.Execute(ctx, createIndex, nil); err != nil {
		return fmt.Errorf("ledger: create index on %s: %w", l.table, err)
	}

	l.logger.Debug("ledger initialized", slog.String("table", l.table))

	return nil
}

func (l *Ledger) HasBeenApplied(ctx context.Context, eng engine.Engine, patchID string) (bool, error) {
	if patchID == "" {
		return false, ErrBlankPatchID
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE patch_id = ?`, l.table)

	scalar, err := eng.QueryScalar(ctx, query, []sqlvalue.SqlArg{sqlvalue.TextArg(patchID)})
	if err != nil {
		return false, fmt.Errorf("ledger: query %s: %w", l.table, err)
	}

	return scalar.AsInt64() > 0, nil
}

func (l *Ledger) RecordApplication(ctx context.Context, eng engine.Engine, patchID, metadata string) error {
	if patchID == "" {
		return ErrBlankPatchID
	}

	insert := fmt.Sprintf(`INSERT INTO %s (patch_id, applied_at, metadata) VALUES (?, ?, ?)`, l.table)

	args := []sqlvalue.SqlArg{
		sqlvalue.TextArg(patchID),
		sqlvalue.Int64Arg(l.clock()),
		sqlvalue.TextArg(metadata),
	}

	if _, err := eng.Execute(ctx, insert, args); err != nil {
		return fmt.Errorf("ledger: record application of %q: %w", patchID, err)
	}

	l.logger.Info("patch recorded in ledger", slog.String("patch_id", patchID))

	return nil
}
