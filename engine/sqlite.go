package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver registered as "sqlite"

	"github.com/correlator-io/patchkit/sqlvalue"
)

const sqliteDriverName = "sqlite"

// Open opens a SQLite database at dsn (a file path, or "file::memory:?cache=shared"
// for an in-process database) using the pure-Go modernc.org/sqlite driver,
// and returns it wrapped as an Engine.
func Open(dsn string) (Engine, *sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("engine: ping sqlite: %w", err)
	}

	// SQLite allows only one writer; a single connection avoids
	// SQLITE_BUSY races between the executor's own statements and keeps
	// BEGIN IMMEDIATE / COMMIT / ROLLBACK on the same physical connection.
	db.SetMaxOpenConns(1)

	return NewSQLite(db), db, nil
}

// NewSQLite wraps an already-open *sql.DB as an Engine. The caller
// retains ownership of db and is responsible for closing it.
func NewSQLite(db *sql.DB) Engine {
	return &sqliteEngine{db: db}
}

// queryExecer is satisfied by both *sql.DB and *sql.Conn, letting
// sqliteEngine route statements to whichever is active.
type queryExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqliteEngine struct {
	db     *sql.DB
	txConn *sql.Conn
}

func (e *sqliteEngine) current() queryExecer {
	if e.txConn != nil {
		return e.txConn
	}

	return e.db
}

func (e *sqliteEngine) QueryScalar(ctx context.Context, query string, args []sqlvalue.SqlArg) (sqlvalue.SqlScalar, error) {
	row := e.current().QueryRowContext(ctx, query, bindArgs(args)...)

	var raw any

	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sqlvalue.NullScalar(), nil
		}

		return sqlvalue.SqlScalar{}, fmt.Errorf("engine: query scalar: %w", err)
	}

	return scalarFromAny(raw), nil
}

func (e *sqliteEngine) Execute(ctx context.Context, query string, args []sqlvalue.SqlArg) (int32, error) {
	res, err := e.current().ExecContext(ctx, query, bindArgs(args)...)
	if err != nil {
		return 0, fmt.Errorf("engine: execute: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("engine: rows affected: %w", err)
	}

	return int32(n), nil
}

func (e *sqliteEngine) InTransaction(ctx context.Context, immediate bool, fn func(ctx context.Context) error) (err error) {
	if e.txConn != nil {
		return ErrReentrantTransaction
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("engine: acquire connection: %w", err)
	}

	beginSQL := "BEGIN"
	if immediate {
		beginSQL = "BEGIN IMMEDIATE"
	}

	if _, err := conn.ExecContext(ctx, beginSQL); err != nil {
		_ = conn.Close()

		return fmt.Errorf("engine: %s: %w", beginSQL, err)
	}

	e.txConn = conn

	committed := false

	defer func() {
		e.txConn = nil

		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}

		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("engine: close transaction connection: %w", closeErr)
		}

		if r := recover(); r != nil {
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		return err
	}

	if _, commitErr := conn.ExecContext(ctx, "COMMIT"); commitErr != nil {
		err = fmt.Errorf("engine: commit: %w", commitErr)

		return err
	}

	committed = true

	return nil
}

func bindArgs(args []sqlvalue.SqlArg) []any {
	out := make([]any, len(args))

	for i, a := range args {
		out[i] = a.Any()
	}

	return out
}

func scalarFromAny(v any) sqlvalue.SqlScalar {
	switch t := v.(type) {
	case nil:
		return sqlvalue.NullScalar()
	case int64:
		return sqlvalue.Int64Scalar(t)
	case float64:
		return sqlvalue.RealScalar(t)
	case string:
		return sqlvalue.TextScalar(t)
	case []byte:
		return sqlvalue.BlobScalar(t)
	case bool:
		if t {
			return sqlvalue.Int64Scalar(1)
		}

		return sqlvalue.Int64Scalar(0)
	default:
		return sqlvalue.TextScalar(fmt.Sprintf("%v", t))
	}
}
