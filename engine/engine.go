// Package engine isolates SQLite specifics behind a three-operation
// abstraction, per spec §4.2: scalar query, DML execute, and transaction
// scope.
package engine

import (
	"context"
	"errors"

	"github.com/correlator-io/patchkit/sqlvalue"
)

// ErrReentrantTransaction is returned by an Engine implementation when
// InTransaction is called while a transaction opened by the same Engine is
// already in flight. The contract forbids reentrant transactions (spec §9).
var ErrReentrantTransaction = errors.New("engine: transactions are not reentrant")

// Engine exposes the three operations the executor needs against a SQLite
// connection. Implementations are not required to be safe for concurrent
// use by more than one in-flight Apply call (spec §5).
type Engine interface {
	// QueryScalar returns the first column of the first row of sql bound
	// to args, or sqlvalue.NullScalar() when the statement yields no rows.
	QueryScalar(ctx context.Context, sql string, args []sqlvalue.SqlArg) (sqlvalue.SqlScalar, error)

	// Execute runs a single DML/DDL statement and returns the number of
	// rows changed, per SQLite's changes().
	Execute(ctx context.Context, sql string, args []sqlvalue.SqlArg) (int32, error)

	// InTransaction opens BEGIN IMMEDIATE (when immediate) or BEGIN
	// (deferred), runs fn, COMMITs on a nil return, and ROLLBACKs and
	// propagates the error on any non-nil return or panic unwinding out of
	// fn.
	InTransaction(ctx context.Context, immediate bool, fn func(ctx context.Context) error) error
}

// Provider lazily produces the Engine for a given patch target. Providers
// may return a cached Engine instance; the registry invokes them on
// demand, per spec §4.2 "Registry of targets".
type Provider func() (Engine, error)

// Registry maps a target alias (Patch.Target) to its Provider.
type Registry map[string]Provider
