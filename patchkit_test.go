package patchkit_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/correlator-io/patchkit"
	"github.com/correlator-io/patchkit/engine"
	"github.com/correlator-io/patchkit/report"
	"github.com/correlator-io/patchkit/sqlvalue"
)

func openUsersDB(t *testing.T) (patchkit.Engine, *sql.DB) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	eng, db, err := engine.Open(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, active INTEGER)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (id, name, active) VALUES (1, 'Alice', 0), (2, 'Bob', 0)`)
	require.NoError(t, err)

	return eng, db
}

func registryFor(eng patchkit.Engine) patchkit.Registry {
	return patchkit.Registry{
		"users-db": func() (patchkit.Engine, error) { return eng, nil },
	}
}

func hasEvent(rep *report.Report, code report.EventCode) bool {
	for _, ev := range rep.Events {
		if ev.Code == code {
			return true
		}
	}

	return false
}

func countEvents(rep *report.Report, code report.EventCode) int {
	n := 0

	for _, ev := range rep.Events {
		if ev.Code == code {
			n++
		}
	}

	return n
}

// scenario 1: success & idempotency.
func TestApplySuccessAndIdempotency(t *testing.T) {
	eng, _ := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "activate-users-1",
		"target": "users-db",
		"preconditions": [{"sql": "SELECT COUNT(*) FROM users", "operator": "EQUALS", "expected": 2}],
		"actions": [
			{"type": "ParameterizedSqlAction", "sql": "UPDATE users SET active = ? WHERE id = ?", "parameters": [{"type":"Int64","v":1},{"type":"Int64","v":1}]},
			{"type": "SqlAction", "sql": "UPDATE users SET name = 'Bobby' WHERE id = 2"}
		],
		"postconditions": [
			{"sql": "SELECT COUNT(*) FROM users WHERE active=1", "operator": "EQUALS", "expected": 1},
			{"sql": "SELECT COUNT(*) FROM users WHERE name='Bobby'", "operator": "EQUALS", "expected": 1}
		]
	}`)

	pk := patchkit.New(registryFor(eng), patchkit.DefaultConfig())

	first := pk.Apply(ctx, raw)
	require.True(t, first.Success())
	require.EqualValues(t, 2, first.AffectedRows)
	require.True(t, hasEvent(first, report.EventTxBegin))
	require.Equal(t, 2, countEvents(first, report.EventActionOK))
	require.True(t, hasEvent(first, report.EventTxCommit))
	require.True(t, hasEvent(first, report.EventPatchSuccess))

	second := pk.Apply(ctx, raw)
	require.False(t, second.Success())
	require.True(t, hasEvent(second, report.EventIdempotentSkip))
}

// scenario 2: validation short-circuit.
func TestApplyValidationShortCircuit(t *testing.T) {
	eng, _ := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "bad-ddl",
		"target": "users-db",
		"actions": [{"type": "SqlAction", "sql": "ALTER TABLE payments ADD COLUMN z INTEGER"}]
	}`)

	pk := patchkit.New(registryFor(eng), patchkit.DefaultConfig())

	rep := pk.Apply(ctx, raw)
	require.False(t, rep.Success())
	require.Len(t, rep.Events, 1)
	require.Equal(t, report.EventValidationFail, rep.Events[0].Code)
	require.Equal(t, "DDL_NOT_ALLOWED", rep.Events[0].Detail["code"])
}

// scenario 3: precondition failure.
func TestApplyPreconditionFailure(t *testing.T) {
	eng, _ := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "precheck-fail",
		"target": "users-db",
		"preconditions": [{"sql": "SELECT 0", "operator": "EQUALS", "expected": 1}],
		"actions": [{"type": "SqlAction", "sql": "UPDATE users SET active = 1"}]
	}`)

	pk := patchkit.New(registryFor(eng), patchkit.DefaultConfig())

	rep := pk.Apply(ctx, raw)
	require.False(t, rep.Success())
	require.False(t, hasEvent(rep, report.EventTxBegin))

	var failEvent *report.Event

	for i := range rep.Events {
		if rep.Events[i].Code == report.EventPrecheckFail {
			failEvent = &rep.Events[i]
		}
	}

	require.NotNil(t, failEvent)
	require.Equal(t, "0", failEvent.Detail["actual"])
	require.Equal(t, "1", failEvent.Detail["expected"])
	require.Equal(t, "EQUALS", failEvent.Detail["operator"])
}

// scenario 4: postcondition failure with rollback-not-applicable (the
// committed action's rows remain, per spec §8 scenario 4).
func TestApplyPostconditionFailureAfterCommit(t *testing.T) {
	eng, db := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "postcheck-fail",
		"target": "users-db",
		"actions": [{"type": "SqlAction", "sql": "UPDATE users SET active = 1 WHERE id = 1"}],
		"postconditions": [{"sql": "SELECT 1", "operator": "EQUALS", "expected": 0}]
	}`)

	pk := patchkit.New(registryFor(eng), patchkit.DefaultConfig())

	rep := pk.Apply(ctx, raw)
	require.False(t, rep.Success())
	require.True(t, hasEvent(rep, report.EventTxBegin))
	require.True(t, hasEvent(rep, report.EventActionOK))
	require.True(t, hasEvent(rep, report.EventTxCommit))
	require.True(t, hasEvent(rep, report.EventPostcheckFail))
	require.True(t, hasEvent(rep, report.EventPatchFailure))

	var active int

	require.NoError(t, db.QueryRow(`SELECT active FROM users WHERE id = 1`).Scan(&active))
	require.Equal(t, 1, active)
}

// scenario 5: per-action timeout.
func TestApplyPerActionTimeout(t *testing.T) {
	eng, _ := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "timeout-patch",
		"target": "users-db",
		"actions": [{"type": "SqlAction", "sql": "SELECT SLOW()"}]
	}`)

	cfg := patchkit.DefaultConfig()
	cfg.PerActionTimeout = time.Nanosecond
	cfg.VerifyHash = false

	pk := patchkit.New(registryFor(slowEngine{Engine: eng}), cfg)

	rep := pk.Apply(ctx, raw)
	require.False(t, rep.Success())
	require.False(t, hasEvent(rep, report.EventTxCommit))
	require.EqualValues(t, 0, rep.AffectedRows)
	require.True(t, hasEvent(rep, report.EventActionFail))
}

// scenario 6: hash integrity. The wrong hash fails HASH_MISMATCH;
// HASH_MISSING_BYTES (nil raw bytes) is covered directly against the
// validator chain in validate/validate_test.go, since Apply's own rawBytes
// argument can never be nil.
func TestApplyHashIntegrityMismatch(t *testing.T) {
	eng, _ := openUsersDB(t)
	ctx := context.Background()

	raw := []byte(`{
		"version": 1,
		"id": "hash-patch",
		"target": "users-db",
		"actions": [{"type": "SqlAction", "sql": "UPDATE users SET active=1"}],
		"metadata": {"sha256": "0000000000000000000000000000000000000000000000000000000000000000"}
	}`)

	pk := patchkit.New(registryFor(eng), patchkit.DefaultConfig())

	rep := pk.Apply(ctx, raw)
	require.False(t, rep.Success())
	require.Equal(t, report.EventValidationFail, rep.Events[0].Code)
	require.Equal(t, "HASH_MISMATCH", rep.Events[0].Detail["code"])
}

// slowEngine wraps an Engine and, on Execute of the patch's "SELECT SLOW()"
// action, blocks until its context is canceled, to exercise the per-action
// timeout path. Every other statement (the ledger's setup and bookkeeping)
// passes through to the wrapped Engine.
type slowEngine struct {
	patchkit.Engine
}

func (s slowEngine) Execute(ctx context.Context, query string, args []sqlvalue.SqlArg) (int32, error) {
	if query != "SELECT SLOW()" {
		return s.Engine.Execute(ctx, query, args)
	}

	<-ctx.Done()

	return 0, ctx.Err()
}
