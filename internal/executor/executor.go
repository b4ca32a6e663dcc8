// Package executor implements the transactional core state machine: it
// drives exactly one patch against exactly one engine under an overall
// deadline, emitting the audit timeline consumed by callers (spec §4.5).
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/correlator-io/patchkit/engine"
	"github.com/correlator-io/patchkit/report"
	"github.com/correlator-io/patchkit/sqlvalue"
)

// Config bounds one Run call, mirroring the timeout and read-transaction
// knobs of PatchKitConfig (spec §6).
type Config struct {
	PerActionTimeout time.Duration
	TotalTimeout     time.Duration
	ChecksInReadTx   bool
}

// Executor runs the PRECHECK -> WRITE_TX -> POSTCHECK state machine for one
// patch against one engine.
type Executor struct {
	cfg    Config
	clock  report.Clock
	logger *slog.Logger
}

// New constructs an Executor. clock defaults to report.SystemClock when nil.
func New(cfg Config, clock report.Clock, logger *slog.Logger) *Executor {
	if clock == nil {
		clock = report.SystemClock
	}

	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return &Executor{cfg: cfg, clock: clock, logger: logger}
}

// Run drives patch against eng and returns the completed report. Run never
// returns an error: every outcome, including a total-timeout expiry, is
// captured in the returned report's timeline (spec §7).
func (e *Executor) Run(ctx context.Context, patch sqlvalue.Patch, eng engine.Engine) *report.Report {
	rep := report.NewReport(patch.ID, e.clock())

	ctx, cancel := context.WithTimeout(ctx, e.cfg.TotalTimeout)
	defer cancel()

	e.logger.Debug("executor starting", slog.String("patch_id", patch.ID))

	totalRows, err := e.run(ctx, patch, eng, rep)

	switch {
	case err == nil:
		rep.Emit(report.NewEvent(e.clock(), report.EventPatchSuccess, "patch applied successfully", nil))
		rep.Finish(e.clock(), totalRows)
		e.logger.Info("patch succeeded", slog.String("patch_id", patch.ID), slog.Int("affected_rows", int(totalRows)))
	case errors.Is(err, ErrPreconditionFailed), errors.Is(err, ErrPostconditionFailed):
		// The phase loop already emitted the specific *_FAIL event; only
		// precondition failures skip the generic PATCH_FAILURE wrapper
		// (the check code is itself terminal, per spec §4.5's FAIL(kind)).
		if errors.Is(err, ErrPostconditionFailed) {
			rep.Emit(report.NewEvent(e.clock(), report.EventPatchFailure, err.Error(), map[string]string{
				"exception": "PostconditionFailed",
			}))
		}

		rep.Finish(e.clock(), 0)
		e.logger.Warn("patch failed", slog.String("patch_id", patch.ID), slog.String("error", err.Error()))
	default:
		rep.Emit(report.NewEvent(e.clock(), report.EventPatchFailure, err.Error(), map[string]string{
			"exception": exceptionKind(err),
		}))
		rep.Finish(e.clock(), 0)
		e.logger.Warn("patch failed", slog.String("patch_id", patch.ID), slog.String("error", err.Error()))
	}

	return rep
}

// run executes the three phases and returns the total affected-row count on
// success, or the first failing phase's error. Write-phase transactionality
// is unconditional; checks are additionally wrapped in their own read
// transaction (immediate=false) when ChecksInReadTx is set, per spec §5's
// "Optional read-transaction around checks" — each check phase gets its own
// snapshot, distinct from the write phase's own transaction, never nested
// inside it.
func (e *Executor) run(ctx context.Context, patch sqlvalue.Patch, eng engine.Engine, rep *report.Report) (int32, error) {
	if err := e.runCheckPhase(ctx, eng, patch.Preconditions, rep,
		report.EventPrecheckStart, report.EventPrecheckOK, report.EventPrecheckFail, ErrPreconditionFailed); err != nil {
		return 0, err
	}

	totalRows, err := e.runWriteTx(ctx, patch, eng, rep)
	if err != nil {
		return 0, err
	}

	if err := e.runCheckPhase(ctx, eng, patch.Postconditions, rep,
		report.EventPostcheckStart, report.EventPostcheckOK, report.EventPostcheckFail, ErrPostconditionFailed); err != nil {
		return totalRows, err
	}

	return totalRows, nil
}

// runCheckPhase runs conditions, optionally wrapped in their own read
// transaction for a snapshot-consistent view across the phase's queries.
func (e *Executor) runCheckPhase(
	ctx context.Context,
	eng engine.Engine,
	conditions []sqlvalue.Condition,
	rep *report.Report,
	startCode, okCode, failCode report.EventCode,
	failKind error,
) error {
	if len(conditions) == 0 {
		return nil
	}

	if !e.cfg.ChecksInReadTx {
		return e.runChecks(ctx, eng, conditions, rep, startCode, okCode, failCode, failKind)
	}

	var checkErr error

	err := eng.InTransaction(ctx, false, func(ctx context.Context) error {
		checkErr = e.runChecks(ctx, eng, conditions, rep, startCode, okCode, failCode, failKind)

		return checkErr
	})
	if err != nil {
		return firstNonNil(checkErr, err)
	}

	return nil
}

func (e *Executor) runChecks(
	ctx context.Context,
	eng engine.Engine,
	conditions []sqlvalue.Condition,
	rep *report.Report,
	startCode, okCode, failCode report.EventCode,
	failKind error,
) error {
	if len(conditions) == 0 {
		return nil
	}

	rep.Emit(report.NewEvent(e.clock(), startCode, "", nil))

	for _, c := range conditions {
		scalar, err := eng.QueryScalar(ctx, c.SQL, nil)
		if err != nil {
			rep.Emit(report.NewEvent(e.clock(), failCode, err.Error(), map[string]string{
				"exception": "EngineError",
			}))

			return fmt.Errorf("%w: %v", ErrEngineError, err)
		}

		actual := scalar.AsInt64()
		if !c.Evaluate(actual) {
			rep.Emit(report.NewEvent(e.clock(), failCode, "check failed", map[string]string{
				"actual":   strconv.FormatInt(actual, 10),
				"expected": strconv.FormatInt(c.Expected, 10),
				"operator": c.Operator.String(),
			}))

			return fmt.Errorf("%w: %s", failKind, c.SQL)
		}
	}

	rep.Emit(report.NewEvent(e.clock(), okCode, "", nil))

	return nil
}

func (e *Executor) runWriteTx(ctx context.Context, patch sqlvalue.Patch, eng engine.Engine, rep *report.Report) (int32, error) {
	var totalRows int32

	err := eng.InTransaction(ctx, true, func(ctx context.Context) error {
		rep.Emit(report.NewEvent(e.clock(), report.EventTxBegin, "", nil))

		for _, a := range patch.Actions {
			label := sqlvalue.Label(a)

			rep.Emit(report.NewEvent(e.clock(), report.EventActionStart, label, nil))

			rows, err := e.executeWithTimeout(ctx, eng, a)
			if err != nil {
				rep.Emit(report.NewEvent(e.clock(), report.EventActionFail, err.Error(), map[string]string{
					"exception": exceptionKind(err),
					"action":    label,
				}))

				return fmt.Errorf("%w: %s: %v", ErrActionFailed, label, err)
			}

			totalRows += rows

			rep.Emit(report.NewEvent(e.clock(), report.EventActionOK, label, map[string]string{
				"rows": strconv.FormatInt(int64(rows), 10),
			}))
		}

		rep.Emit(report.NewEvent(e.clock(), report.EventTxCommit, "", nil))

		return nil
	})
	if err != nil {
		return 0, err
	}

	return totalRows, nil
}

func (e *Executor) executeWithTimeout(ctx context.Context, eng engine.Engine, a sqlvalue.Action) (int32, error) {
	if e.cfg.PerActionTimeout <= 0 {
		return eng.Execute(ctx, a.SQL(), a.Parameters())
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.PerActionTimeout)
	defer cancel()

	type result struct {
		rows int32
		err  error
	}

	done := make(chan result, 1)

	go func() {
		rows, err := eng.Execute(ctx, a.SQL(), a.Parameters())
		done <- result{rows: rows, err: err}
	}()

	select {
	case r := <-done:
		return r.rows, r.err
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrTimeoutExceeded, ctx.Err())
	}
}

func exceptionKind(err error) string {
	switch {
	case errors.Is(err, ErrTimeoutExceeded):
		return "TimeoutExceeded"
	case errors.Is(err, ErrActionFailed):
		return "ActionFailed"
	case errors.Is(err, ErrEngineError):
		return "EngineError"
	case errors.Is(err, ErrPreconditionFailed):
		return "PreconditionFailed"
	case errors.Is(err, ErrPostconditionFailed):
		return "PostconditionFailed"
	default:
		return "EngineError"
	}
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
