// Package patchkit applies declarative, JSON-encoded patches against a
// SQLite database with transactional safety, integrity checks, and
// idempotent application (spec §1).
package patchkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/correlator-io/patchkit/internal/executor"
	"github.com/correlator-io/patchkit/report"
	"github.com/correlator-io/patchkit/sqlvalue"
	"github.com/correlator-io/patchkit/validate"
)

// unknownPatchID is used for a patch id when a report must be produced
// before the patch id is known (parse failure, for instance), per spec §4.6.
const unknownPatchID = "unknown"

// PatchKit is the public orchestrator: parse, validate, idempotency-gate,
// execute, and report, per spec §4.6.
type PatchKit struct {
	registry Registry
	cfg      Config
	clock    report.Clock
	logger   *slog.Logger
}

// Option configures a PatchKit constructed by New.
type Option func(*PatchKit)

// WithClock overrides the orchestrator's time source. Tests inject a fixed
// or stepped clock for deterministic durations (spec §9, "Time source").
func WithClock(clock report.Clock) Option {
	return func(p *PatchKit) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger overrides the orchestrator's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *PatchKit) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a PatchKit bound to registry and cfg.
func New(registry Registry, cfg Config, opts ...Option) *PatchKit {
	p := &PatchKit{
		registry: registry,
		cfg:      cfg,
		clock:    report.SystemClock,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Apply runs the full lifecycle described in spec §4.6 against rawBytes and
// always returns a Report: no error from a malformed patch, an unknown
// target, a ledger failure, or an executor failure ever escapes Apply.
func (p *PatchKit) Apply(ctx context.Context, rawBytes []byte) *Report {
	startTime := p.clock()

	patch, err := p.parse(rawBytes)
	if err != nil {
		rep := report.NewReport(unknownPatchID, startTime)
		rep.Emit(report.NewEvent(p.clock(), report.EventPatchFailure, err.Error(), map[string]string{
			"exception": "ParseError",
		}))
		rep.Finish(p.clock(), 0)

		return rep
	}

	chain := validate.DefaultChain(p.cfg.MaxBytes, p.cfg.MaxActions, p.cfg.VerifyHash, p.cfg.AllowDDL)

	if res := chain.Validate(patch, rawBytes); !res.Ok() {
		rep := report.NewReport(patch.ID, startTime)
		rep.Emit(report.NewEvent(p.clock(), report.EventValidationFail, res.Message, map[string]string{
			"code": string(res.Code),
		}))
		rep.Finish(p.clock(), 0)

		return rep
	}

	provider, ok := p.registry[patch.Target]
	if !ok {
		return p.failureReport(patch.ID, startTime, fmt.Errorf("%w: %q", executor.ErrUnknownTarget, patch.Target), "UnknownTarget")
	}

	eng, err := provider()
	if err != nil {
		return p.failureReport(patch.ID, startTime, fmt.Errorf("%w: %v", executor.ErrEngineError, err), "EngineError")
	}

	if p.cfg.Idempotency != nil {
		if err := p.cfg.Idempotency.Initialize(ctx, eng); err != nil {
			return p.failureReport(patch.ID, startTime, fmt.Errorf("%w: %v", executor.ErrLedgerError, err), "LedgerError")
		}

		applied, err := p.cfg.Idempotency.HasBeenApplied(ctx, eng, patch.ID)
		if err != nil {
			return p.failureReport(patch.ID, startTime, fmt.Errorf("%w: %v", executor.ErrLedgerError, err), "LedgerError")
		}

		if applied {
			rep := report.NewReport(patch.ID, startTime)
			rep.Emit(report.NewEvent(p.clock(), report.EventIdempotentSkip, "patch already applied", nil))
			rep.Finish(p.clock(), 0)

			return rep
		}
	}

	exec := executor.New(executor.Config{
		PerActionTimeout: p.cfg.PerActionTimeout,
		TotalTimeout:     p.cfg.TotalTimeout,
		ChecksInReadTx:   p.cfg.ChecksInReadTx,
	}, p.clock, p.logger)

	rep := exec.Run(ctx, patch, eng)

	if rep.Success() && p.cfg.Idempotency != nil {
		metadata := metadataString(patch.Metadata)

		if err := p.cfg.Idempotency.RecordApplication(ctx, eng, patch.ID, metadata); err != nil {
			p.logger.Warn("ledger recording failed after successful commit",
				slog.String("patch_id", patch.ID), slog.String("error", err.Error()))

			rep.Emit(report.NewEvent(p.clock(), report.EventPatchFailure, err.Error(), map[string]string{
				"exception": "LedgerError",
			}))
		}
	}

	return rep
}

func (p *PatchKit) parse(rawBytes []byte) (sqlvalue.Patch, error) {
	var patch sqlvalue.Patch
	if err := json.Unmarshal(rawBytes, &patch); err != nil {
		return sqlvalue.Patch{}, fmt.Errorf("%w: %v", executor.ErrParse, err)
	}

	return patch, nil
}

func (p *PatchKit) failureReport(patchID string, startTime int64, err error, exceptionKind string) *Report {
	id := patchID
	if id == "" {
		id = unknownPatchID
	}

	rep := report.NewReport(id, startTime)
	rep.Emit(report.NewEvent(p.clock(), report.EventPatchFailure, err.Error(), map[string]string{
		"exception": exceptionKind,
	}))
	rep.Finish(p.clock(), 0)

	p.logger.Warn("patch failed before execution", slog.String("patch_id", id), slog.String("error", err.Error()))

	return rep
}

func metadataString(metadata map[string]string) string {
	data, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}

	return string(data)
}
