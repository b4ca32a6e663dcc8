package executor

import "errors"

// Sentinel error kinds, per spec §7. The orchestrator converts every one of
// these into a terminal report event; none escape Apply.
var (
	ErrParse               = errors.New("executor: parse error")
	ErrUnknownTarget       = errors.New("executor: unknown target")
	ErrPreconditionFailed  = errors.New("executor: precondition failed")
	ErrPostconditionFailed = errors.New("executor: postcondition failed")
	ErrActionFailed        = errors.New("executor: action failed")
	ErrTimeoutExceeded     = errors.New("executor: timeout exceeded")
	ErrLedgerError         = errors.New("executor: ledger error")
	ErrEngineError         = errors.New("executor: engine error")
)
