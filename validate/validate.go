// Package validate provides the pure, ordered validator chain that gates
// patch application before any engine call is made.
package validate

import (
	"github.com/correlator-io/patchkit/sqlvalue"
)

// Code identifies a validator failure, surfaced to callers in
// report.Event.Detail["code"] (spec §4.3, §8 scenario 2).
type Code string

const (
	CodeSizeExceeded     Code = "SIZE_EXCEEDED"
	CodeTooManyActions   Code = "TOO_MANY_ACTIONS"
	CodeMultiStatement   Code = "MULTI_STATEMENT"
	CodeHashMissingBytes Code = "HASH_MISSING_BYTES"
	CodeHashMismatch     Code = "HASH_MISMATCH"
	CodeDDLNotAllowed    Code = "DDL_NOT_ALLOWED"
)

// Result is the outcome of running a Validator: either Success (zero
// value) or a Failure carrying a Code and a human message.
type Result struct {
	Code    Code
	Message string
}

// Ok reports whether the result represents success.
func (r Result) Ok() bool { return r.Code == "" }

// Success is the zero Result.
var Success = Result{}

// Fail constructs a failing Result.
func Fail(code Code, message string) Result {
	return Result{Code: code, Message: message}
}

// Validator is a pure predicate over (patch, raw bytes). rawBytes is nil
// when the caller already has a parsed Patch without its original
// encoding (e.g. constructed in-process rather than decoded from bytes).
type Validator interface {
	Validate(patch sqlvalue.Patch, rawBytes []byte) Result
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(patch sqlvalue.Patch, rawBytes []byte) Result

func (f ValidatorFunc) Validate(patch sqlvalue.Patch, rawBytes []byte) Result {
	return f(patch, rawBytes)
}

// Chain runs an ordered list of validators, short-circuiting on the first
// failure, per spec §4.3.
type Chain struct {
	validators []Validator
}

// NewChain builds a Chain from validators in the given order.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Validate runs the chain, returning the first failure or Success.
func (c *Chain) Validate(patch sqlvalue.Patch, rawBytes []byte) Result {
	for _, v := range c.validators {
		if res := v.Validate(patch, rawBytes); !res.Ok() {
			return res
		}
	}

	return Success
}

// DefaultChain builds the standard chain from spec §4.3, in fixed order:
// size, single-statement, content hash (when verifyHash), DML-only (when
// !allowDDL).
func DefaultChain(maxBytes int64, maxActions int, verifyHash, allowDDL bool) *Chain {
	validators := []Validator{
		NewSizeValidator(maxBytes, maxActions),
		NewMultiStatementValidator(),
	}

	if verifyHash {
		validators = append(validators, NewHashValidator())
	}

	if !allowDDL {
		validators = append(validators, NewDmlOnlyValidator())
	}

	return NewChain(validators...)
}
