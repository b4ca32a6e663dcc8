package validate

import (
	"fmt"

	"github.com/correlator-io/patchkit/sqlvalue"
)

// SizeValidator bounds the raw patch payload size and the action count,
// per spec §4.3 item 1.
type SizeValidator struct {
	maxBytes   int64
	maxActions int
}

// NewSizeValidator constructs a SizeValidator.
func NewSizeValidator(maxBytes int64, maxActions int) *SizeValidator {
	return &SizeValidator{maxBytes: maxBytes, maxActions: maxActions}
}

func (v *SizeValidator) Validate(patch sqlvalue.Patch, rawBytes []byte) Result {
	if rawBytes != nil && int64(len(rawBytes)) > v.maxBytes {
		return Fail(CodeSizeExceeded, fmt.Sprintf(
			"patch is %d bytes, exceeds max_bytes %d", len(rawBytes), v.maxBytes))
	}

	if len(patch.Actions) > v.maxActions {
		return Fail(CodeTooManyActions, fmt.Sprintf(
			"patch has %d actions, exceeds max_actions %d", len(patch.Actions), v.maxActions))
	}

	return Success
}
