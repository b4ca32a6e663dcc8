package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/correlator-io/patchkit/sqlvalue"
)

// HashValidator verifies the raw patch bytes against an optional
// content-integrity hash declared in patch.metadata["sha256"], per spec
// §4.3 item 3.
type HashValidator struct{}

// NewHashValidator constructs a HashValidator.
func NewHashValidator() *HashValidator {
	return &HashValidator{}
}

func (v *HashValidator) Validate(patch sqlvalue.Patch, rawBytes []byte) Result {
	expected, declared := patch.Metadata[sqlvalue.MetadataSHA256Key]
	if !declared {
		return Success
	}

	if rawBytes == nil {
		return Fail(CodeHashMissingBytes, "metadata.sha256 is set but raw patch bytes are unavailable")
	}

	sum := sha256.Sum256(rawBytes)
	actual := hex.EncodeToString(sum[:])

	if !strings.EqualFold(actual, expected) {
		return Fail(CodeHashMismatch, "metadata.sha256 does not match the SHA-256 of the patch bytes")
	}

	return Success
}
