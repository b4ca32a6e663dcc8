package validate

import (
	"strings"

	"github.com/correlator-io/patchkit/sqlvalue"
)

// ddlKeywords are the statement prefixes rejected when DDL is not allowed,
// per spec §4.3 item 4.
var ddlKeywords = []string{"CREATE", "DROP", "ALTER", "TRUNCATE"}

// DmlOnlyValidator rejects DDL statements. It is wired into the chain only
// when PatchKitConfig.AllowDDL is false, per spec §6.
type DmlOnlyValidator struct{}

// NewDmlOnlyValidator constructs a DmlOnlyValidator.
func NewDmlOnlyValidator() *DmlOnlyValidator {
	return &DmlOnlyValidator{}
}

func (v *DmlOnlyValidator) Validate(patch sqlvalue.Patch, _ []byte) Result {
	for _, a := range patch.Actions {
		upper := strings.ToUpper(strings.TrimLeft(a.SQL(), " \t\n\r"))

		for _, kw := range ddlKeywords {
			if strings.HasPrefix(upper, kw) {
				return Fail(CodeDDLNotAllowed, "DDL statement not allowed: "+sqlvalue.Label(a))
			}
		}
	}

	return Success
}
