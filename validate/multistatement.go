package validate

import (
	"strings"

	"github.com/correlator-io/patchkit/sqlvalue"
)

// MultiStatementValidator rejects any action whose SQL contains more than
// one statement, per spec §4.3 item 2 and §9 "Single-statement parser".
//
// This is a lightweight scanner, not a full SQL tokenizer: it tracks
// single- and double-quoted strings and backslash escapes, and treats any
// semicolon outside those as a statement boundary. It does not understand
// SQL comments (`--`, `/* */`) — a semicolon inside a comment is still
// counted as a boundary. A single trailing semicolon (after trimming
// trailing whitespace) is permitted.
type MultiStatementValidator struct{}

// NewMultiStatementValidator constructs a MultiStatementValidator.
func NewMultiStatementValidator() *MultiStatementValidator {
	return &MultiStatementValidator{}
}

func (v *MultiStatementValidator) Validate(patch sqlvalue.Patch, _ []byte) Result {
	for _, a := range patch.Actions {
		if hasIllegalMultiStatement(a.SQL()) {
			return Fail(CodeMultiStatement, "action SQL contains more than one top-level statement: "+sqlvalue.Label(a))
		}
	}

	return Success
}

// hasIllegalMultiStatement reports whether sql contains a top-level ';'
// other than a single, final one.
func hasIllegalMultiStatement(sql string) bool {
	trimmed := strings.TrimRight(sql, " \t\n\r")

	var (
		inSingle, inDouble, escaped bool
		topLevelSemicolons          []int
	)

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		if escaped {
			escaped = false

			continue
		}

		switch c {
		case '\\':
			escaped = true
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				topLevelSemicolons = append(topLevelSemicolons, i)
			}
		}
	}

	switch len(topLevelSemicolons) {
	case 0:
		return false
	case 1:
		return topLevelSemicolons[0] != len(trimmed)-1
	default:
		return true
	}
}
