package sqlvalue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for wire-codec failures, surfaced to the orchestrator as
// ParseError per spec §7.
var (
	ErrMissingType     = errors.New("sqlvalue: missing \"type\" discriminator")
	ErrUnknownType     = errors.New("sqlvalue: unknown \"type\" discriminator")
	ErrUnexpectedField = errors.New("sqlvalue: unexpected field")
)

// SqlArg is a wire-serialized SQL parameter: a tagged union identical in
// shape to SqlScalar, with Blob encoded as Base64 (RFC 4648) on the wire.
type SqlArg struct {
	scalar SqlScalar
}

// NullArg returns the wire-encoded SQL NULL argument.
func NullArg() SqlArg { return SqlArg{scalar: NullScalar()} }

// Int64Arg wraps an int64 argument.
func Int64Arg(v int64) SqlArg { return SqlArg{scalar: Int64Scalar(v)} }

// RealArg wraps a float64 argument.
func RealArg(v float64) SqlArg { return SqlArg{scalar: RealScalar(v)} }

// TextArg wraps a string argument.
func TextArg(v string) SqlArg { return SqlArg{scalar: TextScalar(v)} }

// BlobArg wraps a byte-slice argument.
func BlobArg(v []byte) SqlArg { return SqlArg{scalar: BlobScalar(v)} }

// Kind reports the argument's tag.
func (a SqlArg) Kind() Kind { return a.scalar.kind }

// Any returns the underlying Go value, suitable for binding as a
// database/sql parameter.
func (a SqlArg) Any() any { return a.scalar.Any() }

// Scalar exposes the argument as an engine-side SqlScalar.
func (a SqlArg) Scalar() SqlScalar { return a.scalar }

type wireArg struct {
	Type string          `json:"type"`
	V    json.RawMessage `json:"v,omitempty"`
}

var argAllowedFields = map[string]bool{"type": true, "v": true}

// MarshalJSON emits the tagged union with defaults for every field (no
// omission), per spec §4.1.
func (a SqlArg) MarshalJSON() ([]byte, error) {
	w := wireArg{Type: a.scalar.kind.String()}

	var (
		raw []byte
		err error
	)

	switch a.scalar.kind {
	case KindNull:
		return json.Marshal(w)
	case KindInt64:
		raw, err = json.Marshal(a.scalar.int64)
	case KindReal:
		raw, err = json.Marshal(a.scalar.real)
	case KindText:
		raw, err = json.Marshal(a.scalar.text)
	case KindBlob:
		raw, err = json.Marshal(a.scalar.blob) // encoding/json base64-encodes []byte
	}

	if err != nil {
		return nil, fmt.Errorf("sqlvalue: marshal arg value: %w", err)
	}

	w.V = raw

	return json.Marshal(w)
}

// UnmarshalJSON decodes a tagged SqlArg, rejecting any key outside
// {"type", "v"} and any type other than the five recognized discriminators.
func (a *SqlArg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sqlvalue: decode arg: %w", err)
	}

	for k := range raw {
		if !argAllowedFields[k] {
			return fmt.Errorf("%w %q for SqlArg", ErrUnexpectedField, k)
		}
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return ErrMissingType
	}

	var typ string
	if err := json.Unmarshal(typeRaw, &typ); err != nil {
		return fmt.Errorf("sqlvalue: decode arg type: %w", err)
	}

	vRaw, hasV := raw["v"]

	switch typ {
	case "Null":
		a.scalar = NullScalar()

		return nil
	case "Int64":
		if !hasV {
			return fmt.Errorf("sqlvalue: Int64 arg missing \"v\"")
		}

		var v int64
		if err := json.Unmarshal(vRaw, &v); err != nil {
			return fmt.Errorf("sqlvalue: decode Int64 arg: %w", err)
		}

		a.scalar = Int64Scalar(v)
	case "Real":
		if !hasV {
			return fmt.Errorf("sqlvalue: Real arg missing \"v\"")
		}

		var v float64
		if err := json.Unmarshal(vRaw, &v); err != nil {
			return fmt.Errorf("sqlvalue: decode Real arg: %w", err)
		}

		a.scalar = RealScalar(v)
	case "Text":
		if !hasV {
			return fmt.Errorf("sqlvalue: Text arg missing \"v\"")
		}

		var v string
		if err := json.Unmarshal(vRaw, &v); err != nil {
			return fmt.Errorf("sqlvalue: decode Text arg: %w", err)
		}

		a.scalar = TextScalar(v)
	case "Blob":
		if !hasV {
			return fmt.Errorf("sqlvalue: Blob arg missing \"v\"")
		}

		var v []byte
		if err := json.Unmarshal(vRaw, &v); err != nil {
			return fmt.Errorf("sqlvalue: decode Blob arg: %w", err)
		}

		a.scalar = BlobScalar(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}

	return nil
}
