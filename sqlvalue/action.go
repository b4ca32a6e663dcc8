package sqlvalue

import (
	"encoding/json"
	"fmt"
)

// Action is a single SQL statement executed inside the write transaction,
// either raw (SqlAction) or positionally parameterized
// (ParameterizedSqlAction).
type Action interface {
	// SQL returns the statement text.
	SQL() string
	// Parameters returns the positional bind parameters, or nil for a raw
	// SqlAction.
	Parameters() []SqlArg
	// Description returns the human label, or "" when absent.
	Description() string

	isAction()
}

// SqlAction is raw SQL with no bind parameters.
type SqlAction struct {
	sql         string
	description string
}

// NewSqlAction constructs a raw SqlAction.
func NewSqlAction(sql, description string) SqlAction {
	return SqlAction{sql: sql, description: description}
}

func (a SqlAction) SQL() string           { return a.sql }
func (a SqlAction) Parameters() []SqlArg  { return nil }
func (a SqlAction) Description() string   { return a.description }
func (a SqlAction) isAction()             {}

// ParameterizedSqlAction is SQL bound to positional "?" parameters,
// 1-based.
type ParameterizedSqlAction struct {
	sql         string
	parameters  []SqlArg
	description string
}

// NewParameterizedSqlAction constructs a ParameterizedSqlAction.
func NewParameterizedSqlAction(sql string, parameters []SqlArg, description string) ParameterizedSqlAction {
	return ParameterizedSqlAction{sql: sql, parameters: parameters, description: description}
}

func (a ParameterizedSqlAction) SQL() string          { return a.sql }
func (a ParameterizedSqlAction) Parameters() []SqlArg { return a.parameters }
func (a ParameterizedSqlAction) Description() string  { return a.description }
func (a ParameterizedSqlAction) isAction()            {}

// Label returns the action's description, or the first 50 characters of
// its SQL when no description was given, per spec §4.5.
func Label(a Action) string {
	if d := a.Description(); d != "" {
		return d
	}

	const labelSQLPrefixLen = 50

	sql := a.SQL()
	runes := []rune(sql)

	if len(runes) <= labelSQLPrefixLen {
		return sql
	}

	return string(runes[:labelSQLPrefixLen])
}

var (
	sqlActionAllowedFields            = map[string]bool{"type": true, "sql": true, "description": true}
	parameterizedSqlActionAllowedFields = map[string]bool{
		"type": true, "sql": true, "parameters": true, "description": true,
	}
)

// MarshalAction emits an Action as its tagged wire representation with all
// fields present.
func MarshalAction(a Action) ([]byte, error) {
	switch v := a.(type) {
	case SqlAction:
		data, err := json.Marshal(struct {
			Type        string `json:"type"`
			SQL         string `json:"sql"`
			Description string `json:"description"`
		}{Type: "SqlAction", SQL: v.sql, Description: v.description})
		if err != nil {
			return nil, fmt.Errorf("sqlvalue: marshal SqlAction: %w", err)
		}

		return data, nil
	case ParameterizedSqlAction:
		params := v.parameters
		if params == nil {
			params = []SqlArg{}
		}

		data, err := json.Marshal(struct {
			Type        string   `json:"type"`
			SQL         string   `json:"sql"`
			Parameters  []SqlArg `json:"parameters"`
			Description string   `json:"description"`
		}{Type: "ParameterizedSqlAction", SQL: v.sql, Parameters: params, Description: v.description})
		if err != nil {
			return nil, fmt.Errorf("sqlvalue: marshal ParameterizedSqlAction: %w", err)
		}

		return data, nil
	default:
		return nil, fmt.Errorf("sqlvalue: marshal action: unknown implementation %T", a)
	}
}

// UnmarshalAction decodes a single tagged action, rejecting unknown keys
// for its variant.
func UnmarshalAction(data []byte) (Action, error) {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("sqlvalue: decode action: %w", err)
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return nil, ErrMissingType
	}

	var typ string
	if err := json.Unmarshal(typeRaw, &typ); err != nil {
		return nil, fmt.Errorf("sqlvalue: decode action type: %w", err)
	}

	switch typ {
	case "SqlAction":
		for k := range raw {
			if !sqlActionAllowedFields[k] {
				return nil, fmt.Errorf("%w %q for SqlAction", ErrUnexpectedField, k)
			}
		}

		var sql, description string

		if v, ok := raw["sql"]; ok {
			if err := json.Unmarshal(v, &sql); err != nil {
				return nil, fmt.Errorf("sqlvalue: decode SqlAction.sql: %w", err)
			}
		}

		if v, ok := raw["description"]; ok {
			if err := json.Unmarshal(v, &description); err != nil {
				return nil, fmt.Errorf("sqlvalue: decode SqlAction.description: %w", err)
			}
		}

		return NewSqlAction(sql, description), nil
	case "ParameterizedSqlAction":
		for k := range raw {
			if !parameterizedSqlActionAllowedFields[k] {
				return nil, fmt.Errorf("%w %q for ParameterizedSqlAction", ErrUnexpectedField, k)
			}
		}

		var (
			sql         string
			description string
			parameters  []SqlArg
		)

		if v, ok := raw["sql"]; ok {
			if err := json.Unmarshal(v, &sql); err != nil {
				return nil, fmt.Errorf("sqlvalue: decode ParameterizedSqlAction.sql: %w", err)
			}
		}

		if v, ok := raw["description"]; ok {
			if err := json.Unmarshal(v, &description); err != nil {
				return nil, fmt.Errorf("sqlvalue: decode ParameterizedSqlAction.description: %w", err)
			}
		}

		if v, ok := raw["parameters"]; ok {
			if err := json.Unmarshal(v, &parameters); err != nil {
				return nil, fmt.Errorf("sqlvalue: decode ParameterizedSqlAction.parameters: %w", err)
			}
		}

		return NewParameterizedSqlAction(sql, parameters, description), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}
