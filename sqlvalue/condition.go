package sqlvalue

import (
	"encoding/json"
	"fmt"
)

// ComparisonOperator names the relation a Condition checks between the
// actual query result and its expected value.
type ComparisonOperator int

const (
	OpEquals ComparisonOperator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
)

// String returns the wire representation of the operator.
func (op ComparisonOperator) String() string {
	switch op {
	case OpEquals:
		return "EQUALS"
	case OpNotEquals:
		return "NOT_EQUALS"
	case OpGreaterThan:
		return "GREATER_THAN"
	case OpGreaterOrEqual:
		return "GREATER_OR_EQUAL"
	case OpLessThan:
		return "LESS_THAN"
	case OpLessOrEqual:
		return "LESS_OR_EQUAL"
	default:
		return "EQUALS"
	}
}

// ParseComparisonOperator parses the wire representation of an operator.
func ParseComparisonOperator(s string) (ComparisonOperator, error) {
	switch s {
	case "EQUALS":
		return OpEquals, nil
	case "NOT_EQUALS":
		return OpNotEquals, nil
	case "GREATER_THAN":
		return OpGreaterThan, nil
	case "GREATER_OR_EQUAL":
		return OpGreaterOrEqual, nil
	case "LESS_THAN":
		return OpLessThan, nil
	case "LESS_OR_EQUAL":
		return OpLessOrEqual, nil
	default:
		return 0, fmt.Errorf("%w: unknown comparison operator %q", ErrUnknownType, s)
	}
}

// Compare applies the operator to (actual, expected).
func (op ComparisonOperator) Compare(actual, expected int64) bool {
	switch op {
	case OpEquals:
		return actual == expected
	case OpNotEquals:
		return actual != expected
	case OpGreaterThan:
		return actual > expected
	case OpGreaterOrEqual:
		return actual >= expected
	case OpLessThan:
		return actual < expected
	case OpLessOrEqual:
		return actual <= expected
	default:
		return false
	}
}

// Condition is a single-column, single-row numeric guard query compared
// against a literal expected value via Operator.
type Condition struct {
	SQL         string
	Operator    ComparisonOperator
	Expected    int64
	Description string
}

// Evaluate reports whether actual satisfies the condition.
func (c Condition) Evaluate(actual int64) bool {
	return c.Operator.Compare(actual, c.Expected)
}

type wireCondition struct {
	SQL         string `json:"sql"`
	Operator    string `json:"operator"`
	Expected    int64  `json:"expected"`
	Description string `json:"description"`
}

// MarshalJSON emits all fields, including the operator default, per spec §4.1.
func (c Condition) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(wireCondition{
		SQL:         c.SQL,
		Operator:    c.Operator.String(),
		Expected:    c.Expected,
		Description: c.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlvalue: marshal condition: %w", err)
	}

	return data, nil
}

var conditionAllowedFields = map[string]bool{
	"sql": true, "operator": true, "expected": true, "description": true,
}

// UnmarshalJSON decodes a Condition, defaulting Operator to EQUALS when
// absent and rejecting unknown keys.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sqlvalue: decode condition: %w", err)
	}

	for k := range raw {
		if !conditionAllowedFields[k] {
			return fmt.Errorf("%w %q for Condition", ErrUnexpectedField, k)
		}
	}

	out := Condition{Operator: OpEquals}

	if v, ok := raw["sql"]; ok {
		if err := json.Unmarshal(v, &out.SQL); err != nil {
			return fmt.Errorf("sqlvalue: decode condition.sql: %w", err)
		}
	}

	if v, ok := raw["operator"]; ok {
		var opStr string
		if err := json.Unmarshal(v, &opStr); err != nil {
			return fmt.Errorf("sqlvalue: decode condition.operator: %w", err)
		}

		op, err := ParseComparisonOperator(opStr)
		if err != nil {
			return err
		}

		out.Operator = op
	}

	if v, ok := raw["expected"]; ok {
		if err := json.Unmarshal(v, &out.Expected); err != nil {
			return fmt.Errorf("sqlvalue: decode condition.expected: %w", err)
		}
	}

	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &out.Description); err != nil {
			return fmt.Errorf("sqlvalue: decode condition.description: %w", err)
		}
	}

	*c = out

	return nil
}
