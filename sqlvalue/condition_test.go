package sqlvalue

import (
	"encoding/json"
	"testing"
)

func TestComparisonOperatorCompare(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		op       ComparisonOperator
		actual   int64
		expected int64
		want     bool
	}{
		{OpEquals, 5, 5, true},
		{OpEquals, 5, 6, false},
		{OpNotEquals, 5, 6, true},
		{OpNotEquals, 5, 5, false},
		{OpGreaterThan, 6, 5, true},
		{OpGreaterThan, 5, 5, false},
		{OpGreaterThan, 4, 5, false},
		{OpGreaterOrEqual, 5, 5, true},
		{OpGreaterOrEqual, 6, 5, true},
		{OpGreaterOrEqual, 4, 5, false},
		{OpLessThan, 4, 5, true},
		{OpLessThan, 5, 5, false},
		{OpLessThan, 6, 5, false},
		{OpLessOrEqual, 5, 5, true},
		{OpLessOrEqual, 4, 5, true},
		{OpLessOrEqual, 6, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := tt.op.Compare(tt.actual, tt.expected); got != tt.want {
				t.Errorf("Compare(%d, %d) = %v, want %v", tt.actual, tt.expected, got, tt.want)
			}
		})
	}
}

func TestComparisonOperatorStringRoundTrip(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ops := []ComparisonOperator{
		OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual,
	}

	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			parsed, err := ParseComparisonOperator(op.String())
			if err != nil {
				t.Fatalf("ParseComparisonOperator(%q) error = %v", op.String(), err)
			}

			if parsed != op {
				t.Errorf("ParseComparisonOperator(%q) = %v, want %v", op.String(), parsed, op)
			}
		})
	}
}

func TestParseComparisonOperatorUnknown(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	if _, err := ParseComparisonOperator("BETWEEN"); err == nil {
		t.Fatalf("ParseComparisonOperator(%q) error = nil, want error", "BETWEEN")
	}
}

func TestConditionEvaluate(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name   string
		op     ComparisonOperator
		actual int64
		want   bool
	}{
		{"equals satisfied", OpEquals, 2, true},
		{"not_equals satisfied", OpNotEquals, 3, true},
		{"greater_than satisfied", OpGreaterThan, 3, true},
		{"greater_or_equal satisfied at boundary", OpGreaterOrEqual, 2, true},
		{"less_than satisfied", OpLessThan, 1, true},
		{"less_or_equal satisfied at boundary", OpLessOrEqual, 2, true},
		{"equals unsatisfied", OpEquals, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Condition{SQL: "SELECT 1", Operator: tt.op, Expected: 2}
			if got := c.Evaluate(tt.actual); got != tt.want {
				t.Errorf("Evaluate(%d) = %v, want %v", tt.actual, got, tt.want)
			}
		})
	}
}

func TestConditionJSONRoundTripAllOperators(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	ops := []ComparisonOperator{
		OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual,
	}

	for _, op := range ops {
		t.Run(op.String(), func(t *testing.T) {
			c := Condition{SQL: "SELECT COUNT(*) FROM t", Operator: op, Expected: 10, Description: "d"}

			data, err := json.Marshal(c)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var decoded Condition
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if decoded != c {
				t.Errorf("round trip = %+v, want %+v", decoded, c)
			}
		})
	}
}

func TestConditionUnmarshalDefaultsOperatorToEquals(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var c Condition
	if err := json.Unmarshal([]byte(`{"sql": "SELECT 1", "expected": 1}`), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if c.Operator != OpEquals {
		t.Errorf("Operator = %v, want OpEquals", c.Operator)
	}
}

func TestConditionUnmarshalRejectsUnknownField(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var c Condition
	if err := json.Unmarshal([]byte(`{"sql": "SELECT 1", "expected": 1, "bogus": true}`), &c); err == nil {
		t.Fatalf("Unmarshal() error = nil, want error for unknown field")
	}
}
