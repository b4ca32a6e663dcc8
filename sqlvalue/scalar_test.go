package sqlvalue

import "testing"

func TestSqlScalarAsInt64Coercion(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name   string
		scalar SqlScalar
		want   int64
	}{
		{"null coerces to 0", NullScalar(), 0},
		{"int64 passes through", Int64Scalar(42), 42},
		{"negative int64 passes through", Int64Scalar(-7), -7},
		{"real truncates toward zero", RealScalar(3.9), 3},
		{"negative real truncates toward zero", RealScalar(-3.9), -3},
		{"text parses as decimal integer", TextScalar("123"), 123},
		{"text with surrounding whitespace parses", TextScalar("  456  "), 456},
		{"negative text parses", TextScalar("-8"), -8},
		{"non-numeric text coerces to 0", TextScalar("not-a-number"), 0},
		{"empty text coerces to 0", TextScalar(""), 0},
		{"blob coerces to 0", BlobScalar([]byte{0x01, 0x02}), 0},
		{"empty blob coerces to 0", BlobScalar(nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scalar.AsInt64(); got != tt.want {
				t.Errorf("AsInt64() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSqlScalarKindAndAny(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name     string
		scalar   SqlScalar
		wantKind Kind
		wantAny  any
	}{
		{"null", NullScalar(), KindNull, nil},
		{"int64", Int64Scalar(9), KindInt64, int64(9)},
		{"real", RealScalar(1.5), KindReal, 1.5},
		{"text", TextScalar("x"), KindText, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scalar.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got, tt.wantKind)
			}

			if got := tt.scalar.Any(); got != tt.wantAny {
				t.Errorf("Any() = %v, want %v", got, tt.wantAny)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "Null"},
		{KindInt64, "Int64"},
		{KindReal, "Real"},
		{KindText, "Text"},
		{KindBlob, "Blob"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() for %d = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
