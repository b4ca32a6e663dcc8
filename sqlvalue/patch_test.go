package sqlvalue

import (
	"encoding/json"
	"errors"
	"testing"
)

const minimalPatchJSON = `{
	"version": 1,
	"id": "activate-users-1",
	"target": "primary",
	"description": "",
	"preconditions": [{"sql":"SELECT COUNT(*) FROM users","operator":"EQUALS","expected":2,"description":""}],
	"actions": [
		{"type":"ParameterizedSqlAction","sql":"UPDATE users SET active = ? WHERE id = ?","parameters":[{"type":"Int64","v":1},{"type":"Int64","v":1}],"description":""},
		{"type":"SqlAction","sql":"UPDATE users SET name = 'Bobby' WHERE id = 2","description":""}
	],
	"postconditions": [],
	"metadata": {}
}`

func TestPatchUnmarshalMinimal(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var p Patch

	if err := json.Unmarshal([]byte(minimalPatchJSON), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if p.ID != "activate-users-1" {
		t.Errorf("ID = %q, want %q", p.ID, "activate-users-1")
	}

	if len(p.Actions) != 2 {
		t.Fatalf("len(Actions) = %d, want 2", len(p.Actions))
	}

	if _, ok := p.Actions[0].(ParameterizedSqlAction); !ok {
		t.Errorf("Actions[0] type = %T, want ParameterizedSqlAction", p.Actions[0])
	}

	if _, ok := p.Actions[1].(SqlAction); !ok {
		t.Errorf("Actions[1] type = %T, want SqlAction", p.Actions[1])
	}

	if len(p.Preconditions) != 1 || p.Preconditions[0].Expected != 2 {
		t.Errorf("Preconditions = %+v, want one condition expecting 2", p.Preconditions)
	}
}

func TestPatchUnmarshalRejectsUnknownKey(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	data := []byte(`{"version":1,"id":"x","target":"t","unexpected":true,"actions":[],"preconditions":[],"postconditions":[],"metadata":{}}`)

	var p Patch

	if err := json.Unmarshal(data, &p); err == nil {
		t.Fatalf("Unmarshal() expected error for unknown key, got nil")
	}
}

func TestPatchUnmarshalRejectsWrongVersion(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	data := []byte(`{"version":2,"id":"x","target":"t","actions":[],"preconditions":[],"postconditions":[],"metadata":{}}`)

	var p Patch

	err := json.Unmarshal(data, &p)
	if err == nil {
		t.Fatalf("Unmarshal() expected error for version != 1, got nil")
	}

	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("error = %v, want wrapping ErrUnsupportedVersion", err)
	}
}

func TestPatchUnmarshalRejectsBlankID(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	data := []byte(`{"version":1,"id":"  ","target":"t","actions":[],"preconditions":[],"postconditions":[],"metadata":{}}`)

	var p Patch

	if err := json.Unmarshal(data, &p); !errors.Is(err, ErrBlankID) {
		t.Errorf("error = %v, want ErrBlankID", err)
	}
}

func TestPatchUnmarshalRejectsActionUnknownField(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	data := []byte(`{"version":1,"id":"x","target":"t",
		"actions":[{"type":"SqlAction","sql":"SELECT 1","parameters":[]}],
		"preconditions":[],"postconditions":[],"metadata":{}}`)

	var p Patch

	if err := json.Unmarshal(data, &p); err == nil {
		t.Fatalf("Unmarshal() expected error for SqlAction with parameters field, got nil")
	}
}

func TestPatchMarshalEmitsDefaults(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	p, err := NewPatch(1, "id-1", "target-1", "", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewPatch() error = %v", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]json.RawMessage

	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("re-decode error = %v", err)
	}

	for _, key := range []string{"version", "id", "target", "description", "preconditions", "actions", "postconditions", "metadata"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("marshaled patch missing field %q", key)
		}
	}
}
