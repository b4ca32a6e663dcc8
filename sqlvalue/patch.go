package sqlvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SupportedVersion is the only Patch.Version this codec accepts.
const SupportedVersion = 1

// Sentinel errors for Patch construction guards, per spec §4.1.
var (
	ErrUnsupportedVersion = errors.New("sqlvalue: unsupported patch version")
	ErrBlankID            = errors.New("sqlvalue: patch id must not be blank")
	ErrBlankTarget        = errors.New("sqlvalue: patch target must not be blank")
)

// MetadataSHA256Key is the recognized metadata key carrying the expected
// SHA-256 content hash of the raw patch bytes.
const MetadataSHA256Key = "sha256"

// Patch is a versioned, JSON-encoded bundle of preconditions, SQL actions,
// and postconditions with a stable id.
type Patch struct {
	Version        int
	ID             string
	Target         string
	Description    string
	Preconditions  []Condition
	Actions        []Action
	Postconditions []Condition
	Metadata       map[string]string
}

// NewPatch validates the constructor guards from spec §4.1 (version == 1,
// id and target non-blank) and returns a Patch, or the first violated
// guard as an error.
func NewPatch(
	version int,
	id, target, description string,
	preconditions []Condition,
	actions []Action,
	postconditions []Condition,
	metadata map[string]string,
) (Patch, error) {
	if version != SupportedVersion {
		return Patch{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if strings.TrimSpace(id) == "" {
		return Patch{}, ErrBlankID
	}

	if strings.TrimSpace(target) == "" {
		return Patch{}, ErrBlankTarget
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	return Patch{
		Version:        version,
		ID:             id,
		Target:         target,
		Description:    description,
		Preconditions:  preconditions,
		Actions:        actions,
		Postconditions: postconditions,
		Metadata:       metadata,
	}, nil
}

// MarshalJSON emits every field with defaults, per spec §4.1.
func (p Patch) MarshalJSON() ([]byte, error) {
	actions := make([]json.RawMessage, len(p.Actions))

	for i, a := range p.Actions {
		raw, err := MarshalAction(a)
		if err != nil {
			return nil, err
		}

		actions[i] = raw
	}

	pre := p.Preconditions
	if pre == nil {
		pre = []Condition{}
	}

	post := p.Postconditions
	if post == nil {
		post = []Condition{}
	}

	meta := p.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	if actions == nil {
		actions = []json.RawMessage{}
	}

	data, err := json.Marshal(struct {
		Version        int               `json:"version"`
		ID             string            `json:"id"`
		Target         string            `json:"target"`
		Description    string            `json:"description"`
		Preconditions  []Condition       `json:"preconditions"`
		Actions        []json.RawMessage `json:"actions"`
		Postconditions []Condition       `json:"postconditions"`
		Metadata       map[string]string `json:"metadata"`
	}{
		Version:        p.Version,
		ID:             p.ID,
		Target:         p.Target,
		Description:    p.Description,
		Preconditions:  pre,
		Actions:        actions,
		Postconditions: post,
		Metadata:       meta,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlvalue: marshal patch: %w", err)
	}

	return data, nil
}

var patchAllowedFields = map[string]bool{
	"version": true, "id": true, "target": true, "description": true,
	"preconditions": true, "actions": true, "postconditions": true, "metadata": true,
}

// UnmarshalJSON decodes a Patch, rejecting unknown top-level keys and
// re-checking the constructor guards.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sqlvalue: decode patch: %w", err)
	}

	for k := range raw {
		if !patchAllowedFields[k] {
			return fmt.Errorf("%w %q for Patch", ErrUnexpectedField, k)
		}
	}

	var (
		version                      int
		id, target, description     string
		preconditions, postcondition []Condition
		metadata                    map[string]string
	)

	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.version: %w", err)
		}
	}

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &id); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.id: %w", err)
		}
	}

	if v, ok := raw["target"]; ok {
		if err := json.Unmarshal(v, &target); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.target: %w", err)
		}
	}

	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &description); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.description: %w", err)
		}
	}

	if v, ok := raw["preconditions"]; ok {
		if err := json.Unmarshal(v, &preconditions); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.preconditions: %w", err)
		}
	}

	if v, ok := raw["postconditions"]; ok {
		if err := json.Unmarshal(v, &postcondition); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.postconditions: %w", err)
		}
	}

	if v, ok := raw["metadata"]; ok {
		if err := json.Unmarshal(v, &metadata); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.metadata: %w", err)
		}
	}

	var actions []Action

	if v, ok := raw["actions"]; ok {
		var rawActions []json.RawMessage
		if err := json.Unmarshal(v, &rawActions); err != nil {
			return fmt.Errorf("sqlvalue: decode patch.actions: %w", err)
		}

		actions = make([]Action, len(rawActions))

		for i, ra := range rawActions {
			a, err := UnmarshalAction(ra)
			if err != nil {
				return err
			}

			actions[i] = a
		}
	}

	patch, err := NewPatch(version, id, target, description, preconditions, actions, postcondition, metadata)
	if err != nil {
		return err
	}

	*p = patch

	return nil
}
