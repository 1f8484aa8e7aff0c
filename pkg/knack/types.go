package knack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType classifies a field for resolution purposes. The platform reports
// many concrete types; only connections change how a field is resolved.
type FieldType string

const (
	FieldTypeScalar     FieldType = "scalar"
	FieldTypeConnection FieldType = "connection"
)

// RawSuffix is appended to a field key to address the unformatted value.
const RawSuffix = "_raw"

// Relationship points a connection field at the object it links to.
type Relationship struct {
	Object string `json:"object"`
}

// FieldSchema describes one column of a Knack object.
type FieldSchema struct {
	Key          string        `json:"key"`
	Label        string        `json:"label"`
	Type         FieldType     `json:"type"`
	PlatformType string        `json:"platform_type,omitempty"`
	Relationship *Relationship `json:"relationship,omitempty"`
}

type wireField struct {
	Key          string        `json:"key"`
	Label        string        `json:"label"`
	Type         string        `json:"type"`
	Relationship *Relationship `json:"relationship,omitempty"`
}

// UnmarshalJSON folds the platform's field types into FieldType while keeping
// the original type string in PlatformType.
func (f *FieldSchema) UnmarshalJSON(data []byte) error {
	var wire wireField
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = FieldSchema{
		Key:          wire.Key,
		Label:        wire.Label,
		PlatformType: wire.Type,
		Relationship: wire.Relationship,
		Type:         FieldTypeScalar,
	}
	if strings.EqualFold(strings.TrimSpace(wire.Type), string(FieldTypeConnection)) {
		f.Type = FieldTypeConnection
	}
	return nil
}

// IsConnection reports whether the field links to records of another object.
func (f FieldSchema) IsConnection() bool {
	return f.Type == FieldTypeConnection
}

// RelatedObject returns the linked object id, or "" for scalar fields.
func (f FieldSchema) RelatedObject() string {
	if f.Relationship == nil {
		return ""
	}
	return strings.TrimSpace(f.Relationship.Object)
}

// RawKey returns the record key holding the unformatted value.
func (f FieldSchema) RawKey() string {
	return f.Key + RawSuffix
}

// Stub references one linked record inside a connection's raw value.
type Stub struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

// RawRecord maps field keys (and their _raw siblings) to decoded JSON values.
type RawRecord map[string]any

// ID returns the record id reported by the platform.
func (r RawRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Display returns the display-formatted value for key. Non-string values are
// rendered with their JSON text; null becomes "".
func (r RawRecord) Display(key string) (string, bool) {
	value, ok := r[key]
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		return string(encoded), true
	}
}

// Raw returns the unformatted value for the field key.
func (r RawRecord) Raw(key string) (any, bool) {
	value, ok := r[key+RawSuffix]
	return value, ok
}

// Stubs decodes the connection stubs stored under the field's raw key. A null
// raw value yields no stubs.
func (r RawRecord) Stubs(key string) ([]Stub, bool, error) {
	value, ok := r[key+RawSuffix]
	if !ok {
		return nil, false, nil
	}
	if value == nil {
		return nil, true, nil
	}
	items, isList := value.([]any)
	if !isList {
		return nil, true, fmt.Errorf("knack: %s is %T, want a list of connection stubs", key+RawSuffix, value)
	}
	stubs := make([]Stub, 0, len(items))
	for idx, item := range items {
		entry, isMap := item.(map[string]any)
		if !isMap {
			return nil, true, fmt.Errorf("knack: %s[%d] is %T, want an object", key+RawSuffix, idx, item)
		}
		id, _ := entry["id"].(string)
		if strings.TrimSpace(id) == "" {
			return nil, true, fmt.Errorf("knack: %s[%d] has no id", key+RawSuffix, idx)
		}
		identifier, _ := entry["identifier"].(string)
		stubs = append(stubs, Stub{ID: id, Identifier: identifier})
	}
	return stubs, true, nil
}

// FilterFields drops every field whose label appears in skip, preserving order.
func FilterFields(fields []FieldSchema, skip []string) []FieldSchema {
	if len(skip) == 0 {
		return fields
	}
	excluded := make(map[string]struct{}, len(skip))
	for _, label := range skip {
		excluded[label] = struct{}{}
	}
	out := make([]FieldSchema, 0, len(fields))
	for _, field := range fields {
		if _, drop := excluded[field.Label]; drop {
			continue
		}
		out = append(out, field)
	}
	return out
}
