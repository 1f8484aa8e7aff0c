package model

import (
	"encoding/json"

	"github.com/goliatone/go-knackobject/pkg/knack"
)

type scalarJSON struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
	HTML  string `json:"html"`
	Raw   any    `json:"raw"`
}

type connectionJSON struct {
	Key          string              `json:"key"`
	Label        string              `json:"label"`
	Type         string              `json:"type"`
	Relationship *knack.Relationship `json:"relationship,omitempty"`
	Connections  []Connection        `json:"connections"`
}

type linkJSON struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Records    Tree   `json:"records"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// MarshalJSON emits the field in the platform's annotated-field shape.
func (f *ScalarField) MarshalJSON() ([]byte, error) {
	typ := f.Schema.PlatformType
	if typ == "" {
		typ = string(f.Schema.Type)
	}
	return json.Marshal(scalarJSON{
		Key:   f.Schema.Key,
		Label: f.Schema.Label,
		Type:  typ,
		HTML:  f.HTML,
		Raw:   f.Raw,
	})
}

// MarshalJSON emits the field with its resolved connections.
func (f *ConnectionField) MarshalJSON() ([]byte, error) {
	connections := f.Connections
	if connections == nil {
		connections = []Connection{}
	}
	return json.Marshal(connectionJSON{
		Key:          f.Schema.Key,
		Label:        f.Schema.Label,
		Type:         string(knack.FieldTypeConnection),
		Relationship: f.Schema.Relationship,
		Connections:  connections,
	})
}

// MarshalJSON emits the linked record stub and its resolved fields.
func (c Connection) MarshalJSON() ([]byte, error) {
	records := c.Records
	if records == nil {
		records = Tree{}
	}
	return json.Marshal(linkJSON{
		ID:         c.ID,
		Identifier: c.Identifier,
		Records:    records,
		Truncated:  c.Truncated,
	})
}

// MarshalJSON encodes the pair through its underlying fields.
func (p *LabelValuePair) MarshalJSON() ([]byte, error) {
	records := Tree{}
	if p.Label != nil {
		records = append(records, p.Label)
	}
	if p.Value != nil {
		records = append(records, p.Value)
	}
	return json.Marshal(records)
}

// MarshalJSON encodes the list as its records.
func (l *RecordList) MarshalJSON() ([]byte, error) {
	records := l.Records
	if records == nil {
		records = Tree{}
	}
	return json.Marshal(records)
}
