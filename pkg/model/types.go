package model

import "github.com/goliatone/go-knackobject/pkg/knack"

// NodeKind tags the variant held by a Node.
type NodeKind string

const (
	KindScalar     NodeKind = "scalar"
	KindConnection NodeKind = "connection"
	KindLabelValue NodeKind = "label_value"
	KindRecordList NodeKind = "record_list"
)

// Node is implemented by every variant of the resolved tree.
type Node interface {
	Kind() NodeKind
}

// Tree is the ordered output of one resolution pass over one record.
type Tree []Node

// ScalarField is a resolved non-relational field.
type ScalarField struct {
	Schema knack.FieldSchema
	HTML   string
	Raw    any
}

// Kind implements Node.
func (*ScalarField) Kind() NodeKind { return KindScalar }

// ConnectionField is a resolved relational field.
type ConnectionField struct {
	Schema      knack.FieldSchema
	Connections []Connection
}

// Kind implements Node.
func (*ConnectionField) Kind() NodeKind { return KindConnection }

// Connection is one linked record resolved against the child schema. Body
// holds either a *LabelValuePair or a *RecordList built from Records.
type Connection struct {
	ID         string
	Identifier string
	Records    Tree
	Body       Node

	// Truncated marks a record that already appears on its own ancestry
	// chain; Records stays empty.
	Truncated bool
}

// LabelValuePair is a child record made of the configured label and value
// fields only. Label is nil when the record holds just the value field.
type LabelValuePair struct {
	Label *ScalarField
	Value *ScalarField
}

// Kind implements Node.
func (*LabelValuePair) Kind() NodeKind { return KindLabelValue }

// RecordList is a child record rendered field by field.
type RecordList struct {
	Records Tree
}

// Kind implements Node.
func (*RecordList) Kind() NodeKind { return KindRecordList }

// Pairing names the labels that turn a child record into a LabelValuePair.
type Pairing struct {
	Key   string
	Value string
}

// Enabled reports whether any pairing label is configured.
func (p Pairing) Enabled() bool {
	return p.Value != ""
}

// Classify picks the body variant for a resolved child record. Records made of
// exactly the key scalar followed by the value scalar become a pair, a record
// holding only the value scalar becomes a value-only pair, anything else is a
// RecordList. Schema order matters: a value listed before its key is not a
// pair.
func (p Pairing) Classify(records Tree) Node {
	if !p.Enabled() {
		return &RecordList{Records: records}
	}

	switch len(records) {
	case 1:
		if value, ok := records[0].(*ScalarField); ok && value.Schema.Label == p.Value {
			return &LabelValuePair{Value: value}
		}
	case 2:
		if p.Key == "" {
			break
		}
		first, okFirst := records[0].(*ScalarField)
		second, okSecond := records[1].(*ScalarField)
		if !okFirst || !okSecond {
			break
		}
		if first.Schema.Label == p.Key && second.Schema.Label == p.Value {
			return &LabelValuePair{Label: first, Value: second}
		}
	}
	return &RecordList{Records: records}
}
