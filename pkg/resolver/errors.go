package resolver

import (
	"fmt"
	"strings"
)

// SchemaMismatchError reports a record that does not carry a key its schema
// promises, or a connection field whose schema or raw value is unusable.
type SchemaMismatchError struct {
	ObjectID string
	RecordID string
	FieldKey string
	Reason   string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("resolver: record %s/%s field %s: %s", e.ObjectID, e.RecordID, e.FieldKey, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}

// CycleError reports a record reached again through its own connections.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "resolver: connection cycle " + strings.Join(e.Path, " -> ")
}

// DepthError reports a connection chain deeper than the configured limit.
type DepthError struct {
	Limit    int
	ObjectID string
	RecordID string
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("resolver: record %s/%s exceeds max connection depth %d", e.ObjectID, e.RecordID, e.Limit)
}
