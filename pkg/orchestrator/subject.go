package orchestrator

import "github.com/goliatone/go-knackobject/pkg/model"

// Subject names what a request renders: the configured default record, a
// record by id, or a tree resolved earlier.
type Subject interface {
	isSubject()
}

type defaultRecord struct{}

type recordRef struct {
	objectID string
	recordID string
}

type resolvedTree struct {
	tree model.Tree
}

func (defaultRecord) isSubject() {}
func (recordRef) isSubject()     {}
func (resolvedTree) isSubject()  {}

// DefaultRecord renders the configured object and record.
func DefaultRecord() Subject {
	return defaultRecord{}
}

// Record renders recordID of the configured object.
func Record(recordID string) Subject {
	return recordRef{recordID: recordID}
}

// RecordOf renders recordID of objectID.
func RecordOf(objectID, recordID string) Subject {
	return recordRef{objectID: objectID, recordID: recordID}
}

// Resolved renders an already-resolved tree without fetching.
func Resolved(tree model.Tree) Subject {
	return resolvedTree{tree: tree}
}
