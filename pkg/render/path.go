package render

import "strconv"

// ChildPath appends an index segment to a node path used in error messages.
func ChildPath(parent string, idx int) string {
	return parent + "[" + strconv.Itoa(idx) + "]"
}

// FieldPath appends a field key segment to a node path.
func FieldPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
