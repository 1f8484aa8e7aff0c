package render

import "fmt"

// UnsupportedShapeError reports a tree node matching none of the known
// variants. Renderers stop at the first one instead of emitting partial
// output.
type UnsupportedShapeError struct {
	Path string
	Node any
}

func (e *UnsupportedShapeError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("render: unsupported node <nil> at %s", e.Path)
	}
	return fmt.Sprintf("render: unsupported node %T at %s", e.Node, e.Path)
}
