package model

// Fields returns the scalar fields of the tree in document order, descending
// into every connection.
func (t Tree) Fields() []*ScalarField {
	var out []*ScalarField
	t.Walk(func(node Node) bool {
		if scalar, ok := node.(*ScalarField); ok {
			out = append(out, scalar)
		}
		return true
	})
	return out
}

// Walk visits nodes depth first. Returning false from fn skips the node's
// children.
func (t Tree) Walk(fn func(Node) bool) {
	for _, node := range t {
		walkNode(node, fn)
	}
}

func walkNode(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	field, ok := node.(*ConnectionField)
	if !ok {
		return
	}
	for _, conn := range field.Connections {
		conn.Records.Walk(fn)
	}
}

// Depth reports the deepest connection nesting in the tree; a tree without
// connections has depth 0.
func (t Tree) Depth() int {
	deepest := 0
	for _, node := range t {
		field, ok := node.(*ConnectionField)
		if !ok {
			continue
		}
		for _, conn := range field.Connections {
			if d := conn.Records.Depth() + 1; d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
