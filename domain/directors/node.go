// Package directors models the organizational hierarchy: director nodes,
// the tree and flat representations the API serves, and the client-side
// presentation state for the org chart.
package directors

// Node is one position in the organizational hierarchy.
//
// The same type carries both representations the API serves: in the tree
// representation Children is populated and nesting encodes the hierarchy;
// in the flat representation Children is empty and ParentID alone encodes
// it. A nil ParentID means the node is a root.
type Node struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	ParentID *int64  `json:"parent_id"`
	Image    string  `json:"image,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsRoot reports whether the node sits at the top of the hierarchy.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// HasChildren reports whether the node has nested children in the tree
// representation. The org chart must never show an expand affordance for
// a node without children.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}
