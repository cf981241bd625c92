package directors

import (
	"fmt"
)

// Index is an arena over a director tree, keyed by node id. It is built
// once per fetched tree and is what the presentation layer consumes, so
// rendering never walks the raw nested structure (and can never trigger a
// refetch while doing so).
type Index struct {
	roots []*Node
	nodes map[int64]*Node
	order []int64 // pre-order
}

// BuildIndex walks the nested tree representation and indexes every node.
//
// It enforces the hierarchy invariants along the way:
//   - ids are unique across the tree;
//   - a nested child's parent_id must name the node it is nested under;
//   - no node is its own ancestor (guaranteed by the two checks above,
//     since a node reached twice would collide on id).
func BuildIndex(roots []*Node) (*Index, error) {
	idx := &Index{
		roots: roots,
		nodes: make(map[int64]*Node),
	}
	for _, root := range roots {
		if root.ParentID != nil {
			return nil, fmt.Errorf("node %d is at the top level but has parent_id %d", root.ID, *root.ParentID)
		}
		if err := idx.walk(root, nil); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) walk(node *Node, parent *Node) error {
	if node == nil {
		return fmt.Errorf("nil node in tree")
	}
	if _, seen := idx.nodes[node.ID]; seen {
		return fmt.Errorf("duplicate node id %d", node.ID)
	}
	if parent != nil {
		if node.ParentID == nil || *node.ParentID != parent.ID {
			return fmt.Errorf("node %d is nested under %d but parent_id does not match", node.ID, parent.ID)
		}
	}
	idx.nodes[node.ID] = node
	idx.order = append(idx.order, node.ID)

	for _, child := range node.Children {
		if err := idx.walk(child, node); err != nil {
			return err
		}
	}
	return nil
}

// Roots returns the top-level nodes.
func (idx *Index) Roots() []*Node {
	return idx.roots
}

// Get returns the node with the given id.
func (idx *Index) Get(id int64) (*Node, bool) {
	node, ok := idx.nodes[id]
	return node, ok
}

// IDs returns every node id in pre-order.
func (idx *Index) IDs() []int64 {
	out := make([]int64, len(idx.order))
	copy(out, idx.order)
	return out
}

// Len returns the number of nodes in the tree.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Walk visits every node in pre-order. Returning false stops the walk.
func (idx *Index) Walk(fn func(node *Node) bool) {
	for _, id := range idx.order {
		if !fn(idx.nodes[id]) {
			return
		}
	}
}
