package directors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(id int64) *int64 { return &id }

// sampleTree builds A -> [B, C -> [D]].
func sampleTree() []*Node {
	return []*Node{
		{
			ID:   1,
			Name: "أحمد",
			Children: []*Node{
				{ID: 2, Name: "سارة", ParentID: ref(1)},
				{
					ID:       3,
					Name:     "خالد",
					ParentID: ref(1),
					Children: []*Node{
						{ID: 4, Name: "ليلى", ParentID: ref(3)},
					},
				},
			},
		},
	}
}

func TestBuildIndex_WalksPreOrder(t *testing.T) {
	idx, err := BuildIndex(sampleTree())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, idx.IDs())
	assert.Equal(t, 4, idx.Len())
	require.Len(t, idx.Roots(), 1)
	assert.Equal(t, int64(1), idx.Roots()[0].ID)

	node, ok := idx.Get(3)
	require.True(t, ok)
	assert.Equal(t, "خالد", node.Name)
	assert.True(t, node.HasChildren())

	_, ok = idx.Get(99)
	assert.False(t, ok)
}

func TestBuildIndex_RejectsDuplicateIDs(t *testing.T) {
	roots := []*Node{
		{
			ID: 1,
			Children: []*Node{
				{ID: 2, ParentID: ref(1)},
				{ID: 2, ParentID: ref(1)},
			},
		},
	}

	_, err := BuildIndex(roots)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id 2")
}

func TestBuildIndex_RejectsParentIDMismatch(t *testing.T) {
	roots := []*Node{
		{
			ID: 1,
			Children: []*Node{
				// Nested under 1 but claims 7 as parent.
				{ID: 2, ParentID: ref(7)},
			},
		},
	}

	_, err := BuildIndex(roots)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent_id does not match")
}

func TestBuildIndex_RejectsRootWithParentID(t *testing.T) {
	roots := []*Node{
		{ID: 1, ParentID: ref(5)},
	}

	_, err := BuildIndex(roots)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "top level")
}

func TestBuildIndex_RejectsMissingParentIDOnChild(t *testing.T) {
	roots := []*Node{
		{
			ID:       1,
			Children: []*Node{{ID: 2}},
		},
	}

	_, err := BuildIndex(roots)

	require.Error(t, err)
}

func TestIndex_WalkStopsWhenVisitorReturnsFalse(t *testing.T) {
	idx, err := BuildIndex(sampleTree())
	require.NoError(t, err)

	var visited []int64
	idx.Walk(func(node *Node) bool {
		visited = append(visited, node.ID)
		return node.ID != 3
	})

	assert.Equal(t, []int64{1, 2, 3}, visited)
}

func TestExpandedSet_ExpandAllCoversEveryNode(t *testing.T) {
	idx, err := BuildIndex(sampleTree())
	require.NoError(t, err)

	set := NewExpandedSet()
	set.ExpandAll(idx)

	assert.Equal(t, 4, set.Len())
	for _, id := range []int64{1, 2, 3, 4} {
		assert.True(t, set.Expanded(id), "node %d should be expanded", id)
	}
}

func TestExpandedSet_ToggleIsAPureFlip(t *testing.T) {
	idx, err := BuildIndex(sampleTree())
	require.NoError(t, err)

	set := NewExpandedSet()
	set.ExpandAll(idx)

	set.Toggle(3)
	assert.False(t, set.Expanded(3))
	assert.Equal(t, 3, set.Len())

	set.Toggle(3)
	assert.True(t, set.Expanded(3))
	assert.Equal(t, 4, set.Len())
}

func TestExpandedSet_ExpandAllResetsPriorToggles(t *testing.T) {
	idx, err := BuildIndex(sampleTree())
	require.NoError(t, err)

	set := NewExpandedSet()
	set.ExpandAll(idx)
	set.Toggle(2)
	set.Toggle(4)

	set.ExpandAll(idx)

	assert.Equal(t, 4, set.Len())
	assert.True(t, set.Expanded(2))
	assert.True(t, set.Expanded(4))
}
