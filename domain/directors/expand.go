package directors

import (
	"sync"
)

// ExpandedSet tracks which org-chart nodes are currently shown open. It
// is pure client-side presentation state: toggles never touch the
// network, and nothing here is persisted.
type ExpandedSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewExpandedSet creates an empty set.
func NewExpandedSet() *ExpandedSet {
	return &ExpandedSet{ids: make(map[int64]struct{})}
}

// ExpandAll resets the set to contain every node in the index. Called
// after each successful tree fetch.
func (s *ExpandedSet) ExpandAll(idx *Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[int64]struct{}, idx.Len())
	for _, id := range idx.IDs() {
		s.ids[id] = struct{}{}
	}
}

// Toggle adds the id if absent and removes it if present.
func (s *ExpandedSet) Toggle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Expanded reports whether the id is in the set.
func (s *ExpandedSet) Expanded(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded nodes.
func (s *ExpandedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
