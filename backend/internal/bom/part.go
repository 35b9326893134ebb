package bom

import (
	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// Part is a read-only copy of a part record. Callers may keep and modify it
// freely; it shares no memory with the graph.
type Part struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Parents  []uuid.UUID `json:"parents"`
	Children []uuid.UUID `json:"children"`
}

// IsAssembly reports whether the part has children
func (p Part) IsAssembly() bool { return len(p.Children) > 0 }

// ParseID converts the canonical text form of a part id
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, bomerrors.NewValidation("part id", err.Error())
	}
	return id, nil
}

// node is the single writable record of a part. Its edge sets are only
// touched through EdgeManager.link/unlink so both endpoints change together.
type node struct {
	id       uuid.UUID
	name     string
	seq      uint64
	children idSet
	parents  idSet
}

func newNode(id uuid.UUID, name string, seq uint64) *node {
	return &node{
		id:       id,
		name:     name,
		seq:      seq,
		children: newIDSet(),
		parents:  newIDSet(),
	}
}

func (n *node) view() Part {
	return Part{
		ID:       n.id,
		Name:     n.name,
		Parents:  n.parents.ids(),
		Children: n.children.ids(),
	}
}

// idSet is an insertion-ordered set of part ids
type idSet struct {
	order []uuid.UUID
	index map[uuid.UUID]struct{}
}

func newIDSet() idSet {
	return idSet{index: make(map[uuid.UUID]struct{})}
}

func (s *idSet) has(id uuid.UUID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) len() int { return len(s.order) }

func (s *idSet) add(id uuid.UUID) bool {
	if s.has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *idSet) remove(id uuid.UUID) bool {
	if !s.has(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// reorder rewrites the iteration order. ids must hold exactly the members.
func (s *idSet) reorder(ids []uuid.UUID) {
	s.order = append(s.order[:0:0], ids...)
}

// ids returns a copy of the members in order, never nil
func (s *idSet) ids() []uuid.UUID {
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

// dedupe drops repeated ids keeping the first occurrence
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
