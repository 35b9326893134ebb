package bom

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// Repository owns the set of part records. It is not safe for concurrent
// use on its own; Engine serializes access.
type Repository struct {
	parts   map[uuid.UUID]*node
	names   map[string]uuid.UUID
	nextSeq uint64
	newID   func() uuid.UUID
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{
		parts: make(map[uuid.UUID]*node),
		names: make(map[string]uuid.UUID),
		newID: uuid.New,
	}
}

// Create stores a new part without edges and returns its id. Names are
// compared exactly, so "Bolt" and "bolt" are different parts.
func (r *Repository) Create(name string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, bomerrors.NewValidation("name", "must not be empty")
	}
	if existing, ok := r.names[name]; ok {
		return uuid.Nil, bomerrors.NewDuplicateName(name, existing.String())
	}

	id := r.newID()
	for id == uuid.Nil || r.parts[id] != nil {
		id = r.newID()
	}
	r.insert(id, name)
	return id, nil
}

// insert stores a record under a caller-chosen id. Callers check uniqueness.
func (r *Repository) insert(id uuid.UUID, name string) *node {
	r.nextSeq++
	n := newNode(id, name, r.nextSeq)
	r.parts[id] = n
	r.names[name] = id
	return n
}

// Get returns a copy of the part
func (r *Repository) Get(id uuid.UUID) (Part, error) {
	n, err := r.lookup(id)
	if err != nil {
		return Part{}, err
	}
	return n.view(), nil
}

func (r *Repository) lookup(id uuid.UUID) (*node, error) {
	n, ok := r.parts[id]
	if !ok {
		return nil, bomerrors.NewPartNotFound(id.String())
	}
	return n, nil
}

// Delete removes the record only. Other parts' edges are repaired by
// EdgeManager.DeleteCascade, which calls this last.
func (r *Repository) Delete(id uuid.UUID) error {
	n, err := r.lookup(id)
	if err != nil {
		return err
	}
	delete(r.parts, id)
	delete(r.names, n.name)
	return nil
}

// List returns copies of all live parts in creation order
func (r *Repository) List() []Part {
	nodes := r.nodes()
	out := make([]Part, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.view())
	}
	return out
}

// Len returns the number of live parts
func (r *Repository) Len() int { return len(r.parts) }

func (r *Repository) nodes() []*node {
	nodes := make([]*node, 0, len(r.parts))
	for _, n := range r.parts {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })
	return nodes
}

func (r *Repository) views(ids []uuid.UUID) ([]Part, error) {
	out := make([]Part, 0, len(ids))
	for _, id := range ids {
		n, err := r.lookup(id)
		if err != nil {
			return nil, bomerrors.NewInternal("dangling reference", err)
		}
		out = append(out, n.view())
	}
	return out, nil
}
