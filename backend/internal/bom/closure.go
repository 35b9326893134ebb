package bom

import (
	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// ClosureResolver computes transitive relatives of a part. Read only.
type ClosureResolver struct {
	repo *Repository
}

// NewClosureResolver creates a resolver over repo
func NewClosureResolver(repo *Repository) *ClosureResolver {
	return &ClosureResolver{repo: repo}
}

// Contained returns every part that directly or indirectly contains id, in
// breadth-first order from the nearest parents outwards.
func (r *ClosureResolver) Contained(id uuid.UUID) ([]uuid.UUID, error) {
	return r.walk(id, func(n *node) []uuid.UUID { return n.parents.order })
}

// Descendants returns every part id contains directly or indirectly
func (r *ClosureResolver) Descendants(id uuid.UUID) ([]uuid.UUID, error) {
	return r.walk(id, func(n *node) []uuid.UUID { return n.children.order })
}

// walk is a breadth-first search from start that visits each node once, so
// diamonds yield no duplicates. start itself is never reported.
func (r *ClosureResolver) walk(start uuid.UUID, next func(*node) []uuid.UUID) ([]uuid.UUID, error) {
	n, err := r.repo.lookup(start)
	if err != nil {
		return nil, err
	}

	visited := map[uuid.UUID]struct{}{start: {}}
	queue := []*node{n}
	out := []uuid.UUID{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, id := range next(cur) {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			nn, err := r.repo.lookup(id)
			if err != nil {
				return nil, bomerrors.NewInternal("dangling reference during traversal", err)
			}
			out = append(out, id)
			queue = append(queue, nn)
		}
	}
	return out, nil
}
