package bom

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// checkInvariants sweeps the whole repository for broken references,
// asymmetric edges, self edges, duplicate or blank names and cycles.
func checkInvariants(repo *Repository) error {
	names := make(map[string]uuid.UUID, len(repo.parts))
	for id, n := range repo.parts {
		if n.id != id {
			return bomerrors.NewInternal(fmt.Sprintf("part %s stored under %s", n.id, id), nil)
		}
		if strings.TrimSpace(n.name) == "" {
			return bomerrors.NewInternal(fmt.Sprintf("part %s has a blank name", id), nil)
		}
		if other, ok := names[n.name]; ok {
			return bomerrors.NewInternal(fmt.Sprintf("name %q shared by %s and %s", n.name, other, id), nil)
		}
		names[n.name] = id
		if indexed := repo.names[n.name]; indexed != id {
			return bomerrors.NewInternal(fmt.Sprintf("name index for %q points at %s, want %s", n.name, indexed, id), nil)
		}

		for _, cid := range n.children.order {
			if cid == id {
				return bomerrors.NewInternal(fmt.Sprintf("part %s is its own child", id), nil)
			}
			c, ok := repo.parts[cid]
			if !ok {
				return bomerrors.NewInternal(fmt.Sprintf("part %s lists unknown child %s", id, cid), nil)
			}
			if !c.parents.has(id) {
				return bomerrors.NewInternal(fmt.Sprintf("child %s does not list parent %s", cid, id), nil)
			}
		}
		for _, pid := range n.parents.order {
			p, ok := repo.parts[pid]
			if !ok {
				return bomerrors.NewInternal(fmt.Sprintf("part %s lists unknown parent %s", id, pid), nil)
			}
			if !p.children.has(id) {
				return bomerrors.NewInternal(fmt.Sprintf("parent %s does not list child %s", pid, id), nil)
			}
		}
	}
	if len(names) != len(repo.names) {
		return bomerrors.NewInternal("name index out of sync with parts", nil)
	}
	if id, ok := findCycle(repo); ok {
		return bomerrors.NewInternal(fmt.Sprintf("cycle detected involving part %s", id), nil)
	}
	return nil
}

// findCycle runs an iterative three-colour depth-first search over children
// edges and returns a part on a cycle if there is one.
func findCycle(repo *Repository) (uuid.UUID, bool) {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[uuid.UUID]int, len(repo.parts))

	type frame struct {
		n    *node
		next int
	}

	for _, root := range repo.nodes() {
		if colour[root.id] != white {
			continue
		}
		colour[root.id] = grey
		stack := []frame{{n: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == top.n.children.len() {
				colour[top.n.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			cid := top.n.children.order[top.next]
			top.next++
			switch colour[cid] {
			case grey:
				return cid, true
			case white:
				child, ok := repo.parts[cid]
				if !ok {
					continue
				}
				colour[cid] = grey
				stack = append(stack, frame{n: child})
			}
		}
	}
	return uuid.Nil, false
}
