package bom

import (
	"fmt"

	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// Action selects how UpdateChildren treats the requested ids
type Action string

const (
	ActionAdd     Action = "add"
	ActionRemove  Action = "remove"
	ActionReplace Action = "replace"
)

// DefaultAction applies when a request names no action
const DefaultAction = ActionAdd

// ParseAction parses a query value. The empty string means DefaultAction.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case "":
		return DefaultAction, nil
	case ActionAdd, ActionRemove, ActionReplace:
		return Action(s), nil
	}
	return "", bomerrors.NewValidation("action", fmt.Sprintf("unknown action %q", s))
}

// EdgeManager mutates parent/child relationships. Every edge write goes
// through link/unlink so children and parents never disagree.
type EdgeManager struct {
	repo *Repository
}

// NewEdgeManager creates an edge manager over repo
func NewEdgeManager(repo *Repository) *EdgeManager {
	return &EdgeManager{repo: repo}
}

// UpdateChildren applies action to the children of id. On any error the
// graph is unchanged.
func (m *EdgeManager) UpdateChildren(id uuid.UUID, action Action, childIDs []uuid.UUID) error {
	parent, err := m.repo.lookup(id)
	if err != nil {
		return err
	}

	requested := dedupe(childIDs)
	children := make([]*node, 0, len(requested))
	for _, cid := range requested {
		c, err := m.repo.lookup(cid)
		if err != nil {
			return err
		}
		children = append(children, c)
	}
	for _, cid := range requested {
		if cid == id {
			return bomerrors.NewValidation("children", fmt.Sprintf("part %s cannot be its own child", id))
		}
	}

	switch action {
	case ActionAdd:
		var additions []*node
		for _, c := range children {
			if !parent.children.has(c.id) {
				additions = append(additions, c)
			}
		}
		if err := m.validateAdditions(parent, additions); err != nil {
			return err
		}
		for _, c := range additions {
			link(parent, c)
		}

	case ActionRemove:
		for _, c := range children {
			if parent.children.has(c.id) {
				unlink(parent, c)
			}
		}

	case ActionReplace:
		want := make(map[uuid.UUID]struct{}, len(children))
		var additions []*node
		for _, c := range children {
			want[c.id] = struct{}{}
			if !parent.children.has(c.id) {
				additions = append(additions, c)
			}
		}
		var removals []*node
		for _, cid := range parent.children.order {
			if _, keep := want[cid]; !keep {
				c, err := m.repo.lookup(cid)
				if err != nil {
					return bomerrors.NewInternal("dangling child reference", err)
				}
				removals = append(removals, c)
			}
		}
		if err := m.validateAdditions(parent, additions); err != nil {
			return err
		}
		for _, c := range removals {
			unlink(parent, c)
		}
		for _, c := range additions {
			link(parent, c)
		}
		parent.children.reorder(requested)

	default:
		return bomerrors.NewValidation("action", fmt.Sprintf("unknown action %q", action))
	}
	return nil
}

// validateAdditions checks the batch of new parent -> child edges against
// the current graph joined with the edges already accepted from the same
// batch. Nothing is written.
func (m *EdgeManager) validateAdditions(parent *node, additions []*node) error {
	pending := make(map[uuid.UUID][]uuid.UUID)
	for _, c := range additions {
		cycle, err := m.reaches(c.id, parent.id, pending)
		if err != nil {
			return err
		}
		if cycle {
			return bomerrors.NewCycleDetected(parent.id.String(), c.id.String())
		}
		pending[parent.id] = append(pending[parent.id], c.id)
	}
	return nil
}

// reaches reports whether target is reachable from start over children
// edges plus pending ones. Iterative with a visited set, so input shape
// cannot grow the call stack.
func (m *EdgeManager) reaches(start, target uuid.UUID, pending map[uuid.UUID][]uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]struct{}{}
	stack := []uuid.UUID{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true, nil
		}
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}

		n, err := m.repo.lookup(cur)
		if err != nil {
			return false, bomerrors.NewInternal("dangling reference during cycle check", err)
		}
		stack = append(stack, n.children.order...)
		stack = append(stack, pending[cur]...)
	}
	return false, nil
}

// DeleteCascade detaches id from its parents and children, then removes
// it from the repository. Cost is proportional to the part's own degree.
func (m *EdgeManager) DeleteCascade(id uuid.UUID) error {
	n, err := m.repo.lookup(id)
	if err != nil {
		return err
	}

	parents := make([]*node, 0, n.parents.len())
	for _, pid := range n.parents.order {
		p, err := m.repo.lookup(pid)
		if err != nil {
			return bomerrors.NewInternal("dangling parent reference", err)
		}
		parents = append(parents, p)
	}
	children := make([]*node, 0, n.children.len())
	for _, cid := range n.children.order {
		c, err := m.repo.lookup(cid)
		if err != nil {
			return bomerrors.NewInternal("dangling child reference", err)
		}
		children = append(children, c)
	}

	for _, p := range parents {
		unlink(p, n)
	}
	for _, c := range children {
		unlink(n, c)
	}
	return m.repo.Delete(id)
}

func link(parent, child *node) {
	parent.children.add(child.id)
	child.parents.add(parent.id)
}

func unlink(parent, child *node) {
	parent.children.remove(child.id)
	child.parents.remove(parent.id)
}
