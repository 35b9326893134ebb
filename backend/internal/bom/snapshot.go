package bom

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// Snapshot is the serialisable form of the whole graph. Parts appear in
// creation order and parents are implied by children.
type Snapshot struct {
	Parts []SnapshotPart `json:"parts"`
}

// SnapshotPart is one part of a Snapshot
type SnapshotPart struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Children []uuid.UUID `json:"children"`
}

// EdgeCount returns the number of parent -> child edges in the snapshot
func (s Snapshot) EdgeCount() int {
	total := 0
	for _, p := range s.Parts {
		total += len(p.Children)
	}
	return total
}

func snapshotOf(repo *Repository) Snapshot {
	nodes := repo.nodes()
	s := Snapshot{Parts: make([]SnapshotPart, 0, len(nodes))}
	for _, n := range nodes {
		s.Parts = append(s.Parts, SnapshotPart{
			ID:       n.id,
			Name:     n.name,
			Children: n.children.ids(),
		})
	}
	return s
}

// buildRepository turns a snapshot into a fresh repository, rejecting
// anything that would break the graph invariants.
func buildRepository(s Snapshot) (*Repository, error) {
	repo := NewRepository()
	for i, p := range s.Parts {
		if p.ID == uuid.Nil {
			return nil, bomerrors.NewValidation("snapshot", fmt.Sprintf("part %d has no id", i))
		}
		if _, dup := repo.parts[p.ID]; dup {
			return nil, bomerrors.NewValidation("snapshot", fmt.Sprintf("duplicate part id %s", p.ID))
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, bomerrors.NewValidation("snapshot", fmt.Sprintf("part %s has an empty name", p.ID))
		}
		if existing, dup := repo.names[p.Name]; dup {
			return nil, bomerrors.NewDuplicateName(p.Name, existing.String())
		}
		repo.insert(p.ID, p.Name)
	}

	for _, p := range s.Parts {
		parent := repo.parts[p.ID]
		for _, cid := range p.Children {
			if cid == p.ID {
				return nil, bomerrors.NewValidation("snapshot", fmt.Sprintf("part %s is its own child", p.ID))
			}
			child, ok := repo.parts[cid]
			if !ok {
				return nil, bomerrors.NewPartNotFound(cid.String())
			}
			link(parent, child)
		}
	}

	if id, ok := findCycle(repo); ok {
		return nil, bomerrors.NewCycleDetected(id.String(), id.String())
	}
	if err := checkInvariants(repo); err != nil {
		return nil, err
	}
	return repo, nil
}
