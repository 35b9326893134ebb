package bom

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// buildParts creates one part per name and returns their ids by name
func buildParts(t *testing.T, e *Engine, names ...string) map[string]uuid.UUID {
	t.Helper()
	ids := make(map[string]uuid.UUID, len(names))
	for _, name := range names {
		p, err := e.CreatePart(name)
		require.NoError(t, err)
		ids[name] = p.ID
	}
	return ids
}

// addChildren links parent to each child with ActionAdd
func addChildren(t *testing.T, e *Engine, parent uuid.UUID, children ...uuid.UUID) {
	t.Helper()
	_, err := e.UpdateChildren(parent, ActionAdd, children)
	require.NoError(t, err)
}

func partIDs(parts []Part) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.ID)
	}
	return out
}

// diamond builds A -> B, A -> C, B -> D, C -> D
func diamond(t *testing.T, e *Engine) map[string]uuid.UUID {
	t.Helper()
	ids := buildParts(t, e, "A", "B", "C", "D")
	addChildren(t, e, ids["A"], ids["B"], ids["C"])
	addChildren(t, e, ids["B"], ids["D"])
	addChildren(t, e, ids["C"], ids["D"])
	return ids
}
