package bom

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bomerrors "bom-server/backend/pkg/errors"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"", ActionAdd, false},
		{"add", ActionAdd, false},
		{"remove", ActionRemove, false},
		{"replace", ActionReplace, false},
		{"all", "", true},
		{"ADD", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateChildren_Add(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "my part", "other part")

	part, err := e.UpdateChildren(ids["my part"], ActionAdd, []uuid.UUID{ids["other part"]})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids["other part"]}, part.Children)

	child, err := e.GetPart(ids["other part"])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids["my part"]}, child.Parents)
	require.NoError(t, e.CheckInvariants())
}

func TestUpdateChildren_AddIsIdempotent(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "frame", "wheel", "seat")
	batch := []uuid.UUID{ids["wheel"], ids["seat"], ids["wheel"]}

	first, err := e.UpdateChildren(ids["frame"], ActionAdd, batch)
	require.NoError(t, err)
	second, err := e.UpdateChildren(ids["frame"], ActionAdd, batch)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{ids["wheel"], ids["seat"]}, first.Children)
	assert.Equal(t, first.Children, second.Children)
	require.NoError(t, e.CheckInvariants())
}

func TestUpdateChildren_Remove(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "my part", "other part", "stranger")
	addChildren(t, e, ids["my part"], ids["other part"])

	part, err := e.UpdateChildren(ids["my part"], ActionRemove, []uuid.UUID{ids["other part"], ids["stranger"]})
	require.NoError(t, err, "ids that are not children are ignored")
	assert.Empty(t, part.Children)

	child, err := e.GetPart(ids["other part"])
	require.NoError(t, err)
	assert.Empty(t, child.Parents)
	require.NoError(t, e.CheckInvariants())
}

func TestUpdateChildren_Replace(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "my part", "other part", "subassy", "deep component")
	addChildren(t, e, ids["my part"], ids["subassy"])
	addChildren(t, e, ids["other part"], ids["subassy"])
	addChildren(t, e, ids["subassy"], ids["deep component"])

	want := []uuid.UUID{ids["deep component"], ids["other part"], ids["subassy"]}
	part, err := e.UpdateChildren(ids["my part"], ActionReplace, want)
	require.NoError(t, err)
	assert.Equal(t, want, part.Children, "caller order is kept")

	part, err = e.UpdateChildren(ids["my part"], ActionReplace, []uuid.UUID{ids["subassy"]})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids["subassy"]}, part.Children)

	dropped, err := e.GetPart(ids["deep component"])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids["subassy"]}, dropped.Parents)

	part, err = e.UpdateChildren(ids["my part"], ActionReplace, nil)
	require.NoError(t, err)
	assert.Empty(t, part.Children)
	require.NoError(t, e.CheckInvariants())
}

func TestUpdateChildren_RejectsCycle(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "A", "B")
	addChildren(t, e, ids["A"], ids["B"])

	_, err := e.UpdateChildren(ids["B"], ActionAdd, []uuid.UUID{ids["A"]})
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeCycle))

	a, _ := e.GetPart(ids["A"])
	b, _ := e.GetPart(ids["B"])
	assert.Empty(t, a.Parents)
	assert.Equal(t, []uuid.UUID{ids["B"]}, a.Children)
	assert.Equal(t, []uuid.UUID{ids["A"]}, b.Parents)
	assert.Empty(t, b.Children)
}

func TestUpdateChildren_RejectsTransitiveCycle(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "A", "B", "C", "D")
	addChildren(t, e, ids["A"], ids["B"])
	addChildren(t, e, ids["B"], ids["C"])

	before := e.Snapshot()
	_, err := e.UpdateChildren(ids["C"], ActionAdd, []uuid.UUID{ids["D"], ids["A"]})
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeCycle))
	assert.Equal(t, before, e.Snapshot(), "valid additions in a failing batch are not applied")
}

func TestUpdateChildren_ReplaceRejectsCycleAtomically(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "A", "B", "C", "D")
	addChildren(t, e, ids["A"], ids["B"])
	addChildren(t, e, ids["B"], ids["C"], ids["D"])

	before := e.Snapshot()
	_, err := e.UpdateChildren(ids["B"], ActionReplace, []uuid.UUID{ids["D"], ids["A"]})
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeCycle))
	assert.Equal(t, before, e.Snapshot(), "removal of C must not happen either")
}

func TestUpdateChildren_Validation(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "A", "B")

	t.Run("self edge", func(t *testing.T) {
		for _, action := range []Action{ActionAdd, ActionRemove, ActionReplace} {
			_, err := e.UpdateChildren(ids["A"], action, []uuid.UUID{ids["B"], ids["A"]})
			assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeValidation), string(action))
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := e.UpdateChildren(uuid.New(), ActionAdd, []uuid.UUID{ids["B"]})
		assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeNotFound))
	})

	t.Run("unknown child", func(t *testing.T) {
		for _, action := range []Action{ActionAdd, ActionRemove, ActionReplace} {
			_, err := e.UpdateChildren(ids["A"], action, []uuid.UUID{ids["B"], uuid.New()})
			assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeNotFound), string(action))
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := e.UpdateChildren(ids["A"], Action("merge"), []uuid.UUID{ids["B"]})
		assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeValidation))
	})

	a, err := e.GetPart(ids["A"])
	require.NoError(t, err)
	assert.Empty(t, a.Children)
}

func TestEdgeManager_PendingEdgesJoinTheCheck(t *testing.T) {
	// The check must follow edges accepted earlier in the same batch.
	repo := NewRepository()
	m := NewEdgeManager(repo)
	a, _ := repo.Create("A")
	b, _ := repo.Create("B")
	c, _ := repo.Create("C")

	pending := map[uuid.UUID][]uuid.UUID{b: {c}, c: {a}}
	found, err := m.reaches(b, a, pending)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = m.reaches(b, a, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteCascade(t *testing.T) {
	e := NewEngine()
	ids := buildParts(t, e, "my part", "other part", "subassy", "deep component")
	addChildren(t, e, ids["my part"], ids["subassy"])
	addChildren(t, e, ids["other part"], ids["subassy"])
	addChildren(t, e, ids["subassy"], ids["deep component"])

	deleted, err := e.DeletePart(ids["subassy"])
	require.NoError(t, err)
	assert.Len(t, deleted.Parents, 2)
	assert.Len(t, deleted.Children, 1)

	_, err = e.GetPart(ids["subassy"])
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeNotFound))

	for _, name := range []string{"my part", "other part", "deep component"} {
		p, err := e.GetPart(ids[name])
		require.NoError(t, err)
		assert.NotContains(t, p.Children, ids["subassy"], name)
		assert.NotContains(t, p.Parents, ids["subassy"], name)
	}
	assert.Len(t, e.ListParts(FilterAll), 3)
	require.NoError(t, e.CheckInvariants())

	_, err = e.DeletePart(ids["subassy"])
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeNotFound))
}
