package bom

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bomerrors "bom-server/backend/pkg/errors"
)

func TestSnapshotRestore(t *testing.T) {
	src := NewEngine()
	ids := diamond(t, src)
	buildParts(t, src, "spare")

	snap := src.Snapshot()
	assert.Len(t, snap.Parts, 5)
	assert.Equal(t, 4, snap.EdgeCount())

	dst := NewEngine()
	require.NoError(t, dst.Restore(snap))
	require.NoError(t, dst.CheckInvariants())
	assert.Equal(t, src.ListParts(FilterAll), dst.ListParts(FilterAll))

	d, err := dst.GetPart(ids["D"])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids["B"], ids["C"]}, d.Parents)

	_, err = dst.CreatePart("A")
	assert.True(t, bomerrors.IsErrorType(err, bomerrors.ErrorTypeDuplicateName), "name index is rebuilt")
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		snap    Snapshot
		errType bomerrors.ErrorType
	}{
		{"nil id", Snapshot{Parts: []SnapshotPart{{Name: "a"}}}, bomerrors.ErrorTypeValidation},
		{"duplicate id", Snapshot{Parts: []SnapshotPart{{ID: a, Name: "a"}, {ID: a, Name: "b"}}}, bomerrors.ErrorTypeValidation},
		{"blank name", Snapshot{Parts: []SnapshotPart{{ID: a, Name: " "}}}, bomerrors.ErrorTypeValidation},
		{"duplicate name", Snapshot{Parts: []SnapshotPart{{ID: a, Name: "a"}, {ID: b, Name: "a"}}}, bomerrors.ErrorTypeDuplicateName},
		{"self edge", Snapshot{Parts: []SnapshotPart{{ID: a, Name: "a", Children: []uuid.UUID{a}}}}, bomerrors.ErrorTypeValidation},
		{"unknown child", Snapshot{Parts: []SnapshotPart{{ID: a, Name: "a", Children: []uuid.UUID{b}}}}, bomerrors.ErrorTypeNotFound},
		{"cycle", Snapshot{Parts: []SnapshotPart{
			{ID: a, Name: "a", Children: []uuid.UUID{b}},
			{ID: b, Name: "b", Children: []uuid.UUID{a}},
		}}, bomerrors.ErrorTypeCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			keep := buildParts(t, e, "existing")

			err := e.Restore(tt.snap)
			assert.True(t, bomerrors.IsErrorType(err, tt.errType), "got %v", err)

			_, err = e.GetPart(keep["existing"])
			assert.NoError(t, err, "failed restore keeps the current graph")
		})
	}
}

func TestRestoreCollapsesRepeatedChildren(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	e := NewEngine()
	require.NoError(t, e.Restore(Snapshot{Parts: []SnapshotPart{
		{ID: a, Name: "a", Children: []uuid.UUID{b, b}},
		{ID: b, Name: "b"},
	}}))

	p, err := e.GetPart(a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, p.Children)
}

func TestRestoreDoesNotFireChangeHook(t *testing.T) {
	fired := 0
	e := NewEngine(WithChangeHook(func() { fired++ }))
	require.NoError(t, e.Restore(Snapshot{}))
	assert.Zero(t, fired)

	_, err := e.CreatePart("x")
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}
