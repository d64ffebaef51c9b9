package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlkukk-dev/duckdb/pkg/catalog"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// recordingIndex is a test-only storage.Index that records every call it
// receives, and can be configured to reject every Append.
type recordingIndex struct {
	accept     bool
	appends    int
	deletes    int
	deletedIDs []RowID
	updated    []int
}

func (r *recordingIndex) Append(chunk *vector.Chunk, rowIDs []RowID) bool {
	r.appends++
	return r.accept
}

func (r *recordingIndex) Delete(chunk *vector.Chunk, rowIDs []RowID) {
	r.deletes++
	r.deletedIDs = append(r.deletedIDs, rowIDs...)
}

func (r *recordingIndex) IndexIsUpdated(columnIDs []int) bool {
	r.updated = columnIDs
	for _, c := range columnIDs {
		if c == 0 {
			return true
		}
	}
	return false
}

func TestAppendToIndexesRollsBackEarlierIndexesOnFailure(t *testing.T) {
	idx0 := &recordingIndex{accept: true}
	idx1 := &recordingIndex{accept: true}
	idx2 := &recordingIndex{accept: false}

	chunk := vector.NewChunk([]vector.Type{vector.TypeInt64})
	chunk.AppendRow([]interface{}{int64(1)})
	chunk.AppendRow([]interface{}{int64(2)})

	err := AppendToIndexes([]Index{idx0, idx1, idx2}, chunk, 100)
	require.Error(t, err)
	var constraintErr *ConstraintError
	require.ErrorAs(t, err, &constraintErr)

	assert.Equal(t, 1, idx0.deletes, "idx0 accepted the batch, so it must be rolled back")
	assert.Equal(t, 1, idx1.deletes, "idx1 accepted the batch, so it must be rolled back")
	assert.Equal(t, 0, idx2.deletes, "idx2 rejected its own Append, nothing to roll back")
	assert.Equal(t, []RowID{100, 101}, idx0.deletedIDs)
}

func TestAppendToIndexesAllSucceedNoRollback(t *testing.T) {
	idx0 := &recordingIndex{accept: true}
	idx1 := &recordingIndex{accept: true}

	chunk := vector.NewChunk([]vector.Type{vector.TypeInt64})
	chunk.AppendRow([]interface{}{int64(1)})

	err := AppendToIndexes([]Index{idx0, idx1}, chunk, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx0.deletes)
	assert.Equal(t, 0, idx1.deletes)
}

func TestUpdateIndexesSkipsUntouchedIndexes(t *testing.T) {
	schema := catalog.NewTableSchema("t",
		catalog.ColumnDefinition{Name: "a", Typ: vector.TypeInt64},
		catalog.ColumnDefinition{Name: "b", Typ: vector.TypeInt64},
	)
	idxOnA := &recordingIndex{accept: true} // IndexIsUpdated true only when columnIDs contains 0
	table, err := NewDataTable(schema, []Index{idxOnA})
	require.NoError(t, err)

	updates := vector.NewChunk([]vector.Type{vector.TypeInt64})
	updates.AppendRow([]interface{}{int64(5)})

	err = UpdateIndexes([]Index{idxOnA}, table, []int{1}, updates, []RowID{0})
	require.NoError(t, err)
	assert.Equal(t, 0, idxOnA.appends, "index over column 0 must be skipped when only column 1 is updated")

	err = UpdateIndexes([]Index{idxOnA}, table, []int{0}, updates, []RowID{0})
	require.NoError(t, err)
	assert.Equal(t, 1, idxOnA.appends)
}

func TestUpdateIndexesRollsBackTouchedIndexesOnFailure(t *testing.T) {
	schema := catalog.NewTableSchema("t", catalog.ColumnDefinition{Name: "a", Typ: vector.TypeInt64})
	table, err := NewDataTable(schema, nil)
	require.NoError(t, err)

	ok := &recordingIndex{accept: true}
	fail := &recordingIndex{accept: false}

	updates := vector.NewChunk([]vector.Type{vector.TypeInt64})
	updates.AppendRow([]interface{}{int64(5)})

	err = UpdateIndexes([]Index{ok, fail}, table, []int{0}, updates, []RowID{3})
	require.Error(t, err)
	assert.Equal(t, 1, ok.deletes, "ok accepted, so it must be rolled back when fail rejects")
}
