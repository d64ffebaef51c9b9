package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlkukk-dev/duckdb/pkg/catalog"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// positiveCheck rejects any row whose column 0 value is <= 0.
type positiveCheck struct{ col int }

func (p positiveCheck) Evaluate(chunk *vector.Chunk) ([]int32, error) {
	vec := chunk.Vecs[p.col]
	out := make([]int32, vec.Len())
	for i := range out {
		if vec.At(i).(int64) > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

func newCheckedTable(t *testing.T, c catalog.Constraint) *DataTable {
	t.Helper()
	schema := catalog.NewTableSchema("t",
		catalog.ColumnDefinition{Name: "a", Typ: vector.TypeInt64},
		catalog.ColumnDefinition{Name: "b", Typ: vector.TypeInt64},
	)
	schema.AddConstraint(c)
	table, err := NewDataTable(schema, nil)
	require.NoError(t, err)
	return table
}

func TestVerifyAppendConstraintsCheckRejectsViolatingRow(t *testing.T) {
	table := newCheckedTable(t, catalog.Check(positiveCheck{col: 0}, 0))

	c := vector.NewChunk([]vector.Type{vector.TypeInt64, vector.TypeInt64})
	c.AppendRow([]interface{}{int64(1), int64(10)})
	c.AppendRow([]interface{}{int64(-1), int64(20)})

	err := VerifyAppendConstraints(table, c)
	require.Error(t, err)
	var constraintErr *ConstraintError
	require.ErrorAs(t, err, &constraintErr)
	assert.Contains(t, constraintErr.Error(), "CHECK")
}

func TestVerifyAppendConstraintsCheckAcceptsValidBatch(t *testing.T) {
	table := newCheckedTable(t, catalog.Check(positiveCheck{col: 0}, 0))

	c := vector.NewChunk([]vector.Type{vector.TypeInt64, vector.TypeInt64})
	c.AppendRow([]interface{}{int64(1), int64(10)})
	c.AppendRow([]interface{}{int64(2), int64(20)})

	assert.NoError(t, VerifyAppendConstraints(table, c))
}

func TestVerifyAppendConstraintsUniqueRejectsDuplicateInBatch(t *testing.T) {
	table := newCheckedTable(t, catalog.Unique(0))

	c := vector.NewChunk([]vector.Type{vector.TypeInt64, vector.TypeInt64})
	c.AppendRow([]interface{}{int64(1), int64(10)})
	c.AppendRow([]interface{}{int64(1), int64(20)})

	err := VerifyAppendConstraints(table, c)
	require.Error(t, err)
	var constraintErr *ConstraintError
	require.ErrorAs(t, err, &constraintErr)
	assert.Contains(t, constraintErr.Error(), "UNIQUE")
}

func TestVerifyAppendConstraintsMultiColumnUniqueNotImplemented(t *testing.T) {
	table := newCheckedTable(t, catalog.Unique(0, 1))

	c := vector.NewChunk([]vector.Type{vector.TypeInt64, vector.TypeInt64})
	c.AppendRow([]interface{}{int64(1), int64(10)})

	err := VerifyAppendConstraints(table, c)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestVerifyAppendConstraintsForeignKeyNotImplemented(t *testing.T) {
	table := newCheckedTable(t, catalog.ForeignKey([]int{0}, "other", []int{0}))

	c := vector.NewChunk([]vector.Type{vector.TypeInt64, vector.TypeInt64})
	c.AppendRow([]interface{}{int64(1), int64(10)})

	err := VerifyAppendConstraints(table, c)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestVerifyUpdateConstraintsForeignKeySilentlyIgnored(t *testing.T) {
	table := newCheckedTable(t, catalog.ForeignKey([]int{0}, "other", []int{0}))

	updates := vector.NewChunk([]vector.Type{vector.TypeInt64})
	updates.AppendRow([]interface{}{int64(1)})

	assert.NoError(t, VerifyUpdateConstraints(table, updates, []int{0}))
}

func TestVerifyUpdateConstraintsNotNullOnlyChecksTouchedColumn(t *testing.T) {
	schema := catalog.NewTableSchema("t",
		catalog.ColumnDefinition{Name: "a", Typ: vector.TypeInt64},
		catalog.ColumnDefinition{Name: "b", Typ: vector.TypeInt64},
	)
	schema.AddConstraint(catalog.NotNull(1))
	table, err := NewDataTable(schema, nil)
	require.NoError(t, err)

	// Only column 1 carries NOT NULL, so a null written to column 0 passes
	// and a null written to column 1 is rejected.
	onlyA := vector.NewChunk([]vector.Type{vector.TypeInt64})
	onlyA.AppendRow([]interface{}{nil})
	assert.NoError(t, VerifyUpdateConstraints(table, onlyA, []int{0}))

	onlyB := vector.NewChunk([]vector.Type{vector.TypeInt64})
	onlyB.AppendRow([]interface{}{nil})
	err = VerifyUpdateConstraints(table, onlyB, []int{1})
	require.Error(t, err)
	var constraintErr *ConstraintError
	require.ErrorAs(t, err, &constraintErr)
}

func TestVerifyUpdateConstraintsCheckPartialColumnsNotImplemented(t *testing.T) {
	// The CHECK expression reads columns 0 and 1; the update only touches
	// column 0, so the guarded mock-chunk path must refuse to run it.
	table := newCheckedTable(t, catalog.Check(positiveCheck{col: 0}, 0, 1))

	updates := vector.NewChunk([]vector.Type{vector.TypeInt64})
	updates.AppendRow([]interface{}{int64(5)})

	err := VerifyUpdateConstraints(table, updates, []int{0})
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestVerifyUpdateConstraintsCheckSkippedWhenColumnAbsent(t *testing.T) {
	table := newCheckedTable(t, catalog.Check(positiveCheck{col: 0}, 0))

	updates := vector.NewChunk([]vector.Type{vector.TypeInt64})
	updates.AppendRow([]interface{}{int64(999)})

	assert.NoError(t, VerifyUpdateConstraints(table, updates, []int{1}))
}
