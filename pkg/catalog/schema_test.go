package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

func TestTableSchemaGetTypes(t *testing.T) {
	s := NewTableSchema("t",
		ColumnDefinition{Name: "id", Typ: vector.TypeInt64},
		ColumnDefinition{Name: "name", Typ: vector.TypeString},
	)
	assert.Equal(t, []vector.Type{vector.TypeInt64, vector.TypeString}, s.GetTypes())
	assert.Equal(t, "t", s.Name())
}

func TestAddConstraintAccumulates(t *testing.T) {
	s := NewTableSchema("t", ColumnDefinition{Name: "id", Typ: vector.TypeInt64})
	s.AddConstraint(NotNull(0))
	s.AddConstraint(Unique(0))

	require.Len(t, s.BoundConstraints(), 2)
	assert.Equal(t, ConstraintNotNull, s.BoundConstraints()[0].Kind)
	assert.Equal(t, ConstraintUnique, s.BoundConstraints()[1].Kind)
	assert.Equal(t, []int{0}, s.BoundConstraints()[1].Keys)
}

func TestConstraintKindString(t *testing.T) {
	assert.Equal(t, "not_null", ConstraintNotNull.String())
	assert.Equal(t, "foreign_key", ConstraintForeignKey.String())
}

var _ TableCatalogEntry = (*TableSchema)(nil)
