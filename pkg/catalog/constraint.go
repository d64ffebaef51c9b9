package catalog

import "github.com/karlkukk-dev/duckdb/pkg/vector"

// ConstraintKind tags the Constraint sum, per spec.md §9's explicit
// redesign note: "represent constraints as a closed tagged union with one
// verification function per kind, not a dynamic-dispatch Constraint
// hierarchy" (grounded on the same flattening tae/pkg/catalog applies to
// BaseEntry/BaseEntry2 rather than a class per catalog object kind).
type ConstraintKind uint8

const (
	ConstraintNotNull ConstraintKind = iota
	ConstraintCheck
	ConstraintUnique
	ConstraintForeignKey
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintNotNull:
		return "not_null"
	case ConstraintCheck:
		return "check"
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign_key"
	default:
		return "unknown"
	}
}

// CheckEvaluator is the bound-expression executor a CHECK constraint
// carries. It is a black box to the storage layer (spec.md §4.2's
// "expression evaluation is out of scope; the verifier calls a supplied
// evaluator"): given a chunk, it returns one result per row, non-zero
// meaning the row satisfies the expression.
type CheckEvaluator interface {
	Evaluate(chunk *vector.Chunk) ([]int32, error)
}

// Constraint is one bound constraint on a table. Only the fields
// relevant to Kind are populated:
//
//   - ConstraintNotNull: ColumnIndex
//   - ConstraintCheck:   Expr, RefColumns (the catalog columns Expr reads)
//   - ConstraintUnique:  Keys (the column indexes forming the key)
//   - ConstraintForeignKey: Keys (local columns), RefColumns (referenced
//     table's columns), RefTable
type Constraint struct {
	Kind        ConstraintKind
	ColumnIndex int
	Expr        CheckEvaluator
	Keys        []int
	RefColumns  []int
	RefTable    string
}

// NotNull builds a NOT NULL constraint on the given column.
func NotNull(columnIndex int) Constraint {
	return Constraint{Kind: ConstraintNotNull, ColumnIndex: columnIndex}
}

// Check builds a CHECK constraint evaluated by expr, which reads the
// given catalog column positions.
func Check(expr CheckEvaluator, referencedColumns ...int) Constraint {
	return Constraint{Kind: ConstraintCheck, Expr: expr, RefColumns: referencedColumns}
}

// Unique builds a UNIQUE constraint over the given key columns.
func Unique(keys ...int) Constraint {
	return Constraint{Kind: ConstraintUnique, Keys: keys}
}

// ForeignKey builds a FOREIGN KEY constraint: keys in this table must
// match refColumns in refTable.
func ForeignKey(keys []int, refTable string, refColumns []int) Constraint {
	return Constraint{Kind: ConstraintForeignKey, Keys: keys, RefTable: refTable, RefColumns: refColumns}
}
