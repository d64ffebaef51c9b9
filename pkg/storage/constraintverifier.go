package storage

import (
	"github.com/karlkukk-dev/duckdb/pkg/catalog"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// VerifyAppendConstraints implements spec.md §4.3 for a full-width Append
// chunk: every bound constraint is checked directly against the incoming
// chunk, which already carries one vector per catalog column.
func VerifyAppendConstraints(table *DataTable, chunk *vector.Chunk) error {
	for _, c := range table.schema.BoundConstraints() {
		switch c.Kind {
		case catalog.ConstraintNotNull:
			if vector.HasNull(chunk.Vecs[c.ColumnIndex]) {
				return newConstraintError("NOT NULL constraint failed: column %q", columnName(table, c.ColumnIndex))
			}
		case catalog.ConstraintCheck:
			if err := evaluateCheck(c, chunk); err != nil {
				return err
			}
		case catalog.ConstraintUnique:
			if err := verifyUnique(c, chunk); err != nil {
				return err
			}
		case catalog.ConstraintForeignKey:
			return newNotImplementedError("foreign key constraints are not supported on Append")
		}
	}
	return nil
}

// VerifyUpdateConstraints implements spec.md §4.3/§4.7/§9 Open Question 3
// for a partial-width Update chunk: only constraints whose referenced
// columns intersect columnIDs are checked, via a mock chunk when the
// constraint spans columns, and CHECK constraints with a partially
// present column set raise NotImplementedError (the documented gap).
func VerifyUpdateConstraints(table *DataTable, updates *vector.Chunk, columnIDs []int) error {
	for _, c := range table.schema.BoundConstraints() {
		switch c.Kind {
		case catalog.ConstraintNotNull:
			pos, ok := indexOf(columnIDs, c.ColumnIndex)
			if !ok {
				continue
			}
			if vector.HasNull(updates.Vecs[pos]) {
				return newConstraintError("NOT NULL constraint failed: column %q", columnName(table, c.ColumnIndex))
			}
		case catalog.ConstraintCheck:
			mock, run, err := createMockChunkGuarded(table, columnIDs, c.RefColumns, updates)
			if err != nil {
				return err
			}
			if !run {
				continue
			}
			if err := evaluateCheck(c, mock); err != nil {
				return err
			}
		case catalog.ConstraintUnique:
			// Only duplicates inside the update chunk are checked here;
			// uniqueness against the rest of the table is enforced by the
			// secondary index's Append returning false.
			if len(c.Keys) != 1 {
				return newNotImplementedError("multi-column UNIQUE constraints are not supported")
			}
			pos, ok := indexOf(columnIDs, c.Keys[0])
			if !ok {
				continue
			}
			if !vector.Unique(updates.Vecs[pos]) {
				return newConstraintError("UNIQUE constraint failed: duplicate value in batch")
			}
		case catalog.ConstraintForeignKey:
			// Silently ignored on Update (spec.md §9 Open Question 2,
			// documented gap).
		}
	}
	return nil
}

// evaluateCheck runs the bound expression and fails on any zero entry.
// The evaluator is a black box (spec.md §6): a NULL-valued comparison is
// its responsibility to encode as non-zero, per standard CHECK semantics
// ("a NULL result does not violate the constraint").
func evaluateCheck(c catalog.Constraint, chunk *vector.Chunk) error {
	results, err := c.Expr.Evaluate(chunk)
	if err != nil {
		return newConstraintError("CHECK constraint evaluation failed: %v", err)
	}
	for _, r := range results {
		if r == 0 {
			return newConstraintError("CHECK constraint violated")
		}
	}
	return nil
}

func verifyUnique(c catalog.Constraint, chunk *vector.Chunk) error {
	if len(c.Keys) != 1 {
		return newNotImplementedError("multi-column UNIQUE constraints are not supported")
	}
	if !vector.Unique(chunk.Vecs[c.Keys[0]]) {
		return newConstraintError("UNIQUE constraint failed: duplicate value in batch")
	}
	return nil
}

// createMockChunk is original_source's CreateMockChunk unconditional
// overload: place updates' columns at their catalog positions in a
// full-width chunk, used by UpdateIndexes where every referenced column
// is assumed present (the index was already filtered by
// IndexIsUpdated).
func createMockChunk(table *DataTable, columnIDs []int, updates *vector.Chunk) *vector.Chunk {
	mock := vector.NewChunk(table.schema.GetTypes())
	for i, colID := range columnIDs {
		mock.Vecs[colID] = updates.Vecs[i]
	}
	return mock
}

// createMockChunkGuarded is original_source's CreateMockChunk guarded
// overload: given the columns a constraint references, skip (ok=false)
// when none are present in the update, build a mock chunk (ok=true) when
// all are present, and raise NotImplementedError when only some are
// present — matching the original's FIXME that un-updated referenced
// columns would need to be fetched from the base chunk, which this layer
// does not implement (spec.md §9 Open Question 3).
func createMockChunkGuarded(table *DataTable, columnIDs []int, referenced []int, updates *vector.Chunk) (*vector.Chunk, bool, error) {
	present := 0
	for _, col := range referenced {
		if _, ok := indexOf(columnIDs, col); ok {
			present++
		}
	}
	if present == 0 {
		return nil, false, nil
	}
	if present < len(referenced) {
		return nil, false, newNotImplementedError("CHECK constraint references columns not all present in UPDATE clause")
	}
	return createMockChunk(table, columnIDs, updates), true, nil
}

func indexOf(columnIDs []int, col int) (int, bool) {
	for i, c := range columnIDs {
		if c == col {
			return i, true
		}
	}
	return 0, false
}

func columnName(table *DataTable, idx int) string {
	cols := table.schema.Columns()
	if idx < 0 || idx >= len(cols) {
		return "?"
	}
	return cols[idx].Name
}
