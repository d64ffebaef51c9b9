package storage

import "github.com/karlkukk-dev/duckdb/pkg/vector"

// Index is spec.md §3's secondary-index capability: a black box to the
// core beyond these three operations.
type Index interface {
	Append(chunk *vector.Chunk, rowIDs []RowID) bool
	Delete(chunk *vector.Chunk, rowIDs []RowID)
	IndexIsUpdated(columnIDs []int) bool
}

// AppendToIndexes implements spec.md §4.4: call Append on every index in
// order, and on the first false, roll back every index strictly before
// it so index atomicity holds (spec.md §8 invariant 7).
func AppendToIndexes(indexes []Index, chunk *vector.Chunk, rowStart RowID) error {
	rowIDs := rowIDVector(rowStart, chunk.Size())

	for i, idx := range indexes {
		if idx.Append(chunk, rowIDs) {
			continue
		}
		for j := 0; j < i; j++ {
			indexes[j].Delete(chunk, rowIDs)
		}
		return newConstraintError("PRIMARY KEY or UNIQUE constraint violated: duplicated key")
	}
	return nil
}

// UpdateIndexes implements spec.md §4.4: the same append-then-rollback
// pattern, skipping indexes IndexIsUpdated reports as unaffected, and
// appending a mock chunk that places update columns at their catalog
// positions (spec.md's "mock chunk" concept).
func UpdateIndexes(indexes []Index, table *DataTable, columnIDs []int, updates *vector.Chunk, rowIDs []RowID) error {
	mock := createMockChunk(table, columnIDs, updates)

	touched := make([]int, 0, len(indexes))
	for i, idx := range indexes {
		if !idx.IndexIsUpdated(columnIDs) {
			continue
		}
		if idx.Append(mock, rowIDs) {
			touched = append(touched, i)
			continue
		}
		for _, j := range touched {
			indexes[j].Delete(mock, rowIDs)
		}
		return newConstraintError("PRIMARY KEY or UNIQUE constraint violated: duplicated key")
	}
	return nil
}

// rowIDVector generates the dense row-id list [start, start+n) (spec.md
// §4.4 step 1, backed by vector.GenerateSequence).
func rowIDVector(start RowID, n int) []RowID {
	seq := vector.GenerateSequence(int64(start), n)
	out := make([]RowID, n)
	for i, v := range seq {
		out[i] = RowID(v)
	}
	return out
}
