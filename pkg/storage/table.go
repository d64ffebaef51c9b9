package storage

import (
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/karlkukk-dev/duckdb/pkg/catalog"
	"github.com/karlkukk-dev/duckdb/pkg/txnif"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// DataTable is spec.md §3/§4.5-§4.8's top-level coordinator: it owns both
// segment trees, statistics, and indexes, and is the sole entry point
// writers and readers go through (spec.md §2's 45%-share component).
// Grounded on original_source/src/storage/data_table.cpp's control flow,
// with lock/log shape from tae/pkg/txn/txnimpl/table.go's Append.
type DataTable struct {
	schema      catalog.TableCatalogEntry
	columnTrees []*SegmentTree[*ColumnSegment]
	chunks      *SegmentTree[*VersionChunk]
	stats       []*ColumnStatistics
	indexes     []Index
	pool        *ants.Pool
	heapPool    sync.Pool
}

// NewDataTable builds an empty table over schema with the given
// secondary indexes, already in append order.
func NewDataTable(schema catalog.TableCatalogEntry, indexes []Index) (*DataTable, error) {
	types := schema.GetTypes()
	columnTrees := make([]*SegmentTree[*ColumnSegment], len(types))
	stats := make([]*ColumnStatistics, len(types))
	for i, t := range types {
		columnTrees[i] = NewSegmentTree[*ColumnSegment]()
		stats[i] = NewColumnStatistics(t)
	}

	pool, err := ants.NewPool(runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, newInternalError("failed to start worker pool: %v", err)
	}

	return &DataTable{
		schema:      schema,
		columnTrees: columnTrees,
		chunks:      NewSegmentTree[*VersionChunk](),
		stats:       stats,
		indexes:     indexes,
		pool:        pool,
		heapPool: sync.Pool{
			New: func() interface{} { return vector.NewStringHeap() },
		},
	}, nil
}

// Schema returns the table's catalog entry.
func (t *DataTable) Schema() catalog.TableCatalogEntry { return t.schema }

// Statistics returns the running summary for column i.
func (t *DataTable) Statistics(i int) *ColumnStatistics { return t.stats[i] }

// Cardinality is the table's current row-id upper bound (spec.md §3).
// It takes the chunk tree's latch only to find the tail, then reads the
// tail's count without the chunk lock, so the result may be stale while
// another Append is running.
func (t *DataTable) Cardinality() int64 {
	tail, ok := t.chunks.Tail()
	if !ok {
		return 0
	}
	return int64(tail.start) + int64(tail.count)
}

// Append implements spec.md §4.5.
func (t *DataTable) Append(txn txnif.Txn, chunk *vector.Chunk) error {
	if chunk.Size() == 0 {
		return newInternalError("append called with an empty chunk")
	}
	if chunk.ColumnCount() != len(t.schema.Columns()) {
		return newCatalogError("append column count %d does not match catalog column count %d", chunk.ColumnCount(), len(t.schema.Columns()))
	}
	if err := VerifyAppendConstraints(t, chunk); err != nil {
		return err
	}

	scratch := t.heapPool.Get().(*vector.StringHeap)
	scratch.Reset()
	chunk.MoveStringsToHeap(scratch)
	defer t.heapPool.Put(scratch)

	t.chunks.Lock()
	defer t.chunks.Unlock()

	tail, ok := t.chunks.TailLocked()
	if !ok {
		tail = t.appendVersionChunkLocked(0)
	}
	tail.lockExclusive()

	rowStart := tail.start + RowID(tail.count)

	if err := AppendToIndexes(t.indexes, chunk, rowStart); err != nil {
		tail.unlockExclusive()
		return err
	}

	for i, v := range chunk.Vecs {
		t.stats[i].Update(v)
	}

	remaining := chunk.Size()
	srcOffset := 0
	for remaining > 0 {
		room := StorageChunkSize - int(tail.count)
		if room == 0 {
			old := tail
			tail = t.appendVersionChunkLocked(old.start + RowID(old.count))
			old.unlockExclusive()
			tail.lockExclusive()
			room = StorageChunkSize
		}

		n := room
		if remaining < n {
			n = remaining
		}

		delta := tail.heap.Merge(scratch)
		adjustStringRefs(chunk, srcOffset, n, delta)

		tail.pushDeletedEntriesLocked(txn, n)
		for colIdx, v := range chunk.Vecs {
			t.appendColumnVector(colIdx, v, srcOffset, n, tail.heap)
		}
		tail.count += uint32(n)

		srcOffset += n
		remaining -= n
	}

	tail.unlockExclusive()
	logrus.Infof("storage: append rows [%d, %d) to table %q", rowStart, rowStart+RowID(chunk.Size()), t.schema.Name())
	return nil
}

// appendVersionChunkLocked allocates a new VersionChunk whose column
// pointers pin the current tail segment of each column (spec.md §4.5
// step 8, §9's re-architected handle-based back-pointer). Caller must
// hold the chunks tree's append latch.
func (t *DataTable) appendVersionChunkLocked(start RowID) *VersionChunk {
	prev, hadPrev := t.chunks.TailLocked()

	columns := make([]columnPointer, len(t.columnTrees))
	for i, tree := range t.columnTrees {
		tree.Lock()
		seg, ok := tree.TailLocked()
		if !ok {
			seg = newColumnSegment(t.schema.GetTypes()[i], 0)
			tree.AppendLocked(0, seg)
		}
		columns[i] = columnPointer{segment: seg, rowOffset: seg.count}
		tree.Unlock()
	}
	chunk := newVersionChunk(start, columns)
	if hadPrev {
		prev.next = chunk
	}
	t.chunks.AppendLocked(start, chunk)
	return chunk
}

// appendColumnVector writes n values of v (starting at srcOffset) into
// column colIdx's segment tree, rolling over to a fresh segment whenever
// the current tail fills (spec.md §4.1).
func (t *DataTable) appendColumnVector(colIdx int, v *vector.Vector, srcOffset, n int, heap *vector.StringHeap) {
	tree := t.columnTrees[colIdx]
	tree.Lock()
	defer tree.Unlock()

	remaining := n
	localSrc := srcOffset
	for remaining > 0 {
		seg, ok := tree.TailLocked()
		if !ok {
			seg = newColumnSegment(t.schema.GetTypes()[colIdx], 0)
			tree.AppendLocked(0, seg)
		}
		written := seg.AppendVector(v, localSrc, remaining, heap)
		if written == 0 {
			next := newColumnSegment(t.schema.GetTypes()[colIdx], seg.start+RowID(seg.count))
			tree.AppendLocked(next.start, next)
			continue
		}
		localSrc += written
		remaining -= written
	}
}

// Delete implements spec.md §4.6. All row ids must resolve to the same
// VersionChunk; the core does not partition internally (spec.md §9 Open
// Question 1's recorded decision). Conflicts are checked over the whole
// batch before any undo record is produced, as in Update.
func (t *DataTable) Delete(txn txnif.Txn, rowIDs []RowID) error {
	if len(rowIDs) == 0 {
		return nil
	}
	chunk, ok := t.chunks.Lookup(rowIDs[0])
	if !ok {
		return newInternalError("delete: row id %d does not belong to any chunk", rowIDs[0])
	}
	for _, id := range rowIDs {
		if id < chunk.start || id >= chunk.start+RowID(chunk.count) {
			return newInternalError("delete: all row ids in one call must belong to the same VersionChunk")
		}
	}

	chunk.lockExclusive()
	defer chunk.unlockExclusive()

	for _, id := range rowIDs {
		offset := uint32(id - chunk.start)
		if head := chunk.chainHeads[offset]; head != nil && head.VersionNumber >= TransactionIDStart && head.VersionNumber != txn.ID() {
			return &TransactionConflictError{RowID: id}
		}
	}
	for _, id := range rowIDs {
		offset := uint32(id - chunk.start)
		chunk.pushTupleLocked(txn, FlagDelete, offset, nil)
		chunk.setDeletedLocked(offset)
	}
	return nil
}

// Update implements spec.md §4.7, including the batch conflict pre-check
// that runs before any undo record is produced.
func (t *DataTable) Update(txn txnif.Txn, rowIDs []RowID, columnIDs []int, updates *vector.Chunk) error {
	if err := VerifyUpdateConstraints(t, updates, columnIDs); err != nil {
		return err
	}
	if len(rowIDs) == 0 {
		return nil
	}

	scratch := t.heapPool.Get().(*vector.StringHeap)
	scratch.Reset()
	updates.MoveStringsToHeap(scratch)
	defer t.heapPool.Put(scratch)

	chunk, ok := t.chunks.Lookup(rowIDs[0])
	if !ok {
		return newInternalError("update: row id %d does not belong to any chunk", rowIDs[0])
	}
	for _, id := range rowIDs {
		if id < chunk.start || id >= chunk.start+RowID(chunk.count) {
			return newInternalError("update: all row ids in one call must belong to the same VersionChunk")
		}
	}

	chunk.lockExclusive()
	defer chunk.unlockExclusive()

	// Step 4: conflict pre-check over the entire batch, no side effects.
	for _, id := range rowIDs {
		offset := uint32(id - chunk.start)
		if head := chunk.chainHeads[offset]; head != nil && head.VersionNumber >= TransactionIDStart && head.VersionNumber != txn.ID() {
			return &TransactionConflictError{RowID: id}
		}
	}

	// Step 5: index coordination, base data still untouched.
	if err := UpdateIndexes(t.indexes, t, columnIDs, updates, rowIDs); err != nil {
		return err
	}

	delta := chunk.heap.Merge(scratch)
	adjustStringRefs(updates, 0, updates.Size(), delta)

	for k, id := range rowIDs {
		offset := uint32(id - chunk.start)
		preImage := t.captureRowPreImageLocked(chunk, offset)
		chunk.pushTupleLocked(txn, FlagUpdate, offset, preImage)

		for ci, colID := range columnIDs {
			seg, ok := t.columnTrees[colID].Lookup(id)
			if !ok {
				continue
			}
			dst := seg.pointerToRow(id)
			vector.WriteOne(updates.Vecs[ci], k, dst, chunk.heap)
			t.stats[colID].Update(vector.Reference(updates.Vecs[ci], []int{k}))
		}
	}
	return nil
}

// captureRowPreImageLocked snapshots every column's current value for
// offset before Update overwrites columnIDs, per spec.md §4.2's literal
// wording ("copy the current tuple, serialized form across all columns,
// into the undo buffer"). A partial, touched-columns-only snapshot is not
// enough: a later reader reconstructing a row between two updates needs
// the full row as it stood at that point, not just the columns the
// *next* update happened to touch (see resolveLocked).
func (t *DataTable) captureRowPreImageLocked(chunk *VersionChunk, offset uint32) *TuplePreImage {
	allColumnIDs := allColumnIndices(len(t.columnTrees))
	values := chunk.materializeRowLocked(t.columnTrees, allColumnIDs, offset, nil)
	return &TuplePreImage{ColumnIDs: allColumnIDs, Values: values}
}

// allColumnIndices returns [0, n).
func allColumnIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// adjustStringRefs shifts every String-column StringRef in
// chunk[srcOffset:srcOffset+n] by delta, the offset a heap merge just
// introduced (spec.md's string-heap merge step in Append/Update).
func adjustStringRefs(chunk *vector.Chunk, srcOffset, n int, delta uint32) {
	if delta == 0 {
		return
	}
	for _, v := range chunk.Vecs {
		if v.Typ != vector.TypeString {
			continue
		}
		end := srcOffset + n
		if end > len(v.Values) {
			end = len(v.Values)
		}
		for i := srcOffset; i < end; i++ {
			if ref, ok := v.Values[i].(vector.StringRef); ok {
				ref.Offset += delta
				v.Values[i] = ref
			}
		}
	}
}
