package storage

import (
	"io"
	"sync"

	"github.com/karlkukk-dev/duckdb/pkg/txnif"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// ScanState is spec.md §4.8's TableScanState: it captures root/tail/
// tail.count at InitializeScan so a reader never observes appends that
// happened after its snapshot began.
type ScanState struct {
	cur            *VersionChunk
	offset         uint32
	lastChunk      *VersionChunk
	lastChunkCount uint32
}

// IndexScanState is spec.md §4.8's index-bootstrap scan cursor: it has no
// upper bound, since CreateIndexScan is meant to see in-progress writes
// too.
type IndexScanState struct {
	cur    *VersionChunk
	offset uint32
}

// InitializeScan captures the snapshot boundary for a new scan (spec.md
// §4.8).
func (t *DataTable) InitializeScan() *ScanState {
	root, _ := t.chunks.Root()
	tail, hasTail := t.chunks.Tail()
	state := &ScanState{cur: root, lastChunk: tail}
	if hasTail {
		state.lastChunkCount = tail.Count()
	}
	return state
}

// Scan produces at most one vector of up to VECTOR_SIZE visible rows per
// call (spec.md §4.8); callers must call it repeatedly until io.EOF to
// drain the table.
func (t *DataTable) Scan(txn txnif.Txn, state *ScanState, columnIDs []int) (*vector.Chunk, error) {
	if state.cur == nil {
		return nil, io.EOF
	}

	out := vector.NewChunk(projectedTypes(t, columnIDs))

	for state.cur != nil && out.Size() < VectorSize {
		bound := state.cur.count
		atLastChunk := state.cur == state.lastChunk
		if atLastChunk {
			bound = state.lastChunkCount
		}

		state.cur.lockShared()
		_, newOffset := state.cur.scanLocked(txn, state.offset, VectorSize-out.Size(), t.columnTrees, columnIDs, bound, out)
		state.cur.unlockShared()
		state.offset = newOffset

		if state.offset < bound {
			break
		}
		if atLastChunk {
			state.cur = nil
			break
		}
		state.cur = state.cur.next
		state.offset = 0
	}

	if out.Size() == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// Fetch implements spec.md §4.8: sort row ids to group chunk accesses,
// then fan the distinct chunk groups out to the bounded worker pool
// (SPEC_FULL.md §8), each worker taking its chunk's shared lock
// independently. Absent or deleted rows are reported as an all-null row
// at that position, preserving input order and length.
func (t *DataTable) Fetch(txn txnif.Txn, rowIDs []RowID, columnIDs []int) (*vector.Chunk, error) {
	n := len(rowIDs)
	out := vector.NewChunk(projectedTypes(t, columnIDs))
	if n == 0 {
		return out, nil
	}

	ids64 := make([]int64, n)
	for i, id := range rowIDs {
		ids64[i] = int64(id)
	}
	perm := vector.Sort(ids64)

	type group struct {
		chunk *VersionChunk
		items []int
	}
	var groups []*group
	var cur *VersionChunk
	for _, p := range perm {
		chunk, ok := t.chunks.Lookup(rowIDs[p])
		if !ok {
			continue
		}
		if cur != chunk {
			groups = append(groups, &group{chunk: chunk})
			cur = chunk
		}
		g := groups[len(groups)-1]
		g.items = append(g.items, p)
	}

	results := make([][]interface{}, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, g := range groups {
		g := g
		wg.Add(1)
		err := t.pool.Submit(func() {
			defer wg.Done()
			g.chunk.lockShared()
			local := make(map[int][]interface{}, len(g.items))
			for _, p := range g.items {
				offset := uint32(rowIDs[p] - g.chunk.start)
				if vals, ok := g.chunk.retrieveTupleDataLocked(txn, offset, t.columnTrees, columnIDs); ok {
					local[p] = vals
				}
			}
			g.chunk.unlockShared()

			mu.Lock()
			for p, vals := range local {
				results[p] = vals
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
		}
	}
	wg.Wait()

	for _, vals := range results {
		if vals == nil {
			vals = make([]interface{}, len(columnIDs))
		}
		out.AppendRow(vals)
	}
	return out, nil
}

// InitializeIndexScan starts a scan with no snapshot boundary, used to
// bootstrap a secondary index over the table's current contents plus any
// in-progress writes (spec.md §4.8).
func (t *DataTable) InitializeIndexScan() *IndexScanState {
	root, _ := t.chunks.Root()
	return &IndexScanState{cur: root}
}

// CreateIndexScan produces the next batch of rows visible for index
// bootstrap purposes, along with their row ids (spec.md §4.8).
func (t *DataTable) CreateIndexScan(state *IndexScanState, columnIDs []int) (*vector.Chunk, []RowID, error) {
	if state.cur == nil {
		return nil, nil, io.EOF
	}

	out := vector.NewChunk(projectedTypes(t, columnIDs))
	var ids []RowID

	for state.cur != nil && out.Size() < VectorSize {
		state.cur.lockShared()
		newOffset := state.cur.createIndexScanLocked(state.offset, state.cur.count, t.columnTrees, columnIDs, out, &ids)
		state.cur.unlockShared()
		state.offset = newOffset

		if state.offset >= state.cur.count {
			state.cur = state.cur.next
			state.offset = 0
		}
	}

	if out.Size() == 0 {
		return nil, nil, io.EOF
	}
	return out, ids, nil
}

// BuildIndex drains CreateIndexScan and calls idx.Append for every batch,
// submitting independent batches to the table's worker pool since
// distinct chunks carry disjoint row ranges (SPEC_FULL.md §8).
func (t *DataTable) BuildIndex(idx Index, columnIDs []int) error {
	state := t.InitializeIndexScan()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for {
		chunk, ids, err := t.CreateIndexScan(state, columnIDs)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		chunkCopy, idsCopy := chunk, ids
		wg.Add(1)
		submitErr := t.pool.Submit(func() {
			defer wg.Done()
			if !idx.Append(chunkCopy, idsCopy) {
				mu.Lock()
				if firstErr == nil {
					firstErr = newConstraintError("index bootstrap found a duplicate key")
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			return newInternalError("failed to submit index-build batch: %v", submitErr)
		}
	}

	wg.Wait()
	return firstErr
}

func projectedTypes(t *DataTable, columnIDs []int) []vector.Type {
	all := t.schema.GetTypes()
	out := make([]vector.Type, len(columnIDs))
	for i, c := range columnIDs {
		out[i] = all[c]
	}
	return out
}
