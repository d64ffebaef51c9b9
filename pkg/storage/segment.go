package storage

import (
	"sync"

	"github.com/google/btree"

	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// ColumnSegment is a fixed-capacity byte buffer holding a contiguous run
// of one column's values (spec.md §3/§4.1).
type ColumnSegment struct {
	start  RowID
	count  uint32
	offset uint32
	typ    vector.Type
	buf    []byte
}

// newColumnSegment allocates an empty segment starting at start.
func newColumnSegment(typ vector.Type, start RowID) *ColumnSegment {
	return &ColumnSegment{start: start, typ: typ, buf: make([]byte, BlockSize)}
}

// Start is the row id of this segment's first element.
func (s *ColumnSegment) Start() RowID { return s.start }

// Count is the number of elements stored.
func (s *ColumnSegment) Count() uint32 { return s.count }

// AppendVector writes up to min((capacity-offset)/sizeof(t), count)
// values from v, starting at srcOffset, into this segment's tail
// (spec.md §4.1), where capacity is the byte length of the segment's
// buffer (BLOCK_SIZE for every segment newColumnSegment allocates).
// Returns the number of rows actually written.
func (s *ColumnSegment) AppendVector(v *vector.Vector, srcOffset, count int, heap *vector.StringHeap) int {
	elemSize := s.typ.Size()
	room := (len(s.buf) - int(s.offset)) / elemSize
	if count > room {
		count = room
	}
	if count <= 0 {
		return 0
	}
	dst := s.buf[s.offset : int(s.offset)+count*elemSize]
	vector.CopyToStorage(v, dst, srcOffset, count, heap)
	s.offset += uint32(count * elemSize)
	s.count += uint32(count)
	return count
}

// pointerToRow returns the raw byte slice backing the single element at
// row id id, which must fall within [start, start+count).
func (s *ColumnSegment) pointerToRow(id RowID) []byte {
	elemSize := s.typ.Size()
	localOffset := int(id-s.start) * elemSize
	return s.buf[localOffset : localOffset+elemSize]
}

// segEntry adapts a Segmented value into a btree.Item ordered by start.
type segEntry struct {
	start RowID
	obj   interface{}
}

func (e segEntry) Less(than btree.Item) bool {
	return e.start < than.(segEntry).start
}

// SegmentTree is the ordered, append-only container of spec.md's
// SegmentTree<S>: a btree keyed by row-id start, used both for each
// column's ColumnSegments and for the table-wide VersionChunk chain.
// Grounded on tae/pkg/tables/table.go's single-appendable-tail pattern;
// Lock/Unlock implement spec.md §4.1's `node_lock` append latch. The
// row-wise tree holds it for a whole Append; the per-column trees take it
// around each segment append. The read accessors (Tail, Root, Lookup,
// Ascend, Len) take the same mutex internally.
type SegmentTree[S any] struct {
	mu   sync.Mutex
	tree *btree.BTree
	tail S
	has  bool
}

// NewSegmentTree returns an empty tree with btree's conventional degree.
func NewSegmentTree[S any]() *SegmentTree[S] {
	return &SegmentTree[S]{tree: btree.New(32)}
}

// Lock acquires the append latch (spec.md's SegmentTree.node_lock).
func (t *SegmentTree[S]) Lock() { t.mu.Lock() }

// Unlock releases the append latch.
func (t *SegmentTree[S]) Unlock() { t.mu.Unlock() }

// AppendLocked inserts a new tail node keyed by start. Caller must hold
// the append latch.
func (t *SegmentTree[S]) AppendLocked(start RowID, s S) {
	t.tree.ReplaceOrInsert(segEntry{start: start, obj: s})
	t.tail = s
	t.has = true
}

// Tail returns the most recently appended node.
func (t *SegmentTree[S]) Tail() (S, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tail, t.has
}

// TailLocked is Tail for a caller that already holds the append latch
// (avoids a recursive self-lock during AppendLocked call sequences).
func (t *SegmentTree[S]) TailLocked() (S, bool) {
	return t.tail, t.has
}

// Root returns the first node in row-id order, or the zero value and
// false if the tree is empty.
func (t *SegmentTree[S]) Root() (S, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item := t.tree.Min()
	if item == nil {
		var zero S
		return zero, false
	}
	return item.(segEntry).obj.(S), true
}

// Lookup returns the node whose [start, start+count) range would contain
// id, i.e. the node with the greatest start <= id (spec.md's "lookup by
// key returning the segment whose [start, start+count) contains the
// key").
func (t *SegmentTree[S]) Lookup(id RowID) (S, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var found *segEntry
	t.tree.DescendLessOrEqual(segEntry{start: id}, func(i btree.Item) bool {
		e := i.(segEntry)
		found = &e
		return false
	})
	if found == nil {
		var zero S
		return zero, false
	}
	return found.obj.(S), true
}

// Ascend visits every node in ascending start order.
func (t *SegmentTree[S]) Ascend(fn func(s S) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(segEntry).obj.(S))
	})
}

// Len returns the number of nodes in the tree.
func (t *SegmentTree[S]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Len()
}
