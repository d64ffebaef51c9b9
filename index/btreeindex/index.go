// Package btreeindex is the reference, non-core Index capability
// implementation SPEC_FULL.md §7 calls for: an ordered single-column
// index over google/btree with RoaringBitmap posting lists per key,
// exercised only by tests against the storage.Index contract.
package btreeindex

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/btree"

	"github.com/karlkukk-dev/duckdb/pkg/storage"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// keyItem is one indexed value and its posting list, ordered by value.
type keyItem struct {
	val    interface{}
	typ    vector.Type
	bitmap *roaring.Bitmap
}

func (k keyItem) Less(than btree.Item) bool {
	return lessValue(k.typ, k.val, than.(keyItem).val)
}

func lessValue(typ vector.Type, a, b interface{}) bool {
	switch typ {
	case vector.TypeInt32:
		return a.(int32) < b.(int32)
	case vector.TypeInt64:
		return a.(int64) < b.(int64)
	case vector.TypeFloat64:
		return a.(float64) < b.(float64)
	case vector.TypeBool:
		return !a.(bool) && b.(bool)
	default:
		panic("btreeindex: unknown or unsupported type")
	}
}

// BTreeIndex is a single-column ordered index. Unique rejects a second
// row for a key that already has a non-empty posting list; non-unique
// accumulates every matching row id.
//
// BTreeIndex does not support vector.TypeString columns. By the time
// Append sees a chunk, string values have already been replaced with
// fixed-width vector.StringRef handles (DataTable.Append moves string
// payloads to its own heap before calling AppendToIndexes), and ordering
// StringRefs requires dereferencing them through that heap — which the
// storage.Index contract does not give an index access to. NewBTreeIndex
// panics if typ is vector.TypeString rather than building an index that
// would panic later on its first Append.
type BTreeIndex struct {
	mu        sync.Mutex
	columnIdx int
	typ       vector.Type
	unique    bool
	tree      *btree.BTree
}

// NewBTreeIndex returns an empty index over columnIdx.
func NewBTreeIndex(columnIdx int, typ vector.Type, unique bool) *BTreeIndex {
	if typ == vector.TypeString {
		panic("btreeindex: TypeString columns are not supported")
	}
	return &BTreeIndex{columnIdx: columnIdx, typ: typ, unique: unique, tree: btree.New(32)}
}

var _ storage.Index = (*BTreeIndex)(nil)

// Append implements storage.Index. For unique indexes it pre-checks every
// row against existing postings before mutating, so a rejected batch
// leaves the index exactly as it was (storage.AppendToIndexes still
// handles rolling back indexes appended before this one in the same
// DataTable.Append call).
func (idx *BTreeIndex) Append(chunk *vector.Chunk, rowIDs []storage.RowID) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	vec := chunk.Vecs[idx.columnIdx]

	if idx.unique {
		for i := range rowIDs {
			if vec.IsNull(i) {
				continue
			}
			if item := idx.tree.Get(keyItem{val: vec.At(i), typ: idx.typ}); item != nil {
				if !item.(keyItem).bitmap.IsEmpty() {
					return false
				}
			}
		}
	}

	for i, id := range rowIDs {
		if vec.IsNull(i) {
			continue
		}
		val := vec.At(i)
		key := keyItem{val: val, typ: idx.typ}
		entry := keyItem{val: val, typ: idx.typ, bitmap: roaring.New()}
		if item := idx.tree.Get(key); item != nil {
			entry = item.(keyItem)
		}
		entry.bitmap.Add(uint32(id))
		idx.tree.ReplaceOrInsert(entry)
	}
	return true
}

// Delete implements storage.Index.
func (idx *BTreeIndex) Delete(chunk *vector.Chunk, rowIDs []storage.RowID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	vec := chunk.Vecs[idx.columnIdx]
	for i, id := range rowIDs {
		if vec.IsNull(i) {
			continue
		}
		key := keyItem{val: vec.At(i), typ: idx.typ}
		item := idx.tree.Get(key)
		if item == nil {
			continue
		}
		entry := item.(keyItem)
		entry.bitmap.Remove(uint32(id))
		if entry.bitmap.IsEmpty() {
			idx.tree.Delete(key)
		} else {
			idx.tree.ReplaceOrInsert(entry)
		}
	}
}

// IndexIsUpdated implements storage.Index.
func (idx *BTreeIndex) IndexIsUpdated(columnIDs []int) bool {
	for _, c := range columnIDs {
		if c == idx.columnIdx {
			return true
		}
	}
	return false
}

// Lookup returns the row ids posted under val, for tests.
func (idx *BTreeIndex) Lookup(val interface{}) ([]storage.RowID, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	item := idx.tree.Get(keyItem{val: val, typ: idx.typ})
	if item == nil {
		return nil, false
	}
	bm := item.(keyItem).bitmap
	out := make([]storage.RowID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, storage.RowID(it.Next()))
	}
	return out, true
}
