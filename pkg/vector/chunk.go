package vector

// Chunk is a row-batch: one Vector per column, all sharing the same
// logical row count. This is spec.md's "DataChunk".
type Chunk struct {
	Vecs []*Vector
}

// NewChunk builds an empty chunk over the given types.
func NewChunk(types []Type) *Chunk {
	vecs := make([]*Vector, len(types))
	for i, t := range types {
		vecs[i] = &Vector{Typ: t}
	}
	return &Chunk{Vecs: vecs}
}

// Size is the chunk's logical row count (spec.md's chunk.size()).
func (c *Chunk) Size() int {
	if len(c.Vecs) == 0 {
		return 0
	}
	return c.Vecs[0].Len()
}

// ColumnCount is the chunk's column count (spec.md's chunk.column_count).
func (c *Chunk) ColumnCount() int {
	return len(c.Vecs)
}

// AppendRow appends one materialized row (one interface{} per column, nil
// meaning null) across all of the chunk's vectors.
func (c *Chunk) AppendRow(values []interface{}) {
	for i, v := range values {
		vec := c.Vecs[i]
		pos := len(vec.Values)
		vec.Values = append(vec.Values, v)
		if v == nil {
			vec.SetNull(pos)
		}
	}
}

// StringHeap collects variable-length payloads referenced by StringRef
// handles stored in a String column's fixed-width segment bytes.
// Grounded on original_source's StringHeap (MoveStringsToHeap/MergeHeap).
type StringHeap struct {
	buf []byte
}

// NewStringHeap returns an empty heap.
func NewStringHeap() *StringHeap {
	return &StringHeap{}
}

// Reset empties the heap for reuse from a pool.
func (h *StringHeap) Reset() {
	h.buf = h.buf[:0]
}

// Put copies s into the heap and returns a handle to it.
func (h *StringHeap) Put(s string) StringRef {
	ref := StringRef{Offset: uint32(len(h.buf)), Length: uint32(len(s))}
	h.buf = append(h.buf, s...)
	return ref
}

// Get dereferences a handle previously returned by Put (or merged in from
// another heap via Merge).
func (h *StringHeap) Get(ref StringRef) string {
	return string(h.buf[ref.Offset : ref.Offset+ref.Length])
}

// Merge appends other's bytes to h and returns the offset delta callers
// must add to any StringRef minted against other before the merge.
func (h *StringHeap) Merge(other *StringHeap) uint32 {
	delta := uint32(len(h.buf))
	h.buf = append(h.buf, other.buf...)
	return delta
}

// MoveStringsToHeap copies every String-column value in the chunk into
// scratch and replaces the chunk's logical values with StringRef handles,
// mirroring original_source's chunk.MoveStringsToHeap(heap).
func (c *Chunk) MoveStringsToHeap(scratch *StringHeap) {
	for _, v := range c.Vecs {
		if v.Typ != TypeString {
			continue
		}
		for i := range v.Values {
			if v.Nulls != nil && v.Nulls.Test(uint(i)) {
				continue
			}
			switch val := v.Values[i].(type) {
			case string:
				v.Values[i] = scratch.Put(val)
			case StringRef:
				// already materialized against another heap; leave as-is,
				// AppendVector will re-resolve through the chunk's own heap.
			}
		}
	}
}
