package vector

import "github.com/bits-and-blooms/bitset"

// Vector is one column's worth of values for a batch, the Go stand-in for
// duckdb's Vector<T> with a nullmask and an optional selection vector.
type Vector struct {
	Typ    Type
	Values []interface{}
	Nulls  *bitset.BitSet
	// Sel is the selection vector: Sel[i] is the physical index backing
	// logical position i. nil means identity (logical == physical).
	Sel []int
}

// NewVector builds a vector with no nulls and no selection.
func NewVector(typ Type, values []interface{}) *Vector {
	return &Vector{Typ: typ, Values: values}
}

// Len is the logical row count.
func (v *Vector) Len() int {
	if v.Sel != nil {
		return len(v.Sel)
	}
	return len(v.Values)
}

func (v *Vector) physical(i int) int {
	if v.Sel != nil {
		return v.Sel[i]
	}
	return i
}

// At returns the logical value at position i, ignoring nullness.
func (v *Vector) At(i int) interface{} {
	return v.Values[v.physical(i)]
}

// IsNull reports whether the logical position i is null.
func (v *Vector) IsNull(i int) bool {
	if v.Nulls == nil {
		return false
	}
	return v.Nulls.Test(uint(v.physical(i)))
}

// SetNull marks the physical position p as null.
func (v *Vector) SetNull(p int) {
	if v.Nulls == nil {
		v.Nulls = bitset.New(uint(len(v.Values)))
	}
	v.Nulls.Set(uint(p))
}

// Reference builds a vector that shares the backing Values/Nulls of src
// but narrows the selection to sel (spec.md §6 "Reference").
func Reference(src *Vector, sel []int) *Vector {
	return &Vector{Typ: src.Typ, Values: src.Values, Nulls: src.Nulls, Sel: sel}
}

// StringRef is the fixed-width (8-byte) handle a String-typed column
// stores in its ColumnSegment byte buffer, pointing into a StringHeap.
type StringRef struct {
	Offset uint32
	Length uint32
}
