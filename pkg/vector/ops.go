package vector

import (
	"encoding/binary"
	"math"
	"sort"
)

// HasNull reports whether any logical entry of v is null.
func HasNull(v *Vector) bool {
	for i := 0; i < v.Len(); i++ {
		if v.IsNull(i) {
			return true
		}
	}
	return false
}

// Unique reports whether v's non-null logical entries contain no
// duplicate value.
func Unique(v *Vector) bool {
	seen := make(map[interface{}]struct{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		if v.IsNull(i) {
			continue
		}
		val := v.At(i)
		if ref, ok := val.(StringRef); ok {
			val = ref // comparable, fine as a map key
		}
		if _, dup := seen[val]; dup {
			return false
		}
		seen[val] = struct{}{}
	}
	return true
}

// GenerateSequence builds the dense row-id vector [start, start+count).
func GenerateSequence(start int64, count int) []int64 {
	out := make([]int64, count)
	for i := 0; i < count; i++ {
		out[i] = start + int64(i)
	}
	return out
}

// Sort returns the permutation of indices [0,len(ids)) that sorts ids in
// ascending order, mirroring original_source's sort_vector built by
// VectorOperations::Sort. Used by Fetch to minimize lock churn.
func Sort(ids []int64) []int {
	perm := make([]int, len(ids))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return ids[perm[a]] < ids[perm[b]] })
	return perm
}

// Exec calls fn(i) for each logical position of an n-row vector, the Go
// stand-in for VectorOperations::Exec's selection-aware iteration (the
// selection itself is already folded into callers' slices at this layer).
func Exec(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

func encodeInto(typ Type, val interface{}, dst []byte, heap *StringHeap) {
	switch typ {
	case TypeInt32:
		binary.LittleEndian.PutUint32(dst, uint32(toInt64(val)))
	case TypeInt64:
		binary.LittleEndian.PutUint64(dst, uint64(toInt64(val)))
	case TypeFloat64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(val.(float64)))
	case TypeBool:
		if val.(bool) {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case TypeString:
		ref, ok := val.(StringRef)
		if !ok {
			ref = heap.Put(val.(string))
		}
		binary.LittleEndian.PutUint32(dst[0:4], ref.Offset)
		binary.LittleEndian.PutUint32(dst[4:8], ref.Length)
	}
}

func toInt64(val interface{}) int64 {
	switch n := val.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		panic("vector: non-integer value for integer column")
	}
}

// CopyToStorage bulk-copies count logical entries of v, starting at
// srcOffset, into dst (len(dst) must be count*v.Typ.Size()). Nulls are
// materialized as the type's zero-value sentinel, matching spec.md §4.1.
func CopyToStorage(v *Vector, dst []byte, srcOffset, count int, heap *StringHeap) {
	sz := v.Typ.Size()
	for i := 0; i < count; i++ {
		pos := srcOffset + i
		slot := dst[i*sz : (i+1)*sz]
		if v.IsNull(pos) {
			for j := range slot {
				slot[j] = 0
			}
			continue
		}
		encodeInto(v.Typ, v.At(pos), slot, heap)
	}
}

// WriteOne encodes a single logical value from v (position k) into dst,
// used by Update to overwrite one row's bytes in place.
func WriteOne(v *Vector, k int, dst []byte, heap *StringHeap) {
	if v.IsNull(k) {
		for j := range dst {
			dst[j] = 0
		}
		return
	}
	encodeInto(v.Typ, v.At(k), dst, heap)
}

// Decode reconstructs a logical Go value from raw storage bytes. The
// all-zero null sentinel decodes to the type's zero value (or "" for
// String): decoding alone cannot distinguish an intentional zero from a
// null sentinel, matching spec.md's "nulls are materialized as
// type-specific sentinels".
func Decode(typ Type, raw []byte, heap *StringHeap) interface{} {
	switch typ {
	case TypeInt32:
		return int32(binary.LittleEndian.Uint32(raw))
	case TypeInt64:
		return int64(binary.LittleEndian.Uint64(raw))
	case TypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case TypeBool:
		return raw[0] != 0
	case TypeString:
		ref := StringRef{Offset: binary.LittleEndian.Uint32(raw[0:4]), Length: binary.LittleEndian.Uint32(raw[4:8])}
		if ref.Length == 0 && ref.Offset == 0 {
			return ""
		}
		return heap.Get(ref)
	default:
		panic("vector: unknown type in Decode")
	}
}
