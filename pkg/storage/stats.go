package storage

import (
	"sync"

	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// ColumnStatistics is the per-column running min/max/has-null summary of
// spec.md §3/§9 invariant 9. Update and the readers take the tracker's
// own RWMutex. DataTable.Append calls Update under the append latch and
// DataTable.Update calls it under the target chunk's exclusive lock.
type ColumnStatistics struct {
	mu      sync.RWMutex
	typ     vector.Type
	hasMin  bool
	min     interface{}
	max     interface{}
	hasNull bool
}

// NewColumnStatistics returns an empty statistics tracker for typ.
func NewColumnStatistics(typ vector.Type) *ColumnStatistics {
	return &ColumnStatistics{typ: typ}
}

// Update folds one appended vector's values into the running summary.
func (s *ColumnStatistics) Update(v *vector.Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < v.Len(); i++ {
		if v.IsNull(i) {
			s.hasNull = true
			continue
		}
		val := v.At(i)
		if !s.hasMin {
			s.min, s.max, s.hasMin = val, val, true
			continue
		}
		if less(s.typ, val, s.min) {
			s.min = val
		}
		if less(s.typ, s.max, val) {
			s.max = val
		}
	}
}

// Min, Max, HasNull return the current summary.
func (s *ColumnStatistics) Min() (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.min, s.hasMin
}

func (s *ColumnStatistics) Max() (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max, s.hasMin
}

func (s *ColumnStatistics) HasNull() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasNull
}

// less compares two non-null logical values of the same type.
func less(typ vector.Type, a, b interface{}) bool {
	switch typ {
	case vector.TypeInt32:
		return a.(int32) < b.(int32)
	case vector.TypeInt64:
		return a.(int64) < b.(int64)
	case vector.TypeFloat64:
		return a.(float64) < b.(float64)
	case vector.TypeBool:
		return !a.(bool) && b.(bool)
	case vector.TypeString:
		return toComparableString(a) < toComparableString(b)
	default:
		panic("storage: unknown type in statistics comparator")
	}
}

func toComparableString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	// StringRef values are not directly comparable by content; statistics
	// on string columns are only meaningful before the value is moved to
	// the heap, which holds for every Update call site today.
	return ""
}
