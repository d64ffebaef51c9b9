package storage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

// statsSnapshot is a plain copy of the fields ColumnStatistics exposes,
// for diffing a before/after pair with cmp instead of a field-by-field
// assert.Equal chain.
type statsSnapshot struct {
	Min, Max interface{}
	HasNull  bool
}

func snapshotStats(stats *ColumnStatistics) statsSnapshot {
	min, _ := stats.Min()
	max, _ := stats.Max()
	return statsSnapshot{Min: min, Max: max, HasNull: stats.HasNull()}
}

func TestColumnStatisticsTracksMinMaxAndNull(t *testing.T) {
	stats := NewColumnStatistics(vector.TypeInt32)

	v1 := vector.NewVector(vector.TypeInt32, []interface{}{int32(5), int32(1), int32(9)})
	stats.Update(v1)

	min, ok := stats.Min()
	require.True(t, ok)
	assert.Equal(t, int32(1), min)
	max, ok := stats.Max()
	require.True(t, ok)
	assert.Equal(t, int32(9), max)
	assert.False(t, stats.HasNull())

	before := snapshotStats(stats)

	v2 := vector.NewVector(vector.TypeInt32, []interface{}{int32(-3), nil, int32(100)})
	v2.SetNull(1)
	stats.Update(v2)

	after := snapshotStats(stats)
	want := statsSnapshot{Min: int32(-3), Max: int32(100), HasNull: true}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("statistics after wider batch mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, after); diff == "" {
		t.Error("statistics did not change after a batch with a wider min/max and a null")
	}
}

func TestColumnStatisticsEmptyHasNoMinMax(t *testing.T) {
	stats := NewColumnStatistics(vector.TypeInt64)
	_, ok := stats.Min()
	assert.False(t, ok)
}
