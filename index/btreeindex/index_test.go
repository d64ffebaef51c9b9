package btreeindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karlkukk-dev/duckdb/pkg/storage"
	"github.com/karlkukk-dev/duckdb/pkg/vector"
)

func chunkOf(vals ...int64) *vector.Chunk {
	c := vector.NewChunk([]vector.Type{vector.TypeInt64})
	for _, v := range vals {
		c.AppendRow([]interface{}{v})
	}
	return c
}

func TestBTreeIndexUniqueAcceptsThenRejectsDuplicate(t *testing.T) {
	idx := NewBTreeIndex(0, vector.TypeInt64, true)

	ok := idx.Append(chunkOf(1, 2, 3), []storage.RowID{0, 1, 2})
	require.True(t, ok)

	ok = idx.Append(chunkOf(4, 2), []storage.RowID{3, 4})
	assert.False(t, ok, "key 2 already has a posting")

	rows, found := idx.Lookup(int64(2))
	require.True(t, found)
	assert.Equal(t, []storage.RowID{1}, rows)

	_, found = idx.Lookup(int64(4))
	assert.False(t, found, "a rejected batch must not partially mutate the index")
}

func TestBTreeIndexNonUniqueAccumulates(t *testing.T) {
	idx := NewBTreeIndex(0, vector.TypeInt64, false)

	require.True(t, idx.Append(chunkOf(7, 7, 9), []storage.RowID{0, 1, 2}))

	rows, found := idx.Lookup(int64(7))
	require.True(t, found)
	assert.ElementsMatch(t, []storage.RowID{0, 1}, rows)
}

func TestBTreeIndexDeleteRemovesPosting(t *testing.T) {
	idx := NewBTreeIndex(0, vector.TypeInt64, true)
	require.True(t, idx.Append(chunkOf(5), []storage.RowID{10}))

	idx.Delete(chunkOf(5), []storage.RowID{10})

	_, found := idx.Lookup(int64(5))
	assert.False(t, found)

	require.True(t, idx.Append(chunkOf(5), []storage.RowID{11}), "key is free again after delete")
}

func TestBTreeIndexAppendSkipsNulls(t *testing.T) {
	idx := NewBTreeIndex(0, vector.TypeInt64, true)
	c := vector.NewChunk([]vector.Type{vector.TypeInt64})
	c.AppendRow([]interface{}{nil})
	c.AppendRow([]interface{}{int64(1)})

	require.True(t, idx.Append(c, []storage.RowID{0, 1}))

	rows, found := idx.Lookup(int64(1))
	require.True(t, found)
	assert.Equal(t, []storage.RowID{1}, rows)
}

func TestBTreeIndexIsUpdated(t *testing.T) {
	idx := NewBTreeIndex(2, vector.TypeInt64, false)
	assert.True(t, idx.IndexIsUpdated([]int{1, 2}))
	assert.False(t, idx.IndexIsUpdated([]int{0, 1}))
}
