package txnbase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karlkukk-dev/duckdb/pkg/txnif"
)

func TestCommitRewritesUndoEntries(t *testing.T) {
	mgr := NewManager()
	txn := mgr.Begin()

	var patched uint64
	txn.Push(txnif.UndoEntry{
		Commit: func(ts uint64) { patched = ts },
	})

	txn.Commit(mgr)

	assert.Equal(t, txnif.TxnCommitted, txn.State())
	assert.Equal(t, txn.CommitTS(), patched)
	assert.NotZero(t, patched)
}

func TestRollbackUnwindsInReverseOrder(t *testing.T) {
	mgr := NewManager()
	txn := mgr.Begin()

	var order []int
	txn.Push(txnif.UndoEntry{Rollback: func() { order = append(order, 1) }})
	txn.Push(txnif.UndoEntry{Rollback: func() { order = append(order, 2) }})

	txn.Rollback()

	assert.Equal(t, txnif.TxnRolledback, txn.State())
	assert.Equal(t, []int{2, 1}, order)
}

func TestBeginAssignsIDsAboveTransactionIDStart(t *testing.T) {
	mgr := NewManager()
	txn := mgr.Begin()
	assert.GreaterOrEqual(t, txn.ID(), TransactionIDStart)
}
