// Package txnbase is the minimal, in-memory transaction manager and
// undo buffer spec.md §1/§9 treats as an external collaborator, grounded
// on tae/pkg/txn/txnbase/txn.go and tae/pkg/txn/txnmgr.go. There is no
// durable recovery here (spec.md's stated non-goal); everything lives in
// the process for the transaction's lifetime.
package txnbase

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/karlkukk-dev/duckdb/pkg/txnif"
)

// TransactionIDStart is spec.md's TRANSACTION_ID_START: any
// version_number at or above this value is an uncommitted transaction id
// rather than a commit timestamp. Transaction ids are allocated above it
// so the two numberings can never collide; commit timestamps are
// allocated from a separate, much smaller range starting at 1.
const TransactionIDStart = uint64(1) << 62

// Transaction implements txnif.Txn. The undo stack is popped in reverse
// on rollback (LIFO, so the most recent edit unwinds first) and walked
// forward on commit (order does not matter there: each entry only
// rewrites its own slot).
type Transaction struct {
	mu       sync.RWMutex
	id       uint64
	startTS  uint64
	commitTS uint64
	state    txnif.TxnState
	undo     []txnif.UndoEntry
}

func (txn *Transaction) ID() uint64 { return txn.id }

func (txn *Transaction) StartTS() uint64 { return txn.startTS }

func (txn *Transaction) CommitTS() uint64 {
	txn.mu.RLock()
	defer txn.mu.RUnlock()
	return txn.commitTS
}

func (txn *Transaction) State() txnif.TxnState {
	txn.mu.RLock()
	defer txn.mu.RUnlock()
	return txn.state
}

// Undo returns the transaction's undo buffer (itself — Transaction
// implements txnif.UndoBuffer directly, there is no separate object).
func (txn *Transaction) Undo() txnif.UndoBuffer { return txn }

// Push records one version-chain patch to apply on commit/rollback.
func (txn *Transaction) Push(entry txnif.UndoEntry) {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.undo = append(txn.undo, entry)
}

// Commit assigns a commit timestamp and rewrites every version-chain
// head this transaction touched from its transaction id to that
// timestamp, matching spec.md §4.9 ("on transaction commit the head's
// version_number is rewritten from the transaction id to the commit
// timestamp").
func (txn *Transaction) Commit(mgr *Manager) {
	txn.mu.Lock()
	logrus.Debugf("txn %d: preparing commit", txn.id)
	txn.state = txnif.TxnCommitting
	commitTS := mgr.nextTS()
	txn.commitTS = commitTS
	entries := txn.undo
	txn.mu.Unlock()

	for _, e := range entries {
		e.Commit(commitTS)
	}

	txn.mu.Lock()
	txn.state = txnif.TxnCommitted
	txn.mu.Unlock()
	logrus.Debugf("txn %d: committed at %d", txn.id, commitTS)
}

// Rollback unlinks every version-chain head this transaction pushed, in
// reverse order, matching spec.md §4.9 ("on rollback the head is
// unlinked").
func (txn *Transaction) Rollback() {
	txn.mu.Lock()
	logrus.Debugf("txn %d: rolling back", txn.id)
	txn.state = txnif.TxnRollingBack
	entries := txn.undo
	txn.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].Rollback()
	}

	txn.mu.Lock()
	txn.state = txnif.TxnRolledback
	txn.mu.Unlock()
	logrus.Debugf("txn %d: rolled back", txn.id)
}

// Manager hands out monotonic transaction ids (offset into the
// uncommitted id space, spec.md's TRANSACTION_ID_START) and commit
// timestamps from a single logical clock, grounded on
// tae/pkg/txn/txnmgr.go's sequence allocation.
type Manager struct {
	idSeq uint64
	tsSeq uint64
}

// NewManager returns a manager whose first allocated timestamp is 1 (0
// is reserved to mean "visible to everyone", matching commit timestamps
// always being compared with <=).
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) nextTS() uint64 {
	return atomic.AddUint64(&m.tsSeq, 1)
}

// Begin starts a new transaction with a fresh id (offset above
// TransactionIDStart, see pkg/storage/const.go) and a start timestamp
// equal to the current commit clock, so it sees every commit that
// happened strictly before it started.
func (m *Manager) Begin() *Transaction {
	id := TransactionIDStart + atomic.AddUint64(&m.idSeq, 1)
	startTS := atomic.LoadUint64(&m.tsSeq)
	txn := &Transaction{
		id:      id,
		startTS: startTS,
		state:   txnif.TxnActive,
	}
	logrus.Debugf("txn %d: begin at start_ts=%d", id, startTS)
	return txn
}
