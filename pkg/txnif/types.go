// Package txnif declares the transaction/undo-buffer contracts the core
// consumes, grounded on tae/pkg/iface/txnif's TxnReader/TxnChanger split
// but narrowed to exactly the operations spec.md §6 names: a transaction
// carries {transaction_id, start_time, undo_buffer} and the manager
// rewrites or unlinks version-chain heads on commit/rollback.
package txnif

// TxnState mirrors the lifecycle spec.md §4.9 assigns to a transaction.
type TxnState int32

const (
	TxnActive TxnState = iota
	TxnCommitting
	TxnCommitted
	TxnRollingBack
	TxnRolledback
)

func (s TxnState) String() string {
	switch s {
	case TxnActive:
		return "active"
	case TxnCommitting:
		return "committing"
	case TxnCommitted:
		return "committed"
	case TxnRollingBack:
		return "rolling-back"
	case TxnRolledback:
		return "rolledback"
	default:
		return "unknown"
	}
}

// UndoEntry is one version-chain patch a transaction must apply on
// commit (rewrite the head's version number to the commit timestamp) or
// rollback (unlink the head), per spec.md §4.9. Commit/Rollback are
// supplied by the storage layer as closures over the chunk slot they
// patch, keeping this package free of any storage dependency.
type UndoEntry struct {
	Commit   func(commitTS uint64)
	Rollback func()
}

// UndoBuffer accumulates UndoEntry values for one transaction's
// lifetime; spec.md §3 "Undo buffers own the tuple pre-images; the
// chunk's version-info slot is a non-owning reference into that undo
// buffer."
type UndoBuffer interface {
	Push(entry UndoEntry)
}

// Txn is the transaction handle the table and chunk code is given
// explicitly at every entry point (spec.md §9's redesign note: "pass the
// transaction and undo buffer explicitly... the client context is only a
// carrier").
type Txn interface {
	ID() uint64
	StartTS() uint64
	CommitTS() uint64
	State() TxnState
	Undo() UndoBuffer
}
