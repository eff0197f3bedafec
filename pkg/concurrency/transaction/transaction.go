package transaction

import (
	"fmt"

	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
)

// Undoable is the slice of table behavior the transaction needs to roll
// back its own writes. The heap table implements it.
type Undoable interface {
	UndoInsert(rid *tuple.RecordID) error
	UndoDelete(rid *tuple.RecordID, before *tuple.Tuple) error
	UndoUpdate(rid *tuple.RecordID, before *tuple.Tuple) error
}

type undoKind int

const (
	undoInsert undoKind = iota
	undoDelete
	undoUpdate
)

type undoRecord struct {
	kind   undoKind
	target Undoable
	rid    *tuple.RecordID
	before *tuple.Tuple
}

// State tracks the lifecycle of a transaction.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateAborted
)

// TransactionContext carries a transaction's identity, its undo log,
// and its rollback-only marker through query execution. All mutating
// operators write through it.
type TransactionContext struct {
	ID           primitives.TransactionID
	locks        *LockManager
	undoLog      []undoRecord
	state        State
	rollbackOnly bool
}

// AcquireLock takes a record lock through the shared lock manager.
// Locks are held until commit or rollback.
func (tx *TransactionContext) AcquireLock(table string, rid tuple.RecordID, mode LockMode) error {
	if tx.state != StateActive {
		return fmt.Errorf("transaction %s is not active", tx.ID)
	}
	return tx.locks.Acquire(tx.ID, table, rid, mode)
}

// LogInsert records an insert for undo.
func (tx *TransactionContext) LogInsert(target Undoable, rid *tuple.RecordID) {
	tx.undoLog = append(tx.undoLog, undoRecord{kind: undoInsert, target: target, rid: rid})
}

// LogDelete records a delete with the removed row for undo.
func (tx *TransactionContext) LogDelete(target Undoable, rid *tuple.RecordID, before *tuple.Tuple) {
	tx.undoLog = append(tx.undoLog, undoRecord{kind: undoDelete, target: target, rid: rid, before: before})
}

// LogUpdate records an update with the pre-image for undo.
func (tx *TransactionContext) LogUpdate(target Undoable, rid *tuple.RecordID, before *tuple.Tuple) {
	tx.undoLog = append(tx.undoLog, undoRecord{kind: undoUpdate, target: target, rid: rid, before: before})
}

// MarkRollbackOnly flags the transaction after a write-side failure;
// commit is refused afterwards.
func (tx *TransactionContext) MarkRollbackOnly() {
	tx.rollbackOnly = true
}

// IsRollbackOnly reports whether a write failure poisoned the transaction.
func (tx *TransactionContext) IsRollbackOnly() bool {
	return tx.rollbackOnly
}

// State returns the transaction lifecycle state.
func (tx *TransactionContext) State() State {
	return tx.state
}

func (tx *TransactionContext) commit() error {
	if tx.state != StateActive {
		return fmt.Errorf("transaction %s is not active", tx.ID)
	}
	if tx.rollbackOnly {
		return fmt.Errorf("transaction %s is marked rollback-only", tx.ID)
	}
	tx.undoLog = nil
	tx.state = StateCommitted
	tx.locks.ReleaseAll(tx.ID)
	return nil
}

func (tx *TransactionContext) rollback() error {
	if tx.state != StateActive {
		return fmt.Errorf("transaction %s is not active", tx.ID)
	}

	// Undo in reverse order so later writes unwind first.
	for i := len(tx.undoLog) - 1; i >= 0; i-- {
		rec := tx.undoLog[i]
		var err error
		switch rec.kind {
		case undoInsert:
			err = rec.target.UndoInsert(rec.rid)
		case undoDelete:
			err = rec.target.UndoDelete(rec.rid, rec.before)
		case undoUpdate:
			err = rec.target.UndoUpdate(rec.rid, rec.before)
		}
		if err != nil {
			return fmt.Errorf("undo failed for record %s: %w", rec.rid, err)
		}
	}

	tx.undoLog = nil
	tx.state = StateAborted
	tx.locks.ReleaseAll(tx.ID)
	return nil
}
