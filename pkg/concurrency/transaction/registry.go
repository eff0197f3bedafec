package transaction

import (
	"fmt"
	"sync"
	"sync/atomic"

	"minidb/pkg/primitives"
)

// TransactionRegistry creates and tracks the live transactions of the
// process. It owns the shared lock manager.
type TransactionRegistry struct {
	mu     sync.Mutex
	nextID atomic.Uint64
	active map[primitives.TransactionID]*TransactionContext
	locks  *LockManager
}

func NewTransactionRegistry() *TransactionRegistry {
	return &TransactionRegistry{
		active: make(map[primitives.TransactionID]*TransactionContext),
		locks:  NewLockManager(),
	}
}

// Begin starts a new transaction.
func (r *TransactionRegistry) Begin() *TransactionContext {
	id := primitives.TransactionID(r.nextID.Add(1))
	tx := &TransactionContext{
		ID:    id,
		locks: r.locks,
		state: StateActive,
	}

	r.mu.Lock()
	r.active[id] = tx
	r.mu.Unlock()
	return tx
}

// Commit finishes the transaction, releasing its locks. A rollback-only
// transaction refuses to commit.
func (r *TransactionRegistry) Commit(tx *TransactionContext) error {
	if tx == nil {
		return fmt.Errorf("cannot commit nil transaction")
	}
	if err := tx.commit(); err != nil {
		return err
	}
	r.remove(tx.ID)
	return nil
}

// Rollback aborts the transaction, undoing its writes in reverse order
// and releasing its locks.
func (r *TransactionRegistry) Rollback(tx *TransactionContext) error {
	if tx == nil {
		return fmt.Errorf("cannot rollback nil transaction")
	}
	if err := tx.rollback(); err != nil {
		return err
	}
	r.remove(tx.ID)
	return nil
}

// ActiveCount returns the number of live transactions.
func (r *TransactionRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// LockManager exposes the shared lock manager.
func (r *TransactionRegistry) LockManager() *LockManager {
	return r.locks
}

func (r *TransactionRegistry) remove(id primitives.TransactionID) {
	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()
}
