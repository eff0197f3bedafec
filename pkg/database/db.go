package database

import (
	"fmt"
	"sync"
	"time"

	"minidb/pkg/binder"
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/parser"
	"minidb/pkg/planner"
	"minidb/pkg/registry"
)

// Database is the session-facing facade: it owns the shared context
// and drives parse → bind → plan → execute for each statement. One
// Database value serves one session; sessions share a context.
type Database struct {
	name    string
	ctx     *registry.DatabaseContext
	planner *planner.Planner

	// currentTx is the session's explicit transaction between BEGIN
	// and COMMIT/ROLLBACK; nil means autocommit.
	currentTx *transaction.TransactionContext

	statsMu       sync.Mutex
	queryCount    int64
	errorCount    int64
	totalDuration time.Duration
	lastQueryTime time.Time
}

// NewDatabase creates a database with a fresh shared context.
func NewDatabase(name string) *Database {
	ctx := registry.NewDatabaseContext()
	return &Database{
		name:    name,
		ctx:     ctx,
		planner: planner.NewPlanner(ctx.Catalog()),
	}
}

// NewSession creates another session over the same catalog and
// transaction registry.
func (db *Database) NewSession() *Database {
	return &Database{
		name:    db.name,
		ctx:     db.ctx,
		planner: db.planner,
	}
}

// Context exposes the shared database context.
func (db *Database) Context() *registry.DatabaseContext {
	return db.ctx
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.name
}

// ExecuteQuery runs one SQL statement and returns its formatted
// result. The session stays usable after an error.
func (db *Database) ExecuteQuery(query string) (QueryResult, error) {
	start := time.Now()
	result, err := db.execute(query)
	duration := time.Since(start)

	db.recordQuery(duration, err)
	result.Duration = duration
	if err != nil {
		return QueryResult{Success: false, Message: err.Error(), Duration: duration}, err
	}
	return result, nil
}

func (db *Database) execute(query string) (QueryResult, error) {
	node, err := parser.Parse(query)
	if err != nil {
		return QueryResult{}, fmt.Errorf("parse error: %w", err)
	}

	stmt, err := binder.NewBinder(db.ctx.Catalog()).Bind(node)
	if err != nil {
		return QueryResult{}, err
	}

	switch stmt.StmtType() {
	case binder.TrxBegin, binder.TrxCommit, binder.TrxRollback:
		return db.executeTrx(stmt.StmtType())
	}

	tx, autoCommit, err := db.transactionFor()
	if err != nil {
		return QueryResult{}, err
	}

	plan, err := db.planner.MakePlan(stmt, tx)
	if err != nil {
		db.cleanupTransaction(tx, autoCommit, err)
		return QueryResult{}, err
	}

	raw, err := plan.Execute()
	if err = db.cleanupTransaction(tx, autoCommit, err); err != nil {
		return QueryResult{}, err
	}

	return NewResultFormatter().Format(raw, stmt)
}

// transactionFor returns the statement's transaction: the session's
// explicit one when open, otherwise a fresh autocommit transaction.
func (db *Database) transactionFor() (*transaction.TransactionContext, bool, error) {
	if db.currentTx != nil {
		if db.currentTx.State() != transaction.StateActive {
			db.currentTx = nil
		} else {
			return db.currentTx, false, nil
		}
	}
	return db.ctx.TxRegistry().Begin(), true, nil
}

// cleanupTransaction settles an autocommit transaction and propagates
// the statement error. An error inside an explicit transaction leaves
// it open; write operators that fail have already marked it
// rollback-only.
func (db *Database) cleanupTransaction(tx *transaction.TransactionContext, autoCommit bool, execErr error) error {
	if !autoCommit {
		return execErr
	}

	if execErr != nil {
		if rbErr := db.ctx.TxRegistry().Rollback(tx); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", execErr, rbErr)
		}
		return execErr
	}
	return db.ctx.TxRegistry().Commit(tx)
}

func (db *Database) executeTrx(kind binder.StmtType) (QueryResult, error) {
	switch kind {
	case binder.TrxBegin:
		if db.currentTx != nil && db.currentTx.State() == transaction.StateActive {
			return QueryResult{}, fmt.Errorf("a transaction is already in progress")
		}
		db.currentTx = db.ctx.TxRegistry().Begin()
		return QueryResult{Success: true, Message: "transaction started"}, nil

	case binder.TrxCommit:
		if db.currentTx == nil {
			return QueryResult{}, fmt.Errorf("no transaction in progress")
		}
		tx := db.currentTx
		db.currentTx = nil
		if err := db.ctx.TxRegistry().Commit(tx); err != nil {
			// A rollback-only transaction cannot commit; settle it so
			// its locks release.
			_ = db.ctx.TxRegistry().Rollback(tx)
			return QueryResult{}, err
		}
		return QueryResult{Success: true, Message: "transaction committed"}, nil

	case binder.TrxRollback:
		if db.currentTx == nil {
			return QueryResult{}, fmt.Errorf("no transaction in progress")
		}
		err := db.ctx.TxRegistry().Rollback(db.currentTx)
		db.currentTx = nil
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Success: true, Message: "transaction rolled back"}, nil
	}
	return QueryResult{}, fmt.Errorf("unknown transaction statement")
}

// GetTables returns the catalog's table names.
func (db *Database) GetTables() []string {
	return db.ctx.Catalog().TableNames()
}

func (db *Database) recordQuery(duration time.Duration, err error) {
	db.statsMu.Lock()
	defer db.statsMu.Unlock()

	db.queryCount++
	db.totalDuration += duration
	db.lastQueryTime = time.Now()
	if err != nil {
		db.errorCount++
	}
}

// DatabaseInfo is a snapshot of the session's query statistics.
type DatabaseInfo struct {
	Name          string
	TableCount    int
	QueryCount    int64
	ErrorCount    int64
	AvgDuration   time.Duration
	LastQueryTime time.Time
	ActiveTx      int
}

// GetStatistics returns a statistics snapshot.
func (db *Database) GetStatistics() DatabaseInfo {
	db.statsMu.Lock()
	defer db.statsMu.Unlock()

	info := DatabaseInfo{
		Name:          db.name,
		TableCount:    len(db.ctx.Catalog().TableNames()),
		QueryCount:    db.queryCount,
		ErrorCount:    db.errorCount,
		LastQueryTime: db.lastQueryTime,
		ActiveTx:      db.ctx.TxRegistry().ActiveCount(),
	}
	if db.queryCount > 0 {
		info.AvgDuration = db.totalDuration / time.Duration(db.queryCount)
	}
	return info
}
