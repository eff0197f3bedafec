package execution

import (
	"fmt"

	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
)

// DeleteOperator removes each row its child produces. Child rows are
// materialized before any delete so the scan never chases its own
// mutations.
type DeleteOperator struct {
	base  *iterator.BaseIterator
	child iterator.DbIterator
	table *heap.Table
	ctx   *expression.EvalContext
	done  bool
}

func NewDelete(ctx *expression.EvalContext, table *heap.Table, child iterator.DbIterator) (*DeleteOperator, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	op := &DeleteOperator{table: table, child: child, ctx: ctx}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *DeleteOperator) readNext() (*tuple.Tuple, error) {
	if op.done {
		return nil, nil
	}
	op.done = true

	rows, err := iterator.Collect(op.child)
	if err != nil {
		return nil, err
	}

	deleted := 0
	for _, row := range rows {
		if row.RecordID == nil {
			return nil, fmt.Errorf("delete target row carries no record id")
		}
		if err := op.table.DeleteRecord(op.ctx.Tx, row.RecordID); err != nil {
			op.ctx.Tx.MarkRollbackOnly()
			return nil, fmt.Errorf("delete from %s failed after %d rows: %w",
				op.table.Name(), deleted, err)
		}
		deleted++
	}
	return dmlResultTuple(deleted), nil
}

func (op *DeleteOperator) Open() error {
	if err := op.child.Open(); err != nil {
		return err
	}
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *DeleteOperator) Rewind() error {
	return fmt.Errorf("delete operator cannot rewind")
}

func (op *DeleteOperator) Close() error {
	if err := op.child.Close(); err != nil {
		return err
	}
	return op.base.Close()
}

func (op *DeleteOperator) HasNext() (bool, error) {
	return op.base.HasNext()
}

func (op *DeleteOperator) Next() (*tuple.Tuple, error) {
	return op.base.Next()
}

func (op *DeleteOperator) GetTupleDesc() *tuple.TupleDescription {
	return dmlResultDesc()
}

// TableName exposes the target table for EXPLAIN.
func (op *DeleteOperator) TableName() string {
	return op.table.Name()
}

// Child exposes the source operator for EXPLAIN.
func (op *DeleteOperator) Child() iterator.DbIterator {
	return op.child
}
