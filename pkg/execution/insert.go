package execution

import (
	"fmt"

	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func dmlResultDesc() *tuple.TupleDescription {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"rows"}, nil)
	return td
}

func dmlResultTuple(count int) *tuple.Tuple {
	t := tuple.NewTuple(dmlResultDesc())
	_ = t.SetField(0, types.NewIntField(int32(count)))
	return t
}

// InsertOperator writes pre-validated rows into a table. The first
// failing row stops the statement; rows already written are undone by
// the transaction's rollback.
type InsertOperator struct {
	base  *iterator.BaseIterator
	table *heap.Table
	rows  []*tuple.Tuple
	ctx   *expression.EvalContext
	done  bool
}

func NewInsert(ctx *expression.EvalContext, table *heap.Table, rows []*tuple.Tuple) (*InsertOperator, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert requires at least one row")
	}

	op := &InsertOperator{table: table, rows: rows, ctx: ctx}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *InsertOperator) readNext() (*tuple.Tuple, error) {
	if op.done {
		return nil, nil
	}
	op.done = true

	inserted := 0
	for _, row := range op.rows {
		if _, err := op.table.InsertRecord(op.ctx.Tx, row); err != nil {
			op.ctx.Tx.MarkRollbackOnly()
			return nil, fmt.Errorf("insert into %s failed after %d rows: %w",
				op.table.Name(), inserted, err)
		}
		inserted++
	}
	return dmlResultTuple(inserted), nil
}

func (op *InsertOperator) Open() error {
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *InsertOperator) Rewind() error {
	return fmt.Errorf("insert operator cannot rewind")
}

func (op *InsertOperator) Close() error {
	return op.base.Close()
}

func (op *InsertOperator) HasNext() (bool, error) {
	return op.base.HasNext()
}

func (op *InsertOperator) Next() (*tuple.Tuple, error) {
	return op.base.Next()
}

func (op *InsertOperator) GetTupleDesc() *tuple.TupleDescription {
	return dmlResultDesc()
}

// TableName exposes the target table for EXPLAIN.
func (op *InsertOperator) TableName() string {
	return op.table.Name()
}

// RowCount exposes the number of rows to write for EXPLAIN.
func (op *InsertOperator) RowCount() int {
	return len(op.rows)
}
