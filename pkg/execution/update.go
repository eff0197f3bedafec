package execution

import (
	"fmt"

	"minidb/pkg/catalog/schema"
	"minidb/pkg/errs"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// UpdateAssignment is one planned SET clause. Either Expr or SubQuery
// is set: a subquery assignment must produce exactly one row, and an
// empty result is an error rather than a NULL.
type UpdateAssignment struct {
	ColumnIndex int
	Column      *schema.Column
	Expr        expression.Expr
	SubQuery    *expression.SubQueryExpr
}

// UpdateOperator rewrites each row its child produces. The child rows
// are materialized first so the scan never observes its own writes.
type UpdateOperator struct {
	base        *iterator.BaseIterator
	child       iterator.DbIterator
	table       *heap.Table
	assignments []UpdateAssignment
	ctx         *expression.EvalContext
	done        bool
}

func NewUpdate(ctx *expression.EvalContext, table *heap.Table, assignments []UpdateAssignment, child iterator.DbIterator) (*UpdateOperator, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("update requires at least one assignment")
	}

	op := &UpdateOperator{table: table, assignments: assignments, child: child, ctx: ctx}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *UpdateOperator) readNext() (*tuple.Tuple, error) {
	if op.done {
		return nil, nil
	}
	op.done = true

	rows, err := iterator.Collect(op.child)
	if err != nil {
		return nil, err
	}

	updated := 0
	for _, row := range rows {
		if row.RecordID == nil {
			return nil, fmt.Errorf("update target row carries no record id")
		}

		replacement := row.Clone()
		replacement.TupleDesc = op.table.TupleDesc()
		for _, assign := range op.assignments {
			value, err := op.assignValue(assign, row)
			if err != nil {
				op.ctx.Tx.MarkRollbackOnly()
				return nil, err
			}
			if err := replacement.SetField(assign.ColumnIndex, value); err != nil {
				return nil, err
			}
		}

		if err := op.table.UpdateRecord(op.ctx.Tx, row.RecordID, replacement); err != nil {
			op.ctx.Tx.MarkRollbackOnly()
			return nil, fmt.Errorf("update on %s failed after %d rows: %w",
				op.table.Name(), updated, err)
		}
		updated++
	}
	return dmlResultTuple(updated), nil
}

// assignValue computes one new column value for one row.
func (op *UpdateOperator) assignValue(assign UpdateAssignment, row *tuple.Tuple) (types.Field, error) {
	var raw types.Field
	var err error

	if assign.SubQuery != nil {
		rows, rowsErr := assign.SubQuery.Rows(op.ctx.PushOuter(row))
		if rowsErr != nil {
			return nil, rowsErr
		}
		switch len(rows) {
		case 1:
			raw = rows[0]
		case 0:
			return nil, errs.New(errs.CategoryUser, errs.CodeSubqueryMultiRow,
				"assignment subquery for column %s returned no rows", assign.Column.Name)
		default:
			return nil, errs.New(errs.CategoryUser, errs.CodeSubqueryMultiRow,
				"assignment subquery for column %s returned %d rows", assign.Column.Name, len(rows))
		}
	} else {
		raw, err = assign.Expr.Evaluate(op.ctx, row)
		if err != nil {
			return nil, err
		}
	}

	coerced, err := types.Coerce(raw, assign.Column.Type, assign.Column.Length)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryUser, errs.CodeTypeMismatch,
			"value for column %s", assign.Column.Name)
	}
	return coerced, nil
}

func (op *UpdateOperator) Open() error {
	if err := op.child.Open(); err != nil {
		return err
	}
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *UpdateOperator) Rewind() error {
	return fmt.Errorf("update operator cannot rewind")
}

func (op *UpdateOperator) Close() error {
	if err := op.child.Close(); err != nil {
		return err
	}
	return op.base.Close()
}

func (op *UpdateOperator) HasNext() (bool, error) {
	return op.base.HasNext()
}

func (op *UpdateOperator) Next() (*tuple.Tuple, error) {
	return op.base.Next()
}

func (op *UpdateOperator) GetTupleDesc() *tuple.TupleDescription {
	return dmlResultDesc()
}

// TableName exposes the target table for EXPLAIN.
func (op *UpdateOperator) TableName() string {
	return op.table.Name()
}

// Child exposes the source operator for EXPLAIN.
func (op *UpdateOperator) Child() iterator.DbIterator {
	return op.child
}
