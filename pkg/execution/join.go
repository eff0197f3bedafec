package execution

import (
	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
)

// NestedLoopJoin emits the concatenation of every left/right tuple
// pair that passes the ON filter; with no filter it is the cartesian
// product. The right side rewinds once per left row.
type NestedLoopJoin struct {
	*iterator.BinaryOperator
	on        *binder.FilterStmt // nil for cross join
	ctx       *expression.EvalContext
	current   *tuple.Tuple // current left row
	tupleDesc *tuple.TupleDescription
}

func NewNestedLoopJoin(ctx *expression.EvalContext, left, right iterator.DbIterator, on *binder.FilterStmt) (*NestedLoopJoin, error) {
	td, err := tuple.Combine(left.GetTupleDesc(), right.GetTupleDesc())
	if err != nil {
		return nil, err
	}

	j := &NestedLoopJoin{on: on, ctx: ctx, tupleDesc: td}
	binaryOp, err := iterator.NewBinaryOperator(left, right, j.readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = binaryOp
	return j, nil
}

func (j *NestedLoopJoin) readNext() (*tuple.Tuple, error) {
	for {
		if j.current == nil {
			left, err := j.FetchLeft()
			if err != nil {
				return nil, err
			}
			if left == nil {
				return nil, nil
			}
			j.current = left
			if err := j.RewindRight(); err != nil {
				return nil, err
			}
		}

		right, err := j.FetchRight()
		if err != nil {
			return nil, err
		}
		if right == nil {
			j.current = nil
			continue
		}

		joined, err := tuple.CombineTuples(j.current, right)
		if err != nil {
			return nil, err
		}

		if j.on != nil {
			passes, err := EvaluateFilter(j.ctx, j.on, joined)
			if err != nil {
				return nil, err
			}
			if !passes {
				continue
			}
		}
		return joined, nil
	}
}

func (j *NestedLoopJoin) Rewind() error {
	j.current = nil
	return j.BinaryOperator.Rewind()
}

func (j *NestedLoopJoin) Close() error {
	j.current = nil
	return j.BinaryOperator.Close()
}

func (j *NestedLoopJoin) GetTupleDesc() *tuple.TupleDescription {
	return j.tupleDesc
}

// HasOnFilter reports whether the join carries an ON predicate.
func (j *NestedLoopJoin) HasOnFilter() bool {
	return j.on != nil && !j.on.Empty()
}
