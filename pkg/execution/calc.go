package execution

import (
	"fmt"

	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// CalcOperator evaluates a list of input-free expressions (constants
// and function calls) and emits exactly one row.
type CalcOperator struct {
	base      *iterator.BaseIterator
	exprs     []expression.Expr
	ctx       *expression.EvalContext
	tupleDesc *tuple.TupleDescription
	done      bool
}

func NewCalc(ctx *expression.EvalContext, exprs []expression.Expr) (*CalcOperator, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("calc requires at least one expression")
	}

	fieldTypes := make([]types.Type, len(exprs))
	fieldNames := make([]string, len(exprs))
	for i, e := range exprs {
		fieldTypes[i] = e.ResultType()
		fieldNames[i] = e.String()
	}
	td, err := tuple.NewTupleDesc(fieldTypes, fieldNames, nil)
	if err != nil {
		return nil, err
	}

	op := &CalcOperator{exprs: exprs, ctx: ctx, tupleDesc: td}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *CalcOperator) readNext() (*tuple.Tuple, error) {
	if op.done {
		return nil, nil
	}
	op.done = true

	out := tuple.NewTuple(op.tupleDesc)
	for i, e := range op.exprs {
		v, err := e.Evaluate(op.ctx, nil)
		if err != nil {
			return nil, err
		}
		if err := out.SetField(i, v); err != nil {
			out = retype(out, i, v)
		}
	}
	return out, nil
}

func (op *CalcOperator) Open() error {
	op.done = false
	op.base.MarkOpened()
	return nil
}

func (op *CalcOperator) Rewind() error {
	op.done = false
	op.base.Rewind()
	return nil
}

func (op *CalcOperator) Close() error {
	return op.base.Close()
}

func (op *CalcOperator) HasNext() (bool, error) {
	return op.base.HasNext()
}

func (op *CalcOperator) Next() (*tuple.Tuple, error) {
	return op.base.Next()
}

func (op *CalcOperator) GetTupleDesc() *tuple.TupleDescription {
	return op.tupleDesc
}
