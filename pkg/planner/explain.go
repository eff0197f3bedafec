package planner

import (
	"minidb/pkg/binder"
	"minidb/pkg/errs"
	"minidb/pkg/execution"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
)

// ExplainPlan renders the inner statement's operator tree without
// executing it.
type ExplainPlan struct {
	planner *Planner
	ctx     *expression.EvalContext
	stmt    *binder.ExplainStatement
}

func (ep *ExplainPlan) Execute() (any, error) {
	tree, err := ep.buildInnerTree()
	if err != nil {
		return nil, err
	}

	explain, err := execution.NewExplain(tree)
	if err != nil {
		return nil, err
	}
	if err := explain.Open(); err != nil {
		return nil, err
	}
	defer explain.Close()

	tuples, err := iterator.Collect(explain)
	if err != nil {
		return nil, err
	}
	return &QueryResult{TupleDesc: explain.GetTupleDesc(), Tuples: tuples}, nil
}

func (ep *ExplainPlan) buildInnerTree() (iterator.DbIterator, error) {
	switch inner := ep.stmt.Inner.(type) {
	case *binder.SelectStatement:
		return ep.planner.BuildSelectTree(ep.ctx, inner)
	case *binder.UpdateStatement:
		return ep.planner.BuildUpdateTree(ep.ctx, inner)
	case *binder.DeleteStatement:
		return ep.planner.BuildDeleteTree(ep.ctx, inner)
	case *binder.InsertStatement:
		return execution.NewInsert(ep.ctx, inner.Table, inner.Rows)
	case *binder.CalcStatement:
		return execution.NewCalc(ep.ctx, inner.Exprs)
	default:
		return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"EXPLAIN supports SELECT, INSERT, UPDATE, DELETE, and CALC")
	}
}

// CalcPlan evaluates input-free expressions.
type CalcPlan struct {
	ctx  *expression.EvalContext
	stmt *binder.CalcStatement
}

func (cp *CalcPlan) Execute() (any, error) {
	op, err := execution.NewCalc(cp.ctx, cp.stmt.Exprs)
	if err != nil {
		return nil, err
	}
	if err := op.Open(); err != nil {
		return nil, err
	}
	defer op.Close()

	tuples, err := iterator.Collect(op)
	if err != nil {
		return nil, err
	}
	return &QueryResult{TupleDesc: op.GetTupleDesc(), Tuples: tuples}, nil
}
