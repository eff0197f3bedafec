package planner

import (
	"minidb/pkg/binder"
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/errs"
	"minidb/pkg/expression"
)

// MakePlan builds the executable plan for a bound statement running
// under the given transaction. Transaction-control statements never
// reach the planner; the database facade handles them.
func (p *Planner) MakePlan(stmt binder.Statement, tx *transaction.TransactionContext) (Plan, error) {
	ctx := &expression.EvalContext{Tx: tx}

	switch s := stmt.(type) {
	case *binder.SelectStatement:
		return &SelectPlan{planner: p, ctx: ctx, stmt: s}, nil
	case *binder.InsertStatement:
		return &InsertPlan{ctx: ctx, stmt: s}, nil
	case *binder.UpdateStatement:
		return &UpdatePlan{planner: p, ctx: ctx, stmt: s}, nil
	case *binder.DeleteStatement:
		return &DeletePlan{planner: p, ctx: ctx, stmt: s}, nil
	case *binder.CreateTableStatement:
		return &CreateTablePlan{cat: p.cat, stmt: s}, nil
	case *binder.DropTableStatement:
		return &DropTablePlan{cat: p.cat, stmt: s}, nil
	case *binder.CreateIndexStatement:
		return &CreateIndexPlan{cat: p.cat, stmt: s}, nil
	case *binder.DropIndexStatement:
		return &DropIndexPlan{cat: p.cat, stmt: s}, nil
	case *binder.ExplainStatement:
		return &ExplainPlan{planner: p, ctx: ctx, stmt: s}, nil
	case *binder.CalcStatement:
		return &CalcPlan{ctx: ctx, stmt: s}, nil
	case *binder.ShowTablesStatement:
		return &ShowTablesPlan{cat: p.cat}, nil
	case *binder.DescTableStatement:
		return &DescTablePlan{stmt: s}, nil
	default:
		return nil, errs.New(errs.CategorySystem, errs.CodeUnimplemented,
			"no plan for statement type %T", stmt)
	}
}
