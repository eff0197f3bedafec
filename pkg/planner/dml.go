package planner

import (
	"minidb/pkg/binder"
	"minidb/pkg/execution"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/types"
)

// InsertPlan writes pre-bound rows through the insert operator.
type InsertPlan struct {
	ctx  *expression.EvalContext
	stmt *binder.InsertStatement
}

func (ip *InsertPlan) Execute() (any, error) {
	op, err := execution.NewInsert(ip.ctx, ip.stmt.Table, ip.stmt.Rows)
	if err != nil {
		return nil, err
	}
	return runDML(op)
}

// UpdatePlan builds scan → filter → update.
type UpdatePlan struct {
	planner *Planner
	ctx     *expression.EvalContext
	stmt    *binder.UpdateStatement
}

func (up *UpdatePlan) Execute() (any, error) {
	op, err := up.planner.BuildUpdateTree(up.ctx, up.stmt)
	if err != nil {
		return nil, err
	}
	return runDML(op)
}

// BuildUpdateTree assembles the update operator with its source scan.
func (p *Planner) BuildUpdateTree(ctx *expression.EvalContext, stmt *binder.UpdateStatement) (iterator.DbIterator, error) {
	child, err := p.buildTargetScan(ctx, stmt.Binding, stmt.Filter)
	if err != nil {
		return nil, err
	}

	assignments := make([]execution.UpdateAssignment, len(stmt.Assignments))
	for i, assign := range stmt.Assignments {
		planned := execution.UpdateAssignment{
			ColumnIndex: assign.ColumnIndex,
			Column:      assign.Column,
			Expr:        assign.Expr,
		}
		if assign.SubStmt != nil {
			planned.SubQuery = expression.NewSubQueryExpr(&subqueryPlan{planner: p, stmt: assign.SubStmt})
		}
		assignments[i] = planned
	}

	return execution.NewUpdate(ctx, stmt.Binding.Table, assignments, child)
}

// DeletePlan builds scan → filter → delete.
type DeletePlan struct {
	planner *Planner
	ctx     *expression.EvalContext
	stmt    *binder.DeleteStatement
}

func (dp *DeletePlan) Execute() (any, error) {
	op, err := dp.planner.BuildDeleteTree(dp.ctx, dp.stmt)
	if err != nil {
		return nil, err
	}
	return runDML(op)
}

// BuildDeleteTree assembles the delete operator with its source scan.
func (p *Planner) BuildDeleteTree(ctx *expression.EvalContext, stmt *binder.DeleteStatement) (iterator.DbIterator, error) {
	child, err := p.buildTargetScan(ctx, stmt.Binding, stmt.Filter)
	if err != nil {
		return nil, err
	}
	return execution.NewDelete(ctx, stmt.Binding.Table, child)
}

// buildTargetScan builds the row source for UPDATE/DELETE: a table
// scan with the WHERE filter on top.
func (p *Planner) buildTargetScan(ctx *expression.EvalContext, tb *binder.TableBinding, filter *binder.FilterStmt) (iterator.DbIterator, error) {
	p.attachSubqueries(filter)

	scan, err := execution.NewSeqScan(ctx, tb.Table, tb.Alias, nil)
	if err != nil {
		return nil, err
	}
	if filter == nil || filter.Empty() {
		return scan, nil
	}
	return execution.NewFilter(ctx, filter, scan)
}

// runDML opens a side-effect operator, pulls its single result row,
// and reports the affected count.
func runDML(op iterator.DbIterator) (any, error) {
	if err := op.Open(); err != nil {
		return nil, err
	}
	defer op.Close()

	rows, err := iterator.Collect(op)
	if err != nil {
		return nil, err
	}

	affected := 0
	if len(rows) > 0 {
		if f, err := rows[0].GetField(0); err == nil {
			if n, ok := f.(*types.IntField); ok {
				affected = int(n.Value)
			}
		}
	}
	return &DMLResult{RowsAffected: affected}, nil
}
