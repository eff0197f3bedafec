package planner

import (
	"fmt"
	"strings"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
)

// subqueryPlan adapts a bound subselect to the expression layer's
// SubQueryPlan contract. The operator tree is rebuilt on every Open so
// a correlated subquery sees the caller's current outer row through
// the evaluation context.
type subqueryPlan struct {
	planner *Planner
	stmt    *binder.SelectStatement
}

func (sp *subqueryPlan) Open(ctx *expression.EvalContext) (iterator.DbIterator, error) {
	tree, err := sp.planner.BuildSelectTree(ctx, sp.stmt)
	if err != nil {
		return nil, err
	}
	if err := tree.Open(); err != nil {
		return nil, err
	}
	return tree, nil
}

func (sp *subqueryPlan) ColumnCount() int {
	return len(sp.stmt.Projections)
}

func (sp *subqueryPlan) Correlated() bool {
	return sp.stmt.Correlated
}

func (sp *subqueryPlan) String() string {
	names := make([]string, len(sp.stmt.Projections))
	for i, proj := range sp.stmt.Projections {
		names[i] = proj.Name
	}
	tables := make([]string, len(sp.stmt.Tables))
	for i, tb := range sp.stmt.Tables {
		tables[i] = tb.Alias
	}
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(names, ", "), strings.Join(tables, ", "))
}

// attachSubqueries walks a compiled filter and gives every subquery
// operand its executable plan. Attaching is idempotent.
func (p *Planner) attachSubqueries(filter *binder.FilterStmt) {
	if filter == nil {
		return
	}
	for _, unit := range filter.Units {
		p.attachOperand(unit.Left)
		p.attachOperand(unit.Right)
	}
}

func (p *Planner) attachOperand(obj *binder.FilterObj) {
	if obj == nil || obj.Kind != binder.ObjSubQuery || obj.SubQuery != nil {
		return
	}
	obj.SubQuery = expression.NewSubQueryExpr(&subqueryPlan{planner: p, stmt: obj.SubStmt})
}
