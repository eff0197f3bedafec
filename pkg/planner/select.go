package planner

import (
	"minidb/pkg/binder"
	"minidb/pkg/execution"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/index"
	"minidb/pkg/types"
)

// SelectPlan executes a bound SELECT by building and draining its
// operator tree.
type SelectPlan struct {
	planner *Planner
	ctx     *expression.EvalContext
	stmt    *binder.SelectStatement
}

func (sp *SelectPlan) Execute() (any, error) {
	tree, err := sp.planner.BuildSelectTree(sp.ctx, sp.stmt)
	if err != nil {
		return nil, err
	}

	if err := tree.Open(); err != nil {
		return nil, err
	}
	defer tree.Close()

	tuples, err := iterator.Collect(tree)
	if err != nil {
		return nil, err
	}
	return &QueryResult{TupleDesc: tree.GetTupleDesc(), Tuples: tuples}, nil
}

// BuildSelectTree translates a bound SELECT into its operator tree:
// scans (with pushdown and index choice), left-deep nested-loop joins,
// filter, group aggregation with HAVING, order by, and projection.
func (p *Planner) BuildSelectTree(ctx *expression.EvalContext, stmt *binder.SelectStatement) (iterator.DbIterator, error) {
	// SELECT without FROM evaluates like CALC.
	if len(stmt.Tables) == 0 {
		exprs := make([]expression.Expr, len(stmt.Projections))
		for i, proj := range stmt.Projections {
			exprs[i] = proj.Expr
		}
		return execution.NewCalc(ctx, exprs)
	}

	p.attachSubqueries(stmt.Filter)
	p.attachSubqueries(stmt.Having)
	for _, join := range stmt.Joins {
		p.attachSubqueries(join.On)
	}

	onFilters := make(map[*binder.TableBinding]*binder.FilterStmt, len(stmt.Joins))
	for _, join := range stmt.Joins {
		onFilters[join.Binding] = join.On
	}

	pushed := p.canPushDown(stmt)
	var tree iterator.DbIterator
	for i, tb := range stmt.Tables {
		var scanFilter *binder.FilterStmt
		if pushed && i == 0 {
			scanFilter = stmt.Filter
		}

		scan, err := p.buildScan(ctx, stmt, tb, scanFilter)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			tree = scan
			continue
		}
		join, err := execution.NewNestedLoopJoin(ctx, tree, scan, onFilters[tb])
		if err != nil {
			return nil, err
		}
		tree = join
	}

	if stmt.Filter != nil && !pushed {
		filter, err := execution.NewFilter(ctx, stmt.Filter, tree)
		if err != nil {
			return nil, err
		}
		tree = filter
	}

	if stmt.HasAggregates() {
		agg, err := execution.NewGroupAggregate(ctx, tree, stmt.GroupBy, stmt.Aggregates, stmt.Having)
		if err != nil {
			return nil, err
		}
		tree = agg
	}

	if len(stmt.OrderBy) > 0 {
		sorter, err := execution.NewOrderBy(ctx, stmt.OrderBy, tree)
		if err != nil {
			return nil, err
		}
		tree = sorter
	}

	return execution.NewProject(ctx, stmt.Projections, tree)
}

// buildScan picks the access path for one table: an index scan when
// the whole filter is one AND chain containing column = constant on an
// indexed column, a sequential scan otherwise.
func (p *Planner) buildScan(ctx *expression.EvalContext, stmt *binder.SelectStatement,
	tb *binder.TableBinding, pushedFilter *binder.FilterStmt) (iterator.DbIterator, error) {

	if key, idx := p.indexFor(stmt, tb); idx != nil {
		scan, err := execution.NewIndexScan(ctx, tb.Table, idx, key, tb.Alias)
		if err != nil {
			return nil, err
		}
		if pushedFilter != nil {
			// The index covers one equality; the rest of the filter
			// still applies on top.
			return execution.NewFilter(ctx, pushedFilter, scan)
		}
		return scan, nil
	}

	return execution.NewSeqScan(ctx, tb.Table, tb.Alias, pushedFilter)
}

// indexFor looks for `column = constant` on an indexed column of tb in
// an all-AND filter.
func (p *Planner) indexFor(stmt *binder.SelectStatement, tb *binder.TableBinding) (types.Field, *index.Index) {
	if stmt.Filter == nil {
		return nil, nil
	}
	for _, unit := range stmt.Filter.Units {
		if unit.Or {
			return nil, nil
		}
	}

	for _, unit := range stmt.Filter.Units {
		if unit.Op != primitives.Equals {
			continue
		}

		fe, value := equalityOperands(unit)
		if fe == nil || value == nil {
			continue
		}
		if fe.OuterLevel != 0 || fe.TableName != tb.Alias {
			continue
		}

		colIdx, _, err := tb.Table.Schema().FindColumn(fe.FieldName)
		if err != nil {
			continue
		}
		if idx := tb.Table.IndexOnColumn(colIdx); idx != nil {
			return value, idx
		}
	}
	return nil, nil
}

// equalityOperands extracts (column, constant) from a unit in either
// orientation.
func equalityOperands(unit *binder.FilterUnit) (*expression.FieldExpr, types.Field) {
	if fe, ok := fieldOf(unit.Left); ok {
		if v, ok := valueOf(unit.Right); ok {
			return fe, v
		}
	}
	if fe, ok := fieldOf(unit.Right); ok {
		if v, ok := valueOf(unit.Left); ok {
			return fe, v
		}
	}
	return nil, nil
}

func fieldOf(obj *binder.FilterObj) (*expression.FieldExpr, bool) {
	if obj.Kind != binder.ObjAttr {
		return nil, false
	}
	fe, ok := obj.Expr.(*expression.FieldExpr)
	return fe, ok
}

func valueOf(obj *binder.FilterObj) (types.Field, bool) {
	if obj.Kind != binder.ObjValue {
		return nil, false
	}
	ve, ok := obj.Expr.(*expression.ValueExpr)
	if !ok {
		return nil, false
	}
	return ve.Value, true
}

// canPushDown reports whether the WHERE filter may evaluate inside the
// single table scan: one table, and every operand a plain local column
// or constant.
func (p *Planner) canPushDown(stmt *binder.SelectStatement) bool {
	if len(stmt.Tables) != 1 || stmt.Filter == nil {
		return false
	}

	for _, unit := range stmt.Filter.Units {
		for _, obj := range []*binder.FilterObj{unit.Left, unit.Right} {
			switch obj.Kind {
			case binder.ObjValue, binder.ObjValueList:
			case binder.ObjAttr:
				if fe, ok := obj.Expr.(*expression.FieldExpr); ok && fe.OuterLevel != 0 {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}
