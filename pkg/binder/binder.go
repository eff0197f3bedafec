package binder

import (
	"strings"

	"minidb/pkg/catalog"
	"minidb/pkg/catalog/schema"
	"minidb/pkg/errs"
	"minidb/pkg/expression"
	"minidb/pkg/parser/ast"
	"minidb/pkg/primitives"
)

// Binder resolves parse trees into bound statements: every column
// reference gains its table and type, stars expand, filters compile to
// FilterUnits, and all bind-time errors surface here, before any
// operator runs.
type Binder struct {
	cat *catalog.Catalog
	// stack tracks the SELECT statements currently being bound,
	// outermost first; correlated references mark the inner entries.
	stack []*SelectStatement
}

func NewBinder(cat *catalog.Catalog) *Binder {
	return &Binder{cat: cat}
}

// Bind resolves any parsed statement.
func (b *Binder) Bind(node ast.Statement) (Statement, error) {
	switch n := node.(type) {
	case *ast.SelectNode:
		return b.bindSelect(n, nil)
	case *ast.InsertNode:
		return b.bindInsert(n)
	case *ast.UpdateNode:
		return b.bindUpdate(n)
	case *ast.DeleteNode:
		return b.bindDelete(n)
	case *ast.CreateTableNode:
		return b.bindCreateTable(n)
	case *ast.DropTableNode:
		return &DropTableStatement{Name: n.Name}, nil
	case *ast.CreateIndexNode:
		return b.bindCreateIndex(n)
	case *ast.DropIndexNode:
		return &DropIndexStatement{Name: n.Name}, nil
	case *ast.ExplainNode:
		inner, err := b.Bind(n.Stmt)
		if err != nil {
			return nil, err
		}
		return &ExplainStatement{Inner: inner}, nil
	case *ast.CalcNode:
		return b.bindCalc(n)
	case *ast.ShowTablesNode:
		return &ShowTablesStatement{}, nil
	case *ast.DescTableNode:
		table, err := b.cat.GetTable(n.Table)
		if err != nil {
			return nil, err
		}
		return &DescTableStatement{Table: table}, nil
	case *ast.TrxBeginNode:
		return &TrxStatement{Kind: TrxBegin}, nil
	case *ast.TrxCommitNode:
		return &TrxStatement{Kind: TrxCommit}, nil
	case *ast.TrxRollbackNode:
		return &TrxStatement{Kind: TrxRollback}, nil
	default:
		return nil, errs.New(errs.CategorySystem, errs.CodeUnimplemented,
			"statement type %T is not supported", node)
	}
}

// scope is one level of name resolution: the tables visible to a
// query, linked to the enclosing query's scope.
type scope struct {
	tables []*TableBinding
	outer  *scope
}

func (s *scope) lookup(alias string) *TableBinding {
	for _, tb := range s.tables {
		if strings.EqualFold(tb.Alias, alias) {
			return tb
		}
	}
	return nil
}

// resolved is the outcome of an attribute lookup.
type resolved struct {
	binding *TableBinding
	colIdx  int
	col     *schema.Column
	level   int // 0 = local scope, 1 = nearest enclosing query
}

// resolveAttr finds the table and column an attribute reference
// denotes, walking outward through enclosing scopes. A reference that
// resolves at level > 0 makes the statements inside that level
// correlated.
func (b *Binder) resolveAttr(sc *scope, tableName, fieldName string) (*resolved, error) {
	level := 0
	for cur := sc; cur != nil; cur = cur.outer {
		r, err := resolveInScope(cur, tableName, fieldName)
		if err != nil {
			return nil, err
		}
		if r != nil {
			r.level = level
			b.markCorrelated(level)
			return r, nil
		}
		level++
	}

	if tableName != "" {
		return nil, errs.New(errs.CategoryUser, errs.CodeSchemaTableNotExist,
			"table %s does not exist in this scope", tableName)
	}
	return nil, errs.New(errs.CategoryUser, errs.CodeSchemaFieldNotExist,
		"column %s does not exist in this scope", fieldName)
}

// resolveInScope tries one scope level; a nil result means "not here,
// try the enclosing scope".
func resolveInScope(sc *scope, tableName, fieldName string) (*resolved, error) {
	if tableName != "" {
		tb := sc.lookup(tableName)
		if tb == nil {
			return nil, nil
		}
		idx, col, err := tb.Table.Schema().FindColumn(fieldName)
		if err != nil {
			return nil, errs.New(errs.CategoryUser, errs.CodeSchemaFieldNotExist,
				"column %s does not exist in table %s", fieldName, tableName)
		}
		return &resolved{binding: tb, colIdx: idx, col: col}, nil
	}

	var match *resolved
	for _, tb := range sc.tables {
		idx, col, err := tb.Table.Schema().FindColumn(fieldName)
		if err != nil {
			continue
		}
		if match != nil {
			return nil, errs.New(errs.CategoryUser, errs.CodeAmbiguousReference,
				"column %s is ambiguous", fieldName)
		}
		match = &resolved{binding: tb, colIdx: idx, col: col}
	}
	return match, nil
}

// markCorrelated flags the innermost `level` statements on the bind
// stack as correlated: each must re-execute per row of the scope the
// reference escaped to.
func (b *Binder) markCorrelated(level int) {
	for i := 0; i < level && i < len(b.stack); i++ {
		b.stack[len(b.stack)-1-i].Correlated = true
	}
}

// bindSelect resolves a SELECT against its own FROM scope with outer
// as the enclosing query's scope.
func (b *Binder) bindSelect(node *ast.SelectNode, outer *scope) (*SelectStatement, error) {
	stmt := &SelectStatement{}
	b.stack = append(b.stack, stmt)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	sc := &scope{outer: outer}
	for _, ref := range node.From {
		tb, err := b.bindTableRef(sc, ref)
		if err != nil {
			return nil, err
		}
		stmt.Tables = append(stmt.Tables, tb)
	}

	for _, join := range node.Joins {
		tb, err := b.bindTableRef(sc, join.Table)
		if err != nil {
			return nil, err
		}
		stmt.Tables = append(stmt.Tables, tb)

		on, err := b.compileFilter(sc, join.On, false)
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, &JoinBinding{Binding: tb, On: on})
	}

	if err := b.bindProjections(sc, stmt, node.Items); err != nil {
		return nil, err
	}

	if len(node.Where) > 0 {
		filter, err := b.compileFilter(sc, node.Where, false)
		if err != nil {
			return nil, err
		}
		stmt.Filter = filter
	}

	for _, g := range node.GroupBy {
		expr, err := b.bindExpr(sc, g, false, stmt)
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = append(stmt.GroupBy, expr)
	}

	if len(node.Having) > 0 {
		having, err := b.compileFilter(sc, node.Having, true)
		if err != nil {
			return nil, err
		}
		stmt.Having = having
	}

	for _, key := range node.OrderBy {
		expr, err := b.bindOrderKey(sc, stmt, key.Expr)
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = append(stmt.OrderBy, OrderKey{Expr: expr, Desc: key.Desc})
	}

	if err := checkGroupCoverage(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (b *Binder) bindTableRef(sc *scope, ref ast.TableRef) (*TableBinding, error) {
	table, err := b.cat.GetTable(ref.Name)
	if err != nil {
		return nil, err
	}

	alias := ref.DisplayName()
	if sc.lookup(alias) != nil {
		return nil, errs.New(errs.CategoryUser, errs.CodeAmbiguousReference,
			"duplicate table name or alias %s in FROM list", alias)
	}

	tb := &TableBinding{Table: table, Alias: alias}
	sc.tables = append(sc.tables, tb)
	return tb, nil
}

// bindProjections resolves the select list. Explicit expressions come
// first in the output, then star expansions, preserving source order
// within each group.
func (b *Binder) bindProjections(sc *scope, stmt *SelectStatement, items []ast.SelectItem) error {
	var starItems []ast.SelectItem
	for _, item := range items {
		if attr, ok := item.Expr.(*ast.AttrNode); ok && attr.Name == "*" {
			starItems = append(starItems, item)
			continue
		}

		expr, err := b.bindExpr(sc, item.Expr, true, stmt)
		if err != nil {
			return err
		}
		name := item.Alias
		if name == "" {
			name = expr.String()
		}
		stmt.Projections = append(stmt.Projections, &Projection{
			Expr:  expr,
			Alias: item.Alias,
			Name:  name,
		})
	}

	for _, item := range starItems {
		attr := item.Expr.(*ast.AttrNode)
		if err := b.expandStar(sc, stmt, attr.Table); err != nil {
			return err
		}
	}

	if len(stmt.Projections) == 0 {
		return errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"SELECT list cannot be empty")
	}
	return nil
}

// expandStar appends one projection per column of the named table, or
// of every in-scope table in FROM order for a bare `*`.
func (b *Binder) expandStar(sc *scope, stmt *SelectStatement, tableName string) error {
	var bindings []*TableBinding
	if tableName == "" {
		bindings = sc.tables
	} else {
		tb := sc.lookup(tableName)
		if tb == nil {
			return errs.New(errs.CategoryUser, errs.CodeSchemaTableNotExist,
				"table %s does not exist in this scope", tableName)
		}
		bindings = []*TableBinding{tb}
	}
	if len(bindings) == 0 {
		return errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"SELECT * requires a FROM clause")
	}

	for _, tb := range bindings {
		for _, col := range tb.Table.Schema().Columns {
			fe := expression.NewFieldExpr(tb.Alias, col.Name, col.Type)
			stmt.Projections = append(stmt.Projections, &Projection{
				Expr: fe,
				Name: col.Name,
			})
		}
	}
	return nil
}

// bindOrderKey binds an ORDER BY expression, falling back to select
// list aliases when the name is not a table column.
func (b *Binder) bindOrderKey(sc *scope, stmt *SelectStatement, node ast.ExprNode) (expression.Expr, error) {
	if attr, ok := node.(*ast.AttrNode); ok && attr.Table == "" {
		for _, proj := range stmt.Projections {
			if proj.Alias != "" && strings.EqualFold(proj.Alias, attr.Name) {
				return proj.Expr, nil
			}
		}
	}
	return b.bindExpr(sc, node, true, stmt)
}

// bindExpr resolves one expression. Aggregate calls are only legal
// when allowAgg is set (SELECT list, HAVING, ORDER BY).
func (b *Binder) bindExpr(sc *scope, node ast.ExprNode, allowAgg bool, stmt *SelectStatement) (expression.Expr, error) {
	switch n := node.(type) {
	case *ast.ValueNode:
		return expression.NewValueExpr(n.Value), nil

	case *ast.AttrNode:
		if n.Name == "*" {
			return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
				"* is only legal in the SELECT list or COUNT(*)")
		}
		r, err := b.resolveAttr(sc, n.Table, n.Name)
		if err != nil {
			return nil, err
		}
		fe := expression.NewFieldExpr(r.binding.Alias, r.col.Name, r.col.Type)
		fe.OuterLevel = r.level
		return fe, nil

	case *ast.ArithNode:
		left, err := b.bindExpr(sc, n.Left, allowAgg, stmt)
		if err != nil {
			return nil, err
		}
		var right expression.Expr
		if n.Right != nil {
			right, err = b.bindExpr(sc, n.Right, allowAgg, stmt)
			if err != nil {
				return nil, err
			}
		}
		return expression.NewArithmeticExpr(n.Op, left, right), nil

	case *ast.AggNode:
		if !allowAgg {
			return nil, errs.New(errs.CategoryUser, errs.CodeAggregateOutside,
				"aggregate %s is only legal in the SELECT list or HAVING", n.Op)
		}
		if stmt == nil {
			return nil, errs.New(errs.CategoryUser, errs.CodeAggregateOutside,
				"aggregate %s outside a SELECT", n.Op)
		}

		var agg *expression.AggregateExpr
		if n.Star {
			agg = expression.NewCountStarExpr()
		} else {
			arg, err := b.bindExpr(sc, n.Arg, false, stmt)
			if err != nil {
				return nil, err
			}
			agg = expression.NewAggregateExpr(n.Op, arg)
		}
		stmt.Aggregates = appendAggregate(stmt.Aggregates, agg)
		return agg, nil

	case *ast.FuncNode:
		return b.bindFunc(sc, n, allowAgg, stmt)

	case *ast.SubQueryNode:
		return nil, errs.New(errs.CategorySystem, errs.CodeUnimplemented,
			"subqueries are only supported in filters and UPDATE assignments")

	case *ast.ListNode:
		return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"value list is only legal after IN")

	default:
		return nil, errs.New(errs.CategorySystem, errs.CodeInternal,
			"unknown expression node %T", node)
	}
}

// bindFunc binds a scalar function call. A call over literals only is
// folded to its value at bind time, so filters never evaluate constant
// calls per row.
func (b *Binder) bindFunc(sc *scope, n *ast.FuncNode, allowAgg bool, stmt *SelectStatement) (expression.Expr, error) {
	fn, ok := primitives.ParseScalarFunc(n.Name)
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeUnimplemented,
			"unknown function %s", n.Name)
	}

	args := make([]expression.Expr, len(n.Args))
	constant := true
	for i, argNode := range n.Args {
		arg, err := b.bindExpr(sc, argNode, allowAgg, stmt)
		if err != nil {
			return nil, err
		}
		args[i] = arg
		if _, isValue := arg.(*expression.ValueExpr); !isValue {
			constant = false
		}
	}

	call := expression.NewFuncExpr(fn, args)
	if !constant {
		return call, nil
	}

	v, err := call.Evaluate(nil, nil)
	if err != nil {
		return nil, err
	}
	return expression.NewValueExpr(v), nil
}

// appendAggregate deduplicates aggregates by display text so COUNT(*)
// in both SELECT and HAVING computes once.
func appendAggregate(aggs []*expression.AggregateExpr, agg *expression.AggregateExpr) []*expression.AggregateExpr {
	for _, existing := range aggs {
		if existing.String() == agg.String() {
			return aggs
		}
	}
	return append(aggs, agg)
}

// checkGroupCoverage verifies that when aggregates and plain columns
// mix, every plain projection is covered by GROUP BY.
func checkGroupCoverage(stmt *SelectStatement) error {
	if len(stmt.Aggregates) == 0 && len(stmt.GroupBy) == 0 {
		return nil
	}

	grouped := make(map[string]bool, len(stmt.GroupBy))
	for _, g := range stmt.GroupBy {
		grouped[g.String()] = true
	}

	for _, proj := range stmt.Projections {
		if _, isAgg := proj.Expr.(*expression.AggregateExpr); isAgg {
			continue
		}
		if !grouped[proj.Expr.String()] {
			return errs.New(errs.CategoryUser, errs.CodeGroupByMissing,
				"column %s must appear in GROUP BY or an aggregate", proj.Expr)
		}
	}
	return nil
}

// compileFilter turns a condition list into a FilterStmt. allowAgg is
// set for HAVING, where aggregate references are legal.
func (b *Binder) compileFilter(sc *scope, conds []ast.Condition, allowAgg bool) (*FilterStmt, error) {
	stmt := currentStmt(b)
	filter := &FilterStmt{}

	for _, cond := range conds {
		left, err := b.bindOperand(sc, cond.Left, allowAgg, stmt)
		if err != nil {
			return nil, err
		}
		right, err := b.bindOperand(sc, cond.Right, allowAgg, stmt)
		if err != nil {
			return nil, err
		}

		unit := &FilterUnit{Left: left, Op: cond.Op, Right: right, Or: cond.Or}
		if err := checkUnitTypes(unit); err != nil {
			return nil, err
		}
		filter.Units = append(filter.Units, unit)
	}
	return filter, nil
}

func currentStmt(b *Binder) *SelectStatement {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// bindOperand resolves one side of a FilterUnit.
func (b *Binder) bindOperand(sc *scope, node ast.ExprNode, allowAgg bool, stmt *SelectStatement) (*FilterObj, error) {
	switch n := node.(type) {
	case *ast.ValueNode:
		return &FilterObj{Kind: ObjValue, Expr: expression.NewValueExpr(n.Value)}, nil

	case *ast.ListNode:
		return &FilterObj{Kind: ObjValueList, Values: n.Values}, nil

	case *ast.SubQueryNode:
		sub, err := b.bindSelect(n.Select, sc)
		if err != nil {
			return nil, err
		}
		return &FilterObj{Kind: ObjSubQuery, SubStmt: sub}, nil

	case *ast.AttrNode:
		expr, err := b.bindExpr(sc, n, allowAgg, stmt)
		if err != nil {
			return nil, err
		}
		return &FilterObj{Kind: ObjAttr, Expr: expr}, nil

	default:
		expr, err := b.bindExpr(sc, node, allowAgg, stmt)
		if err != nil {
			return nil, err
		}
		if _, isValue := expr.(*expression.ValueExpr); isValue {
			return &FilterObj{Kind: ObjValue, Expr: expr}, nil
		}
		return &FilterObj{Kind: ObjExpr, Expr: expr}, nil
	}
}

// scopeFor builds a single-table scope, used by UPDATE and DELETE.
func scopeFor(tb *TableBinding) *scope {
	return &scope{tables: []*TableBinding{tb}}
}
