package binder

import (
	"minidb/pkg/errs"
	"minidb/pkg/parser/ast"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// bindInsert resolves an INSERT, checks row arity, and coerces every
// literal to its target column type. Rows come out in schema order
// with NULLs for omitted columns.
func (b *Binder) bindInsert(node *ast.InsertNode) (*InsertStatement, error) {
	table, err := b.cat.GetTable(node.Table)
	if err != nil {
		return nil, err
	}
	sch := table.Schema()

	// Map each supplied value position to its schema column.
	columnOrder := make([]int, 0, sch.NumColumns())
	if len(node.Columns) == 0 {
		for i := 0; i < sch.NumColumns(); i++ {
			columnOrder = append(columnOrder, i)
		}
	} else {
		for _, name := range node.Columns {
			idx, _, err := sch.FindColumn(name)
			if err != nil {
				return nil, errs.New(errs.CategoryUser, errs.CodeSchemaFieldNotExist,
					"column %s does not exist in table %s", name, node.Table)
			}
			columnOrder = append(columnOrder, idx)
		}
	}

	stmt := &InsertStatement{Table: table}
	for _, row := range node.Rows {
		if len(row) != len(columnOrder) {
			return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
				"INSERT row has %d values, expected %d", len(row), len(columnOrder))
		}

		out := tuple.NewTuple(sch.TupleDesc())
		for i := 0; i < sch.NumColumns(); i++ {
			if err := out.SetField(i, types.NewNullField()); err != nil {
				return nil, err
			}
		}

		for pos, valueNode := range row {
			value, err := b.constValue(valueNode)
			if err != nil {
				return nil, err
			}

			col := sch.Columns[columnOrder[pos]]
			coerced, err := types.Coerce(value, col.Type, col.Length)
			if err != nil {
				return nil, errs.Wrap(err, errs.CategoryUser, errs.CodeTypeMismatch,
					"value for column %s.%s", node.Table, col.Name)
			}
			if err := out.SetField(columnOrder[pos], coerced); err != nil {
				return nil, err
			}
		}
		stmt.Rows = append(stmt.Rows, out)
	}
	return stmt, nil
}

// constValue evaluates an expression that must reduce to a constant at
// bind time (INSERT values).
func (b *Binder) constValue(node ast.ExprNode) (types.Field, error) {
	expr, err := b.bindExpr(nil, node, false, nil)
	if err != nil {
		return nil, err
	}
	return expr.Evaluate(nil, nil)
}

// bindUpdate resolves an UPDATE: the target column of each assignment,
// its value expression (or scalar subquery), and the WHERE filter.
func (b *Binder) bindUpdate(node *ast.UpdateNode) (*UpdateStatement, error) {
	table, err := b.cat.GetTable(node.Table)
	if err != nil {
		return nil, err
	}

	binding := &TableBinding{Table: table, Alias: table.Name()}
	sc := scopeFor(binding)
	stmt := &UpdateStatement{Binding: binding}

	for _, assign := range node.Assignments {
		colIdx, col, err := table.Schema().FindColumn(assign.Column)
		if err != nil {
			return nil, errs.New(errs.CategoryUser, errs.CodeSchemaFieldNotExist,
				"column %s does not exist in table %s", assign.Column, node.Table)
		}

		bound := Assignment{ColumnIndex: colIdx, Column: col}
		if sub, isSub := assign.Value.(*ast.SubQueryNode); isSub {
			subStmt, err := b.bindSelect(sub.Select, sc)
			if err != nil {
				return nil, err
			}
			if len(subStmt.Projections) != 1 {
				return nil, errs.New(errs.CategoryUser, errs.CodeSubqueryArity,
					"assignment subquery must return one column, got %d", len(subStmt.Projections))
			}
			bound.SubStmt = subStmt
		} else {
			expr, err := b.bindExpr(sc, assign.Value, false, nil)
			if err != nil {
				return nil, err
			}
			if t := expr.ResultType(); t != types.NullType && t != col.Type &&
				!(t.IsNumeric() && col.Type.IsNumeric()) &&
				!(t == types.StringType && (col.Type == types.DateType || col.Type == types.TextType)) {
				return nil, errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
					"cannot assign %s to column %s (%s)", t, col.Name, col.Type)
			}
			bound.Expr = expr
		}
		stmt.Assignments = append(stmt.Assignments, bound)
	}

	if len(node.Where) > 0 {
		filter, err := b.compileFilterInScope(sc, node.Where)
		if err != nil {
			return nil, err
		}
		stmt.Filter = filter
	}
	return stmt, nil
}

// bindDelete resolves a DELETE and its WHERE filter.
func (b *Binder) bindDelete(node *ast.DeleteNode) (*DeleteStatement, error) {
	table, err := b.cat.GetTable(node.Table)
	if err != nil {
		return nil, err
	}

	binding := &TableBinding{Table: table, Alias: table.Name()}
	stmt := &DeleteStatement{Binding: binding}

	if len(node.Where) > 0 {
		filter, err := b.compileFilterInScope(scopeFor(binding), node.Where)
		if err != nil {
			return nil, err
		}
		stmt.Filter = filter
	}
	return stmt, nil
}

// compileFilterInScope compiles a WHERE list for UPDATE/DELETE, which
// have no SELECT statement on the bind stack. A synthetic statement
// entry keeps subquery correlation tracking working.
func (b *Binder) compileFilterInScope(sc *scope, conds []ast.Condition) (*FilterStmt, error) {
	host := &SelectStatement{Tables: sc.tables}
	b.stack = append(b.stack, host)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	return b.compileFilter(sc, conds, false)
}
