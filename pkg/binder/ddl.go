package binder

import (
	"minidb/pkg/catalog/schema"
	"minidb/pkg/errs"
	"minidb/pkg/parser/ast"
)

func (b *Binder) bindCreateTable(node *ast.CreateTableNode) (*CreateTableStatement, error) {
	columns := make([]schema.Column, len(node.Columns))
	for i, def := range node.Columns {
		columns[i] = schema.Column{
			Name:     def.Name,
			Type:     def.Type,
			Length:   def.Length,
			Nullable: def.Nullable,
		}
	}

	sch, err := schema.NewSchema(node.Name, columns)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryUser, errs.CodeInvalidArgument,
			"invalid table definition")
	}
	return &CreateTableStatement{Schema: sch}, nil
}

// bindCreateIndex validates the target table and column up front so
// execution cannot fail on a name error.
func (b *Binder) bindCreateIndex(node *ast.CreateIndexNode) (*CreateIndexStatement, error) {
	table, err := b.cat.GetTable(node.Table)
	if err != nil {
		return nil, err
	}
	if _, _, err := table.Schema().FindColumn(node.Column); err != nil {
		return nil, errs.New(errs.CategoryUser, errs.CodeSchemaFieldNotExist,
			"column %s does not exist in table %s", node.Column, node.Table)
	}

	return &CreateIndexStatement{
		Name:   node.Name,
		Table:  node.Table,
		Column: node.Column,
		Unique: node.Unique,
	}, nil
}

// bindCalc binds a CALC expression list; references to columns are
// illegal since there is no input row.
func (b *Binder) bindCalc(node *ast.CalcNode) (*CalcStatement, error) {
	stmt := &CalcStatement{}
	for _, exprNode := range node.Exprs {
		expr, err := b.bindExpr(nil, exprNode, false, nil)
		if err != nil {
			return nil, err
		}
		stmt.Exprs = append(stmt.Exprs, expr)
	}
	return stmt, nil
}
