package parser

import (
	"fmt"

	"minidb/pkg/parser/ast"
)

// parseInsert parses INSERT INTO t [(cols)] VALUES (...), (...).
func (p *Parser) parseInsert() (*ast.InsertNode, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}

	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	node := &ast.InsertNode{Table: table}

	if p.acceptType(LPAREN) {
		for {
			col, err := p.expectIdent("column name")
			if err != nil {
				return nil, err
			}
			node.Columns = append(node.Columns, col)
			if !p.acceptType(COMMA) {
				break
			}
		}
		if _, err := p.expectType(RPAREN, ")"); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}

	for {
		row, err := p.parseValueRow()
		if err != nil {
			return nil, err
		}
		node.Rows = append(node.Rows, row)
		if !p.acceptType(COMMA) {
			break
		}
	}

	if len(node.Rows) == 0 {
		return nil, fmt.Errorf("INSERT requires at least one row")
	}
	return node, nil
}

func (p *Parser) parseValueRow() ([]ast.ExprNode, error) {
	if _, err := p.expectType(LPAREN, "("); err != nil {
		return nil, err
	}

	var row []ast.ExprNode
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		row = append(row, expr)
		if !p.acceptType(COMMA) {
			break
		}
	}

	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}
	return row, nil
}

// parseUpdate parses UPDATE t SET c = expr [, ...] [WHERE ...]. An
// assignment value may be a scalar subquery.
func (p *Parser) parseUpdate() (*ast.UpdateNode, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}

	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	node := &ast.UpdateNode{Table: table}

	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	for {
		col, err := p.expectIdent("column name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(EQ, "="); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Assignments = append(node.Assignments, ast.Assignment{Column: col, Value: value})
		if !p.acceptType(COMMA) {
			break
		}
	}

	if p.acceptKeyword("WHERE") {
		where, err := p.parseConditionList()
		if err != nil {
			return nil, err
		}
		node.Where = where
	}
	return node, nil
}

// parseDelete parses DELETE FROM t [WHERE ...].
func (p *Parser) parseDelete() (*ast.DeleteNode, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}

	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	node := &ast.DeleteNode{Table: table}

	if p.acceptKeyword("WHERE") {
		where, err := p.parseConditionList()
		if err != nil {
			return nil, err
		}
		node.Where = where
	}
	return node, nil
}
