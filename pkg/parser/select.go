package parser

import (
	"fmt"

	"minidb/pkg/parser/ast"
)

// parseSelect parses a SELECT statement. The SELECT keyword is current.
func (p *Parser) parseSelect() (*ast.SelectNode, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	node := &ast.SelectNode{}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		node.Items = append(node.Items, *item)
		if !p.acceptType(COMMA) {
			break
		}
	}

	// A bare CALC-style SELECT (SELECT 1+1) carries no FROM clause.
	if p.acceptKeyword("FROM") {
		for {
			ref, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			node.From = append(node.From, *ref)
			if !p.acceptType(COMMA) {
				break
			}
		}

		for p.isKeyword("INNER") || p.isKeyword("JOIN") {
			join, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			node.Joins = append(node.Joins, *join)
		}
	}

	if p.acceptKeyword("WHERE") {
		where, err := p.parseConditionList()
		if err != nil {
			return nil, err
		}
		node.Where = where
	}

	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			node.GroupBy = append(node.GroupBy, expr)
			if !p.acceptType(COMMA) {
				break
			}
		}
	}

	if p.acceptKeyword("HAVING") {
		having, err := p.parseConditionList()
		if err != nil {
			return nil, err
		}
		node.Having = having
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			key, err := p.parseOrderKey()
			if err != nil {
				return nil, err
			}
			node.OrderBy = append(node.OrderBy, *key)
			if !p.acceptType(COMMA) {
				break
			}
		}
	}

	return node, nil
}

func (p *Parser) parseSelectItem() (*ast.SelectItem, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	item := &ast.SelectItem{Expr: expr}
	if p.acceptKeyword("AS") {
		alias, err := p.expectIdent("alias")
		if err != nil {
			return nil, err
		}
		item.Alias = alias
	} else if p.cur().Type == IDENT {
		item.Alias = p.advance().Value
	}
	return item, nil
}

func (p *Parser) parseTableRef() (*ast.TableRef, error) {
	name, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}

	ref := &ast.TableRef{Name: name}
	if p.acceptKeyword("AS") {
		alias, err := p.expectIdent("table alias")
		if err != nil {
			return nil, err
		}
		ref.Alias = alias
	} else if p.cur().Type == IDENT {
		ref.Alias = p.advance().Value
	}
	return ref, nil
}

func (p *Parser) parseJoin() (*ast.JoinClause, error) {
	p.acceptKeyword("INNER")
	if err := p.expectKeyword("JOIN"); err != nil {
		return nil, err
	}

	ref, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}

	join := &ast.JoinClause{Table: *ref}
	if p.acceptKeyword("ON") {
		on, err := p.parseConditionList()
		if err != nil {
			return nil, err
		}
		join.On = on
	}
	return join, nil
}

func (p *Parser) parseOrderKey() (*ast.OrderKey, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if attr, ok := expr.(*ast.AttrNode); ok && attr.Name == "*" {
		return nil, fmt.Errorf("cannot order by *")
	}

	key := &ast.OrderKey{Expr: expr}
	switch {
	case p.acceptKeyword("DESC"):
		key.Desc = true
	case p.acceptKeyword("ASC"):
	}
	return key, nil
}
