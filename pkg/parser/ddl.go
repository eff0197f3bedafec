package parser

import (
	"fmt"
	"strconv"

	"minidb/pkg/parser/ast"
	"minidb/pkg/types"
)

func (p *Parser) parseCreate() (ast.Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}

	switch {
	case p.acceptKeyword("TABLE"):
		return p.parseCreateTable()
	case p.acceptKeyword("UNIQUE"):
		if err := p.expectKeyword("INDEX"); err != nil {
			return nil, err
		}
		return p.parseCreateIndex(true)
	case p.acceptKeyword("INDEX"):
		return p.parseCreateIndex(false)
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX after CREATE, got %q", p.cur().Value)
	}
}

func (p *Parser) parseCreateTable() (*ast.CreateTableNode, error) {
	name, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expectType(LPAREN, "("); err != nil {
		return nil, err
	}

	node := &ast.CreateTableNode{Name: name}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		node.Columns = append(node.Columns, *col)
		if !p.acceptType(COMMA) {
			break
		}
	}

	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseColumnDef() (*ast.ColumnDef, error) {
	name, err := p.expectIdent("column name")
	if err != nil {
		return nil, err
	}

	col := &ast.ColumnDef{Name: name, Nullable: true}

	typeTok := p.cur()
	if typeTok.Type != KEYWORD {
		return nil, fmt.Errorf("expected column type, got %q", typeTok.Value)
	}
	p.advance()

	switch typeTok.Value {
	case "INT":
		col.Type = types.IntType
	case "FLOAT":
		col.Type = types.FloatType
	case "DATE":
		col.Type = types.DateType
	case "TEXT":
		col.Type = types.TextType
	case "CHARS":
		col.Type = types.StringType
		if _, err := p.expectType(LPAREN, "("); err != nil {
			return nil, err
		}
		lenTok, err := p.expectType(NUMBER, "CHARS length")
		if err != nil {
			return nil, err
		}
		length, err := strconv.ParseUint(lenTok.Value, 10, 32)
		if err != nil || length == 0 {
			return nil, fmt.Errorf("invalid CHARS length %q", lenTok.Value)
		}
		col.Length = uint32(length)
		if _, err := p.expectType(RPAREN, ")"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported column type %q", typeTok.Value)
	}

	if p.acceptKeyword("NOT") {
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		col.Nullable = false
	} else if p.acceptKeyword("NULL") {
		col.Nullable = true
	}
	return col, nil
}

func (p *Parser) parseCreateIndex(unique bool) (*ast.CreateIndexNode, error) {
	name, err := p.expectIdent("index name")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(LPAREN, "("); err != nil {
		return nil, err
	}
	column, err := p.expectIdent("column name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}

	return &ast.CreateIndexNode{Name: name, Table: table, Column: column, Unique: unique}, nil
}

func (p *Parser) parseDrop() (ast.Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}

	switch {
	case p.acceptKeyword("TABLE"):
		name, err := p.expectIdent("table name")
		if err != nil {
			return nil, err
		}
		return &ast.DropTableNode{Name: name}, nil
	case p.acceptKeyword("INDEX"):
		name, err := p.expectIdent("index name")
		if err != nil {
			return nil, err
		}
		return &ast.DropIndexNode{Name: name}, nil
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX after DROP, got %q", p.cur().Value)
	}
}

func (p *Parser) parseExplain() (*ast.ExplainNode, error) {
	if err := p.expectKeyword("EXPLAIN"); err != nil {
		return nil, err
	}

	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ExplainNode{Stmt: inner}, nil
}

func (p *Parser) parseCalc() (*ast.CalcNode, error) {
	if err := p.expectKeyword("CALC"); err != nil {
		return nil, err
	}

	node := &ast.CalcNode{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Exprs = append(node.Exprs, expr)
		if !p.acceptType(COMMA) {
			break
		}
	}
	return node, nil
}

func (p *Parser) parseShow() (*ast.ShowTablesNode, error) {
	if err := p.expectKeyword("SHOW"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLES"); err != nil {
		return nil, err
	}
	return &ast.ShowTablesNode{}, nil
}

func (p *Parser) parseDesc() (*ast.DescTableNode, error) {
	if err := p.expectKeyword("DESC"); err != nil {
		return nil, err
	}

	table, err := p.expectIdent("table name")
	if err != nil {
		return nil, err
	}
	return &ast.DescTableNode{Table: table}, nil
}
