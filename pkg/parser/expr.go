package parser

import (
	"fmt"
	"strconv"
	"strings"

	"minidb/pkg/parser/ast"
	"minidb/pkg/primitives"
	"minidb/pkg/types"
)

var aggregateNames = map[string]primitives.AggregateOp{
	"MAX":   primitives.AggMax,
	"MIN":   primitives.AggMin,
	"AVG":   primitives.AggAvg,
	"SUM":   primitives.AggSum,
	"COUNT": primitives.AggCount,
}

// parseExpr parses an additive expression.
func (p *Parser) parseExpr() (ast.ExprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		var op primitives.ArithmeticOp
		switch p.cur().Type {
		case PLUS:
			op = primitives.OpAdd
		case MINUS:
			op = primitives.OpSub
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.ArithNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseTerm() (ast.ExprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		var op primitives.ArithmeticOp
		switch p.cur().Type {
		case STAR:
			op = primitives.OpMul
		case SLASH:
			op = primitives.OpDiv
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.ArithNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseFactor() (ast.ExprNode, error) {
	tok := p.cur()

	switch tok.Type {
	case MINUS:
		p.advance()
		// A negated literal folds into the literal itself so INSERT
		// rows stay plain value lists.
		switch p.cur().Type {
		case NUMBER, FLOATNUM:
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			v := inner.(*ast.ValueNode)
			switch f := v.Value.(type) {
			case *types.IntField:
				return &ast.ValueNode{Value: types.NewIntField(-f.Value)}, nil
			case *types.FloatField:
				return &ast.ValueNode{Value: types.NewFloatField(-f.Value)}, nil
			}
			return nil, fmt.Errorf("cannot negate literal")
		default:
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return &ast.ArithNode{Op: primitives.OpNeg, Left: inner}, nil
		}

	case NUMBER:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q", tok.Value)
		}
		return &ast.ValueNode{Value: types.NewIntField(int32(v))}, nil

	case FLOATNUM:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q", tok.Value)
		}
		return &ast.ValueNode{Value: types.NewFloatField(float32(v))}, nil

	case STRING:
		p.advance()
		return &ast.ValueNode{Value: types.NewStringField(tok.Value, 0)}, nil

	case KEYWORD:
		if tok.Value == "NULL" {
			p.advance()
			return &ast.ValueNode{Value: types.NewNullField()}, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q in expression", tok.Value)

	case LPAREN:
		p.advance()
		if p.isKeyword("SELECT") {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectType(RPAREN, ")"); err != nil {
				return nil, err
			}
			return &ast.SubQueryNode{Select: sub}, nil
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case STAR:
		p.advance()
		return &ast.AttrNode{Name: "*"}, nil

	case IDENT:
		return p.parseIdentExpr()

	default:
		return nil, fmt.Errorf("unexpected token %q in expression", tok.Value)
	}
}

// parseIdentExpr handles column references, rel.attr, rel.*, aggregate
// calls, and scalar function calls.
func (p *Parser) parseIdentExpr() (ast.ExprNode, error) {
	name, _ := p.expectIdent("identifier")

	if p.cur().Type == LPAREN {
		return p.parseCall(name)
	}

	if p.acceptType(DOT) {
		if p.acceptType(STAR) {
			return &ast.AttrNode{Table: name, Name: "*"}, nil
		}
		attr, err := p.expectIdent("column name")
		if err != nil {
			return nil, err
		}
		return &ast.AttrNode{Table: name, Name: attr}, nil
	}

	return &ast.AttrNode{Name: name}, nil
}

func (p *Parser) parseCall(name string) (ast.ExprNode, error) {
	p.advance() // consume (

	upper := strings.ToUpper(name)
	if op, isAgg := aggregateNames[upper]; isAgg {
		if p.acceptType(STAR) {
			if op != primitives.AggCount {
				return nil, fmt.Errorf("%s(*) is not legal; only COUNT accepts *", upper)
			}
			if _, err := p.expectType(RPAREN, ")"); err != nil {
				return nil, err
			}
			return &ast.AggNode{Op: op, Star: true}, nil
		}

		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(RPAREN, ")"); err != nil {
			return nil, err
		}
		return &ast.AggNode{Op: op, Arg: arg}, nil
	}

	var args []ast.ExprNode
	if p.cur().Type != RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.acceptType(COMMA) {
				break
			}
		}
	}
	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}
	return &ast.FuncNode{Name: upper, Args: args}, nil
}

// parseConditionList parses a WHERE/ON/HAVING condition list. Each
// condition records whether it attaches to its predecessor with OR;
// AND binds tighter when the filter engine evaluates the list.
func (p *Parser) parseConditionList() ([]ast.Condition, error) {
	var conditions []ast.Condition
	or := false

	for {
		conds, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds[0].Or = or
		conditions = append(conditions, conds...)

		if p.acceptKeyword("AND") {
			or = false
			continue
		}
		if p.acceptKeyword("OR") {
			or = true
			continue
		}
		return conditions, nil
	}
}

// parseCondition parses one comparison. BETWEEN desugars into two
// AND-combined conditions, which is why a slice comes back.
func (p *Parser) parseCondition() ([]ast.Condition, error) {
	if p.isKeyword("EXISTS") || (p.isKeyword("NOT") && p.peek(1).Type == KEYWORD && p.peek(1).Value == "EXISTS") {
		return p.parseExistsCondition()
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	negated := p.acceptKeyword("NOT")

	switch {
	case p.acceptKeyword("IS"):
		if negated {
			return nil, fmt.Errorf("unexpected NOT before IS")
		}
		op := primitives.IsNull
		if p.acceptKeyword("NOT") {
			op = primitives.IsNotNull
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		right := &ast.ValueNode{Value: types.NewNullField()}
		return []ast.Condition{{Left: left, Op: op, Right: right}}, nil

	case p.acceptKeyword("IN"):
		op := primitives.In
		if negated {
			op = primitives.NotIn
		}
		right, err := p.parseInOperand()
		if err != nil {
			return nil, err
		}
		return []ast.Condition{{Left: left, Op: op, Right: right}}, nil

	case p.acceptKeyword("LIKE"):
		op := primitives.Like
		if negated {
			op = primitives.NotLike
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return []ast.Condition{{Left: left, Op: op, Right: right}}, nil

	case p.acceptKeyword("BETWEEN"):
		if negated {
			return nil, fmt.Errorf("NOT BETWEEN is not supported")
		}
		lo, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		hi, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return []ast.Condition{
			{Left: left, Op: primitives.GreaterThanOrEqual, Right: lo},
			{Left: left, Op: primitives.LessThanOrEqual, Right: hi},
		}, nil

	default:
		if negated {
			return nil, fmt.Errorf("unexpected NOT before comparison")
		}
		op, err := p.parseCompOp()
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return []ast.Condition{{Left: left, Op: op, Right: right}}, nil
	}
}

func (p *Parser) parseExistsCondition() ([]ast.Condition, error) {
	op := primitives.Exists
	if p.acceptKeyword("NOT") {
		op = primitives.NotExists
	}
	if err := p.expectKeyword("EXISTS"); err != nil {
		return nil, err
	}

	if _, err := p.expectType(LPAREN, "("); err != nil {
		return nil, err
	}
	sub, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}

	right := &ast.SubQueryNode{Select: sub}
	// EXISTS has no left operand; a constant keeps the condition shape
	// uniform for the binder.
	left := &ast.ValueNode{Value: types.NewIntField(1)}
	return []ast.Condition{{Left: left, Op: op, Right: right}}, nil
}

// parseInOperand parses the right side of IN: a subquery or a literal
// value list.
func (p *Parser) parseInOperand() (ast.ExprNode, error) {
	if _, err := p.expectType(LPAREN, "("); err != nil {
		return nil, err
	}

	if p.isKeyword("SELECT") {
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectType(RPAREN, ")"); err != nil {
			return nil, err
		}
		return &ast.SubQueryNode{Select: sub}, nil
	}

	var values []types.Field
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		v, ok := expr.(*ast.ValueNode)
		if !ok {
			return nil, fmt.Errorf("IN list elements must be literals")
		}
		values = append(values, v.Value)
		if !p.acceptType(COMMA) {
			break
		}
	}
	if _, err := p.expectType(RPAREN, ")"); err != nil {
		return nil, err
	}
	return &ast.ListNode{Values: values}, nil
}

func (p *Parser) parseCompOp() (primitives.Predicate, error) {
	tok := p.cur()
	var op primitives.Predicate
	switch tok.Type {
	case EQ:
		op = primitives.Equals
	case NEQ:
		op = primitives.NotEqual
	case LT:
		op = primitives.LessThan
	case LE:
		op = primitives.LessThanOrEqual
	case GT:
		op = primitives.GreaterThan
	case GE:
		op = primitives.GreaterThanOrEqual
	default:
		return 0, fmt.Errorf("expected comparison operator, got %q", tok.Value)
	}
	p.advance()
	return op, nil
}
