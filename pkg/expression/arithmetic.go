package expression

import (
	"fmt"

	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// ArithmeticExpr applies +, -, *, / or unary negation. NULL operands
// propagate and division by zero yields NULL.
type ArithmeticExpr struct {
	Op    primitives.ArithmeticOp
	Left  Expr
	Right Expr // nil for unary negation
}

func NewArithmeticExpr(op primitives.ArithmeticOp, left, right Expr) *ArithmeticExpr {
	return &ArithmeticExpr{Op: op, Left: left, Right: right}
}

func (e *ArithmeticExpr) Evaluate(ctx *EvalContext, tup *tuple.Tuple) (types.Field, error) {
	left, err := e.Left.Evaluate(ctx, tup)
	if err != nil {
		return nil, err
	}

	if e.Op == primitives.OpNeg {
		return negate(left)
	}

	right, err := e.Right.Evaluate(ctx, tup)
	if err != nil {
		return nil, err
	}

	if types.IsNull(left) || types.IsNull(right) {
		return types.NewNullField(), nil
	}
	return apply(e.Op, left, right)
}

func negate(f types.Field) (types.Field, error) {
	switch v := f.(type) {
	case *types.IntField:
		return types.NewIntField(-v.Value), nil
	case *types.FloatField:
		return types.NewFloatField(-v.Value), nil
	case *types.NullField:
		return types.NewNullField(), nil
	default:
		return nil, fmt.Errorf("cannot negate %s value", f.Type())
	}
}

// apply computes a binary arithmetic result. INT stays INT unless the
// other operand is FLOAT.
func apply(op primitives.ArithmeticOp, left, right types.Field) (types.Field, error) {
	li, lInt := left.(*types.IntField)
	ri, rInt := right.(*types.IntField)

	if lInt && rInt {
		if op == primitives.OpDiv && ri.Value == 0 {
			return types.NewNullField(), nil
		}
		switch op {
		case primitives.OpAdd:
			return types.NewIntField(li.Value + ri.Value), nil
		case primitives.OpSub:
			return types.NewIntField(li.Value - ri.Value), nil
		case primitives.OpMul:
			return types.NewIntField(li.Value * ri.Value), nil
		case primitives.OpDiv:
			return types.NewIntField(li.Value / ri.Value), nil
		}
		return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
	}

	lf, err := asFloat(left)
	if err != nil {
		return nil, err
	}
	rf, err := asFloat(right)
	if err != nil {
		return nil, err
	}

	if op == primitives.OpDiv && rf == 0 {
		return types.NewNullField(), nil
	}
	switch op {
	case primitives.OpAdd:
		return types.NewFloatField(lf + rf), nil
	case primitives.OpSub:
		return types.NewFloatField(lf - rf), nil
	case primitives.OpMul:
		return types.NewFloatField(lf * rf), nil
	case primitives.OpDiv:
		return types.NewFloatField(lf / rf), nil
	}
	return nil, fmt.Errorf("unsupported arithmetic operator %s", op)
}

func asFloat(f types.Field) (float32, error) {
	switch v := f.(type) {
	case *types.IntField:
		return float32(v.Value), nil
	case *types.FloatField:
		return v.Value, nil
	default:
		return 0, fmt.Errorf("%s value is not numeric", f.Type())
	}
}

func (e *ArithmeticExpr) ResultType() types.Type {
	if e.Op == primitives.OpNeg {
		return e.Left.ResultType()
	}
	if e.Left.ResultType() == types.FloatType || e.Right.ResultType() == types.FloatType {
		return types.FloatType
	}
	return types.IntType
}

func (e *ArithmeticExpr) String() string {
	if e.Op == primitives.OpNeg {
		return fmt.Sprintf("-%s", e.Left)
	}
	return fmt.Sprintf("%s%s%s", e.Left, e.Op, e.Right)
}
