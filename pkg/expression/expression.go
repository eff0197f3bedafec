package expression

import (
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// EvalContext threads the transaction and the outer-row stack through
// expression evaluation. Correlated subqueries push the current outer
// tuple before re-executing their inner plan.
type EvalContext struct {
	Tx    *transaction.TransactionContext
	Outer []*tuple.Tuple // enclosing rows, outermost first
}

// PushOuter returns a child context with tup appended to the outer-row
// stack. The receiver is not modified.
func (ctx *EvalContext) PushOuter(tup *tuple.Tuple) *EvalContext {
	child := &EvalContext{Tx: ctx.Tx}
	child.Outer = append(append([]*tuple.Tuple(nil), ctx.Outer...), tup)
	return child
}

// OuterAt returns the outer row `level` scopes up (1 = nearest
// enclosing query).
func (ctx *EvalContext) OuterAt(level int) *tuple.Tuple {
	idx := len(ctx.Outer) - level
	if idx < 0 || idx >= len(ctx.Outer) {
		return nil
	}
	return ctx.Outer[idx]
}

// Expr is a node of the expression tree. Evaluation is strict: every
// operand is evaluated against the same tuple and context.
type Expr interface {
	// Evaluate computes the expression's value for one input tuple.
	Evaluate(ctx *EvalContext, tup *tuple.Tuple) (types.Field, error)

	// ResultType returns the static type of the expression, NullType
	// when it cannot be known before evaluation.
	ResultType() types.Type

	// String returns the display form; projections use it as the
	// output column name.
	String() string
}

// ValueExpr wraps a constant value.
type ValueExpr struct {
	Value types.Field
}

func NewValueExpr(value types.Field) *ValueExpr {
	return &ValueExpr{Value: value}
}

func (e *ValueExpr) Evaluate(*EvalContext, *tuple.Tuple) (types.Field, error) {
	return e.Value, nil
}

func (e *ValueExpr) ResultType() types.Type {
	return e.Value.Type()
}

func (e *ValueExpr) String() string {
	return e.Value.String()
}
