package execution

import (
	"fmt"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// FilterOperator evaluates a compiled FilterStmt against each child
// tuple, passing matches through unchanged.
type FilterOperator struct {
	*iterator.UnaryOperator
	filter *binder.FilterStmt
	ctx    *expression.EvalContext
}

// NewFilter creates a filter over the child with the given predicate.
func NewFilter(ctx *expression.EvalContext, filter *binder.FilterStmt, child iterator.DbIterator) (*FilterOperator, error) {
	if filter == nil {
		return nil, fmt.Errorf("filter statement cannot be nil")
	}

	f := &FilterOperator{filter: filter, ctx: ctx}
	unaryOp, err := iterator.NewUnaryOperator(child, f.readNext)
	if err != nil {
		return nil, err
	}
	f.UnaryOperator = unaryOp
	return f, nil
}

func (f *FilterOperator) readNext() (*tuple.Tuple, error) {
	for {
		t, err := f.FetchNext()
		if err != nil || t == nil {
			return t, err
		}

		passes, err := EvaluateFilter(f.ctx, f.filter, t)
		if err != nil {
			return nil, fmt.Errorf("predicate evaluation failed: %w", err)
		}
		if passes {
			return t, nil
		}
	}
}

// EvaluateFilter runs a FilterStmt over one tuple. Units evaluate left
// to right with AND binding tighter than OR and short-circuiting: a
// false unit skips the rest of its AND group, and a finished true
// group decides the whole predicate.
func EvaluateFilter(ctx *expression.EvalContext, filter *binder.FilterStmt, tup *tuple.Tuple) (bool, error) {
	if filter.Empty() {
		return true, nil
	}

	overall := false
	group := true
	for i, unit := range filter.Units {
		if i > 0 && unit.Or {
			overall = overall || group
			if overall {
				return true, nil
			}
			group = true
		}
		if !group {
			continue
		}

		matched, err := evaluateUnit(ctx, unit, tup)
		if err != nil {
			return false, err
		}
		group = group && matched
	}
	return overall || group, nil
}

// evaluateUnit decides one predicate atom for one tuple.
func evaluateUnit(ctx *expression.EvalContext, unit *binder.FilterUnit, tup *tuple.Tuple) (bool, error) {
	switch unit.Op {
	case primitives.Exists, primitives.NotExists:
		return evaluateExists(ctx, unit, tup)
	case primitives.In, primitives.NotIn:
		return evaluateIn(ctx, unit, tup)
	}

	left, err := evaluateOperand(ctx, unit.Left, tup)
	if err != nil {
		return false, err
	}
	right, err := evaluateOperand(ctx, unit.Right, tup)
	if err != nil {
		return false, err
	}
	return types.Compare(left, unit.Op, right)
}

func evaluateOperand(ctx *expression.EvalContext, obj *binder.FilterObj, tup *tuple.Tuple) (types.Field, error) {
	switch obj.Kind {
	case binder.ObjSubQuery:
		if obj.SubQuery == nil {
			return nil, fmt.Errorf("subquery operand has no plan attached")
		}
		return obj.SubQuery.Evaluate(ctx.PushOuter(tup), nil)
	default:
		return obj.Expr.Evaluate(ctx, tup)
	}
}

func evaluateExists(ctx *expression.EvalContext, unit *binder.FilterUnit, tup *tuple.Tuple) (bool, error) {
	if unit.Right.SubQuery == nil {
		return false, fmt.Errorf("EXISTS operand has no plan attached")
	}

	has, err := unit.Right.SubQuery.HasRows(ctx.PushOuter(tup))
	if err != nil {
		return false, err
	}
	if unit.Op == primitives.NotExists {
		return !has, nil
	}
	return has, nil
}

// evaluateIn decides membership. NULL follows three-valued logic
// collapsed to unmatched: a NULL probe never matches, and NOT IN over
// a list containing NULL never matches either.
func evaluateIn(ctx *expression.EvalContext, unit *binder.FilterUnit, tup *tuple.Tuple) (bool, error) {
	left, err := evaluateOperand(ctx, unit.Left, tup)
	if err != nil {
		return false, err
	}
	if types.IsNull(left) {
		return false, nil
	}

	var members []types.Field
	switch unit.Right.Kind {
	case binder.ObjValueList:
		members = unit.Right.Values
	case binder.ObjSubQuery:
		if unit.Right.SubQuery == nil {
			return false, fmt.Errorf("IN subquery has no plan attached")
		}
		members, err = unit.Right.SubQuery.Rows(ctx.PushOuter(tup))
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("IN requires a value list or subquery")
	}

	sawNull := false
	for _, member := range members {
		if types.IsNull(member) {
			sawNull = true
			continue
		}
		eq, err := types.Compare(left, primitives.Equals, member)
		if err != nil {
			return false, err
		}
		if eq {
			return unit.Op == primitives.In, nil
		}
	}

	if unit.Op == primitives.NotIn {
		// No match, but an unknown (NULL) member leaves NOT IN unknown.
		return !sawNull, nil
	}
	return false, nil
}
