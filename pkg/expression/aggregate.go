package expression

import (
	"fmt"

	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// AggregateExpr is an aggregate call in a SELECT or HAVING clause. The
// group-aggregate operator computes its value; after aggregation the
// expression reads its own output column back from the emitted group
// row, which is how projections and HAVING see aggregate results.
type AggregateExpr struct {
	Op   primitives.AggregateOp
	Arg  Expr // nil when Star
	Star bool // COUNT(*)
}

func NewAggregateExpr(op primitives.AggregateOp, arg Expr) *AggregateExpr {
	return &AggregateExpr{Op: op, Arg: arg}
}

func NewCountStarExpr() *AggregateExpr {
	return &AggregateExpr{Op: primitives.AggCount, Star: true}
}

// Evaluate reads the aggregate's computed value from a group-result
// tuple by output column name.
func (e *AggregateExpr) Evaluate(_ *EvalContext, tup *tuple.Tuple) (types.Field, error) {
	if tup == nil {
		return nil, fmt.Errorf("aggregate %s has no group row to read from", e.String())
	}
	return tup.FindField("", e.String())
}

// ResultType reflects the aggregate's output: COUNT is INT, AVG is
// FLOAT, MIN/MAX/SUM keep the argument type.
func (e *AggregateExpr) ResultType() types.Type {
	switch e.Op {
	case primitives.AggCount:
		return types.IntType
	case primitives.AggAvg:
		return types.FloatType
	default:
		if e.Arg != nil {
			return e.Arg.ResultType()
		}
		return types.NullType
	}
}

func (e *AggregateExpr) String() string {
	if e.Star {
		return fmt.Sprintf("%s(*)", e.Op)
	}
	return fmt.Sprintf("%s(%s)", e.Op, e.Arg)
}
