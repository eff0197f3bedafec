package expression

import (
	"minidb/pkg/errs"
	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// SubQueryPlan is the executable form of a nested SELECT. The planner
// provides the implementation; the expression layer only drives it.
type SubQueryPlan interface {
	// Open builds and opens the subquery's operator tree. Correlated
	// plans read the outer row from ctx on every invocation.
	Open(ctx *EvalContext) (iterator.DbIterator, error)

	// ColumnCount returns the width of the subquery's result rows.
	ColumnCount() int

	// Correlated reports whether the plan references enclosing scopes
	// and therefore must be re-executed per outer row.
	Correlated() bool

	String() string
}

// SubQueryExpr embeds a subquery in expression or filter context. An
// uncorrelated subquery is executed once and its rows are cached; a
// correlated one re-executes per outer tuple.
type SubQueryExpr struct {
	Plan   SubQueryPlan
	cache  []types.Field
	cached bool
}

func NewSubQueryExpr(plan SubQueryPlan) *SubQueryExpr {
	return &SubQueryExpr{Plan: plan}
}

// Rows runs the subquery and returns the values of its single output
// column.
func (e *SubQueryExpr) Rows(ctx *EvalContext) ([]types.Field, error) {
	if e.cached && !e.Plan.Correlated() {
		return e.cache, nil
	}
	if e.Plan.ColumnCount() != 1 {
		return nil, errs.New(errs.CategoryUser, errs.CodeSubqueryArity,
			"subquery must return exactly one column, got %d", e.Plan.ColumnCount())
	}

	iter, err := e.Plan.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var rows []types.Field
	err = iterator.ForEach(iter, func(tup *tuple.Tuple) error {
		f, err := tup.GetField(0)
		if err != nil {
			return err
		}
		rows = append(rows, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !e.Plan.Correlated() {
		e.cache = rows
		e.cached = true
	}
	return rows, nil
}

// HasRows runs the subquery just far enough to decide EXISTS.
func (e *SubQueryExpr) HasRows(ctx *EvalContext) (bool, error) {
	iter, err := e.Plan.Open(ctx)
	if err != nil {
		return false, err
	}
	defer iter.Close()
	return iter.HasNext()
}

// Evaluate treats the subquery as a scalar: zero rows yield NULL and
// more than one row is an error.
func (e *SubQueryExpr) Evaluate(ctx *EvalContext, _ *tuple.Tuple) (types.Field, error) {
	rows, err := e.Rows(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return types.NewNullField(), nil
	case 1:
		return rows[0], nil
	default:
		return nil, errs.New(errs.CategoryUser, errs.CodeSubqueryMultiRow,
			"scalar subquery returned %d rows", len(rows))
	}
}

func (e *SubQueryExpr) ResultType() types.Type {
	return types.NullType
}

func (e *SubQueryExpr) String() string {
	return "(" + e.Plan.String() + ")"
}
