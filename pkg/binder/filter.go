package binder

import (
	"minidb/pkg/errs"
	"minidb/pkg/expression"
	"minidb/pkg/primitives"
	"minidb/pkg/types"
)

// FilterObjKind tags the operand variants of a FilterUnit.
type FilterObjKind int

const (
	ObjAttr FilterObjKind = iota
	ObjValue
	ObjExpr
	ObjValueList
	ObjSubQuery
)

// FilterObj is one operand of a compiled predicate atom. Attr, Value
// and Expr operands all evaluate through Expr; a value list carries its
// members, and a subquery operand carries its bound statement until the
// planner attaches an executable plan.
type FilterObj struct {
	Kind    FilterObjKind
	Expr    expression.Expr
	Values  []types.Field
	SubStmt *SelectStatement
	// SubQuery is filled by the planner when it turns SubStmt into an
	// executable plan.
	SubQuery *expression.SubQueryExpr
}

// StaticType returns the operand's compile-time type when one exists.
func (o *FilterObj) StaticType() (types.Type, bool) {
	switch o.Kind {
	case ObjAttr, ObjValue, ObjExpr:
		t := o.Expr.ResultType()
		return t, t != types.NullType
	default:
		return types.NullType, false
	}
}

// FilterUnit is one compiled predicate atom. Or reports that the unit
// attaches to its predecessor with OR; AND binds tighter than OR when
// the filter evaluates the sequence.
type FilterUnit struct {
	Left  *FilterObj
	Op    primitives.Predicate
	Right *FilterObj
	Or    bool
}

// FilterStmt is an ordered list of FilterUnits forming one WHERE, ON,
// or HAVING predicate.
type FilterStmt struct {
	Units []*FilterUnit
}

// Empty reports whether the filter has no units; a nil filter is empty.
func (f *FilterStmt) Empty() bool {
	return f == nil || len(f.Units) == 0
}

// checkUnitTypes enforces the legal operand pairings for each CompOp.
// Unknown static types (subqueries, computed expressions) are checked
// at runtime instead.
func checkUnitTypes(unit *FilterUnit) error {
	switch unit.Op {
	case primitives.IsNull, primitives.IsNotNull:
		if unit.Right.Kind != ObjValue || !types.IsNull(valueOf(unit.Right)) {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"IS comparisons require a NULL literal on the right")
		}
		return nil

	case primitives.In, primitives.NotIn:
		if unit.Right.Kind != ObjValueList && unit.Right.Kind != ObjSubQuery {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"IN requires a value list or subquery on the right")
		}
		return checkSubqueryArity(unit.Right)

	case primitives.Exists, primitives.NotExists:
		if unit.Right.Kind != ObjSubQuery {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"EXISTS requires a subquery")
		}
		return nil

	case primitives.Like, primitives.NotLike:
		if lt, ok := unit.Left.StaticType(); ok && lt != types.StringType {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"LIKE requires CHARS operands, got %s", lt)
		}
		if rt, ok := unit.Right.StaticType(); ok && rt != types.StringType {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"LIKE pattern must be CHARS, got %s", rt)
		}
		return nil
	}

	if unit.Left.Kind == ObjValueList || unit.Right.Kind == ObjValueList {
		return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
			"value list is only legal with IN")
	}
	if err := checkSubqueryArity(unit.Left); err != nil {
		return err
	}
	if err := checkSubqueryArity(unit.Right); err != nil {
		return err
	}

	lt, lok := unit.Left.StaticType()
	rt, rok := unit.Right.StaticType()
	if !lok || !rok {
		return nil
	}

	// NULL literals on either side are legal for ordering comparisons;
	// they simply never match.
	if lt == types.NullType || rt == types.NullType {
		return nil
	}
	if !lt.ComparableWith(rt) {
		return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
			"cannot compare %s with %s", lt, rt)
	}
	return nil
}

// checkSubqueryArity enforces single-column subqueries where the
// operand is compared as a scalar or probed for membership.
func checkSubqueryArity(obj *FilterObj) error {
	if obj.Kind != ObjSubQuery {
		return nil
	}
	if n := len(obj.SubStmt.Projections); n != 1 {
		return errs.New(errs.CategoryUser, errs.CodeSubqueryArity,
			"subquery must return exactly one column, got %d", n)
	}
	return nil
}

func valueOf(obj *FilterObj) types.Field {
	if v, ok := obj.Expr.(*expression.ValueExpr); ok {
		return v.Value
	}
	return nil
}
