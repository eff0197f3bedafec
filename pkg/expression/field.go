package expression

import (
	"fmt"

	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// FieldExpr references a resolved column. OuterLevel is 0 for the
// current query's tuple; a positive level reads from the enclosing
// query's row instead, which is what makes a subquery correlated.
type FieldExpr struct {
	TableName  string
	FieldName  string
	Typ        types.Type
	OuterLevel int
}

func NewFieldExpr(tableName, fieldName string, typ types.Type) *FieldExpr {
	return &FieldExpr{TableName: tableName, FieldName: fieldName, Typ: typ}
}

func (e *FieldExpr) Evaluate(ctx *EvalContext, tup *tuple.Tuple) (types.Field, error) {
	source := tup
	if e.OuterLevel > 0 {
		if ctx == nil {
			return nil, fmt.Errorf("no outer scope for correlated reference %s", e.String())
		}
		source = ctx.OuterAt(e.OuterLevel)
		if source == nil {
			return nil, fmt.Errorf("no outer row at level %d for %s", e.OuterLevel, e.String())
		}
	}
	if source == nil {
		return nil, fmt.Errorf("no input tuple for column reference %s", e.String())
	}
	return source.FindField(e.TableName, e.FieldName)
}

func (e *FieldExpr) ResultType() types.Type {
	return e.Typ
}

func (e *FieldExpr) String() string {
	if e.TableName != "" {
		return e.TableName + "." + e.FieldName
	}
	return e.FieldName
}
