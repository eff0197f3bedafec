package execution

import (
	"fmt"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// Project evaluates the select list against each child tuple and emits
// rows shaped by the output columns, carrying aliases where given.
type Project struct {
	*iterator.UnaryOperator
	projections []*binder.Projection
	tupleDesc   *tuple.TupleDescription
	ctx         *expression.EvalContext
}

func NewProject(ctx *expression.EvalContext, projections []*binder.Projection, child iterator.DbIterator) (*Project, error) {
	if len(projections) == 0 {
		return nil, fmt.Errorf("projection list cannot be empty")
	}

	fieldTypes := make([]types.Type, len(projections))
	fieldNames := make([]string, len(projections))
	tableNames := make([]string, len(projections))
	for i, proj := range projections {
		fieldTypes[i] = proj.Expr.ResultType()
		fieldNames[i] = proj.Name
		if fe, ok := proj.Expr.(*expression.FieldExpr); ok && proj.Alias == "" {
			tableNames[i] = fe.TableName
		}
	}
	td, err := tuple.NewTupleDesc(fieldTypes, fieldNames, tableNames)
	if err != nil {
		return nil, err
	}

	p := &Project{projections: projections, tupleDesc: td, ctx: ctx}
	unaryOp, err := iterator.NewUnaryOperator(child, p.readNext)
	if err != nil {
		return nil, err
	}
	p.UnaryOperator = unaryOp
	return p, nil
}

func (p *Project) readNext() (*tuple.Tuple, error) {
	t, err := p.FetchNext()
	if err != nil || t == nil {
		return nil, err
	}

	out := tuple.NewTuple(p.tupleDesc)
	out.RecordID = t.RecordID
	for i, proj := range p.projections {
		v, err := proj.Expr.Evaluate(p.ctx, t)
		if err != nil {
			return nil, fmt.Errorf("projection %s failed: %w", proj.Name, err)
		}
		if err := out.SetField(i, v); err != nil {
			// The static type can disagree with the runtime value for
			// computed expressions; reshape instead of failing.
			out = retype(out, i, v)
		}
	}
	return out, nil
}

// retype widens the output schema at column i to the runtime type of v
// and re-sets the value.
func retype(t *tuple.Tuple, i int, v types.Field) *tuple.Tuple {
	td := t.TupleDesc
	newTypes := append([]types.Type(nil), td.Types...)
	newTypes[i] = v.Type()
	newDesc, _ := tuple.NewTupleDesc(newTypes, td.FieldNames, td.TableNames)

	out := tuple.NewTuple(newDesc)
	out.RecordID = t.RecordID
	for j := 0; j < td.NumFields(); j++ {
		if j == i {
			_ = out.SetField(j, v)
			continue
		}
		f, err := t.GetField(j)
		if err == nil {
			_ = out.SetField(j, f)
		}
	}
	return out
}

func (p *Project) GetTupleDesc() *tuple.TupleDescription {
	return p.tupleDesc
}

// Projections exposes the output columns for EXPLAIN.
func (p *Project) Projections() []*binder.Projection {
	return p.projections
}
