package execution

import (
	"fmt"
	"strings"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// GroupAggregate computes hash aggregation in a single pass over its
// child. Groups emit in insertion order. A non-grouped aggregate over
// empty input still emits one row: COUNT is 0 and the rest are NULL.
type GroupAggregate struct {
	base      *iterator.BaseIterator
	child     iterator.DbIterator
	groupKeys []expression.Expr
	aggs      []*expression.AggregateExpr
	having    *binder.FilterStmt
	ctx       *expression.EvalContext
	tupleDesc *tuple.TupleDescription
	results   []*tuple.Tuple
	pos       int
}

func NewGroupAggregate(ctx *expression.EvalContext, child iterator.DbIterator,
	groupKeys []expression.Expr, aggs []*expression.AggregateExpr, having *binder.FilterStmt) (*GroupAggregate, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	if len(aggs) == 0 && len(groupKeys) == 0 {
		return nil, fmt.Errorf("aggregate operator needs group keys or aggregates")
	}

	ga := &GroupAggregate{
		child:     child,
		groupKeys: groupKeys,
		aggs:      aggs,
		having:    having,
		ctx:       ctx,
	}
	ga.tupleDesc = ga.buildDesc()
	ga.base = iterator.NewBaseIterator(ga.readNext)
	return ga, nil
}

// buildDesc lays out the output row: group key columns first, then one
// column per aggregate named by its display text.
func (ga *GroupAggregate) buildDesc() *tuple.TupleDescription {
	n := len(ga.groupKeys) + len(ga.aggs)
	fieldTypes := make([]types.Type, 0, n)
	fieldNames := make([]string, 0, n)
	tableNames := make([]string, 0, n)

	for _, key := range ga.groupKeys {
		fieldTypes = append(fieldTypes, key.ResultType())
		if fe, ok := key.(*expression.FieldExpr); ok {
			fieldNames = append(fieldNames, fe.FieldName)
			tableNames = append(tableNames, fe.TableName)
		} else {
			fieldNames = append(fieldNames, key.String())
			tableNames = append(tableNames, "")
		}
	}
	for _, agg := range ga.aggs {
		fieldTypes = append(fieldTypes, agg.ResultType())
		fieldNames = append(fieldNames, agg.String())
		tableNames = append(tableNames, "")
	}

	td, _ := tuple.NewTupleDesc(fieldTypes, fieldNames, tableNames)
	return td
}

type groupState struct {
	keyValues []types.Field
	accs      []*accumulator
}

// Open consumes the whole child input and materializes the group rows;
// hash aggregation cannot stream.
func (ga *GroupAggregate) Open() error {
	if err := ga.child.Open(); err != nil {
		return err
	}

	groups := make(map[string]*groupState)
	var order []string

	err := iterator.ForEach(ga.child, func(t *tuple.Tuple) error {
		keyValues, keyText, err := ga.groupKey(t)
		if err != nil {
			return err
		}

		state, ok := groups[keyText]
		if !ok {
			state = &groupState{keyValues: keyValues, accs: newAccumulators(ga.aggs)}
			groups[keyText] = state
			order = append(order, keyText)
		}

		for i, agg := range ga.aggs {
			if agg.Star {
				state.accs[i].addRow()
				continue
			}
			v, err := agg.Arg.Evaluate(ga.ctx, t)
			if err != nil {
				return err
			}
			state.accs[i].add(v)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// An aggregate query with no groups always produces one row.
	if len(order) == 0 && len(ga.groupKeys) == 0 {
		state := &groupState{accs: newAccumulators(ga.aggs)}
		groups[""] = state
		order = append(order, "")
	}

	ga.results = ga.results[:0]
	for _, keyText := range order {
		row, err := ga.emit(groups[keyText])
		if err != nil {
			return err
		}

		if ga.having != nil {
			passes, err := EvaluateFilter(ga.ctx, ga.having, row)
			if err != nil {
				return err
			}
			if !passes {
				continue
			}
		}
		ga.results = append(ga.results, row)
	}

	ga.pos = 0
	ga.base.MarkOpened()
	return nil
}

// groupKey evaluates the group-by expressions and renders a hashable
// text key. NULL keys group together.
func (ga *GroupAggregate) groupKey(t *tuple.Tuple) ([]types.Field, string, error) {
	if len(ga.groupKeys) == 0 {
		return nil, "", nil
	}

	values := make([]types.Field, len(ga.groupKeys))
	var sb strings.Builder
	for i, key := range ga.groupKeys {
		v, err := key.Evaluate(ga.ctx, t)
		if err != nil {
			return nil, "", err
		}
		values[i] = v
		if types.IsNull(v) {
			sb.WriteString("\x00N")
		} else {
			fmt.Fprintf(&sb, "\x00%d:%s", v.Type(), v.String())
		}
	}
	return values, sb.String(), nil
}

func (ga *GroupAggregate) emit(state *groupState) (*tuple.Tuple, error) {
	row := tuple.NewTuple(ga.tupleDesc)
	for i, v := range state.keyValues {
		if err := row.SetField(i, v); err != nil {
			return nil, err
		}
	}
	for i, acc := range state.accs {
		if err := row.SetField(len(ga.groupKeys)+i, acc.final()); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (ga *GroupAggregate) readNext() (*tuple.Tuple, error) {
	if ga.pos >= len(ga.results) {
		return nil, nil
	}
	row := ga.results[ga.pos]
	ga.pos++
	return row, nil
}

func (ga *GroupAggregate) Rewind() error {
	ga.pos = 0
	ga.base.Rewind()
	return nil
}

func (ga *GroupAggregate) Close() error {
	ga.results = nil
	if err := ga.child.Close(); err != nil {
		return err
	}
	return ga.base.Close()
}

func (ga *GroupAggregate) HasNext() (bool, error) {
	return ga.base.HasNext()
}

func (ga *GroupAggregate) Next() (*tuple.Tuple, error) {
	return ga.base.Next()
}

func (ga *GroupAggregate) GetTupleDesc() *tuple.TupleDescription {
	return ga.tupleDesc
}

// accumulator folds one aggregate over one group's rows. NULL inputs
// are skipped for every aggregate; COUNT(*) counts rows regardless.
type accumulator struct {
	op       primitives.AggregateOp
	count    int64
	sumInt   int64
	sumFloat float64
	isFloat  bool
	min, max types.Field
}

func newAccumulators(aggs []*expression.AggregateExpr) []*accumulator {
	accs := make([]*accumulator, len(aggs))
	for i, agg := range aggs {
		accs[i] = &accumulator{op: agg.Op}
	}
	return accs
}

// addRow records a row for COUNT(*).
func (a *accumulator) addRow() {
	a.count++
}

func (a *accumulator) add(v types.Field) {
	if types.IsNull(v) {
		return
	}
	a.count++

	switch a.op {
	case primitives.AggSum, primitives.AggAvg:
		switch f := v.(type) {
		case *types.IntField:
			a.sumInt += int64(f.Value)
		case *types.FloatField:
			a.sumFloat += float64(f.Value)
			a.isFloat = true
		}
	case primitives.AggMin:
		if a.min == nil {
			a.min = v
		} else if less, _ := v.Compare(primitives.LessThan, a.min); less {
			a.min = v
		}
	case primitives.AggMax:
		if a.max == nil {
			a.max = v
		} else if greater, _ := v.Compare(primitives.GreaterThan, a.max); greater {
			a.max = v
		}
	}
}

func (a *accumulator) final() types.Field {
	switch a.op {
	case primitives.AggCount:
		return types.NewIntField(int32(a.count))
	case primitives.AggSum:
		if a.count == 0 {
			return types.NewNullField()
		}
		if a.isFloat {
			return types.NewFloatField(float32(a.sumFloat + float64(a.sumInt)))
		}
		return types.NewIntField(int32(a.sumInt))
	case primitives.AggAvg:
		if a.count == 0 {
			return types.NewNullField()
		}
		return types.NewFloatField(float32((a.sumFloat + float64(a.sumInt)) / float64(a.count)))
	case primitives.AggMin:
		if a.min == nil {
			return types.NewNullField()
		}
		return a.min
	case primitives.AggMax:
		if a.max == nil {
			return types.NewNullField()
		}
		return a.max
	default:
		return types.NewNullField()
	}
}
