package execution

import (
	"fmt"
	"sort"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// OrderBy fully materializes its input and emits it sorted by the key
// list. The sort is stable and NULL orders before every value
// ascending (after every value descending).
type OrderBy struct {
	*iterator.UnaryOperator
	keys   []binder.OrderKey
	ctx    *expression.EvalContext
	sorted []*tuple.Tuple
	pos    int
}

func NewOrderBy(ctx *expression.EvalContext, keys []binder.OrderKey, child iterator.DbIterator) (*OrderBy, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("order by requires at least one key")
	}

	o := &OrderBy{keys: keys, ctx: ctx}
	unaryOp, err := iterator.NewUnaryOperator(child, o.readNext)
	if err != nil {
		return nil, err
	}
	o.UnaryOperator = unaryOp
	return o, nil
}

// Open drains the child and sorts the materialized rows.
func (o *OrderBy) Open() error {
	if err := o.UnaryOperator.Open(); err != nil {
		return err
	}

	var rows []*tuple.Tuple
	for {
		t, err := o.FetchNext()
		if err != nil {
			return err
		}
		if t == nil {
			break
		}
		rows = append(rows, t)
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		less, err := o.less(rows[i], rows[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}

	o.sorted = rows
	o.pos = 0
	return nil
}

// less compares two rows by the key list in order.
func (o *OrderBy) less(a, b *tuple.Tuple) (bool, error) {
	for _, key := range o.keys {
		av, err := key.Expr.Evaluate(o.ctx, a)
		if err != nil {
			return false, err
		}
		bv, err := key.Expr.Evaluate(o.ctx, b)
		if err != nil {
			return false, err
		}

		cmp, err := compareForSort(av, bv)
		if err != nil {
			return false, err
		}
		if cmp == 0 {
			continue
		}
		if key.Desc {
			return cmp > 0, nil
		}
		return cmp < 0, nil
	}
	return false, nil
}

// compareForSort is a total order over values: NULL sorts less than
// everything and equal to itself.
func compareForSort(a, b types.Field) (int, error) {
	aNull, bNull := types.IsNull(a), types.IsNull(b)
	switch {
	case aNull && bNull:
		return 0, nil
	case aNull:
		return -1, nil
	case bNull:
		return 1, nil
	}

	eq, err := a.Compare(primitives.Equals, b)
	if err != nil {
		return 0, err
	}
	if eq {
		return 0, nil
	}

	less, err := a.Compare(primitives.LessThan, b)
	if err != nil {
		return 0, err
	}
	if less {
		return -1, nil
	}
	return 1, nil
}

func (o *OrderBy) readNext() (*tuple.Tuple, error) {
	if o.pos >= len(o.sorted) {
		return nil, nil
	}
	t := o.sorted[o.pos]
	o.pos++
	return t, nil
}

func (o *OrderBy) Rewind() error {
	o.pos = 0
	return o.UnaryOperator.Rewind()
}

func (o *OrderBy) Close() error {
	o.sorted = nil
	return o.UnaryOperator.Close()
}

// Keys exposes the sort keys for EXPLAIN.
func (o *OrderBy) Keys() []binder.OrderKey {
	return o.keys
}
