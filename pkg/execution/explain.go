package execution

import (
	"fmt"
	"strings"

	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// ExplainOperator renders an operator tree without executing it and
// emits one row of text per tree line.
type ExplainOperator struct {
	base      *iterator.BaseIterator
	root      iterator.DbIterator
	tupleDesc *tuple.TupleDescription
	lines     []string
	pos       int
}

func NewExplain(root iterator.DbIterator) (*ExplainOperator, error) {
	if root == nil {
		return nil, fmt.Errorf("explain requires an operator tree")
	}

	td, err := tuple.NewTupleDesc([]types.Type{types.StringType}, []string{"QUERY PLAN"}, nil)
	if err != nil {
		return nil, err
	}

	op := &ExplainOperator{root: root, tupleDesc: td}
	op.base = iterator.NewBaseIterator(op.readNext)
	return op, nil
}

func (op *ExplainOperator) readNext() (*tuple.Tuple, error) {
	if op.pos >= len(op.lines) {
		return nil, nil
	}

	out := tuple.NewTuple(op.tupleDesc)
	if err := out.SetField(0, types.NewStringField(op.lines[op.pos], 0)); err != nil {
		return nil, err
	}
	op.pos++
	return out, nil
}

func (op *ExplainOperator) Open() error {
	op.lines = op.lines[:0]
	op.describe(op.root, 0)
	op.pos = 0
	op.base.MarkOpened()
	return nil
}

// describe renders one node and recurses into its children.
func (op *ExplainOperator) describe(node iterator.DbIterator, depth int) {
	indent := strings.Repeat("  ", depth)
	op.lines = append(op.lines, indent+"-> "+describeNode(node))

	for _, child := range childrenOf(node) {
		op.describe(child, depth+1)
	}
}

func describeNode(node iterator.DbIterator) string {
	switch n := node.(type) {
	case *SeqScan:
		label := fmt.Sprintf("SeqScan(%s", n.TableName())
		if n.Alias() != n.TableName() {
			label += " AS " + n.Alias()
		}
		if n.HasPredicate() {
			label += ", filtered"
		}
		return label + ")"
	case *IndexScan:
		return fmt.Sprintf("IndexScan(%s via %s)", n.TableName(), n.IndexName())
	case *FilterOperator:
		return fmt.Sprintf("Filter(%d conditions)", len(n.filter.Units))
	case *Project:
		names := make([]string, len(n.Projections()))
		for i, proj := range n.Projections() {
			names[i] = proj.Name
		}
		return fmt.Sprintf("Project(%s)", strings.Join(names, ", "))
	case *NestedLoopJoin:
		if n.HasOnFilter() {
			return "NestedLoopJoin(inner, on filter)"
		}
		return "NestedLoopJoin(cross)"
	case *GroupAggregate:
		return fmt.Sprintf("GroupAggregate(%d keys, %d aggregates)", len(n.groupKeys), len(n.aggs))
	case *OrderBy:
		parts := make([]string, len(n.Keys()))
		for i, key := range n.Keys() {
			dir := "ASC"
			if key.Desc {
				dir = "DESC"
			}
			parts[i] = key.Expr.String() + " " + dir
		}
		return fmt.Sprintf("OrderBy(%s)", strings.Join(parts, ", "))
	case *InsertOperator:
		return fmt.Sprintf("Insert(%s, %d rows)", n.TableName(), n.RowCount())
	case *UpdateOperator:
		return fmt.Sprintf("Update(%s)", n.TableName())
	case *DeleteOperator:
		return fmt.Sprintf("Delete(%s)", n.TableName())
	case *CalcOperator:
		return "Calc"
	default:
		return fmt.Sprintf("%T", node)
	}
}

func childrenOf(node iterator.DbIterator) []iterator.DbIterator {
	switch n := node.(type) {
	case *FilterOperator:
		return []iterator.DbIterator{n.Child()}
	case *Project:
		return []iterator.DbIterator{n.Child()}
	case *OrderBy:
		return []iterator.DbIterator{n.Child()}
	case *NestedLoopJoin:
		return []iterator.DbIterator{n.LeftChild(), n.RightChild()}
	case *GroupAggregate:
		return []iterator.DbIterator{n.child}
	case *UpdateOperator:
		return []iterator.DbIterator{n.Child()}
	case *DeleteOperator:
		return []iterator.DbIterator{n.Child()}
	default:
		return nil
	}
}

func (op *ExplainOperator) Rewind() error {
	op.pos = 0
	op.base.Rewind()
	return nil
}

func (op *ExplainOperator) Close() error {
	return op.base.Close()
}

func (op *ExplainOperator) HasNext() (bool, error) {
	return op.base.HasNext()
}

func (op *ExplainOperator) Next() (*tuple.Tuple, error) {
	return op.base.Next()
}

func (op *ExplainOperator) GetTupleDesc() *tuple.TupleDescription {
	return op.tupleDesc
}
