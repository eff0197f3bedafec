package execution

import (
	"fmt"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/storage/heap"
	"minidb/pkg/tuple"
)

// SeqScan reads every live record of a table in storage order. The
// planner may push a simple predicate into the scan so non-matching
// rows never leave the leaf.
type SeqScan struct {
	base      *iterator.BaseIterator
	table     *heap.Table
	alias     string
	tupleDesc *tuple.TupleDescription
	scanner   *heap.Scanner
	ctx       *expression.EvalContext
	predicate *binder.FilterStmt // optional pushed-down filter
}

// NewSeqScan creates a table scan. alias is the name the table goes by
// in the query; output columns are qualified with it.
func NewSeqScan(ctx *expression.EvalContext, table *heap.Table, alias string, predicate *binder.FilterStmt) (*SeqScan, error) {
	if table == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if alias == "" {
		alias = table.Name()
	}

	ss := &SeqScan{
		table:     table,
		alias:     alias,
		tupleDesc: table.Schema().AliasedTupleDesc(alias),
		ctx:       ctx,
		predicate: predicate,
	}
	ss.base = iterator.NewBaseIterator(ss.readNext)
	return ss, nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	for {
		hasNext, err := ss.scanner.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			return nil, nil
		}

		t, err := ss.scanner.Next()
		if err != nil {
			return nil, err
		}

		out := ss.relabel(t)
		if ss.predicate != nil {
			passes, err := EvaluateFilter(ss.ctx, ss.predicate, out)
			if err != nil {
				return nil, err
			}
			if !passes {
				continue
			}
		}
		return out, nil
	}
}

// relabel rewraps a stored tuple under the scan's alias-qualified
// schema without copying fields when the alias is the table name.
func (ss *SeqScan) relabel(t *tuple.Tuple) *tuple.Tuple {
	if ss.alias == ss.table.Name() {
		return t
	}
	out := t.Clone()
	out.TupleDesc = ss.tupleDesc
	return out
}

func (ss *SeqScan) Open() error {
	ss.scanner = heap.NewScanner(ss.ctx.Tx, ss.table)
	if err := ss.scanner.Open(); err != nil {
		return err
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) Rewind() error {
	if err := ss.scanner.Rewind(); err != nil {
		return err
	}
	ss.base.Rewind()
	return nil
}

func (ss *SeqScan) Close() error {
	if ss.scanner != nil {
		if err := ss.scanner.Close(); err != nil {
			return err
		}
	}
	return ss.base.Close()
}

func (ss *SeqScan) HasNext() (bool, error) {
	return ss.base.HasNext()
}

func (ss *SeqScan) Next() (*tuple.Tuple, error) {
	return ss.base.Next()
}

func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.tupleDesc
}

// TableName exposes the scanned table's name for EXPLAIN output.
func (ss *SeqScan) TableName() string {
	return ss.table.Name()
}

// Alias exposes the scan's alias for EXPLAIN output.
func (ss *SeqScan) Alias() string {
	return ss.alias
}

// HasPredicate reports whether a predicate was pushed into the scan.
func (ss *SeqScan) HasPredicate() bool {
	return ss.predicate != nil
}
