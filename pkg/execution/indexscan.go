package execution

import (
	"fmt"
	"sort"

	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/storage/heap"
	"minidb/pkg/storage/index"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// IndexScan reads the records whose indexed column equals a key,
// dereferencing record IDs in ascending RecordID order so record locks
// are taken in that order. The planner selects it when
// a WHERE clause carries an equality between an indexed column and a
// constant.
type IndexScan struct {
	base      *iterator.BaseIterator
	table     *heap.Table
	idx       *index.Index
	key       types.Field
	alias     string
	tupleDesc *tuple.TupleDescription
	ctx       *expression.EvalContext
	rids      []tuple.RecordID
	pos       int
}

func NewIndexScan(ctx *expression.EvalContext, table *heap.Table, idx *index.Index, key types.Field, alias string) (*IndexScan, error) {
	if table == nil || idx == nil {
		return nil, fmt.Errorf("table and index cannot be nil")
	}
	if alias == "" {
		alias = table.Name()
	}

	is := &IndexScan{
		table:     table,
		idx:       idx,
		key:       key,
		alias:     alias,
		tupleDesc: table.Schema().AliasedTupleDesc(alias),
		ctx:       ctx,
	}
	is.base = iterator.NewBaseIterator(is.readNext)
	return is, nil
}

func (is *IndexScan) readNext() (*tuple.Tuple, error) {
	for is.pos < len(is.rids) {
		rid := is.rids[is.pos]
		is.pos++

		t, err := is.table.FetchRecord(is.ctx.Tx, &rid)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		if is.alias != is.table.Name() {
			out := t.Clone()
			out.TupleDesc = is.tupleDesc
			return out, nil
		}
		return t, nil
	}
	return nil, nil
}

func (is *IndexScan) Open() error {
	is.rids = is.idx.ScanEqual(is.key)
	sort.Slice(is.rids, func(i, j int) bool {
		return is.rids[i].Less(&is.rids[j])
	})
	is.pos = 0
	is.base.MarkOpened()
	return nil
}

func (is *IndexScan) Rewind() error {
	is.pos = 0
	is.base.Rewind()
	return nil
}

func (is *IndexScan) Close() error {
	is.rids = nil
	return is.base.Close()
}

func (is *IndexScan) HasNext() (bool, error) {
	return is.base.HasNext()
}

func (is *IndexScan) Next() (*tuple.Tuple, error) {
	return is.base.Next()
}

func (is *IndexScan) GetTupleDesc() *tuple.TupleDescription {
	return is.tupleDesc
}

// IndexName exposes the chosen index for EXPLAIN output.
func (is *IndexScan) IndexName() string {
	return is.idx.Name
}

// TableName exposes the scanned table's name for EXPLAIN output.
func (is *IndexScan) TableName() string {
	return is.table.Name()
}
