package heap

import (
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/iterator"
	"minidb/pkg/tuple"
)

// Scanner iterates the live records of a table in storage order,
// taking a shared lock on each record it returns. It implements the
// record-scanner half of the storage contract the executor consumes.
type Scanner struct {
	base  *iterator.BaseIterator
	table *Table
	tx    *transaction.TransactionContext
	slot  int
}

// NewScanner creates a scanner over the table's live records.
func NewScanner(tx *transaction.TransactionContext, table *Table) *Scanner {
	s := &Scanner{table: table, tx: tx}
	s.base = iterator.NewBaseIterator(s.readNext)
	return s
}

func (s *Scanner) readNext() (*tuple.Tuple, error) {
	s.table.mu.RLock()
	defer s.table.mu.RUnlock()

	for s.slot < len(s.table.records) {
		rec := s.table.records[s.slot]
		rid := slotToRID(s.slot)
		s.slot++
		if !rec.live {
			continue
		}
		if err := s.tx.AcquireLock(s.table.Name(), *rid, transaction.SharedLock); err != nil {
			return nil, err
		}
		return rec.tup, nil
	}
	return nil, nil
}

func (s *Scanner) Open() error {
	s.slot = 0
	s.base.MarkOpened()
	return nil
}

func (s *Scanner) Rewind() error {
	s.slot = 0
	s.base.Rewind()
	return nil
}

func (s *Scanner) Close() error {
	return s.base.Close()
}

func (s *Scanner) HasNext() (bool, error) {
	return s.base.HasNext()
}

func (s *Scanner) Next() (*tuple.Tuple, error) {
	return s.base.Next()
}

func (s *Scanner) GetTupleDesc() *tuple.TupleDescription {
	return s.table.TupleDesc()
}
