package iterator

import "minidb/pkg/tuple"

// Iterate drives an iterator with the common HasNext/Next pattern.
// processFunc controls the loop: return (false, nil) to stop early,
// (true, nil) to continue, or an error to abort.
func Iterate(iter TupleIterator, processFunc func(*tuple.Tuple) (continueLooping bool, err error)) error {
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}

		tup, err := iter.Next()
		if err != nil {
			return err
		}
		if tup == nil {
			continue
		}

		shouldContinue, err := processFunc(tup)
		if err != nil {
			return err
		}
		if !shouldContinue {
			break
		}
	}
	return nil
}

// ForEach applies a processing function to each tuple in the iterator,
// stopping at the first error.
func ForEach(iter TupleIterator, processFunc func(*tuple.Tuple) error) error {
	return Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		err := processFunc(tup)
		return true, err
	})
}

// Collect materializes the remaining tuples of an iterator.
func Collect(iter TupleIterator) ([]*tuple.Tuple, error) {
	var results []*tuple.Tuple
	err := ForEach(iter, func(tup *tuple.Tuple) error {
		results = append(results, tup)
		return nil
	})
	return results, err
}

// SliceIterator adapts a materialized tuple slice to the DbIterator
// contract.
type SliceIterator struct {
	base   *BaseIterator
	tuples []*tuple.Tuple
	pos    int
	td     *tuple.TupleDescription
}

// NewSliceIterator creates an iterator over the given tuples with the
// given schema.
func NewSliceIterator(tuples []*tuple.Tuple, td *tuple.TupleDescription) *SliceIterator {
	s := &SliceIterator{tuples: tuples, td: td}
	s.base = NewBaseIterator(s.readNext)
	return s
}

func (s *SliceIterator) readNext() (*tuple.Tuple, error) {
	if s.pos >= len(s.tuples) {
		return nil, nil
	}
	t := s.tuples[s.pos]
	s.pos++
	return t, nil
}

func (s *SliceIterator) Open() error {
	s.pos = 0
	s.base.MarkOpened()
	return nil
}

func (s *SliceIterator) Rewind() error {
	s.pos = 0
	s.base.Rewind()
	return nil
}

func (s *SliceIterator) Close() error {
	return s.base.Close()
}

func (s *SliceIterator) HasNext() (bool, error) {
	return s.base.HasNext()
}

func (s *SliceIterator) Next() (*tuple.Tuple, error) {
	return s.base.Next()
}

func (s *SliceIterator) GetTupleDesc() *tuple.TupleDescription {
	return s.td
}
