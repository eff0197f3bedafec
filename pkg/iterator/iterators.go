package iterator

import (
	"fmt"

	"minidb/pkg/tuple"
)

// ReadNextFunc produces the next tuple from an operator's underlying
// source, or nil when the source is exhausted.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator supplies the caching HasNext/Next protocol shared by all
// operators. An operator embeds it and provides only its readNext logic.
type BaseIterator struct {
	nextTuple    *tuple.Tuple // Cached next tuple for lookahead
	opened       bool
	exhausted    bool
	readNextFunc ReadNextFunc
}

// NewBaseIterator creates a base iterator around the given readNext
// function. The iterator starts closed and must be opened before use.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// MarkOpened flags the iterator as open. Operators call this from their
// Open after their own setup succeeded.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.exhausted = false
	it.nextTuple = nil
}

// HasNext checks if a next tuple is available without consuming it.
// Exhaustion is sticky: after the source runs dry, HasNext stays false.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, fmt.Errorf("iterator not opened")
	}
	if it.exhausted {
		return false, nil
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
		if it.nextTuple == nil {
			it.exhausted = true
		}
	}
	return it.nextTuple != nil, nil
}

// Next returns the next tuple and advances past it.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, fmt.Errorf("no more tuples")
	}

	t := it.nextTuple
	it.nextTuple = nil
	return t, nil
}

// Rewind clears the cached state so iteration restarts. The operator is
// responsible for rewinding its own source first.
func (it *BaseIterator) Rewind() {
	it.nextTuple = nil
	it.exhausted = false
}

// Close marks the iterator closed and drops cached state. Safe to call
// repeatedly.
func (it *BaseIterator) Close() error {
	it.opened = false
	it.nextTuple = nil
	it.exhausted = false
	return nil
}
