package iterator

import (
	"fmt"

	"minidb/pkg/tuple"
)

// UnaryOperator is the base for operators with a single child. It wires
// BaseIterator's caching to child lifecycle management so that Filter,
// Project, Sort and friends only implement their readNext logic.
type UnaryOperator struct {
	base  *BaseIterator
	child DbIterator
}

// NewUnaryOperator creates a unary operator base with the given child
// and read function.
func NewUnaryOperator(child DbIterator, readNextFunc ReadNextFunc) (*UnaryOperator, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}

	u := &UnaryOperator{child: child}
	u.base = NewBaseIterator(readNextFunc)
	return u, nil
}

// FetchNext retrieves the next tuple from the child operator, returning
// nil at exhaustion. It handles the HasNext/Next ceremony internally.
func (u *UnaryOperator) FetchNext() (*tuple.Tuple, error) {
	hasNext, err := u.child.HasNext()
	if err != nil {
		return nil, fmt.Errorf("error checking if child has next: %w", err)
	}
	if !hasNext {
		return nil, nil
	}

	childTuple, err := u.child.Next()
	if err != nil {
		return nil, fmt.Errorf("error getting next tuple from child: %w", err)
	}
	return childTuple, nil
}

// Open opens the child operator and marks this operator ready.
func (u *UnaryOperator) Open() error {
	if err := u.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}
	u.base.MarkOpened()
	return nil
}

// Close closes the child operator and releases resources.
func (u *UnaryOperator) Close() error {
	if u.child != nil {
		if err := u.child.Close(); err != nil {
			return err
		}
	}
	return u.base.Close()
}

// Rewind resets the child operator and the cached state.
func (u *UnaryOperator) Rewind() error {
	if err := u.child.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind child operator: %w", err)
	}
	u.base.Rewind()
	return nil
}

// HasNext delegates to the base iterator.
func (u *UnaryOperator) HasNext() (bool, error) {
	return u.base.HasNext()
}

// Next delegates to the base iterator.
func (u *UnaryOperator) Next() (*tuple.Tuple, error) {
	return u.base.Next()
}

// GetTupleDesc forwards the child's schema; operators that reshape rows
// override this.
func (u *UnaryOperator) GetTupleDesc() *tuple.TupleDescription {
	return u.child.GetTupleDesc()
}

// Child exposes the wrapped child operator for tree inspection.
func (u *UnaryOperator) Child() DbIterator {
	return u.child
}
