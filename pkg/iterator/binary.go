package iterator

import (
	"errors"
	"fmt"

	"minidb/pkg/tuple"
)

// BinaryOperator is the base for operators with two children, used by
// the join operator. It mirrors UnaryOperator for a left/right pair.
type BinaryOperator struct {
	base       *BaseIterator
	leftChild  DbIterator
	rightChild DbIterator
}

// NewBinaryOperator creates a binary operator base with the given
// children and read function.
func NewBinaryOperator(leftChild, rightChild DbIterator, readNextFunc ReadNextFunc) (*BinaryOperator, error) {
	if leftChild == nil {
		return nil, fmt.Errorf("left child operator cannot be nil")
	}
	if rightChild == nil {
		return nil, fmt.Errorf("right child operator cannot be nil")
	}

	b := &BinaryOperator{
		leftChild:  leftChild,
		rightChild: rightChild,
	}
	b.base = NewBaseIterator(readNextFunc)
	return b, nil
}

// FetchLeft retrieves the next tuple from the left child, nil at EOF.
func (b *BinaryOperator) FetchLeft() (*tuple.Tuple, error) {
	t, err := b.fetchChild(b.leftChild)
	if err != nil {
		return nil, fmt.Errorf("error fetching left child tuple: %w", err)
	}
	return t, nil
}

// FetchRight retrieves the next tuple from the right child, nil at EOF.
func (b *BinaryOperator) FetchRight() (*tuple.Tuple, error) {
	t, err := b.fetchChild(b.rightChild)
	if err != nil {
		return nil, fmt.Errorf("error fetching right child tuple: %w", err)
	}
	return t, nil
}

func (b *BinaryOperator) fetchChild(child DbIterator) (*tuple.Tuple, error) {
	hasNext, err := child.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return child.Next()
}

// RewindRight rewinds only the right child; nested-loop join restarts
// the inner side once per outer row.
func (b *BinaryOperator) RewindRight() error {
	return b.rightChild.Rewind()
}

// Open opens both children and marks this operator ready.
func (b *BinaryOperator) Open() error {
	if err := b.leftChild.Open(); err != nil {
		return fmt.Errorf("failed to open left child: %w", err)
	}
	if err := b.rightChild.Open(); err != nil {
		return fmt.Errorf("failed to open right child: %w", err)
	}
	b.base.MarkOpened()
	return nil
}

// Close closes both children, collecting errors from each.
func (b *BinaryOperator) Close() error {
	var errs []error

	if err := b.leftChild.Close(); err != nil {
		errs = append(errs, fmt.Errorf("left child close: %w", err))
	}
	if err := b.rightChild.Close(); err != nil {
		errs = append(errs, fmt.Errorf("right child close: %w", err))
	}
	if err := b.base.Close(); err != nil {
		errs = append(errs, fmt.Errorf("base iterator close: %w", err))
	}
	return errors.Join(errs...)
}

// Rewind resets both children and the cached state.
func (b *BinaryOperator) Rewind() error {
	if err := b.leftChild.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind left child: %w", err)
	}
	if err := b.rightChild.Rewind(); err != nil {
		return fmt.Errorf("failed to rewind right child: %w", err)
	}
	b.base.Rewind()
	return nil
}

// HasNext delegates to the base iterator.
func (b *BinaryOperator) HasNext() (bool, error) {
	return b.base.HasNext()
}

// Next delegates to the base iterator.
func (b *BinaryOperator) Next() (*tuple.Tuple, error) {
	return b.base.Next()
}

// LeftChild exposes the left child for tree inspection.
func (b *BinaryOperator) LeftChild() DbIterator {
	return b.leftChild
}

// RightChild exposes the right child for tree inspection.
func (b *BinaryOperator) RightChild() DbIterator {
	return b.rightChild
}
