package iterator

import "minidb/pkg/tuple"

// TupleIterator captures the minimal iteration methods shared by every
// tuple source in the engine.
type TupleIterator interface {
	// HasNext reports whether another tuple is available. A false
	// result is sticky: once the source is exhausted, every further
	// call keeps returning false.
	HasNext() (bool, error)

	// Next returns the next tuple and advances the iterator.
	Next() (*tuple.Tuple, error)
}

// DbIterator is the contract every physical operator implements. A
// parent drives its children through this interface only; the pull
// discipline is: Open once, HasNext/Next until exhaustion, Close.
type DbIterator interface {
	TupleIterator

	// Open initializes the iterator and prepares it for tuple
	// retrieval. It must be called before HasNext/Next.
	Open() error

	// Rewind resets the iterator to the beginning of its sequence.
	// The iterator must be open.
	Rewind() error

	// Close releases resources and marks the iterator closed. Close
	// is idempotent and must be callable after any number of Next
	// calls, including zero.
	Close() error

	// GetTupleDesc returns the schema of the tuples this iterator
	// produces. Callable regardless of iterator state.
	GetTupleDesc() *tuple.TupleDescription
}
