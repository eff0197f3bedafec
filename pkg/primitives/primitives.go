package primitives

import "fmt"

// TransactionID uniquely identifies a transaction for its lifetime.
type TransactionID uint64

// HashCode is the result type of field hashing, used for group keys
// and hash-based lookups.
type HashCode uint32

// IsValid checks if the TransactionID is a valid non-zero identifier.
func (t TransactionID) IsValid() bool {
	return t != 0
}

// String returns a string representation of the TransactionID.
func (t TransactionID) String() string {
	return fmt.Sprintf("tx-%d", uint64(t))
}
