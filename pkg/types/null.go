package types

import (
	"io"

	"minidb/pkg/primitives"
)

// NullField represents the SQL NULL value. Every comparison against it
// is false; only the IS NULL / IS NOT NULL operators observe it, and
// they are decided by Compare in compare.go before reaching here.
type NullField struct{}

var sharedNull = &NullField{}

// NewNullField returns the shared NULL value.
func NewNullField() *NullField {
	return sharedNull
}

func (f *NullField) Serialize(io.Writer) error {
	return nil
}

func (f *NullField) Compare(primitives.Predicate, Field) (bool, error) {
	return false, nil
}

func (f *NullField) Type() Type {
	return NullType
}

func (f *NullField) String() string {
	return "NULL"
}

// Equals treats NULL as identical to NULL. Grouping relies on this;
// SQL comparison does not reach Equals.
func (f *NullField) Equals(other Field) bool {
	return IsNull(other)
}

func (f *NullField) Hash() (primitives.HashCode, error) {
	return 0, nil
}

func (f *NullField) Length() uint32 {
	return 0
}
