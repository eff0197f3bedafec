package types

import (
	"io"

	"minidb/pkg/primitives"
)

// Field is the runtime representation of a single typed value.
// Implementations exist for every Type; all of them are immutable.
type Field interface {
	// Serialize writes the binary encoding of the value to w.
	Serialize(w io.Writer) error

	// Compare evaluates `this op other` and reports whether the
	// comparison holds. Cross-type comparisons follow the coercion
	// rules: INT and FLOAT compare numerically, CHARS and DATES
	// compare when the string parses as a date, and every comparison
	// involving a NULL operand is false.
	Compare(op primitives.Predicate, other Field) (bool, error)

	// Type returns the runtime type tag of the value.
	Type() Type

	// String returns the display form of the value.
	String() string

	// Equals reports raw value identity. Unlike Compare, NULL equals
	// NULL here; grouping and duplicate detection rely on that.
	Equals(other Field) bool

	// Hash returns a stable hash of the value for group keys.
	Hash() (primitives.HashCode, error)

	// Length returns the serialized size of the value in bytes.
	Length() uint32
}

// IsNull reports whether f is the NULL value (or absent entirely).
func IsNull(f Field) bool {
	if f == nil {
		return true
	}
	return f.Type() == NullType
}
