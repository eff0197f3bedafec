package types

import (
	"hash/fnv"
	"io"

	"minidb/pkg/primitives"
)

// StringField represents a bounded CHARS value. MaxLength is the
// declared column width; the stored value never exceeds it.
type StringField struct {
	Value     string
	MaxLength uint32
}

func NewStringField(value string, maxLength uint32) *StringField {
	if maxLength > 0 && uint32(len(value)) > maxLength {
		value = value[:maxLength]
	}
	return &StringField{Value: value, MaxLength: maxLength}
}

func (f *StringField) Serialize(w io.Writer) error {
	_, err := w.Write([]byte(f.Value))
	return err
}

func (f *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	switch op {
	case primitives.Like:
		return f.compareLike(other, false)
	case primitives.NotLike:
		return f.compareLike(other, true)
	}

	switch o := other.(type) {
	case *StringField:
		return compareOrdered(f.Value, o.Value, op)
	case *TextField:
		return compareOrdered(f.Value, o.Value, op)
	case *DateField:
		// CHARS against DATES compares as dates only when the string
		// is itself a valid date literal.
		d, err := ParseDate(f.Value)
		if err != nil {
			return false, nil
		}
		return compareOrdered(d.ordinal(), o.ordinal(), op)
	case *NullField:
		return false, nil
	default:
		return false, nil
	}
}

func (f *StringField) compareLike(other Field, negate bool) (bool, error) {
	pattern, ok := other.(*StringField)
	if !ok {
		return false, nil
	}
	matched, err := MatchLike(f.Value, pattern.Value)
	if err != nil {
		return false, err
	}
	if negate {
		return !matched, nil
	}
	return matched, nil
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	otherField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *StringField) Hash() (primitives.HashCode, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.Value))
	return primitives.HashCode(h.Sum32()), nil
}

func (f *StringField) Length() uint32 {
	return uint32(len(f.Value))
}
