package types

import (
	"fmt"
	"strconv"
)

// ParseLiteral converts a raw literal string into a Field of the target
// type, validating bounds and format.
func ParseLiteral(raw string, target Type, maxLength uint32) (Field, error) {
	switch target {
	case IntType:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q", raw)
		}
		return NewIntField(int32(v)), nil
	case FloatType:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q", raw)
		}
		return NewFloatField(float32(v)), nil
	case StringType:
		return NewStringField(raw, maxLength), nil
	case DateType:
		return ParseDate(raw)
	case TextType:
		return NewTextField(raw), nil
	case NullType:
		return NewNullField(), nil
	default:
		return nil, fmt.Errorf("cannot parse literal of type %s", target)
	}
}

// Coerce converts a field to the target column type when a legal
// conversion exists: INT↔FLOAT numerically, CHARS→DATES by parsing,
// CHARS→TEXTS directly. NULL passes through untouched.
func Coerce(f Field, target Type, maxLength uint32) (Field, error) {
	if IsNull(f) {
		return NewNullField(), nil
	}
	if f.Type() == target {
		if s, ok := f.(*StringField); ok && maxLength > 0 && s.MaxLength != maxLength {
			return NewStringField(s.Value, maxLength), nil
		}
		return f, nil
	}

	switch target {
	case IntType:
		if fl, ok := f.(*FloatField); ok {
			return NewIntField(int32(fl.Value)), nil
		}
	case FloatType:
		if i, ok := f.(*IntField); ok {
			return NewFloatField(float32(i.Value)), nil
		}
	case DateType:
		if s, ok := f.(*StringField); ok {
			return ParseDate(s.Value)
		}
	case TextType:
		if s, ok := f.(*StringField); ok {
			return NewTextField(s.Value), nil
		}
	case StringType:
		if t, ok := f.(*TextField); ok {
			return NewStringField(t.Value, maxLength), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %s to %s", f.Type(), target)
}
