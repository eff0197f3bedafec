package types

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
	"strconv"

	"minidb/pkg/primitives"
)

// FloatField represents a 32-bit floating point value.
type FloatField struct {
	Value float32
}

func NewFloatField(value float32) *FloatField {
	return &FloatField{Value: value}
}

func (f *FloatField) Serialize(w io.Writer) error {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, math.Float32bits(f.Value))
	_, err := w.Write(bytes)
	return err
}

func (f *FloatField) Compare(op primitives.Predicate, other Field) (bool, error) {
	switch o := other.(type) {
	case *FloatField:
		return compareOrdered(f.Value, o.Value, op)
	case *IntField:
		return compareOrdered(f.Value, float32(o.Value), op)
	case *NullField:
		return false, nil
	default:
		return false, nil
	}
}

func (f *FloatField) Type() Type {
	return FloatType
}

// String trims trailing zeros the way the shell displays floats.
func (f *FloatField) String() string {
	return strconv.FormatFloat(float64(f.Value), 'g', -1, 32)
}

func (f *FloatField) Equals(other Field) bool {
	otherField, ok := other.(*FloatField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *FloatField) Hash() (primitives.HashCode, error) {
	h := fnv.New32a()
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, math.Float32bits(f.Value))
	_, _ = h.Write(bytes)
	return primitives.HashCode(h.Sum32()), nil
}

func (f *FloatField) Length() uint32 {
	return 4
}
