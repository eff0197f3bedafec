package tuple

import (
	"fmt"
	"strings"

	"minidb/pkg/types"
)

// Tuple represents a row of data flowing through the operator tree.
type Tuple struct {
	TupleDesc *TupleDescription // Schema of this tuple
	fields    []types.Field     // The actual field values
	RecordID  *RecordID         // Where this tuple is stored (nil for computed rows)
}

// NewTuple creates a new tuple with the given schema.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField stores a value into the ith column. NULL is accepted for any
// column type; otherwise the value's type must match the schema.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	if !types.IsNull(field) {
		expectedType, _ := t.TupleDesc.TypeAtIndex(i)
		if field.Type() != expectedType {
			return fmt.Errorf("field type mismatch at index %d: expected %v, got %v",
				i, expectedType, field.Type())
		}
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith column.
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	f := t.fields[i]
	if f == nil {
		return types.NewNullField(), nil
	}
	return f, nil
}

// FindField resolves a qualified or bare column name and returns its value.
func (t *Tuple) FindField(tableName, fieldName string) (types.Field, error) {
	idx, err := t.TupleDesc.FindFieldIndex(tableName, fieldName)
	if err != nil {
		return nil, err
	}
	return t.GetField(idx)
}

// Clone returns a copy of the tuple sharing the same immutable fields.
func (t *Tuple) Clone() *Tuple {
	c := &Tuple{
		TupleDesc: t.TupleDesc,
		fields:    append([]types.Field(nil), t.fields...),
		RecordID:  t.RecordID,
	}
	return c
}

// CombineTuples concatenates two tuples into a joined row, left columns
// first. The result carries no RecordID.
func CombineTuples(left, right *Tuple) (*Tuple, error) {
	td, err := Combine(left.TupleDesc, right.TupleDesc)
	if err != nil {
		return nil, err
	}

	joined := NewTuple(td)
	n := left.TupleDesc.NumFields()
	for i := 0; i < n; i++ {
		f, err := left.GetField(i)
		if err != nil {
			return nil, err
		}
		if err := joined.SetField(i, f); err != nil {
			return nil, err
		}
	}
	for i := 0; i < right.TupleDesc.NumFields(); i++ {
		f, err := right.GetField(i)
		if err != nil {
			return nil, err
		}
		if err := joined.SetField(n+i, f); err != nil {
			return nil, err
		}
	}
	return joined, nil
}

// String returns a tab-separated representation of the tuple.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, field := range t.fields {
		if field != nil {
			parts[i] = field.String()
		} else {
			parts[i] = "NULL"
		}
	}
	return strings.Join(parts, "\t")
}
