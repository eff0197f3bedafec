package tuple

import (
	"testing"

	"minidb/pkg/types"
)

func mustCreateDesc(t *testing.T, fieldTypes []types.Type, fieldNames, tableNames []string) *TupleDescription {
	t.Helper()
	td, err := NewTupleDesc(fieldTypes, fieldNames, tableNames)
	if err != nil {
		t.Fatalf("failed to create tuple description: %v", err)
	}
	return td
}

func TestNewTupleDescValidation(t *testing.T) {
	if _, err := NewTupleDesc(nil, nil, nil); err == nil {
		t.Errorf("expected error for empty field types")
	}
	if _, err := NewTupleDesc([]types.Type{types.IntType}, []string{"a", "b"}, nil); err == nil {
		t.Errorf("expected error for mismatched name count")
	}
}

func TestSetGetField(t *testing.T) {
	td := mustCreateDesc(t, []types.Type{types.IntType, types.StringType}, []string{"a", "b"}, nil)
	tup := NewTuple(td)

	if err := tup.SetField(0, types.NewIntField(7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tup.SetField(1, types.NewStringField("x", 8)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tup.SetField(0, types.NewStringField("wrong", 8)); err == nil {
		t.Errorf("expected type mismatch error")
	}
	if err := tup.SetField(5, types.NewIntField(1)); err == nil {
		t.Errorf("expected out of bounds error")
	}

	f, err := tup.GetField(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.String() != "7" {
		t.Errorf("expected 7, got %s", f)
	}
}

func TestNullAcceptedForAnyColumn(t *testing.T) {
	td := mustCreateDesc(t, []types.Type{types.IntType}, []string{"a"}, nil)
	tup := NewTuple(td)

	if err := tup.SetField(0, types.NewNullField()); err != nil {
		t.Fatalf("NULL should be settable on an INT column: %v", err)
	}

	f, _ := tup.GetField(0)
	if !types.IsNull(f) {
		t.Errorf("expected NULL back")
	}
}

func TestUnsetFieldReadsAsNull(t *testing.T) {
	td := mustCreateDesc(t, []types.Type{types.IntType}, []string{"a"}, nil)
	tup := NewTuple(td)

	f, err := tup.GetField(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !types.IsNull(f) {
		t.Errorf("unset field should read as NULL")
	}
}

func TestFindFieldIndex(t *testing.T) {
	td := mustCreateDesc(t,
		[]types.Type{types.IntType, types.IntType, types.StringType},
		[]string{"id", "id", "name"},
		[]string{"u", "v", "u"})

	tests := []struct {
		name      string
		table     string
		field     string
		expectIdx int
		expectErr bool
	}{
		{"qualified left", "u", "id", 0, false},
		{"qualified right", "v", "id", 1, false},
		{"unqualified unique", "", "name", 2, false},
		{"unqualified ambiguous", "", "id", -1, true},
		{"missing column", "u", "missing", -1, true},
		{"case insensitive", "U", "ID", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := td.FindFieldIndex(tt.table, tt.field)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if idx != tt.expectIdx {
				t.Errorf("expected index %d, got %d", tt.expectIdx, idx)
			}
		})
	}
}

func TestCombineTuples(t *testing.T) {
	left := NewTuple(mustCreateDesc(t, []types.Type{types.IntType}, []string{"a"}, []string{"l"}))
	right := NewTuple(mustCreateDesc(t, []types.Type{types.StringType}, []string{"b"}, []string{"r"}))
	_ = left.SetField(0, types.NewIntField(1))
	_ = right.SetField(0, types.NewStringField("x", 4))

	joined, err := CombineTuples(left, right)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if joined.TupleDesc.NumFields() != 2 {
		t.Fatalf("expected 2 fields, got %d", joined.TupleDesc.NumFields())
	}
	if f, _ := joined.FindField("l", "a"); f.String() != "1" {
		t.Errorf("expected left field 1, got %s", f)
	}
	if f, _ := joined.FindField("r", "b"); f.String() != "x" {
		t.Errorf("expected right field x, got %s", f)
	}
}

func TestRecordIDOrdering(t *testing.T) {
	a := NewRecordID(0, 5)
	b := NewRecordID(1, 0)
	c := NewRecordID(1, 3)

	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Errorf("record id ordering is wrong")
	}
	if !a.Equals(NewRecordID(0, 5)) {
		t.Errorf("expected equal record ids")
	}
}
