package types

import (
	"testing"

	"minidb/pkg/primitives"
)

func TestCompareSameType(t *testing.T) {
	tests := []struct {
		name     string
		left     Field
		op       primitives.Predicate
		right    Field
		expected bool
	}{
		{"int equals", NewIntField(5), primitives.Equals, NewIntField(5), true},
		{"int not equal", NewIntField(5), primitives.NotEqual, NewIntField(6), true},
		{"int less", NewIntField(2), primitives.LessThan, NewIntField(3), true},
		{"int greater or equal", NewIntField(3), primitives.GreaterThanOrEqual, NewIntField(3), true},
		{"float less", NewFloatField(1.5), primitives.LessThan, NewFloatField(2.5), true},
		{"string equals", NewStringField("abc", 8), primitives.Equals, NewStringField("abc", 8), true},
		{"string order", NewStringField("abc", 8), primitives.LessThan, NewStringField("abd", 8), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compare(tt.left, tt.op, tt.right)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestCompareCrossType(t *testing.T) {
	tests := []struct {
		name     string
		left     Field
		op       primitives.Predicate
		right    Field
		expected bool
	}{
		{"int vs float coerce", NewIntField(3), primitives.LessThan, NewFloatField(3.5), true},
		{"float vs int coerce", NewFloatField(2.5), primitives.GreaterThan, NewIntField(2), true},
		{"chars vs date literal", NewStringField("2023-06-15", 0), primitives.Equals, mustDate(t, "2023-06-15"), true},
		{"date vs chars literal", mustDate(t, "2023-06-15"), primitives.LessThan, NewStringField("2023-07-01", 0), true},
		{"date vs non-date chars is false", mustDate(t, "2023-06-15"), primitives.Equals, NewStringField("hello", 0), false},
		{"int vs chars is false", NewIntField(1), primitives.Equals, NewStringField("1", 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compare(tt.left, tt.op, tt.right)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestCompareNullSemantics(t *testing.T) {
	null := NewNullField()

	tests := []struct {
		name     string
		left     Field
		op       primitives.Predicate
		right    Field
		expected bool
	}{
		{"null equals value", null, primitives.Equals, NewIntField(1), false},
		{"value equals null", NewIntField(1), primitives.Equals, null, false},
		{"null equals null", null, primitives.Equals, null, false},
		{"null not-equal value", null, primitives.NotEqual, NewIntField(1), false},
		{"null is null", null, primitives.IsNull, null, true},
		{"value is null", NewIntField(1), primitives.IsNull, null, false},
		{"value is not null", NewIntField(1), primitives.IsNotNull, null, true},
		{"null is not null", null, primitives.IsNotNull, null, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compare(tt.left, tt.op, tt.right)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestMatchLike(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		pattern  string
		expected bool
	}{
		{"percent suffix", "hello", "he%", true},
		{"percent everywhere", "hello", "%ell%", true},
		{"underscore", "cat", "c_t", true},
		{"underscore mismatch", "cart", "c_t", false},
		{"exact", "abc", "abc", true},
		{"no match", "abc", "xyz", false},
		{"regex metachars literal", "a.c", "a.c", true},
		{"regex metachars not wild", "abc", "a.c", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MatchLike(tt.value, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestStringFieldLike(t *testing.T) {
	value := NewStringField("hello", 0)

	matched, err := value.Compare(primitives.Like, NewStringField("h%o", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !matched {
		t.Errorf("expected LIKE match")
	}

	matched, err = value.Compare(primitives.NotLike, NewStringField("x%", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !matched {
		t.Errorf("expected NOT LIKE match")
	}
}

func TestEqualsReflexive(t *testing.T) {
	fields := []Field{
		NewIntField(42),
		NewFloatField(1.25),
		NewStringField("x", 4),
		mustDate(t, "2024-01-31"),
		NewTextField("long text"),
	}
	for _, f := range fields {
		if !f.Equals(f) {
			t.Errorf("%s should equal itself", f)
		}
	}
}

func TestCoerce(t *testing.T) {
	coerced, err := Coerce(NewIntField(3), FloatType, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, ok := coerced.(*FloatField); !ok || f.Value != 3 {
		t.Errorf("expected float 3, got %v", coerced)
	}

	coerced, err = Coerce(NewStringField("2023-01-02", 0), DateType, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d, ok := coerced.(*DateField); !ok || d.String() != "2023-01-02" {
		t.Errorf("expected date 2023-01-02, got %v", coerced)
	}

	if _, err := Coerce(NewIntField(1), DateType, 0); err == nil {
		t.Errorf("expected error converting INT to DATES")
	}

	coerced, err = Coerce(NewNullField(), IntType, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsNull(coerced) {
		t.Errorf("NULL should coerce to NULL")
	}
}

func mustDate(t *testing.T, literal string) *DateField {
	t.Helper()
	d, err := ParseDate(literal)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", literal, err)
	}
	return d
}
