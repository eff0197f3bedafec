package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"minidb/pkg/primitives"
)

const dateLayout = "2006-01-02"

// DateField represents a validated DATES value with day precision.
type DateField struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate validates a YYYY-MM-DD literal and returns its DateField.
// Invalid calendar dates (2023-02-30) are rejected.
func ParseDate(literal string) (*DateField, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(literal))
	if err != nil {
		return nil, fmt.Errorf("invalid date literal %q", literal)
	}
	return &DateField{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func NewDateField(year int, month time.Month, day int) *DateField {
	return &DateField{Year: year, Month: month, Day: day}
}

// ordinal returns a value that orders dates chronologically.
func (f *DateField) ordinal() int {
	return f.Year*10000 + int(f.Month)*100 + f.Day
}

// Time returns the date at midnight UTC, used by DATE_FORMAT.
func (f *DateField) Time() time.Time {
	return time.Date(f.Year, f.Month, f.Day, 0, 0, 0, 0, time.UTC)
}

func (f *DateField) Serialize(w io.Writer) error {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, uint32(f.ordinal()))
	_, err := w.Write(bytes)
	return err
}

func (f *DateField) Compare(op primitives.Predicate, other Field) (bool, error) {
	switch o := other.(type) {
	case *DateField:
		return compareOrdered(f.ordinal(), o.ordinal(), op)
	case *StringField:
		d, err := ParseDate(o.Value)
		if err != nil {
			return false, nil
		}
		return compareOrdered(f.ordinal(), d.ordinal(), op)
	case *NullField:
		return false, nil
	default:
		return false, nil
	}
}

func (f *DateField) Type() Type {
	return DateType
}

func (f *DateField) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", f.Year, int(f.Month), f.Day)
}

func (f *DateField) Equals(other Field) bool {
	otherField, ok := other.(*DateField)
	if !ok {
		return false
	}
	return f.ordinal() == otherField.ordinal()
}

func (f *DateField) Hash() (primitives.HashCode, error) {
	h := fnv.New32a()
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, uint32(f.ordinal()))
	_, _ = h.Write(bytes)
	return primitives.HashCode(h.Sum32()), nil
}

func (f *DateField) Length() uint32 {
	return 4
}
