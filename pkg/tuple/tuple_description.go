package tuple

import (
	"fmt"
	"strings"

	"minidb/pkg/types"
)

// TupleDescription describes the schema of a tuple. Each column carries
// its type, its name, and the table (or alias) it came from so that
// qualified references resolve against intermediate results too.
type TupleDescription struct {
	// Types contains the data type of each column in order.
	Types []types.Type
	// FieldNames contains the name of each column.
	FieldNames []string
	// TableNames contains, per column, the table or alias the column
	// belongs to. Empty for computed columns.
	TableNames []string
}

// NewTupleDesc creates a TupleDescription from parallel type/name slices.
// tableNames may be nil for descriptions whose columns are unqualified.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string, tableNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}
	if fieldNames != nil && len(fieldNames) != len(fieldTypes) {
		return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
			len(fieldNames), len(fieldTypes))
	}
	if tableNames != nil && len(tableNames) != len(fieldTypes) {
		return nil, fmt.Errorf("table names length (%d) must match field types length (%d)",
			len(tableNames), len(fieldTypes))
	}

	td := &TupleDescription{
		Types:      append([]types.Type(nil), fieldTypes...),
		FieldNames: append([]string(nil), fieldNames...),
	}
	if tableNames == nil {
		td.TableNames = make([]string, len(fieldTypes))
	} else {
		td.TableNames = append([]string(nil), tableNames...)
	}
	return td, nil
}

// NumFields returns the number of columns described.
func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// TypeAtIndex returns the type of the ith column.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// NameAtIndex returns the column name of the ith column.
func (td *TupleDescription) NameAtIndex(i int) (string, error) {
	if i < 0 || i >= len(td.FieldNames) {
		return "", fmt.Errorf("index %d out of bounds [0, %d)", i, len(td.FieldNames))
	}
	return td.FieldNames[i], nil
}

// FindFieldIndex locates a column by optional table qualifier and name.
// With an empty qualifier the name must be unambiguous across tables;
// two matches produce an ambiguity error the binder surfaces to users.
func (td *TupleDescription) FindFieldIndex(tableName, fieldName string) (int, error) {
	found := -1
	for i, name := range td.FieldNames {
		if !strings.EqualFold(name, fieldName) {
			continue
		}
		if tableName != "" && !strings.EqualFold(td.TableNames[i], tableName) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("ambiguous column reference %q", fieldName)
		}
		found = i
	}
	if found < 0 {
		if tableName != "" {
			return -1, fmt.Errorf("column %s.%s does not exist", tableName, fieldName)
		}
		return -1, fmt.Errorf("column %q does not exist", fieldName)
	}
	return found, nil
}

// Combine concatenates two descriptions, left columns first. Joined
// tuples use the result as their schema.
func Combine(left, right *TupleDescription) (*TupleDescription, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("cannot combine nil tuple descriptions")
	}
	combined := &TupleDescription{
		Types:      append(append([]types.Type(nil), left.Types...), right.Types...),
		FieldNames: append(append([]string(nil), left.FieldNames...), right.FieldNames...),
		TableNames: append(append([]string(nil), left.TableNames...), right.TableNames...),
	}
	return combined, nil
}

// Equals reports whether two descriptions have identical column types.
// Names are not considered; projections rename freely.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}
	for i, t := range td.Types {
		if other.Types[i] != t {
			return false
		}
	}
	return true
}

func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Types))
	for i, t := range td.Types {
		name := ""
		if i < len(td.FieldNames) {
			name = td.FieldNames[i]
		}
		if td.TableNames[i] != "" {
			name = td.TableNames[i] + "." + name
		}
		parts[i] = fmt.Sprintf("%s(%s)", name, t)
	}
	return strings.Join(parts, ", ")
}
