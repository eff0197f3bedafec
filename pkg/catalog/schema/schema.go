package schema

import (
	"fmt"
	"strings"

	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// Column describes one attribute of a table.
type Column struct {
	Name     string
	Type     types.Type
	Length   uint32 // declared width for CHARS columns
	Nullable bool
}

// Schema is the ordered column list of a table.
type Schema struct {
	TableName string
	Columns   []Column
}

// NewSchema validates and builds a schema. Column names must be unique
// within the table (case-insensitive).
func NewSchema(tableName string, columns []Column) (*Schema, error) {
	if tableName == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s must have at least one column", tableName)
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		key := strings.ToLower(c.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate column %q in table %s", c.Name, tableName)
		}
		seen[key] = true
	}

	return &Schema{
		TableName: tableName,
		Columns:   append([]Column(nil), columns...),
	}, nil
}

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int {
	return len(s.Columns)
}

// FindColumn locates a column by name, case-insensitively.
func (s *Schema) FindColumn(name string) (int, *Column, error) {
	for i := range s.Columns {
		if strings.EqualFold(s.Columns[i].Name, name) {
			return i, &s.Columns[i], nil
		}
	}
	return -1, nil, fmt.Errorf("column %q does not exist in table %s", name, s.TableName)
}

// TupleDesc returns the schema as a tuple description whose columns are
// qualified with the table name.
func (s *Schema) TupleDesc() *tuple.TupleDescription {
	fieldTypes := make([]types.Type, len(s.Columns))
	fieldNames := make([]string, len(s.Columns))
	tableNames := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		fieldTypes[i] = c.Type
		fieldNames[i] = c.Name
		tableNames[i] = s.TableName
	}
	td, _ := tuple.NewTupleDesc(fieldTypes, fieldNames, tableNames)
	return td
}

// AliasedTupleDesc returns the tuple description with every column
// qualified by the given alias instead of the table name.
func (s *Schema) AliasedTupleDesc(alias string) *tuple.TupleDescription {
	td := s.TupleDesc()
	for i := range td.TableNames {
		td.TableNames[i] = alias
	}
	return td
}

func (s *Schema) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		nullability := "NOT NULL"
		if c.Nullable {
			nullability = "NULL"
		}
		if c.Type == types.StringType {
			parts[i] = fmt.Sprintf("%s CHARS(%d) %s", c.Name, c.Length, nullability)
		} else {
			parts[i] = fmt.Sprintf("%s %s %s", c.Name, c.Type, nullability)
		}
	}
	return fmt.Sprintf("%s(%s)", s.TableName, strings.Join(parts, ", "))
}
