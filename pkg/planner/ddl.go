package planner

import (
	"fmt"

	"minidb/pkg/binder"
	"minidb/pkg/catalog"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// CreateTablePlan registers a new table in the catalog.
type CreateTablePlan struct {
	cat  *catalog.Catalog
	stmt *binder.CreateTableStatement
}

func (cp *CreateTablePlan) Execute() (any, error) {
	if _, err := cp.cat.CreateTable(cp.stmt.Schema); err != nil {
		return nil, err
	}
	return &DDLResult{Message: fmt.Sprintf("table %s created", cp.stmt.Schema.TableName)}, nil
}

// DropTablePlan removes a table and its indexes.
type DropTablePlan struct {
	cat  *catalog.Catalog
	stmt *binder.DropTableStatement
}

func (dp *DropTablePlan) Execute() (any, error) {
	if err := dp.cat.DropTable(dp.stmt.Name); err != nil {
		return nil, err
	}
	return &DDLResult{Message: fmt.Sprintf("table %s dropped", dp.stmt.Name)}, nil
}

// CreateIndexPlan builds and backfills a secondary index.
type CreateIndexPlan struct {
	cat  *catalog.Catalog
	stmt *binder.CreateIndexStatement
}

func (cp *CreateIndexPlan) Execute() (any, error) {
	if _, err := cp.cat.CreateIndex(cp.stmt.Name, cp.stmt.Table, cp.stmt.Column, cp.stmt.Unique); err != nil {
		return nil, err
	}
	return &DDLResult{Message: fmt.Sprintf("index %s created on %s(%s)",
		cp.stmt.Name, cp.stmt.Table, cp.stmt.Column)}, nil
}

// DropIndexPlan removes an index.
type DropIndexPlan struct {
	cat  *catalog.Catalog
	stmt *binder.DropIndexStatement
}

func (dp *DropIndexPlan) Execute() (any, error) {
	if err := dp.cat.DropIndex(dp.stmt.Name); err != nil {
		return nil, err
	}
	return &DDLResult{Message: fmt.Sprintf("index %s dropped", dp.stmt.Name)}, nil
}

// ShowTablesPlan lists the catalog's tables as a one-column result.
type ShowTablesPlan struct {
	cat *catalog.Catalog
}

func (sp *ShowTablesPlan) Execute() (any, error) {
	td, err := tuple.NewTupleDesc([]types.Type{types.StringType}, []string{"table"}, nil)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{TupleDesc: td}
	for _, name := range sp.cat.TableNames() {
		row := tuple.NewTuple(td)
		if err := row.SetField(0, types.NewStringField(name, 0)); err != nil {
			return nil, err
		}
		result.Tuples = append(result.Tuples, row)
	}
	return result, nil
}

// DescTablePlan renders one table's schema as rows.
type DescTablePlan struct {
	stmt *binder.DescTableStatement
}

func (dp *DescTablePlan) Execute() (any, error) {
	td, err := tuple.NewTupleDesc(
		[]types.Type{types.StringType, types.StringType, types.StringType},
		[]string{"column", "type", "nullable"}, nil)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{TupleDesc: td}
	for _, col := range dp.stmt.Table.Schema().Columns {
		typeText := col.Type.String()
		if col.Type == types.StringType {
			typeText = fmt.Sprintf("CHARS(%d)", col.Length)
		}
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}

		row := tuple.NewTuple(td)
		if err := row.SetField(0, types.NewStringField(col.Name, 0)); err != nil {
			return nil, err
		}
		if err := row.SetField(1, types.NewStringField(typeText, 0)); err != nil {
			return nil, err
		}
		if err := row.SetField(2, types.NewStringField(nullable, 0)); err != nil {
			return nil, err
		}
		result.Tuples = append(result.Tuples, row)
	}
	return result, nil
}
