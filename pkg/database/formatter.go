package database

import (
	"fmt"
	"time"

	"minidb/pkg/binder"
	"minidb/pkg/planner"
	"minidb/pkg/types"
)

// QueryResult is the session-facing result of one statement: either a
// row set (Columns/Rows) or a message.
type QueryResult struct {
	Success  bool
	Message  string
	Columns  []string
	Rows     [][]string
	Duration time.Duration
}

// ResultFormatter converts plan outputs into the session result shape.
type ResultFormatter struct{}

func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{}
}

func (f *ResultFormatter) Format(rawResult any, stmt binder.Statement) (QueryResult, error) {
	switch result := rawResult.(type) {
	case *planner.QueryResult:
		return f.FormatSelect(result), nil
	case *planner.DMLResult:
		return f.FormatDML(result, stmt.StmtType()), nil
	case *planner.DDLResult:
		return QueryResult{Success: true, Message: result.Message}, nil
	}
	return QueryResult{Success: true, Message: "query executed"}, nil
}

// FormatSelect renders a row set with display-formatted cells.
func (f *ResultFormatter) FormatSelect(result *planner.QueryResult) QueryResult {
	if result == nil || result.TupleDesc == nil {
		return QueryResult{Success: true, Message: "query returned no results", Rows: [][]string{}}
	}

	out := QueryResult{Success: true}
	for i := 0; i < result.TupleDesc.NumFields(); i++ {
		name, _ := result.TupleDesc.NameAtIndex(i)
		out.Columns = append(out.Columns, name)
	}

	for _, t := range result.Tuples {
		row := make([]string, result.TupleDesc.NumFields())
		for i := range row {
			field, err := t.GetField(i)
			if err != nil || types.IsNull(field) {
				row[i] = "NULL"
				continue
			}
			row[i] = field.String()
		}
		out.Rows = append(out.Rows, row)
	}

	out.Message = fmt.Sprintf("%d row(s)", len(out.Rows))
	return out
}

// FormatDML renders an affected-rows message.
func (f *ResultFormatter) FormatDML(result *planner.DMLResult, kind binder.StmtType) QueryResult {
	verb := "affected"
	switch kind {
	case binder.Insert:
		verb = "inserted"
	case binder.Update:
		verb = "updated"
	case binder.Delete:
		verb = "deleted"
	}
	return QueryResult{
		Success: true,
		Message: fmt.Sprintf("%d row(s) %s", result.RowsAffected, verb),
	}
}
