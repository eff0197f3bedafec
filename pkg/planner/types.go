package planner

import (
	"minidb/pkg/catalog"
	"minidb/pkg/tuple"
)

// Plan is an executable statement. Execute returns a QueryResult,
// DMLResult, or DDLResult depending on the statement kind.
type Plan interface {
	Execute() (any, error)
}

// QueryResult is the materialized output of a SELECT-like plan.
type QueryResult struct {
	TupleDesc *tuple.TupleDescription
	Tuples    []*tuple.Tuple
}

// DMLResult reports the effect of INSERT/UPDATE/DELETE.
type DMLResult struct {
	RowsAffected int
}

// DDLResult reports the outcome of a catalog change.
type DDLResult struct {
	Message string
}

// Planner translates bound statements into operator trees. Plans are
// deterministic syntactic translations; the only planning choice made
// is picking an index scan for an equality on an indexed column.
type Planner struct {
	cat *catalog.Catalog
}

func NewPlanner(cat *catalog.Catalog) *Planner {
	return &Planner{cat: cat}
}
