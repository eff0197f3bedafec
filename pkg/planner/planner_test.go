package planner

import (
	"testing"

	"minidb/pkg/binder"
	"minidb/pkg/catalog"
	"minidb/pkg/catalog/schema"
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/execution"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/parser"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func newTestSetup(t *testing.T) (*catalog.Catalog, *Planner, *transaction.TransactionRegistry) {
	t.Helper()
	cat := catalog.NewCatalog()

	sch, err := schema.NewSchema("t", []schema.Column{
		{Name: "a", Type: types.IntType, Nullable: true},
		{Name: "b", Type: types.StringType, Length: 8, Nullable: true},
	})
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	table, err := cat.CreateTable(sch)
	if err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	reg := transaction.NewTransactionRegistry()
	tx := reg.Begin()
	for i := int32(1); i <= 3; i++ {
		row := tuple.NewTuple(table.TupleDesc())
		_ = row.SetField(0, types.NewIntField(i))
		_ = row.SetField(1, types.NewStringField("r", 8))
		if _, err := table.InsertRecord(tx, row); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := reg.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	return cat, NewPlanner(cat), reg
}

func buildTree(t *testing.T, cat *catalog.Catalog, p *Planner, reg *transaction.TransactionRegistry, sql string) (iterator.DbIterator, *transaction.TransactionContext) {
	t.Helper()
	node, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	stmt, err := binder.NewBinder(cat).Bind(node)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	tx := reg.Begin()
	ctx := &expression.EvalContext{Tx: tx}
	tree, err := p.BuildSelectTree(ctx, stmt.(*binder.SelectStatement))
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	return tree, tx
}

func TestSimplePredicatePushesIntoScan(t *testing.T) {
	cat, p, reg := newTestSetup(t)

	tree, tx := buildTree(t, cat, p, reg, "SELECT a FROM t WHERE a = 2")
	defer reg.Commit(tx)

	// With full pushdown the tree is Project over SeqScan; no separate
	// filter operator appears.
	project, ok := tree.(*execution.Project)
	if !ok {
		t.Fatalf("expected Project root, got %T", tree)
	}
	scan, ok := project.Child().(*execution.SeqScan)
	if !ok {
		t.Fatalf("expected SeqScan child, got %T", project.Child())
	}
	if !scan.HasPredicate() {
		t.Errorf("predicate should be pushed into the scan")
	}
}

func TestSubqueryPredicateStaysAboveScan(t *testing.T) {
	cat, p, reg := newTestSetup(t)

	tree, tx := buildTree(t, cat, p, reg,
		"SELECT a FROM t WHERE a IN (SELECT a FROM t)")
	defer reg.Commit(tx)

	project, ok := tree.(*execution.Project)
	if !ok {
		t.Fatalf("expected Project root, got %T", tree)
	}
	if _, ok := project.Child().(*execution.FilterOperator); !ok {
		t.Errorf("subquery filter must evaluate above the scan, got %T", project.Child())
	}
}

func TestEqualityOnIndexedColumnUsesIndexScan(t *testing.T) {
	cat, p, reg := newTestSetup(t)
	if _, err := cat.CreateIndex("idx_a", "t", "a", false); err != nil {
		t.Fatalf("create index failed: %v", err)
	}

	tree, tx := buildTree(t, cat, p, reg, "SELECT b FROM t WHERE a = 2")
	defer reg.Commit(tx)

	project := tree.(*execution.Project)
	filter, ok := project.Child().(*execution.FilterOperator)
	if !ok {
		t.Fatalf("expected residual filter over the index scan, got %T", project.Child())
	}
	if _, ok := filter.Child().(*execution.IndexScan); !ok {
		t.Errorf("expected IndexScan leaf, got %T", filter.Child())
	}
}

func TestSelectPlanExecutes(t *testing.T) {
	cat, p, reg := newTestSetup(t)

	node, err := parser.Parse("SELECT a FROM t WHERE a > 1 ORDER BY a DESC")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	stmt, err := binder.NewBinder(cat).Bind(node)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	tx := reg.Begin()
	plan, err := p.MakePlan(stmt, tx)
	if err != nil {
		t.Fatalf("make plan failed: %v", err)
	}
	raw, err := plan.Execute()
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	_ = reg.Commit(tx)

	result := raw.(*QueryResult)
	if len(result.Tuples) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Tuples))
	}
	first, _ := result.Tuples[0].GetField(0)
	if first.String() != "3" {
		t.Errorf("expected 3 first descending, got %s", first)
	}
}
