package binder

import (
	"testing"

	"minidb/pkg/catalog"
	"minidb/pkg/catalog/schema"
	"minidb/pkg/errs"
	"minidb/pkg/expression"
	"minidb/pkg/parser"
	"minidb/pkg/types"
)

// newTestCatalog builds the catalog used across binder tests:
//
//	u(id INT, n CHARS(4))
//	v(uid INT, m INT)
//	t(a INT NULL, b CHARS(8) NULL, d DATE NULL)
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.NewCatalog()

	mustCreate := func(name string, cols []schema.Column) {
		sch, err := schema.NewSchema(name, cols)
		if err != nil {
			t.Fatalf("failed to build schema %s: %v", name, err)
		}
		if _, err := cat.CreateTable(sch); err != nil {
			t.Fatalf("failed to create table %s: %v", name, err)
		}
	}

	mustCreate("u", []schema.Column{
		{Name: "id", Type: types.IntType},
		{Name: "n", Type: types.StringType, Length: 4},
	})
	mustCreate("v", []schema.Column{
		{Name: "uid", Type: types.IntType},
		{Name: "m", Type: types.IntType},
	})
	mustCreate("t", []schema.Column{
		{Name: "a", Type: types.IntType, Nullable: true},
		{Name: "b", Type: types.StringType, Length: 8, Nullable: true},
		{Name: "d", Type: types.DateType, Nullable: true},
	})
	return cat
}

func bindSQL(t *testing.T, cat *catalog.Catalog, sql string) (Statement, error) {
	t.Helper()
	node, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("parse failed for %q: %v", sql, err)
	}
	return NewBinder(cat).Bind(node)
}

func mustBindSelect(t *testing.T, cat *catalog.Catalog, sql string) *SelectStatement {
	t.Helper()
	stmt, err := bindSQL(t, cat, sql)
	if err != nil {
		t.Fatalf("bind failed for %q: %v", sql, err)
	}
	sel, ok := stmt.(*SelectStatement)
	if !ok {
		t.Fatalf("expected SelectStatement, got %T", stmt)
	}
	return sel
}

func TestBindStarExpansion(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT * FROM u")

	if len(sel.Projections) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(sel.Projections))
	}
	if sel.Projections[0].Name != "id" || sel.Projections[1].Name != "n" {
		t.Errorf("star expansion order wrong: %s, %s",
			sel.Projections[0].Name, sel.Projections[1].Name)
	}
}

func TestBindStarExpansionMultipleTables(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT * FROM u, v")

	if len(sel.Projections) != 4 {
		t.Fatalf("expected 4 projections, got %d", len(sel.Projections))
	}
	// FROM order: u's columns then v's.
	names := []string{"id", "n", "uid", "m"}
	for i, name := range names {
		if sel.Projections[i].Name != name {
			t.Errorf("projection %d: expected %s, got %s", i, name, sel.Projections[i].Name)
		}
	}
}

func TestBindExpressionsBeforeStar(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT id + 1, * FROM u")

	if len(sel.Projections) != 3 {
		t.Fatalf("expected 3 projections, got %d", len(sel.Projections))
	}
	if _, ok := sel.Projections[0].Expr.(*expression.ArithmeticExpr); !ok {
		t.Errorf("explicit expression should come before star expansion")
	}
}

func TestBindUnqualifiedAttr(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT n FROM u WHERE id = 1")

	fe, ok := sel.Projections[0].Expr.(*expression.FieldExpr)
	if !ok {
		t.Fatalf("expected field expression, got %T", sel.Projections[0].Expr)
	}
	if fe.TableName != "u" || fe.FieldName != "n" {
		t.Errorf("expected u.n, got %s.%s", fe.TableName, fe.FieldName)
	}
}

func TestBindAliases(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT x.id FROM u x")

	fe := sel.Projections[0].Expr.(*expression.FieldExpr)
	if fe.TableName != "x" {
		t.Errorf("expected alias qualifier x, got %s", fe.TableName)
	}
}

func TestBindErrors(t *testing.T) {
	cat := newTestCatalog(t)

	tests := []struct {
		name string
		sql  string
		code string
	}{
		{"missing table", "SELECT * FROM missing", errs.CodeSchemaTableNotExist},
		{"missing column", "SELECT nope FROM u", errs.CodeSchemaFieldNotExist},
		{"missing qualified column", "SELECT u.nope FROM u", errs.CodeSchemaFieldNotExist},
		{"unknown qualifier", "SELECT w.id FROM u", errs.CodeSchemaTableNotExist},
		{"ambiguous without qualifier", "SELECT id FROM u, u u2", errs.CodeAmbiguousReference},
		{"duplicate alias", "SELECT 1 FROM u, u", errs.CodeAmbiguousReference},
		{"aggregate in where", "SELECT id FROM u WHERE COUNT(*) > 1", errs.CodeAggregateOutside},
		{"group by missing", "SELECT id, COUNT(*) FROM u", errs.CodeGroupByMissing},
		{"chars vs int comparison", "SELECT id FROM u WHERE n = 1", errs.CodeTypeMismatch},
		{"update unknown column", "UPDATE u SET nope = 1", errs.CodeSchemaFieldNotExist},
		{"update type mismatch", "UPDATE u SET id = 'x'", errs.CodeTypeMismatch},
		{"insert arity", "INSERT INTO u VALUES (1)", errs.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindSQL(t, cat, tt.sql)
			if err == nil {
				t.Fatalf("expected error for %q", tt.sql)
			}
			if !errs.HasCode(err, tt.code) {
				t.Errorf("expected code %s, got %s (%v)", tt.code, errs.CodeOf(err), err)
			}
		})
	}
}

func TestBindGroupByCoverage(t *testing.T) {
	cat := newTestCatalog(t)

	sel := mustBindSelect(t, cat, "SELECT uid, COUNT(*) FROM v GROUP BY uid")
	if len(sel.GroupBy) != 1 || len(sel.Aggregates) != 1 {
		t.Errorf("expected 1 group key and 1 aggregate")
	}

	// Aggregate-only select needs no GROUP BY.
	sel = mustBindSelect(t, cat, "SELECT COUNT(*), MAX(m) FROM v")
	if len(sel.Aggregates) != 2 {
		t.Errorf("expected 2 aggregates, got %d", len(sel.Aggregates))
	}
}

func TestBindCorrelatedSubquery(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat,
		"SELECT n FROM u WHERE EXISTS (SELECT 1 FROM v WHERE v.uid = u.id)")

	unit := sel.Filter.Units[0]
	if unit.Right.Kind != ObjSubQuery {
		t.Fatalf("expected subquery operand")
	}
	if !unit.Right.SubStmt.Correlated {
		t.Errorf("subquery referencing u.id must be marked correlated")
	}
	if sel.Correlated {
		t.Errorf("outer select itself is not correlated")
	}
}

func TestBindUncorrelatedSubquery(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT n FROM u WHERE id IN (SELECT uid FROM v)")

	unit := sel.Filter.Units[0]
	if unit.Right.SubStmt.Correlated {
		t.Errorf("subquery with only local references must not be correlated")
	}
}

func TestBindConstantFunctionFolds(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT LENGTH('abc') FROM u")

	ve, ok := sel.Projections[0].Expr.(*expression.ValueExpr)
	if !ok {
		t.Fatalf("constant function call should fold to a value, got %T", sel.Projections[0].Expr)
	}
	if ve.Value.String() != "3" {
		t.Errorf("expected folded value 3, got %s", ve.Value)
	}
}

func TestBindInsertCoercion(t *testing.T) {
	cat := newTestCatalog(t)

	stmt, err := bindSQL(t, cat, "INSERT INTO t VALUES (1, 'hello', '2023-06-15')")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	insert := stmt.(*InsertStatement)
	if len(insert.Rows) != 1 {
		t.Fatalf("expected 1 row")
	}

	d, err := insert.Rows[0].GetField(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Type() != types.DateType {
		t.Errorf("date literal should coerce to DATES, got %s", d.Type())
	}
}

func TestBindInsertColumnSubset(t *testing.T) {
	cat := newTestCatalog(t)

	stmt, err := bindSQL(t, cat, "INSERT INTO t (a) VALUES (5)")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	insert := stmt.(*InsertStatement)

	b, _ := insert.Rows[0].GetField(1)
	if !types.IsNull(b) {
		t.Errorf("omitted column should default to NULL")
	}
}

func TestBindOrderByAlias(t *testing.T) {
	cat := newTestCatalog(t)
	sel := mustBindSelect(t, cat, "SELECT id AS k FROM u ORDER BY k DESC")

	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Desc {
		t.Fatalf("expected one DESC order key")
	}
	if _, ok := sel.OrderBy[0].Expr.(*expression.FieldExpr); !ok {
		t.Errorf("alias order key should resolve to the projected expression")
	}
}
