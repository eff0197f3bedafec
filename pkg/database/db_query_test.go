package database

import (
	"testing"

	"minidb/pkg/errs"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	return NewDatabase("testdb")
}

func mustExec(t *testing.T, db *Database, sql string) QueryResult {
	t.Helper()
	result, err := db.ExecuteQuery(sql)
	if err != nil {
		t.Fatalf("query %q failed: %v", sql, err)
	}
	return result
}

func expectRows(t *testing.T, result QueryResult, expected [][]string) {
	t.Helper()
	if len(result.Rows) != len(expected) {
		t.Fatalf("expected %d rows, got %d: %v", len(expected), len(result.Rows), result.Rows)
	}
	for i, row := range expected {
		for j, cell := range row {
			if result.Rows[i][j] != cell {
				t.Errorf("row %d col %d: expected %q, got %q", i, j, cell, result.Rows[i][j])
			}
		}
	}
}

func TestSchemaInsertSelectOrderBy(t *testing.T) {
	db := newTestDB(t)

	mustExec(t, db, "CREATE TABLE t(a INT, b CHARS(8))")
	mustExec(t, db, "INSERT INTO t VALUES (1,'x'), (2,'y')")

	result := mustExec(t, db, "SELECT * FROM t ORDER BY a DESC")
	expectRows(t, result, [][]string{{"2", "y"}, {"1", "x"}})
}

func setupJoinTables(t *testing.T, db *Database) {
	t.Helper()
	mustExec(t, db, "CREATE TABLE u(id INT, n CHARS(4))")
	mustExec(t, db, "CREATE TABLE v(uid INT, m INT)")
	mustExec(t, db, "INSERT INTO u VALUES (1,'A'), (2,'B')")
	mustExec(t, db, "INSERT INTO v VALUES (1,10), (1,20), (2,30)")
}

func TestInnerJoinWithOn(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	result := mustExec(t, db, "SELECT u.n, v.m FROM u INNER JOIN v ON u.id = v.uid")
	expectRows(t, result, [][]string{{"A", "10"}, {"A", "20"}, {"B", "30"}})
}

func TestGroupByHaving(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	result := mustExec(t, db, "SELECT uid, COUNT(*) FROM v GROUP BY uid HAVING COUNT(*) > 1")
	expectRows(t, result, [][]string{{"1", "2"}})
}

func TestCorrelatedExistsSubquery(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	result := mustExec(t, db,
		"SELECT n FROM u WHERE EXISTS (SELECT 1 FROM v WHERE v.uid = u.id AND v.m > 15)")
	expectRows(t, result, [][]string{{"A"}, {"B"}})
}

func TestUncorrelatedInSubquery(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	mustExec(t, db, "INSERT INTO u VALUES (9,'Z')")

	result := mustExec(t, db, "SELECT n FROM u WHERE id IN (SELECT uid FROM v)")
	expectRows(t, result, [][]string{{"A"}, {"B"}})
}

func TestNullSemantics(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (NULL), (3)")

	result := mustExec(t, db, "SELECT a FROM t WHERE a <> 1")
	expectRows(t, result, [][]string{{"3"}})

	result = mustExec(t, db, "SELECT a FROM t WHERE a IS NULL")
	expectRows(t, result, [][]string{{"NULL"}})

	result = mustExec(t, db, "SELECT a FROM t WHERE a IS NOT NULL ORDER BY a")
	expectRows(t, result, [][]string{{"1"}, {"3"}})
}

func TestScalarFunctions(t *testing.T) {
	db := newTestDB(t)

	result := mustExec(t, db, "SELECT ROUND(3.14159, 2)")
	expectRows(t, result, [][]string{{"3.14"}})

	result = mustExec(t, db, "SELECT LENGTH('abc')")
	expectRows(t, result, [][]string{{"3"}})

	result = mustExec(t, db, "SELECT DATE_FORMAT('2023-06-01', '%M %D')")
	expectRows(t, result, [][]string{{"June 1st"}})
}

func TestAggregateOverEmptyTable(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(x INT)")

	result := mustExec(t, db, "SELECT COUNT(*) FROM t WHERE x > 100")
	expectRows(t, result, [][]string{{"0"}})

	result = mustExec(t, db, "SELECT SUM(x) FROM t WHERE x > 100")
	expectRows(t, result, [][]string{{"NULL"}})
}

func TestUpdateStatement(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT, b CHARS(8))")
	mustExec(t, db, "INSERT INTO t VALUES (1,'x'), (2,'y')")

	result := mustExec(t, db, "UPDATE t SET b = 'z' WHERE a = 2")
	if result.Message != "1 row(s) updated" {
		t.Errorf("unexpected message: %s", result.Message)
	}

	check := mustExec(t, db, "SELECT b FROM t WHERE a = 2")
	expectRows(t, check, [][]string{{"z"}})
}

func TestUpdateNoOpIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(x INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (2)")

	mustExec(t, db, "UPDATE t SET x = x")

	result := mustExec(t, db, "SELECT x FROM t ORDER BY x")
	expectRows(t, result, [][]string{{"1"}, {"2"}})
}

func TestUpdateWithArithmetic(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(x INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (2)")

	mustExec(t, db, "UPDATE t SET x = x + 10")

	result := mustExec(t, db, "SELECT x FROM t ORDER BY x")
	expectRows(t, result, [][]string{{"11"}, {"12"}})
}

func TestUpdateWithScalarSubquery(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	mustExec(t, db, "UPDATE u SET id = (SELECT MAX(m) FROM v) WHERE n = 'A'")

	result := mustExec(t, db, "SELECT id FROM u WHERE n = 'A'")
	expectRows(t, result, [][]string{{"30"}})
}

func TestUpdateWithEmptySubqueryErrors(t *testing.T) {
	db := newTestDB(t)
	setupJoinTables(t, db)

	_, err := db.ExecuteQuery("UPDATE u SET id = (SELECT uid FROM v WHERE m > 999)")
	if !errs.HasCode(err, errs.CodeSubqueryMultiRow) {
		t.Errorf("empty assignment subquery should error, got %v", err)
	}
}

func TestDeleteStatement(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (2), (3)")

	result := mustExec(t, db, "DELETE FROM t WHERE a > 1")
	if result.Message != "2 row(s) deleted" {
		t.Errorf("unexpected message: %s", result.Message)
	}

	check := mustExec(t, db, "SELECT a FROM t")
	expectRows(t, check, [][]string{{"1"}})
}

func TestIndexedEquality(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT, b CHARS(4))")
	mustExec(t, db, "INSERT INTO t VALUES (1,'x'), (2,'y'), (3,'z')")
	mustExec(t, db, "CREATE INDEX idx_a ON t (a)")

	result := mustExec(t, db, "SELECT b FROM t WHERE a = 2")
	expectRows(t, result, [][]string{{"y"}})

	// The plan should name the index.
	explain := mustExec(t, db, "EXPLAIN SELECT b FROM t WHERE a = 2")
	found := false
	for _, row := range explain.Rows {
		if len(row) > 0 && containsSubstring(row[0], "IndexScan") {
			found = true
		}
	}
	if !found {
		t.Errorf("explain should mention IndexScan: %v", explain.Rows)
	}
}

func TestUniqueIndexViolation(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "CREATE UNIQUE INDEX idx_a ON t (a)")
	mustExec(t, db, "INSERT INTO t VALUES (1)")

	_, err := db.ExecuteQuery("INSERT INTO t VALUES (1)")
	if !errs.HasCode(err, errs.CodeUniqueViolation) {
		t.Errorf("expected UNIQUE_CONSTRAINT_VIOLATION, got %v", err)
	}

	// The failed autocommit statement must leave no partial row.
	result := mustExec(t, db, "SELECT COUNT(*) FROM t")
	expectRows(t, result, [][]string{{"1"}})
}

func TestMultiRowInsertRollsBackAsUnit(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "CREATE UNIQUE INDEX idx_a ON t (a)")
	mustExec(t, db, "INSERT INTO t VALUES (5)")

	// Second row collides; the first row of the same statement must
	// not survive.
	_, err := db.ExecuteQuery("INSERT INTO t VALUES (6), (5)")
	if err == nil {
		t.Fatalf("expected unique violation")
	}

	result := mustExec(t, db, "SELECT a FROM t")
	expectRows(t, result, [][]string{{"5"}})
}

func TestTransactions(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")

	mustExec(t, db, "BEGIN")
	mustExec(t, db, "INSERT INTO t VALUES (1)")
	mustExec(t, db, "ROLLBACK")

	result := mustExec(t, db, "SELECT COUNT(*) FROM t")
	expectRows(t, result, [][]string{{"0"}})

	mustExec(t, db, "BEGIN")
	mustExec(t, db, "INSERT INTO t VALUES (2)")
	mustExec(t, db, "COMMIT")

	result = mustExec(t, db, "SELECT a FROM t")
	expectRows(t, result, [][]string{{"2"}})
}

func TestWriteConflictSurfacesDeadlock(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1)")

	session2 := db.NewSession()

	mustExec(t, db, "BEGIN")
	mustExec(t, db, "UPDATE t SET a = 2")

	_, err := session2.ExecuteQuery("UPDATE t SET a = 3")
	if !errs.HasCode(err, errs.CodeDeadlock) {
		t.Errorf("expected DEADLOCK, got %v", err)
	}

	mustExec(t, db, "ROLLBACK")

	// The lock is released; the other session can write now.
	if _, err := session2.ExecuteQuery("UPDATE t SET a = 3"); err != nil {
		t.Errorf("update after rollback should succeed: %v", err)
	}
}

func TestSessionSurvivesErrors(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.ExecuteQuery("SELECT * FROM missing"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := db.ExecuteQuery("not even sql"); err == nil {
		t.Fatalf("expected parse error")
	}

	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1)")
	result := mustExec(t, db, "SELECT a FROM t")
	expectRows(t, result, [][]string{{"1"}})
}

func TestShowTablesAndDesc(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE b_table(x INT)")
	mustExec(t, db, "CREATE TABLE a_table(y CHARS(4))")

	result := mustExec(t, db, "SHOW TABLES")
	expectRows(t, result, [][]string{{"a_table"}, {"b_table"}})

	result = mustExec(t, db, "DESC a_table")
	expectRows(t, result, [][]string{{"y", "CHARS(4)", "YES"}})
}

func TestCalcStatement(t *testing.T) {
	db := newTestDB(t)

	result := mustExec(t, db, "CALC 1 + 2, 10 / 4")
	expectRows(t, result, [][]string{{"3", "2"}})
}

func TestExplainDoesNotExecute(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1)")

	mustExec(t, db, "EXPLAIN DELETE FROM t")

	result := mustExec(t, db, "SELECT COUNT(*) FROM t")
	expectRows(t, result, [][]string{{"1"}})
}

func TestDuplicateTableInFromNeedsAliases(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(a INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (2)")

	// Self join through aliases.
	result := mustExec(t, db, "SELECT x.a, y.a FROM t x, t y WHERE x.a < y.a")
	expectRows(t, result, [][]string{{"1", "2"}})

	if _, err := db.ExecuteQuery("SELECT 1 FROM t, t"); err == nil {
		t.Errorf("duplicate unaliased table should fail to bind")
	}
}

func TestLikePredicate(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(name CHARS(16))")
	mustExec(t, db, "INSERT INTO t VALUES ('alpha'), ('beta'), ('alps')")

	result := mustExec(t, db, "SELECT name FROM t WHERE name LIKE 'al%'")
	expectRows(t, result, [][]string{{"alpha"}, {"alps"}})

	result = mustExec(t, db, "SELECT name FROM t WHERE name NOT LIKE 'al%'")
	expectRows(t, result, [][]string{{"beta"}})
}

func TestBetweenPredicate(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE t(x INT)")
	mustExec(t, db, "INSERT INTO t VALUES (1), (5), (10)")

	result := mustExec(t, db, "SELECT x FROM t WHERE x BETWEEN 2 AND 10 ORDER BY x")
	expectRows(t, result, [][]string{{"5"}, {"10"}})
}

func TestDateColumns(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, "CREATE TABLE ev(d DATE)")
	mustExec(t, db, "INSERT INTO ev VALUES ('2023-06-15'), ('2023-01-01')")

	result := mustExec(t, db, "SELECT d FROM ev WHERE d > '2023-03-01'")
	expectRows(t, result, [][]string{{"2023-06-15"}})

	if _, err := db.ExecuteQuery("INSERT INTO ev VALUES ('2023-02-30')"); err == nil {
		t.Errorf("invalid calendar date should be rejected")
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
