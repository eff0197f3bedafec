package execution

import (
	"testing"

	"minidb/pkg/binder"
	"minidb/pkg/expression"
	"minidb/pkg/iterator"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func mustDesc(t *testing.T, fieldTypes []types.Type, fieldNames []string, table string) *tuple.TupleDescription {
	t.Helper()
	tableNames := make([]string, len(fieldTypes))
	for i := range tableNames {
		tableNames[i] = table
	}
	td, err := tuple.NewTupleDesc(fieldTypes, fieldNames, tableNames)
	if err != nil {
		t.Fatalf("failed to create desc: %v", err)
	}
	return td
}

func makeTuple(t *testing.T, td *tuple.TupleDescription, fields ...types.Field) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(td)
	for i, f := range fields {
		if err := tup.SetField(i, f); err != nil {
			t.Fatalf("set field %d: %v", i, err)
		}
	}
	return tup
}

func attrObj(table, field string, typ types.Type) *binder.FilterObj {
	return &binder.FilterObj{Kind: binder.ObjAttr, Expr: expression.NewFieldExpr(table, field, typ)}
}

func valueObj(f types.Field) *binder.FilterObj {
	return &binder.FilterObj{Kind: binder.ObjValue, Expr: expression.NewValueExpr(f)}
}

func collect(t *testing.T, op iterator.DbIterator) []*tuple.Tuple {
	t.Helper()
	if err := op.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	rows, err := iterator.Collect(op)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if err := op.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return rows
}

func TestIteratorProtocolStickyEOF(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(1)),
	}, td)

	if err := src.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	hasNext, err := src.HasNext()
	if err != nil || !hasNext {
		t.Fatalf("expected first tuple")
	}
	if _, err := src.Next(); err != nil {
		t.Fatalf("next failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		hasNext, err = src.HasNext()
		if err != nil {
			t.Fatalf("HasNext after EOF errored: %v", err)
		}
		if hasNext {
			t.Fatalf("EOF must be sticky")
		}
	}

	if _, err := src.Next(); err == nil {
		t.Errorf("Next after EOF should error")
	}
}

func TestIteratorRequiresOpen(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "t")
	src := iterator.NewSliceIterator(nil, td)

	if _, err := src.HasNext(); err == nil {
		t.Errorf("HasNext before Open should error")
	}
}

func TestFilterOperator(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(1)),
		makeTuple(t, td, types.NewIntField(2)),
		makeTuple(t, td, types.NewIntField(3)),
	}, td)

	filter := &binder.FilterStmt{Units: []*binder.FilterUnit{
		{Left: attrObj("t", "a", types.IntType), Op: primitives.GreaterThan, Right: valueObj(types.NewIntField(1))},
	}}

	op, err := NewFilter(&expression.EvalContext{}, filter, src)
	if err != nil {
		t.Fatalf("failed to create filter: %v", err)
	}

	rows := collect(t, op)
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestFilterAndBindsTighterThanOr(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.IntType}, []string{"a", "b"}, "t")

	// a = 1 AND b = 1 OR b = 9  — the row (a=2, b=9) passes only
	// because OR applies after the AND group fails.
	filter := &binder.FilterStmt{Units: []*binder.FilterUnit{
		{Left: attrObj("t", "a", types.IntType), Op: primitives.Equals, Right: valueObj(types.NewIntField(1))},
		{Left: attrObj("t", "b", types.IntType), Op: primitives.Equals, Right: valueObj(types.NewIntField(1))},
		{Left: attrObj("t", "b", types.IntType), Op: primitives.Equals, Right: valueObj(types.NewIntField(9)), Or: true},
	}}

	tests := []struct {
		name     string
		a, b     int32
		expected bool
	}{
		{"and group passes", 1, 1, true},
		{"or arm passes", 2, 9, true},
		{"and fails on second", 1, 2, false},
		{"everything fails", 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := makeTuple(t, td, types.NewIntField(tt.a), types.NewIntField(tt.b))
			got, err := EvaluateFilter(&expression.EvalContext{}, filter, row)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFilterInList(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "t")

	inFilter := func(op primitives.Predicate, values ...types.Field) *binder.FilterStmt {
		return &binder.FilterStmt{Units: []*binder.FilterUnit{{
			Left:  attrObj("t", "a", types.IntType),
			Op:    op,
			Right: &binder.FilterObj{Kind: binder.ObjValueList, Values: values},
		}}}
	}

	row := func(v types.Field) *tuple.Tuple { return makeTuple(t, td, v) }
	ctx := &expression.EvalContext{}

	got, _ := EvaluateFilter(ctx, inFilter(primitives.In, types.NewIntField(1), types.NewIntField(2)), row(types.NewIntField(2)))
	if !got {
		t.Errorf("2 IN (1,2) should match")
	}
	got, _ = EvaluateFilter(ctx, inFilter(primitives.In, types.NewIntField(1)), row(types.NewIntField(2)))
	if got {
		t.Errorf("2 IN (1) should not match")
	}
	got, _ = EvaluateFilter(ctx, inFilter(primitives.In, types.NewIntField(1)), row(types.NewNullField()))
	if got {
		t.Errorf("NULL IN (...) must not match")
	}
	got, _ = EvaluateFilter(ctx, inFilter(primitives.NotIn, types.NewIntField(1)), row(types.NewIntField(2)))
	if !got {
		t.Errorf("2 NOT IN (1) should match")
	}
	got, _ = EvaluateFilter(ctx, inFilter(primitives.NotIn, types.NewIntField(1), types.NewNullField()), row(types.NewIntField(2)))
	if got {
		t.Errorf("NOT IN over a list containing NULL must not match")
	}
}

func TestNestedLoopJoin(t *testing.T) {
	uDesc := mustDesc(t, []types.Type{types.IntType, types.StringType}, []string{"id", "n"}, "u")
	vDesc := mustDesc(t, []types.Type{types.IntType, types.IntType}, []string{"uid", "m"}, "v")

	left := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, uDesc, types.NewIntField(1), types.NewStringField("A", 4)),
		makeTuple(t, uDesc, types.NewIntField(2), types.NewStringField("B", 4)),
	}, uDesc)
	right := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, vDesc, types.NewIntField(1), types.NewIntField(10)),
		makeTuple(t, vDesc, types.NewIntField(1), types.NewIntField(20)),
		makeTuple(t, vDesc, types.NewIntField(2), types.NewIntField(30)),
	}, vDesc)

	on := &binder.FilterStmt{Units: []*binder.FilterUnit{{
		Left:  attrObj("u", "id", types.IntType),
		Op:    primitives.Equals,
		Right: attrObj("v", "uid", types.IntType),
	}}}

	join, err := NewNestedLoopJoin(&expression.EvalContext{}, left, right, on)
	if err != nil {
		t.Fatalf("failed to create join: %v", err)
	}

	rows := collect(t, join)
	if len(rows) != 3 {
		t.Fatalf("expected 3 joined rows, got %d", len(rows))
	}

	expected := [][2]string{{"A", "10"}, {"A", "20"}, {"B", "30"}}
	for i, row := range rows {
		n, _ := row.FindField("u", "n")
		m, _ := row.FindField("v", "m")
		if n.String() != expected[i][0] || m.String() != expected[i][1] {
			t.Errorf("row %d: expected (%s,%s), got (%s,%s)",
				i, expected[i][0], expected[i][1], n, m)
		}
	}
}

func TestCrossJoinWithoutFilter(t *testing.T) {
	aDesc := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "l")
	bDesc := mustDesc(t, []types.Type{types.IntType}, []string{"b"}, "r")

	left := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, aDesc, types.NewIntField(1)),
		makeTuple(t, aDesc, types.NewIntField(2)),
	}, aDesc)
	right := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, bDesc, types.NewIntField(3)),
		makeTuple(t, bDesc, types.NewIntField(4)),
	}, bDesc)

	join, err := NewNestedLoopJoin(&expression.EvalContext{}, left, right, nil)
	if err != nil {
		t.Fatalf("failed to create join: %v", err)
	}

	rows := collect(t, join)
	if len(rows) != 4 {
		t.Errorf("cartesian product should have 4 rows, got %d", len(rows))
	}
}

func TestGroupAggregate(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.IntType}, []string{"uid", "m"}, "v")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(1), types.NewIntField(10)),
		makeTuple(t, td, types.NewIntField(1), types.NewIntField(20)),
		makeTuple(t, td, types.NewIntField(2), types.NewIntField(30)),
	}, td)

	groupKey := expression.NewFieldExpr("v", "uid", types.IntType)
	countStar := expression.NewCountStarExpr()

	agg, err := NewGroupAggregate(&expression.EvalContext{}, src,
		[]expression.Expr{groupKey}, []*expression.AggregateExpr{countStar}, nil)
	if err != nil {
		t.Fatalf("failed to create aggregate: %v", err)
	}

	rows := collect(t, agg)
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}

	// Insertion order: group 1 first.
	uid0, _ := rows[0].FindField("v", "uid")
	count0, _ := rows[0].FindField("", "COUNT(*)")
	if uid0.String() != "1" || count0.String() != "2" {
		t.Errorf("expected group (1, 2), got (%s, %s)", uid0, count0)
	}
}

func TestGroupAggregateHaving(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.IntType}, []string{"uid", "m"}, "v")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(1), types.NewIntField(10)),
		makeTuple(t, td, types.NewIntField(1), types.NewIntField(20)),
		makeTuple(t, td, types.NewIntField(2), types.NewIntField(30)),
	}, td)

	countStar := expression.NewCountStarExpr()
	having := &binder.FilterStmt{Units: []*binder.FilterUnit{{
		Left:  &binder.FilterObj{Kind: binder.ObjExpr, Expr: countStar},
		Op:    primitives.GreaterThan,
		Right: valueObj(types.NewIntField(1)),
	}}}

	agg, err := NewGroupAggregate(&expression.EvalContext{}, src,
		[]expression.Expr{expression.NewFieldExpr("v", "uid", types.IntType)},
		[]*expression.AggregateExpr{countStar}, having)
	if err != nil {
		t.Fatalf("failed to create aggregate: %v", err)
	}

	rows := collect(t, agg)
	if len(rows) != 1 {
		t.Fatalf("HAVING should keep 1 group, got %d", len(rows))
	}
	uid, _ := rows[0].FindField("v", "uid")
	if uid.String() != "1" {
		t.Errorf("expected group 1, got %s", uid)
	}
}

func TestAggregateOverEmptyInput(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"x"}, "t")
	src := iterator.NewSliceIterator(nil, td)

	countStar := expression.NewCountStarExpr()
	sum := expression.NewAggregateExpr(primitives.AggSum, expression.NewFieldExpr("t", "x", types.IntType))
	avg := expression.NewAggregateExpr(primitives.AggAvg, expression.NewFieldExpr("t", "x", types.IntType))

	agg, err := NewGroupAggregate(&expression.EvalContext{}, src, nil,
		[]*expression.AggregateExpr{countStar, sum, avg}, nil)
	if err != nil {
		t.Fatalf("failed to create aggregate: %v", err)
	}

	rows := collect(t, agg)
	if len(rows) != 1 {
		t.Fatalf("aggregate over empty input must emit exactly one row, got %d", len(rows))
	}

	count, _ := rows[0].FindField("", "COUNT(*)")
	if count.String() != "0" {
		t.Errorf("COUNT(*) over empty input should be 0, got %s", count)
	}
	sumVal, _ := rows[0].FindField("", "SUM(t.x)")
	if !types.IsNull(sumVal) {
		t.Errorf("SUM over empty input should be NULL, got %s", sumVal)
	}
	avgVal, _ := rows[0].FindField("", "AVG(t.x)")
	if !types.IsNull(avgVal) {
		t.Errorf("AVG over empty input should be NULL, got %s", avgVal)
	}
}

func TestAggregatesSkipNulls(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"x"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(4)),
		makeTuple(t, td, types.NewNullField()),
		makeTuple(t, td, types.NewIntField(6)),
	}, td)

	arg := expression.NewFieldExpr("t", "x", types.IntType)
	count := expression.NewAggregateExpr(primitives.AggCount, arg)
	sum := expression.NewAggregateExpr(primitives.AggSum, arg)
	avg := expression.NewAggregateExpr(primitives.AggAvg, arg)
	min := expression.NewAggregateExpr(primitives.AggMin, arg)
	max := expression.NewAggregateExpr(primitives.AggMax, arg)

	agg, err := NewGroupAggregate(&expression.EvalContext{}, src, nil,
		[]*expression.AggregateExpr{count, sum, avg, min, max}, nil)
	if err != nil {
		t.Fatalf("failed to create aggregate: %v", err)
	}

	rows := collect(t, agg)
	row := rows[0]

	expectField := func(name, expected string) {
		f, err := row.FindField("", name)
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if f.String() != expected {
			t.Errorf("%s: expected %s, got %s", name, expected, f)
		}
	}
	expectField("COUNT(t.x)", "2")
	expectField("SUM(t.x)", "10")
	expectField("AVG(t.x)", "5")
	expectField("MIN(t.x)", "4")
	expectField("MAX(t.x)", "6")
}

func TestOrderBy(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.StringType}, []string{"a", "b"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(2), types.NewStringField("y", 4)),
		makeTuple(t, td, types.NewIntField(1), types.NewStringField("x", 4)),
		makeTuple(t, td, types.NewNullField(), types.NewStringField("n", 4)),
	}, td)

	keys := []binder.OrderKey{{Expr: expression.NewFieldExpr("t", "a", types.IntType)}}
	sorter, err := NewOrderBy(&expression.EvalContext{}, keys, src)
	if err != nil {
		t.Fatalf("failed to create sort: %v", err)
	}

	rows := collect(t, sorter)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// NULL sorts before any value ascending.
	first, _ := rows[0].FindField("t", "a")
	if !types.IsNull(first) {
		t.Errorf("NULL should sort first ascending, got %s", first)
	}
	second, _ := rows[1].FindField("t", "a")
	if second.String() != "1" {
		t.Errorf("expected 1 second, got %s", second)
	}
}

func TestOrderByDescStable(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType, types.StringType}, []string{"a", "b"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(1), types.NewStringField("first", 8)),
		makeTuple(t, td, types.NewIntField(2), types.NewStringField("top", 8)),
		makeTuple(t, td, types.NewIntField(1), types.NewStringField("second", 8)),
	}, td)

	keys := []binder.OrderKey{{Expr: expression.NewFieldExpr("t", "a", types.IntType), Desc: true}}
	sorter, err := NewOrderBy(&expression.EvalContext{}, keys, src)
	if err != nil {
		t.Fatalf("failed to create sort: %v", err)
	}

	rows := collect(t, sorter)
	top, _ := rows[0].FindField("t", "b")
	if top.String() != "top" {
		t.Errorf("expected 2 first descending, got %s", top)
	}

	// Equal keys keep input order.
	b1, _ := rows[1].FindField("t", "b")
	b2, _ := rows[2].FindField("t", "b")
	if b1.String() != "first" || b2.String() != "second" {
		t.Errorf("stable sort violated: got %s then %s", b1, b2)
	}
}

func TestProjectEvaluatesExpressions(t *testing.T) {
	td := mustDesc(t, []types.Type{types.IntType}, []string{"a"}, "t")
	src := iterator.NewSliceIterator([]*tuple.Tuple{
		makeTuple(t, td, types.NewIntField(3)),
	}, td)

	double := expression.NewArithmeticExpr(primitives.OpMul,
		expression.NewFieldExpr("t", "a", types.IntType),
		expression.NewValueExpr(types.NewIntField(2)))
	projections := []*binder.Projection{
		{Expr: double, Name: "doubled"},
	}

	project, err := NewProject(&expression.EvalContext{}, projections, src)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	rows := collect(t, project)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	v, err := rows[0].FindField("", "doubled")
	if err != nil {
		t.Fatalf("missing output column: %v", err)
	}
	if v.String() != "6" {
		t.Errorf("expected 6, got %s", v)
	}
}

func TestCalcOperator(t *testing.T) {
	sum := expression.NewArithmeticExpr(primitives.OpAdd,
		expression.NewValueExpr(types.NewIntField(1)),
		expression.NewValueExpr(types.NewIntField(2)))

	calc, err := NewCalc(&expression.EvalContext{}, []expression.Expr{sum})
	if err != nil {
		t.Fatalf("failed to create calc: %v", err)
	}

	rows := collect(t, calc)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	v, _ := rows[0].GetField(0)
	if v.String() != "3" {
		t.Errorf("expected 3, got %s", v)
	}
}
