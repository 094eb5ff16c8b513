package sqlparse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accented-ai/tdlineage/internal/sqlast"
	"github.com/accented-ai/tdlineage/internal/sqlparse"
)

func parseOne(t *testing.T, sql string) *sqlast.Tree {
	t.Helper()

	res := sqlparse.New().Parse(sql)
	require.Empty(t, res.Errors, "unexpected parse errors: %v", res.Errors)
	require.Len(t, res.Trees, 1)

	return res.Trees[0]
}

func TestParseSimpleSelect(t *testing.T) {
	t.Parallel()

	tree := parseOne(t, "SELECT a, b FROM customers AS c WHERE c.id = 1;")

	root := tree.Arena.Get(tree.Root)
	require.Equal(t, sqlast.KindSelect, root.Kind)
	require.Len(t, root.Children, 2)

	fromID, ok := root.Child("from")
	require.True(t, ok)

	from := tree.Arena.Get(fromID)
	require.Equal(t, sqlast.KindTable, from.Kind)
	require.Equal(t, "customers", from.Text)
	require.Equal(t, "c", from.Alias)

	whereID, ok := root.Child("where")
	require.True(t, ok)

	where := tree.Arena.Get(whereID)
	require.Equal(t, sqlast.KindComparison, where.Kind)
	require.Equal(t, "=", where.Op)
}

func TestParseJoinChain(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.order_id, b.sku
		FROM sales.orders AS a
		JOIN sales.order_items AS b ON a.order_id = b.order_id
		WHERE a.status = 'OPEN';`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	fromID, ok := root.Child("from")
	require.True(t, ok)

	join := tree.Arena.Get(fromID)
	require.Equal(t, sqlast.KindJoin, join.Kind)
	require.Equal(t, "JOIN", join.Op)

	onID, ok := join.Child("on")
	require.True(t, ok)

	on := tree.Arena.Get(onID)
	require.Equal(t, sqlast.KindComparison, on.Kind)
	require.Equal(t, "=", on.Op)

	leftID, ok := join.Child("left")
	require.True(t, ok)

	left := tree.Arena.Get(leftID)
	require.Equal(t, "orders", left.Text)
	require.Equal(t, "sales", left.Schema)
	require.Equal(t, "a", left.Alias)
}

func TestParseDerivedTableWithRenamedColumn(t *testing.T) {
	t.Parallel()

	sql := `SELECT outer_t.cust_id
		FROM (SELECT customer_id AS cust_id FROM sales.customers) AS outer_t;`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	fromID, ok := root.Child("from")
	require.True(t, ok)

	sub := tree.Arena.Get(fromID)
	require.Equal(t, sqlast.KindSubquery, sub.Kind)
	require.Equal(t, "outer_t", sub.Alias)

	innerID, ok := sub.Child("query")
	require.True(t, ok)

	inner := tree.Arena.Get(innerID)
	require.Len(t, inner.Children, 1)

	proj := tree.Arena.Get(inner.Children[0])
	require.Equal(t, sqlast.KindColumn, proj.Kind)
	require.Equal(t, "customer_id", proj.Text)
	require.Equal(t, "cust_id", proj.Alias)
}

func TestParseCreateVolatileTable(t *testing.T) {
	t.Parallel()

	sql := `CREATE VOLATILE TABLE staging.tmp_orders AS (SELECT * FROM sales.orders)
		WITH DATA ON COMMIT PRESERVE ROWS;`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	require.Equal(t, sqlast.KindCreateTable, root.Kind)
	require.True(t, root.Temp)
	require.Equal(t, "staging", root.Schema)
	require.Equal(t, "tmp_orders", root.Text)

	_, ok := root.Child("query")
	require.True(t, ok)
}

func TestParseExistsSubquery(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.order_id FROM sales.orders AS a
		WHERE EXISTS (SELECT 1 FROM sales.order_items AS b WHERE b.order_id = a.order_id);`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	whereID, ok := root.Child("where")
	require.True(t, ok)

	where := tree.Arena.Get(whereID)
	require.Equal(t, sqlast.KindExists, where.Kind)

	_, ok = where.Child("query")
	require.True(t, ok)
}

func TestParseInWithFunctionCall(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.id FROM sales.customers AS a WHERE a.region IN (UPPER('a'), 'b');`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	whereID, ok := root.Child("where")
	require.True(t, ok)

	where := tree.Arena.Get(whereID)
	require.Equal(t, sqlast.KindIn, where.Kind)

	listID, ok := where.Child("list")
	require.True(t, ok)

	list := tree.Arena.Get(listID)
	require.Equal(t, sqlast.KindTuple, list.Kind)
	require.Len(t, list.Children, 2)

	first := tree.Arena.Get(list.Children[0])
	require.Equal(t, sqlast.KindFuncCall, first.Kind)
	require.Equal(t, "UPPER", first.Text)
}

func TestParseCallStatement(t *testing.T) {
	t.Parallel()

	tree := parseOne(t, "CALL sales.refresh_totals(1, 'x');")

	root := tree.Arena.Get(tree.Root)
	require.Equal(t, sqlast.KindCall, root.Kind)
	require.Equal(t, "sales", root.Schema)
	require.Equal(t, "refresh_totals", root.Text)
}

func TestParseBetween(t *testing.T) {
	t.Parallel()

	tree := parseOne(t, "SELECT a.id FROM sales.orders AS a WHERE a.amount BETWEEN 10 AND 20;")

	root := tree.Arena.Get(tree.Root)
	whereID, ok := root.Child("where")
	require.True(t, ok)

	where := tree.Arena.Get(whereID)
	require.Equal(t, sqlast.KindBetween, where.Kind)

	lowID, ok := where.Child("low")
	require.True(t, ok)
	require.Equal(t, "10", tree.Arena.Get(lowID).Text)
}

func TestParseMultipleStatementsWithTrailingSemicolons(t *testing.T) {
	t.Parallel()

	sql := `SELECT 1 FROM t1; SELECT 2 FROM t2;`

	res := sqlparse.New().Parse(sql)
	require.Empty(t, res.Errors)
	require.Len(t, res.Trees, 2)
}

func TestParseInvalidStatementReportsError(t *testing.T) {
	t.Parallel()

	res := sqlparse.New().Parse("BOGUS STATEMENT;")
	require.True(t, res.HasErrors())
	require.Len(t, res.Errors, 1)
}

func TestParseInsertSelect(t *testing.T) {
	t.Parallel()

	sql := `INSERT INTO sales.summary SELECT a.id FROM sales.orders AS a;`

	tree := parseOne(t, sql)

	root := tree.Arena.Get(tree.Root)
	require.Equal(t, sqlast.KindInsert, root.Kind)

	targetID, ok := root.Child("target")
	require.True(t, ok)
	require.Equal(t, "summary", tree.Arena.Get(targetID).Text)

	_, ok = root.Child("source")
	require.True(t, ok)
}
