package lineage_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accented-ai/tdlineage/internal/lineage"
	"github.com/accented-ai/tdlineage/internal/sqlparse"
)

func extractSQL(t *testing.T, sql string) *lineage.Report {
	t.Helper()

	res := sqlparse.New().Parse(sql)
	require.Empty(t, res.Errors, "unexpected parse errors: %v", res.Errors)

	report, err := lineage.Extract(res.Trees, "teradata")
	require.NoError(t, err)

	return report
}

func TestScenarioJoinAndEqualityFilter(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.order_id, b.amount FROM sales.orders a
		LEFT JOIN sales.order_items b ON a.order_id = b.order_id
		WHERE b.transaction_id = 117;`

	report := extractSQL(t, sql)

	require.Equal(t, []string{"sales.order_items", "sales.orders"}, report.Tables)
	require.Equal(t, []string{"order_id"}, report.Variables["sales.orders"])
	require.Equal(t, []string{"amount", "order_id", "transaction_id"}, report.Variables["sales.order_items"])

	conds := report.Values["sales.order_items"]["transaction_id"]
	require.Len(t, conds, 1)
	require.Equal(t, "=", conds[0].Op)
	require.EqualValues(t, 117, conds[0].Value)

	pc := report.Pseudocode["Operation 1"]
	require.Len(t, pc, 1)
	require.Equal(t, "(sales.orders.order_id == sales.order_items.order_id)", pc[0].Join)
	require.Equal(t, "(sales.order_items.transaction_id == 117)", pc[0].Where)
}

func TestScenarioRenamedDerivedTableColumn(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.cust_id FROM (SELECT customer_id AS cust_id FROM sales.orders) a;`

	report := extractSQL(t, sql)

	require.Equal(t, []string{"sales.orders"}, report.Tables)
	require.Equal(t, []string{"customer_id"}, report.Variables["sales.orders"])
	require.Empty(t, report.Warnings)
}

func TestScenarioSelectStarWarns(t *testing.T) {
	t.Parallel()

	report := extractSQL(t, "SELECT * FROM sales.orders;")

	require.Equal(t, []string{"*"}, report.Variables["sales.orders"])

	found := false

	for _, w := range report.Warnings {
		if w == "select_star_used: table sales.orders has '*' referenced" {
			found = true
		}
	}

	require.True(t, found, "expected a select_star_used warning, got %v", report.Warnings)
}

func TestScenarioVolatileTableThenReference(t *testing.T) {
	t.Parallel()

	sql := `CREATE VOLATILE TABLE vt AS (SELECT * FROM sales.orders) WITH DATA ON COMMIT PRESERVE ROWS;
		SELECT vt.order_id FROM vt;`

	report := extractSQL(t, sql)

	require.Contains(t, report.TempTables, "vt")
	require.NotContains(t, report.CreatedObjects, "vt")
	require.Contains(t, report.Tables, "sales.orders")
	require.Contains(t, report.Tables, "vt")
}

func TestScenarioExistsCorrelatedSubquery(t *testing.T) {
	t.Parallel()

	sql := `SELECT o.order_id FROM sales.orders o
		WHERE EXISTS (SELECT 1 FROM sales.order_items i WHERE i.order_id = o.order_id);`

	report := extractSQL(t, sql)

	require.Contains(t, report.Pseudocode, "Operation 1")
	require.Contains(t, report.Pseudocode, "Operation 1.1")

	require.Contains(t, report.Pseudocode["Operation 1"][0].Where, "EXISTS(Operation 1.1)")
	require.Equal(t, "(sales.order_items.order_id == sales.orders.order_id)",
		report.Pseudocode["Operation 1.1"][0].Where)
}

func TestScenarioInWithWrappedElement(t *testing.T) {
	t.Parallel()

	sql := `SELECT * FROM sales.order_items b WHERE b.status IN (UPPER('a'), 'b');`

	report := extractSQL(t, sql)

	conds := report.Values["sales.order_items"]["status"]
	require.Len(t, conds, 1)

	cond := conds[0]
	require.Equal(t, "in", cond.Op)
	require.Equal(t, []any{"a", "b"}, cond.Values)
	require.Len(t, cond.ValueFns, 2)
	require.NotNil(t, cond.ValueFns[0])
	require.Equal(t, "UPPER", *cond.ValueFns[0])
	require.Nil(t, cond.ValueFns[1])
}

func TestInvariantTablesExcludeCTEsAndWriteTargets(t *testing.T) {
	t.Parallel()

	sql := `WITH recent AS (SELECT order_id FROM sales.orders)
		INSERT INTO sales.summary
		SELECT order_id FROM recent;`

	report := extractSQL(t, sql)

	require.Contains(t, report.CTEs, "recent")
	require.Contains(t, report.WriteTargets, "sales.summary")

	for _, table := range report.Tables {
		require.NotContains(t, report.CTEs, table)
		require.NotContains(t, report.CreatedObjects, table)
		require.NotContains(t, report.WriteTargets, table)
	}
}

func TestInvariantVariableKeysSubsetOfTables(t *testing.T) {
	t.Parallel()

	report := extractSQL(t, "SELECT a.id, a.name FROM sales.customers a WHERE a.region = 'EAST';")

	tableSet := map[string]bool{}
	for _, tb := range report.Tables {
		tableSet[tb] = true
	}

	for table := range report.Variables {
		require.True(t, tableSet[table], "variables key %q missing from _tables", table)
	}

	for table, byCol := range report.Values {
		for col := range byCol {
			require.Contains(t, report.Variables[table], col)
		}
	}
}

func TestInvariantDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.order_id, b.amount FROM sales.orders a
		JOIN sales.order_items b ON a.order_id = b.order_id
		WHERE b.amount > 10 AND a.status IN ('OPEN', 'PENDING');`

	first := extractSQL(t, sql)
	second := extractSQL(t, sql)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	require.Equal(t, string(firstJSON), string(secondJSON))
}

func TestInvariantNoDuplicateConditions(t *testing.T) {
	t.Parallel()

	sql := `SELECT a.id FROM sales.customers a
		WHERE a.region = 'EAST' OR a.region = 'EAST';`

	report := extractSQL(t, sql)

	require.Len(t, report.Values["sales.customers"]["region"], 1)
}

func TestRoundTripAliasRenameLeavesAttributionIdentical(t *testing.T) {
	t.Parallel()

	reportA := extractSQL(t, "SELECT a.id FROM sales.customers a WHERE a.region = 'EAST';")
	reportB := extractSQL(t, "SELECT z.id FROM sales.customers z WHERE z.region = 'EAST';")

	require.Equal(t, reportA.Tables, reportB.Tables)
	require.Equal(t, reportA.Variables, reportB.Variables)
	require.Equal(t, reportA.Values, reportB.Values)
}

func TestRoundTripFunctionWrapDoesNotChangeAttribution(t *testing.T) {
	t.Parallel()

	plain := extractSQL(t, "SELECT a.id FROM sales.customers a WHERE a.region = 'east';")
	wrapped := extractSQL(t, "SELECT a.id FROM sales.customers a WHERE UPPER(a.region) = 'east';")

	require.Equal(t, plain.Tables, wrapped.Tables)
	require.Equal(t, plain.Variables, wrapped.Variables)

	cond := wrapped.Values["sales.customers"]["region"][0]
	require.Equal(t, "upper", cond.Fn)
	require.Len(t, cond.FnStack, 1)
	require.Equal(t, "UPPER", cond.FnStack[0].Fn)
	require.Empty(t, cond.FnStack[0].Args)
}

func TestProcedureCallCataloged(t *testing.T) {
	t.Parallel()

	report := extractSQL(t, "CALL sales.refresh_totals(1);")

	require.Len(t, report.Functions, 1)
	require.Equal(t, "sales.refresh_totals", report.Functions[0].Name)
	require.Equal(t, "procedure", report.Functions[0].Type)
	require.Nil(t, report.Functions[0].Builtin)
}

func TestBuiltinFunctionCataloged(t *testing.T) {
	t.Parallel()

	report := extractSQL(t, "SELECT UPPER(a.name) FROM sales.customers a;")

	require.Len(t, report.Functions, 1)
	require.Equal(t, "UPPER", report.Functions[0].Name)
	require.Equal(t, "function", report.Functions[0].Type)
	require.Nil(t, report.Functions[0].Builtin)
}

func TestMetaReflectsStatementCount(t *testing.T) {
	t.Parallel()

	report := extractSQL(t, "SELECT 1 FROM t1; SELECT 2 FROM t2;")

	require.Equal(t, 2, report.Meta.Statements)
	require.Equal(t, "teradata", report.Meta.Dialect)
	require.Equal(t, []string{"t1", "t2"}, report.Tables)
}
