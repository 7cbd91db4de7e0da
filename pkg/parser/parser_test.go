package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, sql string) *cst.Tree {
	t.Helper()
	tree, err := parser.Parse(sql)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

// bodyStatements parses sql as a procedure body and returns its statements.
func bodyStatements(t *testing.T, body string) []*cst.Node {
	t.Helper()
	tree := mustParse(t, "CREATE PROCEDURE p AS\n"+body)
	root := cst.GetDdlRoot(tree)
	require.NotNil(t, root)

	var stmts []*cst.Node
	for _, c := range root.Children {
		switch c.Kind {
		case cst.Terminal, cst.SchemaObjectName, cst.ProcedureParam, cst.RoutineOption:
			continue
		}
		stmts = append(stmts, c)
	}
	return stmts
}

// ---------- Create statements ----------

func TestParseCreateKinds(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want cst.Kind
	}{
		{"procedure", "CREATE PROCEDURE dbo.P1 AS SELECT 1", cst.CreateProcedure},
		{"proc alter", "ALTER PROC P1 AS RETURN", cst.CreateProcedure},
		{"create or alter", "CREATE OR ALTER PROCEDURE P1 AS RETURN", cst.CreateProcedure},
		{"scalar function", "CREATE FUNCTION dbo.F(@a int) RETURNS int AS BEGIN RETURN @a + 1 END", cst.CreateFunction},
		{"inline function", "CREATE FUNCTION dbo.F(@a int) RETURNS TABLE AS RETURN (SELECT a FROM t WHERE a = @a)", cst.CreateFunction},
		{"view", "CREATE VIEW dbo.V (a, b) AS SELECT a, b FROM t", cst.CreateView},
		{"trigger", "CREATE TRIGGER dbo.T ON dbo.Orders AFTER INSERT, UPDATE AS SET NOCOUNT ON", cst.CreateTrigger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.sql)
			root := cst.GetDdlRoot(tree)
			require.NotNil(t, root)
			assert.Equal(t, tt.want, root.Kind)
		})
	}
}

func TestParseProcedureHeader(t *testing.T) {
	sql := `CREATE PROCEDURE [dbo].[P1]
	@id INT,
	@name NVARCHAR(50) = N'x',
	@total DECIMAL(10, 2) OUTPUT
AS
BEGIN
	SELECT @total = SUM(amount) FROM dbo.Orders WHERE id = @id
END`
	tree := mustParse(t, sql)
	root := cst.GetDdlRoot(tree)
	require.NotNil(t, root)

	name := root.Child(cst.SchemaObjectName)
	require.NotNil(t, name)
	assert.Equal(t, "[dbo].[P1]", tree.Text(name))

	params := root.ChildrenOf(cst.ProcedureParam)
	require.Len(t, params, 3)
	assert.Equal(t, "NVARCHAR(50)", tree.Text(params[1].Child(cst.DataType)))
	assert.NotNil(t, params[1].Child(cst.DefaultValue))
	assert.True(t, params[2].HasWord("OUTPUT"))

	assert.NotNil(t, root.Child(cst.Block))
}

func TestParseFunctionReturns(t *testing.T) {
	sql := `CREATE FUNCTION dbo.F() RETURNS @r TABLE (id int PRIMARY KEY, name varchar(10) DEFAULT 'a')
AS BEGIN
	INSERT INTO @r VALUES (1, 'x')
	RETURN
END`
	tree := mustParse(t, sql)
	root := cst.GetDdlRoot(tree)
	returns := root.Child(cst.ReturnsTable)
	require.NotNil(t, returns)

	def := returns.Child(cst.TableTypeDefinition)
	require.NotNil(t, def)
	cols := def.ChildrenOf(cst.ColumnDefinition)
	require.Len(t, cols, 2)
	assert.NotNil(t, cols[1].Child(cst.DefaultValue))
}

// ---------- Statements ----------

func TestParseStatementKinds(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []cst.Kind
	}{
		{"block", "BEGIN SELECT 1 END", []cst.Kind{cst.Block}},
		{"if else", "IF @a > 1 PRINT 'a' ELSE PRINT 'b'", []cst.Kind{cst.IfStatement}},
		{"while", "WHILE @i < 10 SET @i += 1", []cst.Kind{cst.WhileStatement}},
		{"try catch", "BEGIN TRY SELECT 1 END TRY BEGIN CATCH ROLLBACK END CATCH", []cst.Kind{cst.TryCatchStatement}},
		{"transaction", "BEGIN TRAN; COMMIT TRANSACTION", []cst.Kind{cst.TransactionStatement, cst.TransactionStatement}},
		{"declare", "DECLARE @a int = 1, @b varchar(10)", []cst.Kind{cst.DeclareStatement}},
		{"declare cursor", "DECLARE c CURSOR LOCAL FAST_FORWARD FOR SELECT a FROM t", []cst.Kind{cst.DeclareCursor}},
		{"cursor ops", "OPEN c FETCH NEXT FROM c INTO @a CLOSE c DEALLOCATE c", []cst.Kind{cst.OpenCursor, cst.FetchCursor, cst.CloseCursor, cst.DeallocateCursor}},
		{"exec", "EXEC dbo.P2 @a = 1, @b OUTPUT", []cst.Kind{cst.ExecuteStatement}},
		{"dynamic exec", "EXEC (@sql)", []cst.Kind{cst.ExecuteStatement}},
		{"dml", "INSERT INTO t (a) VALUES (1) UPDATE t SET a = 2 DELETE FROM t TRUNCATE TABLE t", []cst.Kind{cst.InsertStatement, cst.UpdateStatement, cst.DeleteStatement, cst.TruncateTable}},
		{"return value", "RETURN 1", []cst.Kind{cst.ReturnStatement}},
		{"break continue", "WHILE 1 = 1 BEGIN BREAK CONTINUE END", []cst.Kind{cst.WhileStatement}},
		{"other", "RAISERROR('x', 16, 1) DROP TABLE #t", []cst.Kind{cst.Other, cst.Other}},
		{"label", "retry: GOTO retry", []cst.Kind{cst.Other, cst.Other}},
		{"set options", "SET NOCOUNT ON\nSET XACT_ABORT ON", []cst.Kind{cst.SetStatement, cst.SetStatement}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := bodyStatements(t, tt.body)
			kinds := make([]cst.Kind, len(stmts))
			for i, s := range stmts {
				kinds[i] = s.Kind
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestParseReturnWithoutValue(t *testing.T) {
	stmts := bodyStatements(t, "IF @a IS NULL RETURN;\nSELECT 1")
	require.Len(t, stmts, 2)

	ret := stmts[0].Child(cst.ReturnStatement)
	require.NotNil(t, ret)
	assert.Nil(t, ret.Child(cst.Expression))
	assert.Equal(t, cst.SelectStatement, stmts[1].Kind)
}

func TestParseFetchVariables(t *testing.T) {
	tree := mustParse(t, "CREATE PROCEDURE p AS FETCH NEXT FROM cur INTO @a, @b")
	fetch := cst.GetDdlRoot(tree).Find(cst.FetchCursor)
	require.NotNil(t, fetch)

	var vars []string
	for _, c := range fetch.Children {
		if c.Kind == cst.Terminal && strings.HasPrefix(c.Token.Literal, "@") {
			vars = append(vars, c.Token.Literal)
		}
	}
	assert.Equal(t, []string{"@a", "@b"}, vars)
	assert.Equal(t, "cur", tree.Text(fetch.Child(cst.CursorName)))
}

func TestParseElseIfNests(t *testing.T) {
	stmts := bodyStatements(t, "IF @a = 1 PRINT 'a' ELSE IF @a = 2 PRINT 'b' ELSE PRINT 'c'")
	require.Len(t, stmts, 1)

	outer := stmts[0]
	inner := outer.Child(cst.IfStatement)
	require.NotNil(t, inner, "ELSE IF is an IF statement inside the ELSE branch")
	assert.Len(t, inner.ChildrenOf(cst.PrintStatement), 2)
}

// ---------- Queries ----------

func TestParseSelectClauses(t *testing.T) {
	sql := `CREATE VIEW v AS
WITH c (id) AS (SELECT id FROM t)
SELECT DISTINCT TOP (10) c.id, t.name AS n, total = a + b, COUNT(*) cnt, t.*
FROM c JOIN dbo.t ON t.id = c.id
WHERE t.x BETWEEN 1 AND 2 AND t.y NOT IN (1, 2) AND t.z LIKE 'a%'
GROUP BY c.id, t.name
HAVING COUNT(*) > 1
UNION ALL SELECT 1, 2, 3, 4, 5
ORDER BY 1 DESC OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY`
	tree := mustParse(t, sql)
	sel := cst.GetDdlRoot(tree).Child(cst.SelectStatement)
	require.NotNil(t, sel)

	assert.NotNil(t, sel.Child(cst.WithExpression))
	assert.NotNil(t, sel.Child(cst.SetOperation))
	assert.NotNil(t, sel.Child(cst.OrderByClause))
	assert.NotNil(t, sel.Child(cst.OffsetClause))
	assert.NotNil(t, sel.Child(cst.FetchClause))

	spec := sel.Child(cst.QuerySpecification)
	require.NotNil(t, spec)
	assert.NotNil(t, spec.Child(cst.TopClause))

	list := spec.Child(cst.SelectList)
	require.NotNil(t, list)
	kinds := []cst.Kind{}
	for _, c := range list.Children {
		if c.Kind != cst.Terminal {
			kinds = append(kinds, c.Kind)
		}
	}
	assert.Equal(t, []cst.Kind{cst.ColumnElem, cst.ColumnElem, cst.ExpressionElem, cst.ExpressionElem, cst.Asterisk}, kinds)
	assert.Len(t, spec.ChildrenOf(cst.GroupByItem), 2)
	assert.Len(t, spec.ChildrenOf(cst.SearchCondition), 2)
}

func TestParseNestedJoins(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM a JOIN b JOIN c ON b.id = c.id ON a.id = b.id")
	source := tree.Root.Find(cst.TableSource)
	require.NotNil(t, source)

	joins := source.ChildrenOf(cst.JoinPart)
	require.Len(t, joins, 1)

	nested := joins[0].Child(cst.TableSource)
	require.NotNil(t, nested)
	require.Len(t, nested.ChildrenOf(cst.JoinPart), 1)
	assert.Equal(t, "b.id = c.id", tree.Text(nested.Child(cst.JoinPart).Child(cst.SearchCondition)))
	assert.Equal(t, "a.id = b.id", tree.Text(joins[0].Child(cst.SearchCondition)))
}

func TestParseFlatJoins(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id CROSS JOIN c INNER HASH JOIN d ON d.id = a.id")
	source := tree.Root.Find(cst.TableSource)
	require.NotNil(t, source)
	assert.Len(t, source.ChildrenOf(cst.JoinPart), 3)
}

func TestParsePivot(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM sales PIVOT (SUM(amount) FOR quarter IN ([Q1], [Q2])) AS p")
	pivot := tree.Root.Find(cst.PivotClause)
	require.NotNil(t, pivot)
	assert.Len(t, pivot.ChildrenOf(cst.ColumnAlias), 2)
	assert.NotNil(t, pivot.Child(cst.FunctionCall))
}

func TestParseDerivedTable(t *testing.T) {
	tree := mustParse(t, "SELECT x.a FROM (SELECT a FROM t) AS x (a) WITH (NOLOCK)")
	item := tree.Root.Find(cst.TableSourceItem)
	require.NotNil(t, item)
	assert.NotNil(t, item.Child(cst.DerivedTable))
	assert.Equal(t, "x", tree.Text(item.Child(cst.TableAlias)))
	assert.NotNil(t, item.Child(cst.ColumnNameList))
}

func TestParseCaseAndFunctions(t *testing.T) {
	tree := mustParse(t, `SELECT CASE WHEN a > 1 THEN 'x' ELSE 'y' END,
	CAST(a AS varchar(10)), ROW_NUMBER() OVER (PARTITION BY b ORDER BY c), LEFT(s, 2)
FROM t WHERE EXISTS (SELECT 1 FROM u WHERE u.id = t.id)`)
	assert.NotNil(t, tree.Root.Find(cst.CaseExpression))
	assert.NotNil(t, tree.Root.Find(cst.OverClause))
	assert.Len(t, tree.Root.FindAll(cst.FunctionCall), 3)
	assert.NotNil(t, tree.Root.Find(cst.Subquery))
}

// ---------- Errors ----------

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		line   int
		column int
		msg    string
	}{
		{
			name:   "missing select list",
			sql:    "CREATE PROCEDURE p AS\nSELECT FROM t",
			line:   2,
			column: 8,
			msg:    `"FROM"`,
		},
		{
			name:   "unclosed block",
			sql:    "CREATE PROCEDURE p AS BEGIN SELECT 1",
			line:   1,
			column: 37,
			msg:    "end of input",
		},
		{
			name:   "apply",
			sql:    "SELECT * FROM a CROSS APPLY f(a.id)",
			line:   1,
			column: 17,
			msg:    "CROSS APPLY is not supported",
		},
		{
			name:   "unterminated string",
			sql:    "SELECT 'abc",
			line:   1,
			column: 8,
			msg:    "unterminated string literal",
		},
		{
			name:   "unknown statement",
			sql:    "CREATE PROCEDURE p AS\n  FOO 1",
			line:   2,
			column: 3,
			msg:    "at start of statement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql)
			require.Error(t, err)

			var se *core.SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.column, se.Column)
			assert.Contains(t, se.Message, tt.msg)
		})
	}
}

// ---------- Tree shape ----------

func TestParseCoversSource(t *testing.T) {
	sql := "CREATE PROCEDURE p AS\nBEGIN\n  SET NOCOUNT ON;\n  SELECT a FROM t;\nEND"
	tree := mustParse(t, sql)
	root := cst.GetDdlRoot(tree)
	assert.Equal(t, sql, tree.Text(root))
}

func TestParseBatches(t *testing.T) {
	sql := "SET ANSI_NULLS ON\nGO\nCREATE PROCEDURE p AS SELECT 1\nGO\nCREATE VIEW v AS SELECT 2\nGO"
	tree := mustParse(t, sql)

	root := cst.GetDdlRoot(tree)
	require.NotNil(t, root)
	assert.Equal(t, cst.CreateProcedure, root.Kind)

	var creates int
	for _, c := range tree.Root.Children {
		if c.Kind.IsCreate() {
			creates++
		}
	}
	assert.Equal(t, 2, creates)
}
