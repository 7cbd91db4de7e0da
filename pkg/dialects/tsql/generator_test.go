package tsql_test

import (
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, sql string) string {
	t.Helper()
	res := dialect.Analyse(tsql.TSQL.Analyser(), "", sql)
	require.True(t, res.OK(), "analyse: %v", res.Error)
	out, err := tsql.TSQL.Generator().Render(res.Script)
	require.NoError(t, err)
	return out
}

func TestRender_Procedure(t *testing.T) {
	got := render(t, `CREATE PROCEDURE dbo.P1 @id INT, @name NVARCHAR(50) OUTPUT AS
BEGIN
  IF @id > 0 SET @id = 1;
  RETURN;
END`)

	want := `CREATE PROCEDURE dbo.P1
  @id INT,
  @name NVARCHAR(50) OUTPUT
AS
BEGIN
  IF @id > 0
  BEGIN
    SET @id = 1;
  END
  RETURN;
END
`
	assert.Equal(t, want, got)
}

func TestRender_EmptyBranchGetsPlaceholder(t *testing.T) {
	got := render(t, "CREATE PROCEDURE p AS IF 1 = 1 BEGIN END ELSE PRINT 'no';")
	assert.Contains(t, got, "IF 1 = 1\n  BEGIN\n    PRINT('BLANK!');\n  END\n")
	assert.Contains(t, got, "ELSE\n  BEGIN\n    PRINT 'no';\n  END\n")
}

func TestRender_EmptyBlocksGetPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "procedure body",
			sql:  "CREATE PROCEDURE p AS BEGIN END",
			want: "AS\nBEGIN\n  PRINT('BLANK!');\nEND\n",
		},
		{
			name: "try and catch",
			sql:  "CREATE PROCEDURE p AS BEGIN TRY END TRY BEGIN CATCH END CATCH",
			want: "  BEGIN TRY\n    PRINT('BLANK!');\n  END TRY\n  BEGIN CATCH\n    PRINT('BLANK!');\n  END CATCH\n",
		},
		{
			name: "trigger body",
			sql:  "CREATE TRIGGER trg ON t AFTER INSERT AS BEGIN END",
			want: "AS\nBEGIN\n  PRINT('BLANK!');\nEND\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, tt.sql)
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, "BEGIN\nEND")

			again := dialect.Analyse(tsql.TSQL.Analyser(), "", got)
			require.True(t, again.OK(), "rendered text does not parse: %v\n%s", again.Error, got)
		})
	}
}

func TestRender_JoinChains(t *testing.T) {
	got := render(t, "CREATE VIEW v AS SELECT x FROM a JOIN b ON x = 1 JOIN c ON x = 2")
	assert.Contains(t, got, "FROM a\n  INNER JOIN b ON x = 1\n  INNER JOIN c ON x = 2")

	got = render(t, "CREATE VIEW v AS SELECT x FROM a JOIN b JOIN c JOIN d JOIN e ON x = 4 ON x = 3 ON x = 2 ON x = 1")
	assert.Contains(t, got, "FROM a\n  INNER JOIN b ON x = 1\n  INNER JOIN e ON x = 2\n  INNER JOIN c ON x = 3\n  INNER JOIN d ON x = 4")
}

func TestRender_View(t *testing.T) {
	got := render(t, "CREATE VIEW dbo.v (a, b) AS SELECT DISTINCT TOP 10 x, y AS z FROM t WHERE x > 1 ORDER BY x")
	want := `CREATE VIEW dbo.v (a, b)
AS
SELECT DISTINCT TOP (10) x,
  y AS z
FROM t
WHERE x > 1
ORDER BY x;
`
	assert.Equal(t, want, got)
}

func TestRender_Trigger(t *testing.T) {
	got := render(t, "CREATE TRIGGER trg ON orders FOR INSERT, DELETE AS BEGIN PRINT 'x'; END")
	want := `CREATE TRIGGER trg
ON orders
AFTER INSERT, DELETE
AS
BEGIN
  PRINT 'x';
END
`
	assert.Equal(t, want, got)
}

func TestRender_Function(t *testing.T) {
	got := render(t, "CREATE FUNCTION dbo.f(@x INT) RETURNS TABLE AS RETURN (SELECT a FROM t WHERE b = @x)")
	want := `CREATE FUNCTION dbo.f (
  @x INT
)
RETURNS TABLE
AS
RETURN (
  SELECT a
  FROM t
  WHERE b = @x
);
`
	assert.Equal(t, want, got)
}

// Rendered text must analyse back to the same structure.
func TestRender_RoundTrip(t *testing.T) {
	sources := []string{
		`CREATE PROCEDURE dbo.Orders @from DATE, @count INT OUTPUT AS
BEGIN
  SET NOCOUNT ON;
  DECLARE @t TABLE (id INT, total MONEY);
  DECLARE @i INT = 0;
  INSERT INTO @t (id, total) SELECT id, total FROM orders WHERE created >= @from;
  WITH recent AS (SELECT id, total FROM @t) SELECT id FROM recent;
  SELECT o.id, c.name
  FROM orders o
    INNER JOIN customers c ON c.id = o.customer_id
    LEFT JOIN regions r ON r.id = c.region_id
  WHERE o.total > 100
  UNION ALL
  SELECT id, 'none' FROM archive
  ORDER BY 1
  OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY;
  WHILE @i < 3
  BEGIN
    SET @i += 1;
    IF @i = 2 CONTINUE;
  END
  BEGIN TRY
    BEGIN TRAN;
    UPDATE TOP (5) orders SET total = total * 2 WHERE id = 1;
    DELETE FROM orders WHERE id = 2;
    COMMIT TRAN;
  END TRY
  BEGIN CATCH
    ROLLBACK TRAN;
  END CATCH
  DECLARE cur CURSOR LOCAL FAST_FORWARD FOR SELECT id FROM @t;
  OPEN cur;
  FETCH NEXT FROM cur INTO @i;
  CLOSE cur;
  DEALLOCATE cur;
  EXEC @count = dbo.CountOrders @from, @i OUTPUT;
  EXEC ('SELECT 1');
  TRUNCATE TABLE staging;
  SELECT @count = COUNT(*) FROM @t;
END`,
		"CREATE FUNCTION dbo.f(@x INT) RETURNS @r TABLE (id INT) AS BEGIN INSERT INTO @r VALUES (@x); RETURN; END",
		"CREATE VIEW v AS SELECT a FROM t1 INTERSECT SELECT a FROM t2",
		"CREATE TRIGGER trg ON t INSTEAD OF UPDATE AS UPDATE t SET a = 1 FROM t JOIN inserted i ON i.id = t.id;",
	}

	for _, src := range sources {
		first := dialect.Analyse(tsql.TSQL.Analyser(), "", src)
		require.True(t, first.OK(), "analyse source: %v", first.Error)

		out, err := tsql.TSQL.Generator().Render(first.Script)
		require.NoError(t, err)

		second := dialect.Analyse(tsql.TSQL.Analyser(), "", out)
		require.True(t, second.OK(), "rendered text does not parse: %v\n%s", second.Error, out)

		a, b := first.Script.Common(), second.Script.Common()
		assert.Equal(t, a.FullName(), b.FullName())
		assert.Len(t, b.Parameters, len(a.Parameters))
		assert.Equal(t, statementNames(a.Statements), statementNames(b.Statements), out)

		again, err := tsql.TSQL.Generator().Render(second.Script)
		require.NoError(t, err)
		assert.Equal(t, out, again, "rendering is stable")
	}
}

func statementNames(stmts []core.Statement) []string {
	var names []string
	core.Walk(stmts, func(s core.Statement) bool {
		names = append(names, core.StatementName(s))
		return true
	})
	return names
}

func TestRender_Unsupported(t *testing.T) {
	script := &core.RoutineScript{
		Kind: core.KindProcedure,
		CommonScript: core.CommonScript{
			Name:       core.Synthesize("p", core.TokenRoutineName),
			Statements: []core.Statement{&core.LoopStatement{Kind: core.LoopFor}},
		},
	}
	_, err := tsql.TSQL.Generator().Render(script)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedConstruct)

	var uc *core.UnsupportedConstructError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "tsql", uc.Dialect)
}

func TestDialectRegistered(t *testing.T) {
	d, err := dialect.Lookup("TSQL")
	require.NoError(t, err)
	assert.Same(t, tsql.TSQL, d)
	assert.Equal(t, []string{dialect.CapabilityAnalyse, dialect.CapabilityRender}, d.Capabilities())
	assert.True(t, d.IsKeyword("returns"))
}
