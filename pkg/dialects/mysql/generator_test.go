package mysql_test

import (
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/mysql"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyse(t *testing.T, sql string) core.Script {
	t.Helper()
	res := dialect.Analyse(tsql.TSQL.Analyser(), "", sql)
	require.True(t, res.OK(), "analyse: %v", res.Error)
	return res.Script
}

func render(t *testing.T, sql string) string {
	t.Helper()
	out, err := mysql.MySQL.Generator().Render(analyse(t, sql))
	require.NoError(t, err)
	return out
}

func TestRender_Procedure(t *testing.T) {
	got := render(t, `CREATE PROCEDURE dbo.P1 @id INT, @name NVARCHAR(50) OUTPUT AS
BEGIN
  SET NOCOUNT ON;
  DECLARE @n INT = 0;
  IF @id > 0
  BEGIN
    SET @n += 1;
  END
  ELSE IF @id < 0
  BEGIN
    SET @n = 2;
  END
  ELSE
  BEGIN
    PRINT 'zero';
  END
  WHILE @n < 10
  BEGIN
    SET @n = @n + 1;
    IF @n = 5 BREAK;
  END
  SELECT @name = name FROM users WHERE id = @id;
  RETURN;
END`)

	want := `CREATE PROCEDURE P1(
  IN v_id INT,
  INOUT v_name VARCHAR(50)
)
proc_body: BEGIN
  DECLARE v_n INT;
  SET v_n = 0;
  IF v_id > 0 THEN
    SET v_n = v_n + 1;
  ELSEIF v_id < 0 THEN
    SET v_n = 2;
  ELSE
    SELECT 'zero';
  END IF;
  loop_1: WHILE v_n < 10 DO
    SET v_n = v_n + 1;
    IF v_n = 5 THEN
      LEAVE loop_1;
    END IF;
  END WHILE loop_1;
  SELECT name
  INTO v_name
  FROM users
  WHERE id = v_id;
  LEAVE proc_body;
END proc_body;
`
	assert.Equal(t, want, got)
}

func TestRender_Function(t *testing.T) {
	got := render(t, "CREATE FUNCTION dbo.f(@x INT) RETURNS INT AS BEGIN RETURN @x * 2; END")
	want := `CREATE FUNCTION f(
  v_x INT
)
RETURNS INT
READS SQL DATA
BEGIN
  RETURN v_x * 2;
END;
`
	assert.Equal(t, want, got)
}

func TestRender_View(t *testing.T) {
	got := render(t, "CREATE VIEW dbo.v AS SELECT TOP 5 a, ISNULL(b, GETDATE()) AS b FROM t ORDER BY a")
	want := "CREATE OR REPLACE VIEW v AS\nSELECT a,\n  IFNULL(b, NOW()) AS b\nFROM t\nORDER BY a\nLIMIT 5;\n"
	assert.Equal(t, want, got)
}

func TestRender_TriggerPerEvent(t *testing.T) {
	got := render(t, "CREATE TRIGGER trg ON orders AFTER INSERT, DELETE AS BEGIN UPDATE stats SET n = n + 1; END")
	want := `CREATE TRIGGER trg_insert
AFTER INSERT ON orders
FOR EACH ROW
BEGIN
  UPDATE stats
  SET n = n + 1;
END;

CREATE TRIGGER trg_delete
AFTER DELETE ON orders
FOR EACH ROW
BEGIN
  UPDATE stats
  SET n = n + 1;
END;
`
	assert.Equal(t, want, got)
}

func TestRender_Statements(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
		not  []string
	}{
		{
			name: "cursor loop",
			body: `DECLARE @i INT;
DECLARE cur CURSOR LOCAL FOR SELECT id FROM t;
OPEN cur;
FETCH NEXT FROM cur INTO @i;
WHILE @@FETCH_STATUS = 0
BEGIN
  FETCH NEXT FROM cur INTO @i;
END
CLOSE cur;
DEALLOCATE cur;`,
			want: []string{
				"  DECLARE v_i INT;\n  DECLARE v_fetch_status INT DEFAULT 0;\n  DECLARE cur CURSOR FOR\n",
				"  DECLARE CONTINUE HANDLER FOR NOT FOUND SET v_fetch_status = -1;\n",
				"  SET v_fetch_status = 0;\n  OPEN cur;\n",
				"  FETCH cur INTO v_i;\n",
				"loop_1: WHILE v_fetch_status = 0 DO\n",
				"  CLOSE cur;\n",
			},
			not: []string{"DEALLOCATE", "LOCAL"},
		},
		{
			name: "try catch",
			body: "BEGIN TRY INSERT INTO t (a) VALUES (1); END TRY BEGIN CATCH ROLLBACK; END CATCH",
			want: []string{
				"  BEGIN\n    DECLARE EXIT HANDLER FOR SQLEXCEPTION\n    BEGIN\n      ROLLBACK;\n    END;\n    INSERT INTO t (a)\n    VALUES (1);\n  END;\n",
			},
		},
		{
			name: "dynamic sql",
			body: "EXEC ('DELETE FROM t');",
			want: []string{"  SET @sql = 'DELETE FROM t';\n  PREPARE stmt FROM @sql;\n  EXECUTE stmt;\n  DEALLOCATE PREPARE stmt;\n"},
		},
		{
			name: "sp_executesql",
			body: "EXEC sp_executesql N'SELECT 1';",
			want: []string{"  SET @sql = 'SELECT 1';\n"},
		},
		{
			name: "procedure call",
			body: "EXEC dbo.Other @a = 1, 2;",
			want: []string{"  CALL Other(1, 2);\n"},
		},
		{
			name: "transaction",
			body: "BEGIN TRAN; COMMIT TRAN;",
			want: []string{"  START TRANSACTION;\n  COMMIT;\n"},
		},
		{
			name: "table variable",
			body: "DECLARE @t TABLE (id INT, flag BIT); INSERT INTO @t (id) SELECT id FROM x;",
			want: []string{
				"  DROP TEMPORARY TABLE IF EXISTS v_t;\n  CREATE TEMPORARY TABLE v_t (\n    id INT,\n    flag TINYINT(1)\n  );\n",
				"  INSERT INTO v_t (id)\n  SELECT id\n  FROM x;\n",
			},
		},
		{
			name: "update with join",
			body: "UPDATE o SET total = 0 FROM orders o INNER JOIN customers c ON c.id = o.customer_id WHERE c.active = 0;",
			want: []string{"  UPDATE orders o\n    INNER JOIN customers c ON c.id = o.customer_id\n  SET total = 0\n  WHERE c.active = 0;\n"},
		},
		{
			name: "delete top",
			body: "DELETE TOP (10) FROM log WHERE old = 1;",
			want: []string{"  DELETE FROM log\n  WHERE old = 1\n  LIMIT 10;\n"},
		},
		{
			name: "delete with join",
			body: "DELETE o FROM orders o INNER JOIN gone g ON g.id = o.id;",
			want: []string{"  DELETE o\n  FROM orders o\n    INNER JOIN gone g ON g.id = o.id;\n"},
		},
		{
			name: "select into temp table",
			body: "SELECT id INTO #ids FROM t;",
			want: []string{"  CREATE TEMPORARY TABLE ids AS\n  SELECT id\n  FROM t;\n"},
		},
		{
			name: "paging",
			body: "SELECT id FROM t ORDER BY id OFFSET 5 ROWS;",
			want: []string{"  LIMIT 18446744073709551615 OFFSET 5;\n"},
		},
		{
			name: "system variables",
			body: "DECLARE @n INT; SET @n = @@ROWCOUNT;",
			want: []string{"  SET v_n = ROW_COUNT();\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, "CREATE PROCEDURE p AS\nBEGIN\n"+tt.body+"\nEND")
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, got, n)
			}
		})
	}
}

func TestRender_Unsupported(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		construct string
	}{
		{"table function", "CREATE FUNCTION f(@a INT) RETURNS @r TABLE (id INT) AS BEGIN RETURN; END", "table-valued function"},
		{"inline function", "CREATE FUNCTION f(@a INT) RETURNS TABLE AS RETURN (SELECT 1 AS a)", "table-valued function"},
		{"instead of trigger", "CREATE TRIGGER trg ON t INSTEAD OF INSERT AS PRINT 'x';", "INSTEAD OF trigger"},
		{"fetch prior", "CREATE PROCEDURE p AS DECLARE c CURSOR SCROLL FOR SELECT 1; FETCH PRIOR FROM c INTO @x;", "FETCH PRIOR"},
		{"full join", "CREATE VIEW v AS SELECT a FROM t FULL JOIN u ON u.id = t.id", "FULL JOIN"},
		{"transaction in trigger", "CREATE TRIGGER trg ON t AFTER INSERT AS COMMIT;", "transaction control in a trigger"},
		{"exec status", "CREATE PROCEDURE p AS DECLARE @r INT; EXEC @r = other;", "EXEC return status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mysql.MySQL.Generator().Render(analyse(t, tt.sql))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUnsupportedConstruct)

			var uc *core.UnsupportedConstructError
			require.ErrorAs(t, err, &uc)
			assert.Equal(t, "mysql", uc.Dialect)
			assert.Equal(t, tt.construct, uc.Construct)
		})
	}
}

func TestRender_BreakOutsideLoop(t *testing.T) {
	script := &core.RoutineScript{
		Kind: core.KindProcedure,
		CommonScript: core.CommonScript{
			Name:       core.Synthesize("p", core.TokenRoutineName),
			Statements: []core.Statement{&core.BreakStatement{}},
		},
	}
	_, err := mysql.MySQL.Generator().Render(script)
	assert.ErrorIs(t, err, core.ErrUnsupportedConstruct)
}

func TestDialectRegistered(t *testing.T) {
	d, err := dialect.Lookup("MySQL")
	require.NoError(t, err)
	assert.Same(t, mysql.MySQL, d)
	assert.Equal(t, []string{dialect.CapabilityRender}, d.Capabilities())
	assert.Equal(t, "`order`", d.QuoteIdentifierIfNeeded("order"))
}
