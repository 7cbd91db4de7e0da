package postgres_test

import (
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/postgres"
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
	out, err := postgres.Postgres.Generator().Render(analyse(t, sql))
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

	want := `CREATE OR REPLACE PROCEDURE P1(
  v_id INT,
  INOUT v_name VARCHAR(50)
)
LANGUAGE plpgsql
AS $$
DECLARE
  v_n INT;
BEGIN
  v_n := 0;
  IF v_id > 0 THEN
    v_n := v_n + 1;
  ELSIF v_id < 0 THEN
    v_n := 2;
  ELSE
    RAISE NOTICE '%', 'zero';
  END IF;
  WHILE v_n < 10 LOOP
    v_n := v_n + 1;
    IF v_n = 5 THEN
      EXIT;
    END IF;
  END LOOP;
  SELECT name
  INTO v_name
  FROM users
  WHERE id = v_id;
  RETURN;
END;
$$;
`
	assert.Equal(t, want, got)
}

func TestRender_TableFunction(t *testing.T) {
	got := render(t, "CREATE FUNCTION dbo.f(@x INT) RETURNS @r TABLE (id INT) AS BEGIN INSERT INTO @r VALUES (@x); RETURN; END")
	want := `CREATE OR REPLACE FUNCTION f(
  v_x INT
)
RETURNS TABLE (
  id INT
)
LANGUAGE plpgsql
AS $$
#variable_conflict use_column
BEGIN
  DROP TABLE IF EXISTS v_r;
  CREATE TEMP TABLE v_r (
    id INT
  );
  INSERT INTO v_r
  VALUES (v_x);
  RETURN QUERY SELECT * FROM v_r;
  RETURN;
END;
$$;
`
	assert.Equal(t, want, got)
}

func TestRender_ScalarFunction(t *testing.T) {
	got := render(t, "CREATE FUNCTION dbo.f(@x INT) RETURNS BIT AS BEGIN RETURN CASE WHEN @x > 0 THEN 1 ELSE 0 END; END")
	assert.Contains(t, got, "RETURNS BOOLEAN\nLANGUAGE plpgsql\nAS $$\nBEGIN\n  RETURN CASE WHEN v_x > 0 THEN 1 ELSE 0 END;\nEND;\n$$;\n")
}

func TestRender_InlineFunction(t *testing.T) {
	got := render(t, "CREATE FUNCTION f(@x INT) RETURNS TABLE AS RETURN (SELECT a FROM t WHERE b = @x)")
	assert.Equal(t, "CREATE OR REPLACE FUNCTION f(\n  v_x INT\n)\nRETURNS SETOF record\nLANGUAGE sql\nAS $$\nSELECT a\nFROM t\nWHERE b = v_x;\n$$;\n", got)
}

func TestRender_View(t *testing.T) {
	got := render(t, "CREATE VIEW dbo.v AS SELECT a FROM t ORDER BY a OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY")
	assert.Equal(t, "CREATE OR REPLACE VIEW v AS\nSELECT a\nFROM t\nORDER BY a\nLIMIT 5 OFFSET 10;\n", got)
}

func TestRender_Trigger(t *testing.T) {
	got := render(t, "CREATE TRIGGER dbo.trg ON orders AFTER INSERT AS BEGIN INSERT INTO audit (id) SELECT id FROM inserted; END")
	want := `CREATE OR REPLACE FUNCTION trg_fn()
RETURNS trigger
LANGUAGE plpgsql
AS $$
BEGIN
  INSERT INTO audit (id)
  SELECT id
  FROM inserted;
  RETURN NULL;
END;
$$;

CREATE TRIGGER trg
AFTER INSERT ON orders
REFERENCING NEW TABLE AS inserted
FOR EACH STATEMENT
EXECUTE FUNCTION trg_fn();
`
	assert.Equal(t, want, got)
}

func TestRender_MultiEventTrigger(t *testing.T) {
	got := render(t, "CREATE TRIGGER trg ON orders AFTER INSERT, UPDATE AS PRINT 'changed';")
	assert.Contains(t, got, "AFTER INSERT OR UPDATE ON orders\nFOR EACH STATEMENT\n")
	assert.NotContains(t, got, "REFERENCING")
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
				"DECLARE\n  v_i INT;\n  cur CURSOR FOR\n    SELECT id\n    FROM t;\nBEGIN\n",
				"  OPEN cur;\n  FETCH NEXT FROM cur INTO v_i;\n",
				"  WHILE (CASE WHEN FOUND THEN 0 ELSE -1 END) = 0 LOOP\n",
				"  CLOSE cur;\n",
			},
			not: []string{"DEALLOCATE", "LOCAL"},
		},
		{
			name: "try catch",
			body: "BEGIN TRY INSERT INTO t (a) VALUES (1); END TRY BEGIN CATCH PRINT ERROR_MESSAGE(); END CATCH",
			want: []string{
				"  BEGIN\n    INSERT INTO t (a)\n    VALUES (1);\n  EXCEPTION WHEN OTHERS THEN\n    RAISE NOTICE '%', SQLERRM;\n  END;\n",
			},
		},
		{
			name: "dynamic sql",
			body: "EXEC ('SELECT 1');",
			want: []string{"  EXECUTE 'SELECT 1';\n"},
		},
		{
			name: "named arguments",
			body: "EXEC dbo.Other @a = 1, 2;",
			want: []string{"  CALL Other(v_a => 1, 2);\n"},
		},
		{
			name: "transaction",
			body: "BEGIN TRAN; UPDATE t SET a = 1; COMMIT TRAN;",
			want: []string{"BEGIN\n  UPDATE t\n  SET a = 1;\n  COMMIT;\n"},
			not:  []string{"TRAN"},
		},
		{
			name: "table variable",
			body: "DECLARE @t TABLE (id INT, flag BIT);",
			want: []string{"  DROP TABLE IF EXISTS v_t;\n  CREATE TEMP TABLE v_t (\n    id INT,\n    flag BOOLEAN\n  );\n"},
		},
		{
			name: "update with join",
			body: "UPDATE o SET o.total += 1 FROM orders o INNER JOIN customers c ON c.id = o.customer_id WHERE c.active = 0;",
			want: []string{"  UPDATE orders o\n  SET total = o.total + 1\n  FROM customers c\n  WHERE (c.id = o.customer_id) AND (c.active = 0);\n"},
		},
		{
			name: "delete with join",
			body: "DELETE o FROM orders o INNER JOIN gone g ON g.id = o.id WHERE g.flag = 1;",
			want: []string{"  DELETE FROM orders o\n  USING gone g\n  WHERE (g.id = o.id) AND (g.flag = 1);\n"},
		},
		{
			name: "select into temp table",
			body: "SELECT id INTO #ids FROM t;",
			want: []string{"  CREATE TEMP TABLE ids AS\n  SELECT id\n  FROM t;\n"},
		},
		{
			name: "translated types and functions",
			body: "DECLARE @d DATETIME = GETDATE(); DECLARE @u UNIQUEIDENTIFIER = NEWID();",
			want: []string{
				"  v_d TIMESTAMP(3);\n  v_u UUID;\n",
				"  v_d := NOW();\n  v_u := GEN_RANDOM_UUID();\n",
			},
		},
		{
			name: "top becomes limit",
			body: "SELECT TOP 3 id FROM t ORDER BY id;",
			want: []string{"  ORDER BY id\n  LIMIT 3;\n"},
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
		{"instead of trigger", "CREATE TRIGGER trg ON t INSTEAD OF INSERT AS PRINT 'x';", "INSTEAD OF trigger"},
		{"update top", "CREATE PROCEDURE p AS UPDATE TOP (5) t SET a = 1;", "TOP in UPDATE"},
		{"left join delete", "CREATE PROCEDURE p AS DELETE o FROM orders o LEFT JOIN x ON x.id = o.id;", "LEFT JOIN in UPDATE or DELETE"},
		{"transaction in function", "CREATE FUNCTION f(@a INT) RETURNS INT AS BEGIN COMMIT; RETURN 1; END", "transaction control in a function"},
		{"exec status", "CREATE PROCEDURE p AS DECLARE @r INT; EXEC @r = other;", "EXEC return status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := postgres.Postgres.Generator().Render(analyse(t, tt.sql))
			require.Error(t, err)

			var uc *core.UnsupportedConstructError
			require.ErrorAs(t, err, &uc)
			assert.Equal(t, "postgres", uc.Dialect)
			assert.Equal(t, tt.construct, uc.Construct)
		})
	}
}

func TestDialectRegistered(t *testing.T) {
	d, err := dialect.Lookup("postgres")
	require.NoError(t, err)
	assert.Same(t, postgres.Postgres, d)
	assert.Equal(t, "public", d.DefaultSchema)
	assert.Equal(t, `"user"`, d.QuoteIdentifierIfNeeded("user"))
	assert.Equal(t, "v_total", d.Variable("@total"))
}
