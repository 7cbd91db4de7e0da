package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlconvert/internal/testutil"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}

func newLoader(t *testing.T) *Loader {
	return New(tsql.TSQL.Analyser(), testutil.NewTestLogger(t))
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"procs/get_orders.sql":    "CREATE PROCEDURE dbo.GetOrders AS SELECT id FROM orders;",
		"views/v_orders.SQL":      "CREATE VIEW dbo.v_orders AS SELECT id FROM orders",
		"functions/total.sql":     "CREATE FUNCTION dbo.Total(@a INT) RETURNS INT AS BEGIN RETURN @a; END",
		"triggers/audit.sql":      "CREATE TRIGGER trg ON orders AFTER INSERT AS PRINT 'x';",
		"notes.txt":               "not sql",
		".hidden/ignored.sql":     "CREATE PROCEDURE x AS SELECT 1;",
		"procs/.draft.sql":        "CREATE PROCEDURE y AS SELECT 1;",
		"scratch/select_only.sql": "SELECT 1",
	})

	res, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	assert.False(t, res.HasErrors())

	got := make(map[string]core.ScriptKind)
	for _, s := range res.Scripts {
		got[s.RelPath] = s.Kind
		assert.Len(t, s.Hash, 16)
	}
	assert.Equal(t, map[string]core.ScriptKind{
		"functions/total.sql":     core.KindFunction,
		"procs/get_orders.sql":    core.KindProcedure,
		"scratch/select_only.sql": "",
		"triggers/audit.sql":      core.KindTrigger,
		"views/v_orders.SQL":      core.KindView,
	}, got)
	assert.Equal(t, "functions/total.sql", res.Scripts[0].RelPath, "sorted by path")
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"p.sql": "CREATE PROC p AS SELECT 1;"})

	res, err := newLoader(t).Load(filepath.Join(dir, "p.sql"))
	require.NoError(t, err)
	require.Len(t, res.Scripts, 1)
	assert.Equal(t, "p.sql", res.Scripts[0].RelPath)
	assert.Equal(t, core.KindProcedure, res.Scripts[0].Kind)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.sql":     "CREATE PROC p AS SELECT 1;",
		"bad_yaml.sql": "/*---\nname: [unterminated\n---*/\nCREATE PROC q AS SELECT 1;",
		"unknown.sql":  "/*---\nmaterialized: table\n---*/\nCREATE PROC r AS SELECT 1;",
		"broken.sql":   "CREATE PROC s AS SELECT 'unterminated",
	})

	res, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	require.Len(t, res.Scripts, 2)
	require.Len(t, res.Errors, 2)

	types := make(map[string]string)
	for _, e := range res.Errors {
		types[filepath.Base(e.Path)] = e.Type
	}
	assert.Equal(t, map[string]string{
		"bad_yaml.sql": "frontmatter",
		"unknown.sql":  "frontmatter",
	}, types)

	broken := res.Scripts[0]
	require.Equal(t, "broken.sql", broken.RelPath)
	var se *core.SyntaxError
	require.ErrorAs(t, broken.DetectErr, &se)
	assert.Empty(t, broken.Kind)
	assert.Nil(t, res.Scripts[1].DetectErr)

	var ufe *UnknownFieldError
	for _, e := range res.Errors {
		if filepath.Base(e.Path) == "unknown.sql" {
			require.ErrorAs(t, e, &ufe)
			assert.Equal(t, "materialized", ufe.Field)
		}
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	_, err := newLoader(t).Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoScripts)

	_, err = newLoader(t).Load(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Parse_Frontmatter(t *testing.T) {
	content := "/*---\nname: dbo.Report\nkind: procedure\ndepends_on: [dbo.Helper]\n---*/\nCREATE PROC dbo.Report AS EXEC dbo.Helper;"

	s, lerr := New(nil, nil).Parse(content)
	require.Nil(t, lerr)
	assert.Equal(t, "dbo.Report", s.Name)
	assert.Equal(t, core.KindProcedure, s.Kind)
	assert.Equal(t, []string{"dbo.Helper"}, s.Config.DependsOn)
	assert.Equal(t, "\n\n\n\n\nCREATE PROC dbo.Report AS EXEC dbo.Helper;", s.SQL)
	assert.Equal(t, ComputeHash(content), s.Hash)
}

func TestLoader_Parse_SkipDoesNotDetect(t *testing.T) {
	s, lerr := newLoader(t).Parse("/*---\nskip: true\n---*/\nnot even sql '")
	require.Nil(t, lerr)
	assert.True(t, s.Config.Skip)
	assert.Empty(t, s.Kind)
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, ComputeHash("a"), ComputeHash("a"))
	assert.NotEqual(t, ComputeHash("a"), ComputeHash("b"))
	assert.Len(t, ComputeHash(""), 16)
}

func TestIsScriptFile(t *testing.T) {
	assert.True(t, IsScriptFile("a/b.sql"))
	assert.True(t, IsScriptFile("B.SQL"))
	assert.False(t, IsScriptFile("b.sql.bak"))
	assert.False(t, IsScriptFile("sql"))
}

func TestLoader_Exclude(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"procs/a.sql":         "CREATE PROCEDURE a AS SELECT 1;",
		"procs/a_backup.sql":  "CREATE PROCEDURE a AS SELECT 1;",
		"legacy/old.sql":      "CREATE PROCEDURE old AS SELECT 1;",
		"views/v_orders.sql":  "CREATE VIEW v_orders AS SELECT id FROM orders",
		"views/tmp_check.sql": "SELECT 1",
	})

	l := newLoader(t)
	require.NoError(t, l.Exclude("*_backup.sql", "legacy/*", "views/tmp_*"))
	res, err := l.Load(dir)
	require.NoError(t, err)

	var rels []string
	for _, s := range res.Scripts {
		rels = append(rels, s.RelPath)
	}
	assert.Equal(t, []string{"procs/a.sql", "views/v_orders.sql"}, rels)

	assert.Error(t, New(nil, nil).Exclude("[unclosed"))
}
