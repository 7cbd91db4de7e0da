package references_test

import (
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/parser"
	"github.com/leapstack-labs/sqlconvert/pkg/references"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []core.Reference
	}{
		{
			name: "exec procedure",
			sql:  "EXEC dbo.P2 @a = 1",
			want: []core.Reference{{Type: core.TokenRoutineName, Name: "dbo.P2", Line: 1, Column: 6}},
		},
		{
			name: "schema-qualified function only",
			sql:  "SELECT dbo.fn(x), LEN(y) FROM t",
			want: []core.Reference{
				{Type: core.TokenRoutineName, Name: "dbo.fn", Line: 1, Column: 8},
				{Type: core.TokenColumnName, Name: "x", Line: 1, Column: 15},
				{Type: core.TokenColumnName, Name: "y", Line: 1, Column: 23},
				{Type: core.TokenTableName, Name: "t", Line: 1, Column: 31},
			},
		},
		{
			name: "temporary tables and table variables are local",
			sql:  "INSERT INTO #tmp (a) SELECT a FROM @t",
			want: []core.Reference{{Type: core.TokenColumnName, Name: "a", Line: 1, Column: 29}},
		},
		{
			name: "dynamic exec is not a routine",
			sql:  "EXEC @proc",
			want: nil,
		},
		{
			name: "qualified star is not a column",
			sql:  "SELECT t.* FROM [dbo].[t]",
			want: []core.Reference{{Type: core.TokenTableName, Name: "[dbo].[t]", Line: 1, Column: 17}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := parser.Parse(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, references.ExtractTree(tree))
		})
	}
}

func TestTokensCarrySpans(t *testing.T) {
	sql := "SELECT 1 WHERE dbo.ok(a) = 1"
	tree, err := parser.Parse(sql)
	require.NoError(t, err)

	toks := references.Tokens(tree.Root)
	require.Len(t, toks, 2)
	assert.Equal(t, core.TokenRoutineName, toks[0].Type)
	assert.Equal(t, "dbo.ok", toks[0].Span.Text(sql))
	assert.Equal(t, "a", toks[1].Symbol)
}

func TestRoutines(t *testing.T) {
	tree, err := parser.Parse("EXEC dbo.P2; EXEC DBO.p2; SELECT util.f(1)")
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo.P2", "util.f"}, references.Routines(tree.Root))
}
