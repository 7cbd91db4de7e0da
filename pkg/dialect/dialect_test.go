package dialect

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizationStrategies(t *testing.T) {
	tests := []struct {
		name  string
		norm  NormalizationStrategy
		input string
		want  string
	}{
		{"lowercase", NormLowercase, "FooBar", "foobar"},
		{"uppercase", NormUppercase, "FooBar", "FOOBAR"},
		{"case sensitive", NormCaseSensitive, "FooBar", "FooBar"},
		{"case insensitive", NormCaseInsensitive, "FooBar", "foobar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDialect("test").
				Identifiers(`"`, `"`, `""`, tt.norm).
				Build()

			assert.Equal(t, tt.want, d.NormalizeName(tt.input))
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		input   string
		quoted  string
		ifNeed  string
	}{
		{"brackets", NewDialect("t").Identifiers("[", "]", "]]", NormCaseInsensitive), "a]b", "[a]]b]", "[a]]b]"},
		{"backticks", NewDialect("t").Identifiers("`", "`", "``", NormCaseInsensitive), "order id", "`order id`", "`order id`"},
		{"double quotes bare", NewDialect("t"), "orders", `"orders"`, "orders"},
		{"reserved", NewDialect("t").WithReservedWords("user"), "User", `"User"`, `"User"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.builder.Build()
			assert.Equal(t, tt.quoted, d.QuoteIdentifier(tt.input))
			assert.Equal(t, tt.ifNeed, d.QuoteIdentifierIfNeeded(tt.input))
		})
	}
}

func TestVariable(t *testing.T) {
	tsql := NewDialect("t").Build()
	mysql := NewDialect("m").Variables("v_").Build()

	assert.Equal(t, "@count", tsql.Variable("@count"))
	assert.Equal(t, "v_count", mysql.Variable("@count"))
	assert.Equal(t, "@@ROWCOUNT", mysql.Variable("@@ROWCOUNT"), "system variables are left alone")
	assert.Equal(t, "count", mysql.Variable("count"))
}

func TestTranslationTables(t *testing.T) {
	d := NewDialect("test").
		Functions(map[string]string{"getdate": "NOW"}).
		SystemVariables(map[string]string{"@@ROWCOUNT": "ROW_COUNT()"}).
		DataTypes(map[string]string{"NVARCHAR": "VARCHAR", "NVARCHAR(MAX)": "LONGTEXT"}).
		WithKeywords("elseif", "leave").
		Build()

	f, ok := d.Function("GetDate")
	require.True(t, ok)
	assert.Equal(t, "NOW", f)

	_, ok = d.Function("LEN")
	assert.False(t, ok)

	v, ok := d.SystemVariable("@@rowcount")
	require.True(t, ok)
	assert.Equal(t, "ROW_COUNT()", v)

	typ, ok := d.DataType("nvarchar(max)")
	require.True(t, ok)
	assert.Equal(t, "LONGTEXT", typ)

	assert.True(t, d.IsKeyword("ElseIf"))
	assert.Equal(t, []string{"ELSEIF", "LEAVE"}, d.Keywords())
}

type stubGenerator struct{ d *Dialect }

func (g *stubGenerator) Render(core.Script) (string, error) { return g.d.Name, nil }

func TestBuilderGeneratorSeesDialect(t *testing.T) {
	d := NewDialect("target").
		Generator(func(d *Dialect) Generator { return &stubGenerator{d: d} }).
		Build()

	require.NotNil(t, d.Generator())
	out, err := d.Generator().Render(&core.ViewScript{})
	require.NoError(t, err)
	assert.Equal(t, "target", out)
	assert.Equal(t, []string{CapabilityRender}, d.Capabilities())
	assert.Nil(t, d.Analyser())
}

func TestRegistry(t *testing.T) {
	Register(NewDialect("Registry_Test").Build())

	d, ok := Get("registry_test")
	require.True(t, ok)
	assert.Equal(t, "Registry_Test", d.Name)
	assert.Contains(t, List(), "registry_test")

	_, err := Lookup("")
	assert.ErrorIs(t, err, ErrDialectRequired)

	_, err = Lookup("nope")
	var unknown *UnknownDialectError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Name)
	assert.Contains(t, unknown.Available, "registry_test")
}

type stubAnalyser struct {
	kind core.ScriptKind
	err  error
}

func (s *stubAnalyser) AnalyseProcedure(string) (*core.RoutineScript, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.RoutineScript{Kind: core.KindProcedure}, nil
}

func (s *stubAnalyser) AnalyseFunction(string) (*core.RoutineScript, error) {
	return &core.RoutineScript{Kind: core.KindFunction}, nil
}

func (s *stubAnalyser) AnalyseView(string) (*core.ViewScript, error) {
	return &core.ViewScript{}, nil
}

func (s *stubAnalyser) AnalyseTrigger(string) (*core.TriggerScript, error) {
	return &core.TriggerScript{}, nil
}

func (s *stubAnalyser) DetectKind(string) (core.ScriptKind, error) {
	return s.kind, s.err
}

func (s *stubAnalyser) ExtractReferences(string) ([]core.Reference, error) {
	return []core.Reference{{Type: core.TokenRoutineName, Name: "dbo.P2"}}, nil
}

func TestAnalyse(t *testing.T) {
	tests := []struct {
		name     string
		analyser *stubAnalyser
		kind     core.ScriptKind
		wantKind core.ScriptKind
		wantErr  bool
	}{
		{"explicit kind", &stubAnalyser{}, core.KindView, core.KindView, false},
		{"detected kind", &stubAnalyser{kind: core.KindTrigger}, "", core.KindTrigger, false},
		{"no create statement", &stubAnalyser{}, "", core.KindProcedure, false},
		{"syntax error", &stubAnalyser{err: &core.SyntaxError{Message: "boom", Line: 2, Column: 3}}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Analyse(tt.analyser, tt.kind, "")
			if tt.wantErr {
				require.NotNil(t, res.Error)
				assert.Nil(t, res.Script)
				assert.Equal(t, 2, res.Error.Line)
				assert.False(t, res.OK())
				return
			}
			require.True(t, res.OK())
			assert.Equal(t, tt.wantKind, res.Script.ScriptKind())
			assert.Len(t, res.References, 1)
		})
	}
}
