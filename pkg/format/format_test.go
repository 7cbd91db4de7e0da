package format

import (
	"testing"

	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_KeywordCase(t *testing.T) {
	d := dialect.NewDialect("test").WithKeywords("ELSEIF", "LEAVE").Build()

	tests := []struct {
		name  string
		input string
		kc    KeywordCase
		want  string
	}{
		{
			name:  "upper",
			input: "select a from t where b is null",
			kc:    CaseUpper,
			want:  "SELECT a FROM t WHERE b IS NULL\n",
		},
		{
			name:  "lower",
			input: "SELECT A FROM T",
			kc:    CaseLower,
			want:  "select A from T\n",
		},
		{
			name:  "preserve",
			input: "Select a From t",
			kc:    CasePreserve,
			want:  "Select a From t\n",
		},
		{
			name:  "dialect keywords",
			input: "elseif x then leave",
			kc:    CaseUpper,
			want:  "ELSEIF x THEN LEAVE\n",
		},
		{
			name:  "strings, comments and quoted names untouched",
			input: "select 'select' /* from */, [from] -- where\nfrom t",
			kc:    CaseUpper,
			want:  "SELECT 'select' /* from */, [from] -- where\nFROM t\n",
		},
		{
			name:  "backtick identifiers untouched",
			input: "select `select` from t",
			kc:    CaseUpper,
			want:  "SELECT `select` FROM t\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.input, Options{Dialect: d, Case: tt.kc}))
		})
	}
}

func TestFormat_Layout(t *testing.T) {
	input := "\n\nBEGIN   \n  SELECT 1;\t\n\n\n\n  SELECT 2;\nEND\n\n"
	want := "BEGIN\n  SELECT 1;\n\n  SELECT 2;\nEND\n"

	got := Format(input, Options{})
	assert.Equal(t, want, got)
	assert.Equal(t, got, Format(got, Options{}), "format is idempotent")
}

func TestFormat_ForeignSyntaxSurvives(t *testing.T) {
	input := "CREATE FUNCTION f() RETURNS void AS $$\nBEGIN\n  x := y::int;\nEND;\n$$ LANGUAGE plpgsql;"
	assert.Equal(t, input+"\n", Format(input, Options{Case: CasePreserve}))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", Format("  \n\n", Options{}))
}

func TestParseKeywordCase(t *testing.T) {
	tests := []struct {
		input string
		want  KeywordCase
	}{
		{"", CasePreserve},
		{"preserve", CasePreserve},
		{"UPPER", CaseUpper},
		{" lower ", CaseLower},
	}
	for _, tt := range tests {
		got, err := ParseKeywordCase(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got.String(), tt.want.String())
	}

	_, err := ParseKeywordCase("title")
	assert.Error(t, err)
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "", Indent(0))
	assert.Equal(t, "    ", Indent(2))
}
