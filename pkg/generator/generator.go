// Package generator holds the rendering skeleton shared by the dialect
// generators.
//
// A dialect generator embeds *Base and adds its own statement switch. Base
// supplies token translation, the SELECT, INSERT and TRUNCATE renderers,
// FROM clause rendering and the final formatting pass. Every renderer
// returns its text instead of writing to a shared buffer, so nested
// statements are rendered by plain recursion.
package generator

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/format"
	"github.com/leapstack-labs/sqlconvert/pkg/translate"
)

// Style captures the query syntax differences between target dialects.
type Style struct {
	// Top renders TOP n after SELECT. Otherwise TOP becomes LIMIT n.
	Top bool
	// OffsetFetch renders OFFSET n ROWS FETCH NEXT m ROWS ONLY. Otherwise
	// paging becomes LIMIT m OFFSET n.
	OffsetFetch bool
	// UnboundedLimit is the LIMIT value used for OFFSET without FETCH.
	UnboundedLimit string
	// KeepOption keeps OPTION (...) query hints.
	KeepOption bool
	// SelectIntoTable is a fmt pattern placed before the query when SELECT
	// INTO creates a table, such as "CREATE TEMPORARY TABLE %s AS".
	// Empty keeps SELECT ... INTO t.
	SelectIntoTable string
	// AssignInto renders SELECT @v = expr as SELECT expr INTO v.
	AssignInto bool
	// FullJoin allows FULL JOIN.
	FullJoin bool
	// Pivot allows PIVOT and UNPIVOT.
	Pivot bool
	// DefaultValues is the text of an INSERT without values or query.
	DefaultValues string
}

// Base is embedded by the dialect generators.
type Base struct {
	Dialect *dialect.Dialect
	Tr      *translate.Translator
	Style   Style
	Logger  *slog.Logger
}

// New creates the shared part of a generator that renders scripts analysed
// from source in target. A nil logger discards output.
func New(source, target *dialect.Dialect, style Style, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Base{
		Dialect: target,
		Tr:      translate.New(source, target),
		Style:   style,
		Logger:  logger,
	}
}

// Unsupported reports a construct the target has no rendering rule for.
func (b *Base) Unsupported(construct string, args ...any) error {
	return core.Unsupported(b.Dialect.Name, construct, args...)
}

// UnsupportedStatement reports a statement variant without a rendering rule.
func (b *Base) UnsupportedStatement(s core.Statement) error {
	return b.Unsupported("%s statement", core.StatementName(s))
}

// Indent returns the whitespace for a nesting level.
func (b *Base) Indent(level int) string {
	return format.Indent(level)
}

// Finish applies the final formatting pass.
func (b *Base) Finish(text string) string {
	return format.Format(text, format.Options{Dialect: b.Dialect, Case: format.CasePreserve})
}

// ---------- Tokens ----------

// Text renders a verbatim token in the target dialect.
func (b *Base) Text(tok *core.Token) string {
	return strings.TrimSpace(b.Tr.Token(tok))
}

// ScriptName renders the owner-qualified script name.
func (b *Base) ScriptName(c *core.CommonScript) string {
	return b.Tr.Expr(c.FullName())
}

// Table renders the bare name of a table reference.
func (b *Base) Table(t *core.TableName) string {
	if t == nil {
		return ""
	}
	if t.Name != nil {
		return b.Text(t.Name)
	}
	return b.Text(&t.Token)
}

// Alias renders a table or column alias. String literal aliases become
// quoted identifiers outside T-SQL.
func (b *Base) Alias(tok *core.Token) string {
	if tok == nil {
		return ""
	}
	sym := strings.TrimSpace(tok.Symbol)
	if !b.Tr.Identity() && strings.HasPrefix(strings.TrimLeft(sym, "Nn"), "'") {
		inner := strings.TrimLeft(sym, "Nn")
		inner = strings.ReplaceAll(inner[1:len(inner)-1], "''", "'")
		return b.Dialect.QuoteIdentifier(inner)
	}
	return b.Text(tok)
}

// Column renders a select element, column reference or column list entry.
// Select-list assignments are rendered by Select.
func (b *Base) Column(c *core.ColumnName) string {
	if c == nil {
		return ""
	}
	if c.Name == nil {
		return b.Text(&c.Token)
	}
	out := b.Text(c.Name)
	if c.TableName != nil {
		out = b.Text(c.TableName) + "." + out
	}
	if c.Alias != nil {
		out += " AS " + b.Alias(c.Alias)
	}
	return out
}

// ColumnDefinition renders name type for a table definition.
func (b *Base) ColumnDefinition(c *core.ColumnName) string {
	if c.Name == nil || c.DataType == nil {
		return b.Text(&c.Token)
	}
	return b.Text(c.Name) + " " + b.DataType(c.DataType)
}

// ColumnNames renders a comma-separated column list.
func (b *Base) ColumnNames(cols []*core.ColumnName) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = b.Column(c)
	}
	return strings.Join(names, ", ")
}

// DataType renders a data type.
func (b *Base) DataType(tok *core.Token) string {
	return b.Tr.DataType(tok)
}

// Variable renders a variable or parameter name.
func (b *Base) Variable(tok *core.Token) string {
	return b.Tr.Variable(tok)
}

// Tokens renders a list of verbatim tokens joined by sep.
func (b *Base) Tokens(toks []*core.Token, sep string) string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = b.Text(t)
	}
	return strings.Join(out, sep)
}

// ---------- Bodies ----------

// Body renders statements one after another with render.
func (b *Base) Body(stmts []core.Statement, level int, render func(core.Statement, int) (string, error)) (string, error) {
	var sb strings.Builder
	for _, s := range stmts {
		out, err := render(s, level)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// Branch renders a block body that may not be empty (an IF branch, loop or
// routine body), substituting the dialect's placeholder statement when
// nothing is rendered.
func (b *Base) Branch(stmts []core.Statement, level int, render func(core.Statement, int) (string, error)) (string, error) {
	out, err := b.Body(stmts, level, render)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return b.Indent(level) + b.Dialect.Placeholder + "\n", nil
	}
	return out, nil
}

// Lines joins non-empty lines with newlines and a trailing newline.
func Lines(lines ...string) string {
	var sb strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
