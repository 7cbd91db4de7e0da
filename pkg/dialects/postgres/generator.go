package postgres

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqlconvert/pkg/generator"
)

// Generator renders T-SQL scripts as PL/pgSQL.
type Generator struct {
	*generator.Base
}

// NewGenerator creates a PostgreSQL generator for d.
func NewGenerator(d *dialect.Dialect, logger *slog.Logger) *Generator {
	return &Generator{Base: generator.New(tsql.TSQL, d, generator.Style{
		UnboundedLimit:  "ALL",
		SelectIntoTable: "CREATE TEMP TABLE %s AS",
		AssignInto:      true,
		FullJoin:        true,
		DefaultValues:   "DEFAULT VALUES",
	}, logger)}
}

// Render implements dialect.Generator.
func (g *Generator) Render(script core.Script) (string, error) {
	var (
		out string
		err error
	)
	switch s := script.(type) {
	case *core.RoutineScript:
		if s.Kind == core.KindFunction {
			out, err = g.function(s)
		} else {
			out, err = g.procedure(s)
		}
	case *core.ViewScript:
		out, err = g.view(s)
	case *core.TriggerScript:
		out, err = g.trigger(s)
	default:
		return "", g.Unsupported("%T script", script)
	}
	if err != nil {
		return "", err
	}
	return g.Finish(out), nil
}

// ---------- Scripts ----------

func (g *Generator) procedure(s *core.RoutineScript) (string, error) {
	params, err := g.parameters(s.Parameters, true)
	if err != nil {
		return "", err
	}
	block, err := g.newProgram(core.KindProcedure).block(s.Statements, nil)
	if err != nil {
		return "", err
	}
	return generator.Lines(
		"CREATE OR REPLACE PROCEDURE "+g.ScriptName(&s.CommonScript)+params,
		"LANGUAGE plpgsql",
		"AS $$",
	) + block + "$$;\n", nil
}

func (g *Generator) function(s *core.RoutineScript) (string, error) {
	params, err := g.parameters(s.Parameters, false)
	if err != nil {
		return "", err
	}
	head := "CREATE OR REPLACE FUNCTION " + g.ScriptName(&s.CommonScript) + params

	switch {
	case s.InlineTable:
		if len(s.Statements) == 0 {
			return "", g.Unsupported("inline table function without a query")
		}
		sel, ok := s.Statements[0].(*core.SelectStatement)
		if !ok {
			return "", g.Unsupported("inline table function without a query")
		}
		q, err := g.Select(sel, 0, true)
		if err != nil {
			return "", err
		}
		return generator.Lines(head, "RETURNS SETOF record", "LANGUAGE sql", "AS $$", q, "$$;"), nil

	case s.ReturnTable != nil:
		p := g.newProgram(core.KindFunction)
		p.returnTable = g.Variable(s.ReturnTable.Name)
		block, err := p.block(s.Statements, s.ReturnTable)
		if err != nil {
			return "", err
		}
		return generator.Lines(
			head,
			"RETURNS TABLE "+g.tableDefinition(s.ReturnTable.Columns, 0),
			"LANGUAGE plpgsql",
			"AS $$",
			"#variable_conflict use_column",
		) + block + "$$;\n", nil

	case s.ReturnDataType != nil:
		block, err := g.newProgram(core.KindFunction).block(s.Statements, nil)
		if err != nil {
			return "", err
		}
		return generator.Lines(
			head,
			"RETURNS "+g.DataType(s.ReturnDataType),
			"LANGUAGE plpgsql",
			"AS $$",
		) + block + "$$;\n", nil
	}
	return "", g.Unsupported("function without a return type")
}

func (g *Generator) view(s *core.ViewScript) (string, error) {
	if len(s.Statements) == 0 {
		return "", g.Unsupported("view without a query")
	}
	sel, ok := s.Statements[0].(*core.SelectStatement)
	if !ok {
		return "", g.Unsupported("view without a query")
	}
	q, err := g.Select(sel, 0, true)
	if err != nil {
		return "", err
	}
	head := "CREATE OR REPLACE VIEW " + g.ScriptName(&s.CommonScript)
	if len(s.Columns) > 0 {
		head += " (" + g.ColumnNames(s.Columns) + ")"
	}
	return head + " AS\n" + q + "\n", nil
}

// trigger renders a trigger function followed by a statement-level trigger
// that executes it. A single-event AFTER trigger exposes the T-SQL inserted
// and deleted pseudo tables as transition tables. Trigger names take no
// schema in PostgreSQL.
func (g *Generator) trigger(s *core.TriggerScript) (string, error) {
	time := "AFTER"
	switch s.Time {
	case core.TimeBefore:
		time = "BEFORE"
	case core.TimeInsteadOf:
		return "", g.Unsupported("INSTEAD OF trigger")
	}

	name := g.Text(s.Name)
	fn := g.ScriptName(&s.CommonScript) + "_fn"
	block, err := g.newProgram(core.KindTrigger).block(s.Statements, nil)
	if err != nil {
		return "", err
	}

	events := make([]string, len(s.Events))
	for i, e := range s.Events {
		events[i] = string(e)
	}
	var referencing string
	if time == "AFTER" && len(s.Events) == 1 {
		switch s.Events[0] {
		case core.EventInsert:
			referencing = "REFERENCING NEW TABLE AS inserted"
		case core.EventDelete:
			referencing = "REFERENCING OLD TABLE AS deleted"
		case core.EventUpdate:
			referencing = "REFERENCING NEW TABLE AS inserted OLD TABLE AS deleted"
		}
	}

	return generator.Lines(
		"CREATE OR REPLACE FUNCTION "+fn+"()",
		"RETURNS trigger",
		"LANGUAGE plpgsql",
		"AS $$",
	) + block + "$$;\n\n" + generator.Lines(
		"CREATE TRIGGER "+name,
		time+" "+strings.Join(events, " OR ")+" ON "+g.Table(s.TableName),
		referencing,
		"FOR EACH STATEMENT",
		"EXECUTE FUNCTION "+fn+"();",
	), nil
}

// parameters renders the parenthesized parameter list. Output parameters
// become INOUT in procedures and are rejected in functions.
func (g *Generator) parameters(params []*core.Parameter, procedure bool) (string, error) {
	if len(params) == 0 {
		return "()", nil
	}
	lines := make([]string, len(params))
	for i, p := range params {
		line := g.Indent(1)
		if p.Direction == core.DirectionOut || p.Direction == core.DirectionInOut {
			if !procedure {
				return "", g.Unsupported("OUTPUT parameter %s in a function", p.Name.Symbol)
			}
			line += "INOUT "
		}
		line += g.Variable(p.Name) + " " + g.DataType(p.DataType)
		if p.DefaultValue != nil {
			line += " DEFAULT " + g.Text(p.DefaultValue)
		}
		lines[i] = line
	}
	return "(\n" + strings.Join(lines, ",\n") + "\n)", nil
}

func (g *Generator) tableDefinition(cols []*core.ColumnName, level int) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = g.Indent(level+1) + g.ColumnDefinition(c)
	}
	return "(\n" + strings.Join(defs, ",\n") + "\n" + g.Indent(level) + ")"
}
