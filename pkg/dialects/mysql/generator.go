package mysql

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
	"github.com/leapstack-labs/sqlconvert/pkg/generator"
)

// bodyLabel names the outermost block of a procedure or trigger so RETURN
// can leave it.
const bodyLabel = "proc_body"

// Generator renders T-SQL scripts as MySQL stored programs. The output has
// no DELIMITER directives: each CREATE statement is meant to be sent to the
// server as a single statement.
type Generator struct {
	*generator.Base
}

// NewGenerator creates a MySQL generator for d.
func NewGenerator(d *dialect.Dialect, logger *slog.Logger) *Generator {
	return &Generator{Base: generator.New(tsql.TSQL, d, generator.Style{
		UnboundedLimit:  "18446744073709551615",
		SelectIntoTable: "CREATE TEMPORARY TABLE %s AS",
		AssignInto:      true,
		DefaultValues:   "() VALUES ()",
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
	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		dir := "IN"
		if p.Direction == core.DirectionOut || p.Direction == core.DirectionInOut {
			dir = "INOUT"
		}
		if p.DefaultValue != nil {
			g.Logger.Debug("dropping parameter default", "dialect", g.Dialect.Name,
				"parameter", p.Name.Symbol, "default", p.DefaultValue.Symbol)
		}
		params[i] = g.Indent(1) + dir + " " + g.Variable(p.Name) + " " + g.DataType(p.DataType)
	}
	block, err := g.newProgram(core.KindProcedure).block(s.Statements)
	if err != nil {
		return "", err
	}
	return "CREATE PROCEDURE " + g.ScriptName(&s.CommonScript) + g.paramList(params) + "\n" + block, nil
}

func (g *Generator) function(s *core.RoutineScript) (string, error) {
	if s.InlineTable || s.ReturnTable != nil {
		return "", g.Unsupported("table-valued function")
	}
	if s.ReturnDataType == nil {
		return "", g.Unsupported("function without a return type")
	}
	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		if p.Direction == core.DirectionOut || p.Direction == core.DirectionInOut {
			return "", g.Unsupported("OUTPUT parameter %s in a function", p.Name.Symbol)
		}
		params[i] = g.Indent(1) + g.Variable(p.Name) + " " + g.DataType(p.DataType)
	}
	block, err := g.newProgram(core.KindFunction).block(s.Statements)
	if err != nil {
		return "", err
	}
	return generator.Lines(
		"CREATE FUNCTION "+g.ScriptName(&s.CommonScript)+g.paramList(params),
		"RETURNS "+g.DataType(s.ReturnDataType),
		"READS SQL DATA",
	) + block, nil
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

// trigger renders one row-level trigger per event since MySQL triggers
// fire for a single event. Each gets the event as a name suffix when the
// source trigger has several.
func (g *Generator) trigger(s *core.TriggerScript) (string, error) {
	time := "AFTER"
	switch s.Time {
	case core.TimeBefore:
		time = "BEFORE"
	case core.TimeInsteadOf:
		return "", g.Unsupported("INSTEAD OF trigger")
	}
	names := TriggerNames(g.ScriptName(&s.CommonScript), s.Events)
	parts := make([]string, 0, len(s.Events))
	for i, e := range s.Events {
		block, err := g.newProgram(core.KindTrigger).block(s.Statements)
		if err != nil {
			return "", err
		}
		parts = append(parts, generator.Lines(
			"CREATE TRIGGER "+names[i],
			time+" "+string(e)+" ON "+g.Table(s.TableName),
			"FOR EACH ROW",
		)+block)
	}
	return strings.Join(parts, "\n"), nil
}

// TriggerNames returns the names of the per-event triggers a T-SQL trigger
// is split into. A single-event trigger keeps its name.
func TriggerNames(name string, events []core.TriggerEvent) []string {
	if len(events) == 1 {
		return []string{name}
	}
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = name + "_" + strings.ToLower(string(e))
	}
	return names
}

func (g *Generator) paramList(params []string) string {
	if len(params) == 0 {
		return "()"
	}
	return "(\n" + strings.Join(params, ",\n") + "\n)"
}

func (g *Generator) tableDefinition(cols []*core.ColumnName, level int) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = g.Indent(level+1) + g.ColumnDefinition(c)
	}
	return "(\n" + strings.Join(defs, ",\n") + "\n" + g.Indent(level) + ")"
}
