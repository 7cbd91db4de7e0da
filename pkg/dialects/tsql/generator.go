package tsql

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/generator"
)

// Generator renders scripts as T-SQL.
type Generator struct {
	*generator.Base
}

// NewGenerator creates a T-SQL generator for d. Scripts are expected to come
// from the T-SQL analyser, so text passes through without translation.
func NewGenerator(d *dialect.Dialect, logger *slog.Logger) *Generator {
	return &Generator{Base: generator.New(d, d, generator.Style{
		Top:           true,
		OffsetFetch:   true,
		KeepOption:    true,
		FullJoin:      true,
		Pivot:         true,
		DefaultValues: "DEFAULT VALUES",
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
	body, err := g.Branch(s.Statements, 1, g.statement)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("CREATE PROCEDURE " + g.ScriptName(&s.CommonScript) + "\n")
	if params := g.parameters(s.Parameters); params != "" {
		sb.WriteString(params + "\n")
	}
	sb.WriteString("AS\nBEGIN\n" + body + "END\n")
	return sb.String(), nil
}

func (g *Generator) function(s *core.RoutineScript) (string, error) {
	var sb strings.Builder
	sb.WriteString("CREATE FUNCTION " + g.ScriptName(&s.CommonScript) + " (\n")
	if params := g.parameters(s.Parameters); params != "" {
		sb.WriteString(params + "\n")
	}
	sb.WriteString(")\n")

	switch {
	case s.InlineTable:
		sb.WriteString("RETURNS TABLE\nAS\nRETURN (\n")
		sel, ok := firstSelect(s.Statements)
		if !ok {
			return "", g.Unsupported("inline table function without a query")
		}
		q, err := g.Select(sel, 1, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(q + "\n);\n")
		return sb.String(), nil
	case s.ReturnTable != nil:
		sb.WriteString("RETURNS " + g.Variable(s.ReturnTable.Name) + " TABLE " + g.tableDefinition(s.ReturnTable.Columns, 0) + "\n")
	case s.ReturnDataType != nil:
		sb.WriteString("RETURNS " + g.DataType(s.ReturnDataType) + "\n")
	default:
		return "", g.Unsupported("function without a return type")
	}

	body, err := g.Branch(s.Statements, 1, g.statement)
	if err != nil {
		return "", err
	}
	sb.WriteString("AS\nBEGIN\n" + body + "END\n")
	return sb.String(), nil
}

func (g *Generator) view(s *core.ViewScript) (string, error) {
	sel, ok := firstSelect(s.Statements)
	if !ok {
		return "", g.Unsupported("view without a query")
	}
	q, err := g.Select(sel, 0, true)
	if err != nil {
		return "", err
	}
	head := "CREATE VIEW " + g.ScriptName(&s.CommonScript)
	if len(s.Columns) > 0 {
		head += " (" + g.ColumnNames(s.Columns) + ")"
	}
	return head + "\nAS\n" + q + "\n", nil
}

func (g *Generator) trigger(s *core.TriggerScript) (string, error) {
	time := "AFTER"
	if s.Time == core.TimeBefore || s.Time == core.TimeInsteadOf {
		time = "INSTEAD OF"
	}
	events := make([]string, len(s.Events))
	for i, e := range s.Events {
		events[i] = string(e)
	}
	body, err := g.Branch(s.Statements, 1, g.statement)
	if err != nil {
		return "", err
	}
	return generator.Lines(
		"CREATE TRIGGER "+g.ScriptName(&s.CommonScript),
		"ON "+g.Table(s.TableName),
		time+" "+strings.Join(events, ", "),
		"AS",
		"BEGIN",
	) + body + "END\n", nil
}

// parameters renders one parameter per line.
func (g *Generator) parameters(params []*core.Parameter) string {
	lines := make([]string, len(params))
	for i, p := range params {
		line := g.Indent(1) + g.Variable(p.Name) + " " + g.DataType(p.DataType)
		if p.DefaultValue != nil {
			line += " = " + g.Text(p.DefaultValue)
		}
		if p.Direction == core.DirectionOut || p.Direction == core.DirectionInOut {
			line += " OUTPUT"
		}
		lines[i] = line
	}
	return strings.Join(lines, ",\n")
}

func (g *Generator) tableDefinition(cols []*core.ColumnName, level int) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = g.Indent(level+1) + g.ColumnDefinition(c)
	}
	return "(\n" + strings.Join(defs, ",\n") + "\n" + g.Indent(level) + ")"
}

func firstSelect(stmts []core.Statement) (*core.SelectStatement, bool) {
	if len(stmts) == 0 {
		return nil, false
	}
	sel, ok := stmts[0].(*core.SelectStatement)
	return sel, ok
}

// ---------- Statements ----------

func (g *Generator) statement(s core.Statement, level int) (string, error) {
	ind := g.Indent(level)
	switch s := s.(type) {
	case *core.SelectStatement:
		q, err := g.Select(s, level, true)
		return q + "\n", err
	case *core.InsertStatement:
		return g.Insert(s, level)
	case *core.UpdateStatement:
		return g.update(s, level)
	case *core.DeleteStatement:
		return g.delete(s, level)
	case *core.TruncateStatement:
		return g.Truncate(s, level), nil

	case *core.DeclareStatement:
		return g.declare(s, level), nil
	case *core.SetStatement:
		if s.Option {
			return ind + "SET " + g.Text(s.Key) + ";\n", nil
		}
		return ind + "SET " + g.Assignment(s.Key, s.Operator, s.Value, true) + ";\n", nil

	case *core.IfStatement:
		return g.ifStatement(s, level)
	case *core.LoopStatement:
		return g.loop(s, level)
	case *core.BreakStatement:
		return ind + "BREAK;\n", nil
	case *core.ContinueStatement:
		return ind + "CONTINUE;\n", nil
	case *core.TryCatchStatement:
		try, err := g.Branch(s.TryStatements, level+1, g.statement)
		if err != nil {
			return "", err
		}
		catch, err := g.Branch(s.CatchStatements, level+1, g.statement)
		if err != nil {
			return "", err
		}
		return ind + "BEGIN TRY\n" + try + ind + "END TRY\n" + ind + "BEGIN CATCH\n" + catch + ind + "END CATCH\n", nil
	case *core.ReturnStatement:
		return ind + "RETURN " + g.Text(s.Value) + ";\n", nil
	case *core.LeaveStatement:
		return ind + "RETURN;\n", nil

	case *core.PrintStatement:
		return ind + "PRINT " + g.Text(s.Content) + ";\n", nil
	case *core.CallStatement:
		return g.call(s, level), nil
	case *core.TransactionStatement:
		out := ind + string(s.Command) + " TRANSACTION"
		if s.Name != nil {
			out += " " + g.Text(s.Name)
		}
		return out + ";\n", nil

	case *core.DeclareCursorStatement:
		q, err := g.Select(s.Select, level+1, true)
		if err != nil {
			return "", err
		}
		head := ind + "DECLARE " + g.Text(s.Name) + " CURSOR"
		if len(s.Options) > 0 {
			head += " " + g.Tokens(s.Options, " ")
		}
		return head + " FOR\n" + q + "\n", nil
	case *core.OpenCursorStatement:
		return ind + "OPEN " + g.Text(s.Name) + ";\n", nil
	case *core.FetchCursorStatement:
		out := ind + "FETCH "
		if s.Direction != "" {
			out += s.Direction + " "
		}
		out += "FROM " + g.Text(s.Name)
		if len(s.Variables) > 0 {
			vars := make([]string, len(s.Variables))
			for i, v := range s.Variables {
				vars[i] = g.Variable(v)
			}
			out += " INTO " + strings.Join(vars, ", ")
		}
		return out + ";\n", nil
	case *core.CloseCursorStatement:
		return ind + "CLOSE " + g.Text(s.Name) + ";\n", nil
	case *core.DeallocateCursorStatement:
		return ind + "DEALLOCATE " + g.Text(s.Name) + ";\n", nil
	}
	return "", g.UnsupportedStatement(s)
}

func (g *Generator) declare(s *core.DeclareStatement, level int) string {
	ind := g.Indent(level)
	if s.Type == core.DeclareTable && s.Table != nil {
		return ind + "DECLARE " + g.Variable(s.Name) + " TABLE " + g.tableDefinition(s.Table.Columns, level) + ";\n"
	}
	out := ind + "DECLARE " + g.Variable(s.Name) + " " + g.DataType(s.DataType)
	if s.DefaultValue != nil {
		out += " = " + g.Text(s.DefaultValue)
	}
	return out + ";\n"
}

// ifStatement renders every branch as a BEGIN ... END block. An empty branch
// gets the placeholder statement.
func (g *Generator) ifStatement(s *core.IfStatement, level int) (string, error) {
	ind := g.Indent(level)
	var sb strings.Builder
	for _, item := range s.Items {
		body, err := g.Branch(item.Statements, level+1, g.statement)
		if err != nil {
			return "", err
		}
		if item.Type == core.IfItemElse {
			sb.WriteString(ind + "ELSE\n")
		} else {
			sb.WriteString(ind + "IF " + g.Text(item.Condition) + "\n")
		}
		sb.WriteString(ind + "BEGIN\n" + body + ind + "END\n")
	}
	return sb.String(), nil
}

func (g *Generator) loop(s *core.LoopStatement, level int) (string, error) {
	ind := g.Indent(level)
	cond := g.Text(s.Condition)
	switch s.Kind {
	case core.LoopWhile:
	case core.LoopLoop:
		cond = "1 = 1"
	default:
		return "", g.Unsupported("%s loop", s.Kind)
	}
	body, err := g.Branch(s.Statements, level+1, g.statement)
	if err != nil {
		return "", err
	}
	return ind + "WHILE " + cond + "\n" + ind + "BEGIN\n" + body + ind + "END\n", nil
}

func (g *Generator) call(s *core.CallStatement, level int) string {
	ind := g.Indent(level)
	if s.Dynamic != nil && s.Name == nil {
		return ind + "EXEC (" + g.Text(s.Dynamic) + ");\n"
	}
	out := ind + "EXEC "
	if s.ReturnVariable != nil {
		out += g.Variable(s.ReturnVariable) + " = "
	}
	out += g.Text(s.Name)
	args := make([]string, len(s.Arguments))
	for i, a := range s.Arguments {
		arg := g.Text(a.Value)
		if a.Name != nil {
			arg = g.Variable(a.Name) + " = " + arg
		}
		if a.Output {
			arg += " OUTPUT"
		}
		args[i] = arg
	}
	if len(args) > 0 {
		out += " " + strings.Join(args, ", ")
	}
	return out + ";\n"
}

func (g *Generator) update(s *core.UpdateStatement, level int) (string, error) {
	ind := g.Indent(level)
	head := ind + "UPDATE "
	if s.TopInfo != nil {
		head += g.Top(s.TopInfo) + " "
	}
	targets := make([]string, len(s.TableNames))
	for i, t := range s.TableNames {
		targets[i] = g.Table(t)
	}
	lines := []string{
		head + strings.Join(targets, ", "),
		ind + "SET " + strings.Join(g.Assignments(s.SetItems, true), ",\n"+g.Indent(level+1)),
	}
	tail, err := g.dmlTail(s.FromItems, s.Condition, s.Option, level)
	if err != nil {
		return "", err
	}
	return strings.Join(append(lines, tail...), "\n") + ";\n", nil
}

func (g *Generator) delete(s *core.DeleteStatement, level int) (string, error) {
	ind := g.Indent(level)
	head := ind + "DELETE "
	if s.TopInfo != nil {
		head += g.Top(s.TopInfo) + " "
	}
	lines := []string{head + "FROM " + g.Table(s.TableName)}
	tail, err := g.dmlTail(s.FromItems, s.Condition, s.Option, level)
	if err != nil {
		return "", err
	}
	return strings.Join(append(lines, tail...), "\n") + ";\n", nil
}

// dmlTail renders the FROM, WHERE and OPTION clauses of UPDATE and DELETE.
func (g *Generator) dmlTail(from []*core.FromItem, where, option *core.Token, level int) ([]string, error) {
	ind := g.Indent(level)
	var lines []string
	if len(from) > 0 {
		items, err := g.FromItems(from, level)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ind+"FROM "+items)
	}
	if where != nil {
		lines = append(lines, ind+"WHERE "+g.Text(where))
	}
	if option != nil {
		lines = append(lines, ind+g.Text(option))
	}
	return lines, nil
}
