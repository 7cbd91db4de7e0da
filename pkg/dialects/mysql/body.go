package mysql

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/generator"
)

// program holds the state of one routine body while it is rendered.
type program struct {
	*Generator
	kind  core.ScriptKind
	loops []string
	next  int
}

func (g *Generator) newProgram(kind core.ScriptKind) *program {
	return &program{Generator: g, kind: kind}
}

func isExit(s core.Statement) bool {
	switch s.(type) {
	case *core.ReturnStatement, *core.LeaveStatement:
		return true
	}
	return false
}

// block renders BEGIN ... END with every declaration of the body hoisted to
// the top, as MySQL requires.
func (p *program) block(stmts []core.Statement) (string, error) {
	decls, err := p.declarations(stmts)
	if err != nil {
		return "", err
	}
	body, err := p.Body(stmts, 1, p.statement)
	if err != nil {
		return "", err
	}
	if p.kind != core.KindFunction && generator.Contains(stmts, isExit) {
		return bodyLabel + ": BEGIN\n" + decls + body + "END " + bodyLabel + ";\n", nil
	}
	return "BEGIN\n" + decls + body + "END;\n", nil
}

func (p *program) declarations(stmts []core.Statement) (string, error) {
	vars, cursors := generator.Declarations(stmts)
	ind := p.Indent(1)
	var lines []string
	for _, v := range vars {
		lines = append(lines, ind+"DECLARE "+p.Variable(v.Name)+" "+p.DataType(v.DataType)+";")
	}
	if len(cursors) == 0 {
		return generator.Lines(lines...), nil
	}
	lines = append(lines, ind+"DECLARE "+fetchStatus+" INT DEFAULT 0;")
	for _, c := range cursors {
		q, err := p.Select(c.Select, 2, true)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+"DECLARE "+p.Text(c.Name)+" CURSOR FOR\n"+q)
	}
	lines = append(lines, ind+"DECLARE CONTINUE HANDLER FOR NOT FOUND SET "+fetchStatus+" = -1;")
	return generator.Lines(lines...), nil
}

func (p *program) statement(s core.Statement, level int) (string, error) {
	ind := p.Indent(level)
	switch s := s.(type) {
	case *core.SelectStatement:
		q, err := p.Select(s, level, true)
		return q + "\n", err
	case *core.InsertStatement:
		return p.Insert(s, level)
	case *core.UpdateStatement:
		return p.update(s, level)
	case *core.DeleteStatement:
		return p.delete(s, level)
	case *core.TruncateStatement:
		return p.Truncate(s, level), nil

	case *core.DeclareStatement:
		return p.declare(s, level)
	case *core.SetStatement:
		if s.Option {
			p.Logger.Debug("dropping session option", "dialect", p.Dialect.Name, "option", s.Key.Symbol)
			return "", nil
		}
		if s.Value != nil && strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s.Value.Symbol)), "CURSOR") {
			return "", p.Unsupported("cursor variable %s", s.Key.Symbol)
		}
		return ind + "SET " + p.Assignment(s.Key, s.Operator, s.Value, false) + ";\n", nil

	case *core.IfStatement:
		return p.ifStatement(s, level)
	case *core.LoopStatement:
		return p.loop(s, level)
	case *core.BreakStatement:
		label, err := p.innermost("BREAK")
		return ind + "LEAVE " + label + ";\n", err
	case *core.ContinueStatement:
		label, err := p.innermost("CONTINUE")
		return ind + "ITERATE " + label + ";\n", err
	case *core.TryCatchStatement:
		return p.tryCatch(s, level)
	case *core.ReturnStatement:
		if p.kind == core.KindFunction {
			return ind + "RETURN " + p.Text(s.Value) + ";\n", nil
		}
		p.Logger.Debug("dropping return status", "dialect", p.Dialect.Name, "value", p.Text(s.Value))
		return ind + "LEAVE " + bodyLabel + ";\n", nil
	case *core.LeaveStatement:
		if p.kind == core.KindFunction {
			return "", p.Unsupported("RETURN without a value in a function")
		}
		return ind + "LEAVE " + bodyLabel + ";\n", nil

	case *core.PrintStatement:
		return ind + "SELECT " + p.Text(s.Content) + ";\n", nil
	case *core.CallStatement:
		return p.call(s, level)
	case *core.TransactionStatement:
		return p.transaction(s, level)

	case *core.DeclareCursorStatement, *core.DeallocateCursorStatement:
		return "", nil
	case *core.OpenCursorStatement:
		return ind + "SET " + fetchStatus + " = 0;\n" + ind + "OPEN " + p.Text(s.Name) + ";\n", nil
	case *core.FetchCursorStatement:
		if s.Direction != "" && !strings.EqualFold(s.Direction, "NEXT") {
			return "", p.Unsupported("FETCH %s", s.Direction)
		}
		if len(s.Variables) == 0 {
			return "", p.Unsupported("FETCH without INTO")
		}
		vars := make([]string, len(s.Variables))
		for i, v := range s.Variables {
			vars[i] = p.Variable(v)
		}
		return ind + "FETCH " + p.Text(s.Name) + " INTO " + strings.Join(vars, ", ") + ";\n", nil
	case *core.CloseCursorStatement:
		return ind + "CLOSE " + p.Text(s.Name) + ";\n", nil
	}
	return "", p.UnsupportedStatement(s)
}

// declare renders a declaration in place: variables were hoisted, so only
// their initial value remains. Table variables become temporary tables.
func (p *program) declare(s *core.DeclareStatement, level int) (string, error) {
	ind := p.Indent(level)
	switch {
	case s.Type == core.DeclareVariable:
		if s.DefaultValue == nil {
			return "", nil
		}
		return ind + "SET " + p.Variable(s.Name) + " = " + p.Text(s.DefaultValue) + ";\n", nil
	case s.Type == core.DeclareTable && s.Table != nil:
		name := p.Variable(s.Name)
		return ind + "DROP TEMPORARY TABLE IF EXISTS " + name + ";\n" +
			ind + "CREATE TEMPORARY TABLE " + name + " " + p.tableDefinition(s.Table.Columns, level) + ";\n", nil
	}
	return "", p.Unsupported("%s declaration", s.Type)
}

func (p *program) ifStatement(s *core.IfStatement, level int) (string, error) {
	ind := p.Indent(level)
	var sb strings.Builder
	for i, item := range generator.Branches(s) {
		body, err := p.Branch(item.Statements, level+1, p.statement)
		if err != nil {
			return "", err
		}
		switch {
		case item.Type == core.IfItemElse:
			sb.WriteString(ind + "ELSE\n")
		case i == 0:
			sb.WriteString(ind + "IF " + p.Text(item.Condition) + " THEN\n")
		default:
			sb.WriteString(ind + "ELSEIF " + p.Text(item.Condition) + " THEN\n")
		}
		sb.WriteString(body)
	}
	sb.WriteString(ind + "END IF;\n")
	return sb.String(), nil
}

// loop renders a labelled loop so BREAK and CONTINUE can name it.
func (p *program) loop(s *core.LoopStatement, level int) (string, error) {
	if s.Kind != core.LoopWhile && s.Kind != core.LoopLoop {
		return "", p.Unsupported("%s loop", s.Kind)
	}
	ind := p.Indent(level)
	p.next++
	label := fmt.Sprintf("loop_%d", p.next)
	p.loops = append(p.loops, label)
	body, err := p.Branch(s.Statements, level+1, p.statement)
	p.loops = p.loops[:len(p.loops)-1]
	if err != nil {
		return "", err
	}
	if s.Kind == core.LoopLoop {
		return ind + label + ": LOOP\n" + body + ind + "END LOOP " + label + ";\n", nil
	}
	return ind + label + ": WHILE " + p.Text(s.Condition) + " DO\n" + body + ind + "END WHILE " + label + ";\n", nil
}

func (p *program) innermost(keyword string) (string, error) {
	if len(p.loops) == 0 {
		return "", p.Unsupported("%s outside a loop", keyword)
	}
	return p.loops[len(p.loops)-1], nil
}

// tryCatch renders the TRY block as a nested block whose exit handler runs
// the CATCH statements.
func (p *program) tryCatch(s *core.TryCatchStatement, level int) (string, error) {
	ind, inner := p.Indent(level), p.Indent(level+1)
	catch, err := p.Branch(s.CatchStatements, level+2, p.statement)
	if err != nil {
		return "", err
	}
	try, err := p.Body(s.TryStatements, level+1, p.statement)
	if err != nil {
		return "", err
	}
	return ind + "BEGIN\n" +
		inner + "DECLARE EXIT HANDLER FOR SQLEXCEPTION\n" +
		inner + "BEGIN\n" + catch + inner + "END;\n" +
		try + ind + "END;\n", nil
}

func (p *program) call(s *core.CallStatement, level int) (string, error) {
	ind := p.Indent(level)
	if sql, ok := generator.DynamicSQL(s); ok {
		if p.kind != core.KindProcedure {
			return "", p.Unsupported("dynamic SQL in a %s", strings.ToLower(string(p.kind)))
		}
		return ind + "SET @sql = " + p.Text(sql) + ";\n" +
			ind + "PREPARE stmt FROM @sql;\n" +
			ind + "EXECUTE stmt;\n" +
			ind + "DEALLOCATE PREPARE stmt;\n", nil
	}
	switch {
	case s.Name == nil:
		return "", p.Unsupported("EXEC without a procedure name")
	case s.Name.Type == core.TokenVariableName:
		return "", p.Unsupported("EXEC of a procedure named by a variable")
	case s.ReturnVariable != nil:
		return "", p.Unsupported("EXEC return status")
	}
	args := make([]string, len(s.Arguments))
	for i, a := range s.Arguments {
		if a.Name != nil {
			p.Logger.Debug("passing named argument by position", "dialect", p.Dialect.Name, "argument", a.Name.Symbol)
		}
		args[i] = p.Text(a.Value)
	}
	return ind + "CALL " + p.Text(s.Name) + "(" + strings.Join(args, ", ") + ");\n", nil
}

func (p *program) transaction(s *core.TransactionStatement, level int) (string, error) {
	if p.kind != core.KindProcedure {
		return "", p.Unsupported("transaction control in a %s", strings.ToLower(string(p.kind)))
	}
	ind := p.Indent(level)
	switch s.Command {
	case core.TransactionBegin:
		return ind + "START TRANSACTION;\n", nil
	case core.TransactionCommit:
		return ind + "COMMIT;\n", nil
	case core.TransactionRollback:
		return ind + "ROLLBACK;\n", nil
	}
	return "", p.Unsupported("%s TRANSACTION", s.Command)
}

// update renders a multi-table UPDATE when the statement has a FROM clause:
// MySQL lists the joined sources after UPDATE instead.
func (p *program) update(s *core.UpdateStatement, level int) (string, error) {
	if s.TopInfo != nil && s.TopInfo.IsPercent {
		return "", p.Unsupported("TOP ... PERCENT")
	}
	ind := p.Indent(level)
	var lines []string
	if len(s.FromItems) > 0 {
		if s.TopInfo != nil {
			return "", p.Unsupported("TOP in a multi-table UPDATE")
		}
		from, err := p.FromItems(s.FromItems, level)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+"UPDATE "+from)
	} else {
		targets := make([]string, len(s.TableNames))
		for i, t := range s.TableNames {
			targets[i] = p.Table(t)
		}
		lines = append(lines, ind+"UPDATE "+strings.Join(targets, ", "))
	}
	lines = append(lines, ind+"SET "+strings.Join(p.Assignments(s.SetItems, false), ",\n"+p.Indent(level+1)))
	lines = append(lines, p.tail(s.Condition, s.TopInfo, s.Option, ind)...)
	return strings.Join(lines, "\n") + ";\n", nil
}

// delete renders DELETE t FROM ... when the statement joins other tables.
func (p *program) delete(s *core.DeleteStatement, level int) (string, error) {
	if s.TopInfo != nil && s.TopInfo.IsPercent {
		return "", p.Unsupported("TOP ... PERCENT")
	}
	ind := p.Indent(level)
	var lines []string
	if len(s.FromItems) > 0 {
		if s.TopInfo != nil {
			return "", p.Unsupported("TOP in a multi-table DELETE")
		}
		from, err := p.FromItems(s.FromItems, level)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+"DELETE "+p.Table(s.TableName), ind+"FROM "+from)
	} else {
		lines = append(lines, ind+"DELETE FROM "+p.Table(s.TableName))
	}
	lines = append(lines, p.tail(s.Condition, s.TopInfo, s.Option, ind)...)
	return strings.Join(lines, "\n") + ";\n", nil
}

func (p *program) tail(where *core.Token, top *core.TopInfo, option *core.Token, ind string) []string {
	var lines []string
	if where != nil {
		lines = append(lines, ind+"WHERE "+p.Text(where))
	}
	if top != nil {
		lines = append(lines, ind+"LIMIT "+strings.Trim(p.Text(top.TopCount), "()"))
	}
	if option != nil {
		p.Logger.Debug("dropping query hint", "dialect", p.Dialect.Name, "option", option.Symbol)
	}
	return lines
}
