package postgres

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/generator"
)

// program holds the state of one routine body while it is rendered.
type program struct {
	*Generator
	kind core.ScriptKind
	// returnTable is the temporary table collecting the rows of a
	// multi-statement table function.
	returnTable string
	loops       int
}

func (g *Generator) newProgram(kind core.ScriptKind) *program {
	return &program{Generator: g, kind: kind}
}

// block renders the DECLARE section and the BEGIN ... END body. A table
// function first creates the table its rows are collected in.
func (p *program) block(stmts []core.Statement, result *core.TemporaryTable) (string, error) {
	decls, err := p.declarations(stmts)
	if err != nil {
		return "", err
	}
	var setup string
	if result != nil {
		setup = p.temporaryTable(p.returnTable, result.Columns, 1)
	}
	body, err := p.Body(stmts, 1, p.statement)
	if err != nil {
		return "", err
	}
	if p.kind == core.KindTrigger {
		body += p.Indent(1) + "RETURN NULL;\n"
	}
	if setup+body == "" {
		body = p.Indent(1) + placeholder + "\n"
	}
	out := ""
	if decls != "" {
		out = "DECLARE\n" + decls
	}
	return out + "BEGIN\n" + setup + body + "END;\n", nil
}

func (p *program) declarations(stmts []core.Statement) (string, error) {
	vars, cursors := generator.Declarations(stmts)
	ind := p.Indent(1)
	var lines []string
	for _, v := range vars {
		lines = append(lines, ind+p.Variable(v.Name)+" "+p.DataType(v.DataType)+";")
	}
	for _, c := range cursors {
		q, err := p.Select(c.Select, 2, true)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+p.Text(c.Name)+" CURSOR FOR\n"+q)
	}
	return generator.Lines(lines...), nil
}

func (p *program) temporaryTable(name string, cols []*core.ColumnName, level int) string {
	ind := p.Indent(level)
	return ind + "DROP TABLE IF EXISTS " + name + ";\n" +
		ind + "CREATE TEMP TABLE " + name + " " + p.tableDefinition(cols, level) + ";\n"
}

func (p *program) statement(s core.Statement, level int) (string, error) {
	ind := p.Indent(level)
	switch s := s.(type) {
	case *core.SelectStatement:
		return p.selectStatement(s, level)
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
		return ind + p.assign(s.Key, s.Operator, s.Value) + ";\n", nil

	case *core.IfStatement:
		return p.ifStatement(s, level)
	case *core.LoopStatement:
		return p.loop(s, level)
	case *core.BreakStatement:
		if p.loops == 0 {
			return "", p.Unsupported("BREAK outside a loop")
		}
		return ind + "EXIT;\n", nil
	case *core.ContinueStatement:
		if p.loops == 0 {
			return "", p.Unsupported("CONTINUE outside a loop")
		}
		return ind + "CONTINUE;\n", nil
	case *core.TryCatchStatement:
		return p.tryCatch(s, level)
	case *core.ReturnStatement:
		return p.returnStatement(s, level)
	case *core.LeaveStatement:
		return p.leave(level)

	case *core.PrintStatement:
		return ind + "RAISE NOTICE '%', " + p.Text(s.Content) + ";\n", nil
	case *core.CallStatement:
		return p.call(s, level)
	case *core.TransactionStatement:
		return p.transaction(s, level)

	case *core.DeclareCursorStatement, *core.DeallocateCursorStatement:
		return "", nil
	case *core.OpenCursorStatement:
		return ind + "OPEN " + p.Text(s.Name) + ";\n", nil
	case *core.FetchCursorStatement:
		if len(s.Variables) == 0 {
			return "", p.Unsupported("FETCH without INTO")
		}
		out := ind + "FETCH "
		if s.Direction != "" {
			out += s.Direction + " "
		}
		vars := make([]string, len(s.Variables))
		for i, v := range s.Variables {
			vars[i] = p.Variable(v)
		}
		return out + "FROM " + p.Text(s.Name) + " INTO " + strings.Join(vars, ", ") + ";\n", nil
	case *core.CloseCursorStatement:
		return ind + "CLOSE " + p.Text(s.Name) + ";\n", nil
	}
	return "", p.UnsupportedStatement(s)
}

// assign renders name := value, expanding compound operators.
func (p *program) assign(name *core.Token, op string, value *core.Token) string {
	lhs, rhs, _ := strings.Cut(p.Assignment(name, op, value, false), " = ")
	return lhs + " := " + rhs
}

// selectStatement renders a query. A query without a destination is passed
// through as written.
func (p *program) selectStatement(s *core.SelectStatement, level int) (string, error) {
	q, err := p.Select(s, level, true)
	if err != nil {
		return "", err
	}
	if s.IntoTableName == nil && !hasAssignment(s) {
		p.Logger.Debug("query without a destination", "dialect", p.Dialect.Name, "kind", p.kind)
	}
	return q + "\n", nil
}

func hasAssignment(s *core.SelectStatement) bool {
	for _, c := range s.Columns {
		if c.Variable != nil {
			return true
		}
	}
	return false
}

// declare renders a declaration in place: variables were hoisted, so only
// their initial value remains. Table variables become temporary tables.
func (p *program) declare(s *core.DeclareStatement, level int) (string, error) {
	switch {
	case s.Type == core.DeclareVariable:
		if s.DefaultValue == nil {
			return "", nil
		}
		return p.Indent(level) + p.Variable(s.Name) + " := " + p.Text(s.DefaultValue) + ";\n", nil
	case s.Type == core.DeclareTable && s.Table != nil:
		return p.temporaryTable(p.Variable(s.Name), s.Table.Columns, level), nil
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
			sb.WriteString(ind + "ELSIF " + p.Text(item.Condition) + " THEN\n")
		}
		sb.WriteString(body)
	}
	sb.WriteString(ind + "END IF;\n")
	return sb.String(), nil
}

func (p *program) loop(s *core.LoopStatement, level int) (string, error) {
	if s.Kind != core.LoopWhile && s.Kind != core.LoopLoop {
		return "", p.Unsupported("%s loop", s.Kind)
	}
	ind := p.Indent(level)
	p.loops++
	body, err := p.Branch(s.Statements, level+1, p.statement)
	p.loops--
	if err != nil {
		return "", err
	}
	head := ind + "LOOP\n"
	if s.Kind == core.LoopWhile {
		head = ind + "WHILE " + p.Text(s.Condition) + " LOOP\n"
	}
	return head + body + ind + "END LOOP;\n", nil
}

func (p *program) tryCatch(s *core.TryCatchStatement, level int) (string, error) {
	ind := p.Indent(level)
	try, err := p.Branch(s.TryStatements, level+1, p.statement)
	if err != nil {
		return "", err
	}
	catch, err := p.Branch(s.CatchStatements, level+1, p.statement)
	if err != nil {
		return "", err
	}
	return ind + "BEGIN\n" + try + ind + "EXCEPTION WHEN OTHERS THEN\n" + catch + ind + "END;\n", nil
}

func (p *program) returnStatement(s *core.ReturnStatement, level int) (string, error) {
	ind := p.Indent(level)
	switch {
	case p.kind == core.KindFunction && p.returnTable == "":
		return ind + "RETURN " + p.Text(s.Value) + ";\n", nil
	case p.kind == core.KindProcedure:
		p.Logger.Debug("dropping return status", "dialect", p.Dialect.Name, "value", p.Text(s.Value))
		return ind + "RETURN;\n", nil
	}
	return p.leave(level)
}

// leave renders RETURN without a value.
func (p *program) leave(level int) (string, error) {
	ind := p.Indent(level)
	switch {
	case p.kind == core.KindTrigger:
		return ind + "RETURN NULL;\n", nil
	case p.returnTable != "":
		return ind + "RETURN QUERY SELECT * FROM " + p.returnTable + ";\n" + ind + "RETURN;\n", nil
	case p.kind == core.KindFunction:
		return "", p.Unsupported("RETURN without a value in a function")
	}
	return ind + "RETURN;\n", nil
}

func (p *program) call(s *core.CallStatement, level int) (string, error) {
	ind := p.Indent(level)
	if sql, ok := generator.DynamicSQL(s); ok {
		return ind + "EXECUTE " + p.Text(sql) + ";\n", nil
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
		args[i] = p.Text(a.Value)
		if a.Name != nil {
			args[i] = p.Variable(a.Name) + " => " + args[i]
		}
	}
	return ind + "CALL " + p.Text(s.Name) + "(" + strings.Join(args, ", ") + ");\n", nil
}

// transaction renders transaction control. A procedure is already inside a
// transaction when it starts, so BEGIN has no counterpart.
func (p *program) transaction(s *core.TransactionStatement, level int) (string, error) {
	if p.kind != core.KindProcedure {
		return "", p.Unsupported("transaction control in a %s", strings.ToLower(string(p.kind)))
	}
	ind := p.Indent(level)
	switch s.Command {
	case core.TransactionBegin:
		p.Logger.Debug("dropping BEGIN TRANSACTION", "dialect", p.Dialect.Name)
		return "", nil
	case core.TransactionCommit:
		return ind + "COMMIT;\n", nil
	case core.TransactionRollback:
		return ind + "ROLLBACK;\n", nil
	}
	return "", p.Unsupported("%s TRANSACTION", s.Command)
}

// update renders UPDATE ... SET ... FROM. The first source of a T-SQL FROM
// clause is the updated table; joined tables move to FROM and their join
// conditions to WHERE.
func (p *program) update(s *core.UpdateStatement, level int) (string, error) {
	if s.TopInfo != nil {
		return "", p.Unsupported("TOP in UPDATE")
	}
	ind := p.Indent(level)
	sets := make([]string, len(s.SetItems))
	for i, item := range s.SetItems {
		lhs, rhs, _ := strings.Cut(p.Assignment(item.Name, item.Operator, item.Value, false), " = ")
		sets[i] = generator.UnqualifiedColumn(lhs) + " = " + rhs
	}
	setLine := ind + "SET " + strings.Join(sets, ",\n"+p.Indent(level+1))

	if len(s.FromItems) == 0 {
		targets := make([]string, len(s.TableNames))
		for i, t := range s.TableNames {
			targets[i] = p.Table(t)
		}
		lines := []string{ind + "UPDATE " + strings.Join(targets, ", "), setLine}
		if s.Condition != nil {
			lines = append(lines, ind+"WHERE "+p.Text(s.Condition))
		}
		return strings.Join(lines, "\n") + ";\n", nil
	}

	target, others, conds, err := p.Flatten(s.FromItems, s.Condition, level)
	if err != nil {
		return "", err
	}
	lines := []string{ind + "UPDATE " + target, setLine}
	if len(others) > 0 {
		lines = append(lines, ind+"FROM "+strings.Join(others, ",\n"+p.Indent(level+1)))
	}
	if len(conds) > 0 {
		lines = append(lines, ind+"WHERE "+strings.Join(conds, " AND "))
	}
	return strings.Join(lines, "\n") + ";\n", nil
}

// delete renders DELETE FROM ... USING for a T-SQL DELETE with joins.
func (p *program) delete(s *core.DeleteStatement, level int) (string, error) {
	if s.TopInfo != nil {
		return "", p.Unsupported("TOP in DELETE")
	}
	ind := p.Indent(level)
	if len(s.FromItems) == 0 {
		lines := []string{ind + "DELETE FROM " + p.Table(s.TableName)}
		if s.Condition != nil {
			lines = append(lines, ind+"WHERE "+p.Text(s.Condition))
		}
		return strings.Join(lines, "\n") + ";\n", nil
	}

	target, others, conds, err := p.Flatten(s.FromItems, s.Condition, level)
	if err != nil {
		return "", err
	}
	lines := []string{ind + "DELETE FROM " + target}
	if len(others) > 0 {
		lines = append(lines, ind+"USING "+strings.Join(others, ",\n"+p.Indent(level+1)))
	}
	if len(conds) > 0 {
		lines = append(lines, ind+"WHERE "+strings.Join(conds, " AND "))
	}
	return strings.Join(lines, "\n") + ";\n", nil
}
