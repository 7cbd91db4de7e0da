package tsql

import (
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// statements maps a run of statement nodes. Terminals such as BEGIN, END
// and statement separators are ignored. The result is never nil.
func (b *builder) statements(nodes []*cst.Node) []core.Statement {
	out := []core.Statement{}
	for _, n := range nodes {
		if n.Kind == cst.Terminal {
			continue
		}
		out = append(out, b.statement(n)...)
	}
	return out
}

// statement maps one statement node. Blocks flatten into their contents and
// a DECLARE of several variables yields one statement per variable.
func (b *builder) statement(n *cst.Node) []core.Statement {
	switch n.Kind {
	case cst.Block:
		return b.statements(n.Children)

	// Queries and data modification
	case cst.SelectStatement:
		return one(b.selectStatement(n))
	case cst.InsertStatement:
		if ins := b.insertStatement(n); ins != nil {
			return one(ins)
		}
		return nil
	case cst.UpdateStatement:
		return one(b.updateStatement(n))
	case cst.DeleteStatement:
		return one(b.deleteStatement(n))
	case cst.TruncateTable:
		return one(&core.TruncateStatement{TableName: ParseTableName(b.tree, n.Child(cst.TableName), false)})

	// Declarations and assignment
	case cst.DeclareStatement:
		return b.declareStatement(n)
	case cst.DeclareCursor:
		return one(b.declareCursor(n))
	case cst.SetStatement:
		return one(b.setStatement(n))

	// Control flow
	case cst.IfStatement:
		return one(b.ifStatement(n))
	case cst.WhileStatement:
		return one(&core.LoopStatement{
			Kind:       core.LoopWhile,
			Condition:  b.condition(n.Child(cst.SearchCondition)),
			Statements: b.branch(n, 0),
		})
	case cst.BreakStatement:
		return one(&core.BreakStatement{})
	case cst.ContinueStatement:
		return one(&core.ContinueStatement{})
	case cst.TryCatchStatement:
		return one(&core.TryCatchStatement{
			TryStatements:   b.statements(n.Child(cst.TryBlock).Children),
			CatchStatements: b.statements(n.Child(cst.CatchBlock).Children),
		})
	case cst.ReturnStatement:
		expr := n.Child(cst.Expression)
		if expr == nil {
			return one(&core.LeaveStatement{})
		}
		return one(&core.ReturnStatement{Value: expression(b.tree, expr, core.TokenGeneral)})

	// Commands
	case cst.PrintStatement:
		return one(&core.PrintStatement{Content: expression(b.tree, n.Child(cst.Expression), core.TokenGeneral)})
	case cst.ExecuteStatement:
		return one(b.callStatement(n))
	case cst.TransactionStatement:
		return one(b.transactionStatement(n))

	// Cursors
	case cst.OpenCursor:
		return one(&core.OpenCursorStatement{Name: b.cursorName(n)})
	case cst.CloseCursor:
		return one(&core.CloseCursorStatement{Name: b.cursorName(n)})
	case cst.DeallocateCursor:
		return one(&core.DeallocateCursorStatement{Name: b.cursorName(n)})
	case cst.FetchCursor:
		return one(b.fetchCursor(n))
	}

	b.skip(n, "statement has no structural mapping")
	return nil
}

func one(s core.Statement) []core.Statement {
	return []core.Statement{s}
}

// ---------- Control flow ----------

// ifStatement maps IF cond stmt [ELSE stmt]. An ELSE IF stays nested inside
// the ELSE item.
func (b *builder) ifStatement(n *cst.Node) *core.IfStatement {
	st := &core.IfStatement{Items: []*core.IfStatementItem{{
		Type:       core.IfItemIf,
		Condition:  b.condition(n.Child(cst.SearchCondition)),
		Statements: b.branch(n, 0),
	}}}
	if n.HasTerminal(token.ELSE) {
		st.Items = append(st.Items, &core.IfStatementItem{
			Type:       core.IfItemElse,
			Statements: b.branch(n, 1),
		})
	}
	return st
}

// branch maps the i-th statement child of an IF or WHILE node.
func (b *builder) branch(n *cst.Node, i int) []core.Statement {
	for _, c := range n.Children {
		if c.Kind == cst.Terminal || c.Kind == cst.SearchCondition {
			continue
		}
		if i == 0 {
			return b.statements([]*cst.Node{c})
		}
		i--
	}
	return []core.Statement{}
}

// condition captures a search condition with the references inside it.
func (b *builder) condition(n *cst.Node) *core.Token {
	return expression(b.tree, n, core.TokenCondition)
}

// ---------- Declarations and assignment ----------

func (b *builder) declareStatement(n *cst.Node) []core.Statement {
	var out []core.Statement
	for _, c := range n.Children {
		switch c.Kind {
		case cst.DeclareLocal:
			d := &core.DeclareStatement{
				Type:     core.DeclareVariable,
				Name:     capture(b.tree, c.Terminal(token.VARIABLE), core.TokenVariableName),
				DataType: capture(b.tree, c.Child(cst.DataType), core.TokenDataType),
			}
			if expr := c.Child(cst.Expression); expr != nil {
				d.DefaultValue = expression(b.tree, expr, core.TokenGeneral)
			}
			out = append(out, d)
		case cst.DeclareTable:
			name := c.Terminal(token.VARIABLE)
			out = append(out, &core.DeclareStatement{
				Type:  core.DeclareTable,
				Name:  capture(b.tree, name, core.TokenVariableName),
				Table: b.temporaryTable(name, c.Child(cst.TableTypeDefinition)),
			})
		}
	}
	return out
}

// declareCursor maps DECLARE name [options] CURSOR [options] FOR select.
func (b *builder) declareCursor(n *cst.Node) *core.DeclareCursorStatement {
	st := &core.DeclareCursorStatement{Name: b.cursorName(n)}
	trailing := false
	for _, c := range n.Children {
		switch {
		case c.Kind == cst.SelectStatement:
			st.Select = b.selectStatement(c)
		case st.Select != nil:
			trailing = trailing || (c.Kind == cst.Terminal && !c.IsTerminal(token.SEMICOLON))
		case c.IsTerminal(token.IDENT):
			st.Options = append(st.Options, capture(b.tree, c, core.TokenGeneral))
		}
	}
	if trailing {
		b.skip(n, "cursor FOR READ ONLY or FOR UPDATE clause is not kept")
	}
	return st
}

// setStatement maps SET @v op expr and session options such as SET NOCOUNT ON.
func (b *builder) setStatement(n *cst.Node) *core.SetStatement {
	kids := trimSemicolon(n.Children)
	if len(kids) >= 3 && kids[1].IsTerminal(token.VARIABLE) {
		st := &core.SetStatement{
			Key:      capture(b.tree, kids[1], core.TokenVariableName),
			Operator: kids[2].Token.Literal,
		}
		if expr := n.Child(cst.Expression); expr != nil {
			st.Value = expression(b.tree, expr, core.TokenGeneral)
		} else if len(kids) > 3 {
			// SET @c = CURSOR FOR select
			st.Value = captureRange(b.tree, kids[3], kids[len(kids)-1], core.TokenGeneral)
		}
		return st
	}
	if len(kids) < 2 {
		return &core.SetStatement{Option: true}
	}
	return &core.SetStatement{
		Key:    captureRange(b.tree, kids[1], kids[len(kids)-1], core.TokenOption),
		Option: true,
	}
}

// ---------- Commands ----------

// callStatement maps EXEC [@ret =] name args and EXEC (dynamic sql).
func (b *builder) callStatement(n *cst.Node) *core.CallStatement {
	kids := trimSemicolon(n.Children)
	if len(kids) > 1 && kids[1].IsTerminal(token.LPAREN) {
		exprs := n.ChildrenOf(cst.Expression)
		if len(exprs) == 0 {
			return &core.CallStatement{}
		}
		return &core.CallStatement{
			Dynamic: captureRange(b.tree, exprs[0], exprs[len(exprs)-1], core.TokenGeneral),
		}
	}

	st := &core.CallStatement{}
	if len(kids) > 2 && kids[1].IsTerminal(token.VARIABLE) && kids[2].IsTerminal(token.EQ) {
		st.ReturnVariable = capture(b.tree, kids[1], core.TokenVariableName)
	}
	if name := n.Child(cst.SchemaObjectName); name != nil {
		typ := core.TokenRoutineName
		if len(name.Children) == 1 && name.Children[0].IsTerminal(token.VARIABLE) {
			typ = core.TokenVariableName
		}
		st.Name = capture(b.tree, name, typ)
	}
	for _, arg := range n.ChildrenOf(cst.ExecuteArg) {
		st.Arguments = append(st.Arguments, b.callArgument(arg))
	}
	return st
}

// callArgument maps [@param =] value [OUTPUT].
func (b *builder) callArgument(n *cst.Node) *core.CallArgument {
	kids := n.Children
	arg := &core.CallArgument{}
	start := 0
	if len(kids) > 2 && kids[0].IsTerminal(token.VARIABLE) && kids[1].IsTerminal(token.EQ) {
		arg.Name = capture(b.tree, kids[0], core.TokenParameterName)
		start = 2
	}
	end := len(kids) - 1
	if last := kids[end]; last.IsWord("OUTPUT") || last.IsWord("OUT") {
		arg.Output = true
		end--
	}
	if start <= end {
		arg.Value = captureRange(b.tree, kids[start], kids[end], core.TokenGeneral)
		arg.Value.Tokens = variableTokens(b.tree, kids[start:end+1])
	}
	return arg
}

// transactionStatement maps BEGIN TRAN, COMMIT and ROLLBACK.
func (b *builder) transactionStatement(n *cst.Node) *core.TransactionStatement {
	st := &core.TransactionStatement{Command: core.TransactionBegin}
	switch n.Children[0].Token.Type {
	case token.COMMIT:
		st.Command = core.TransactionCommit
	case token.ROLLBACK:
		st.Command = core.TransactionRollback
	}
	for _, c := range n.Children[1:] {
		if c.IsTerminal(token.WITH) {
			break
		}
		if c.IsTerminal(token.VARIABLE) ||
			(c.IsTerminal(token.IDENT) && !c.IsWord("DISTRIBUTED") && !c.IsWord("WORK")) ||
			c.IsTerminal(token.QUOTED_IDENT) {
			st.Name = capture(b.tree, c, core.TokenGeneral)
			break
		}
	}
	return st
}

// ---------- Cursors ----------

func (b *builder) cursorName(n *cst.Node) *core.Token {
	return capture(b.tree, n.Child(cst.CursorName), core.TokenCursorName)
}

// fetchCursor maps FETCH [direction] [FROM] cursor [INTO @a, @b]. The
// target variables are the @ terminals after INTO, in source order.
func (b *builder) fetchCursor(n *cst.Node) *core.FetchCursorStatement {
	st := &core.FetchCursorStatement{Name: b.cursorName(n), Variables: []*core.Token{}}

	var direction []*cst.Node
	named, into := false, false
	for _, c := range n.Children[1:] {
		switch {
		case c.Kind == cst.CursorName:
			named = true
		case c.IsTerminal(token.INTO):
			into = true
		case into && c.IsTerminal(token.VARIABLE):
			st.Variables = append(st.Variables, capture(b.tree, c, core.TokenVariableName))
		case !named && c.Kind == cst.Terminal && !c.IsTerminal(token.FROM):
			direction = append(direction, c)
		}
	}
	if len(direction) > 0 {
		st.Direction = b.tree.TextRange(direction[0], direction[len(direction)-1])
	}
	return st
}

// ---------- Data modification ----------

// insertStatement maps INSERT with VALUES or a query. INSERT ... EXEC has no
// canonical form and is skipped.
func (b *builder) insertStatement(n *cst.Node) *core.InsertStatement {
	if exec := n.Child(cst.ExecuteStatement); exec != nil {
		b.skip(n, "INSERT ... EXECUTE is not supported")
		return nil
	}
	if n.Child(cst.TopClause) != nil {
		b.skip(n.Child(cst.TopClause), "TOP on INSERT is not kept")
	}

	st := &core.InsertStatement{
		TableName: ParseTableName(b.tree, n.Child(cst.TableName), false),
		Columns:   b.columnList(n.Child(cst.ColumnNameList)),
	}
	if values := n.Child(cst.TableValueConstructor); values != nil {
		for _, row := range values.ChildrenOf(cst.ExpressionList) {
			var tuple []*core.Token
			for _, expr := range row.ChildrenOf(cst.Expression) {
				tuple = append(tuple, expression(b.tree, expr, core.TokenGeneral))
			}
			st.Values = append(st.Values, tuple)
		}
	}
	if sel := n.Child(cst.SelectStatement); sel != nil {
		st.Select = b.selectStatement(sel)
	}
	return st
}

func (b *builder) updateStatement(n *cst.Node) *core.UpdateStatement {
	st := &core.UpdateStatement{
		TopInfo:    b.topInfo(n.Child(cst.TopClause)),
		TableNames: []*core.TableName{ParseTableName(b.tree, n.Child(cst.TableName), false)},
		FromItems:  b.fromItems(n.Child(cst.TableSources)),
		Condition:  b.condition(n.Child(cst.SearchCondition)),
		Option:     capture(b.tree, n.Child(cst.OptionClause), core.TokenOption),
	}
	for _, elem := range n.ChildrenOf(cst.UpdateElem) {
		if len(elem.Children) < 3 {
			continue
		}
		target := elem.Children[0]
		typ := core.TokenColumnName
		if target.IsTerminal(token.VARIABLE) {
			typ = core.TokenVariableName
		}
		st.SetItems = append(st.SetItems, &core.NameValueItem{
			Name:     capture(b.tree, target, typ),
			Operator: elem.Children[1].Token.Literal,
			Value:    expression(b.tree, elem.Child(cst.Expression), core.TokenGeneral),
		})
	}
	return st
}

func (b *builder) deleteStatement(n *cst.Node) *core.DeleteStatement {
	return &core.DeleteStatement{
		TopInfo:   b.topInfo(n.Child(cst.TopClause)),
		TableName: ParseTableName(b.tree, n.Child(cst.TableName), false),
		FromItems: b.fromItems(n.Child(cst.TableSources)),
		Condition: b.condition(n.Child(cst.SearchCondition)),
		Option:    capture(b.tree, n.Child(cst.OptionClause), core.TokenOption),
	}
}

// ---------- Helpers ----------

func trimSemicolon(kids []*cst.Node) []*cst.Node {
	if len(kids) > 0 && kids[len(kids)-1].IsTerminal(token.SEMICOLON) {
		return kids[:len(kids)-1]
	}
	return kids
}

// variableTokens lists the variables among terminal nodes.
func variableTokens(tree *cst.Tree, nodes []*cst.Node) []*core.Token {
	var out []*core.Token
	for _, c := range nodes {
		if c.IsTerminal(token.VARIABLE) {
			out = append(out, capture(tree, c, core.TokenVariableName))
		}
	}
	return out
}
