package parser

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Procedural statements: control flow, declarations, commands, cursors.
//
// Grammar:
//
//	block       → BEGIN statement* END
//	if          → IF condition statement [ELSE statement]
//	while       → WHILE condition statement
//	try_catch   → BEGIN TRY statement* END TRY BEGIN CATCH statement* END CATCH
//	return      → RETURN [expr]
//	declare     → DECLARE (@var [AS] data_type ["=" expr] ("," ...)* | @var [AS] TABLE table_def
//	              | name [INSENSITIVE] [SCROLL] CURSOR [options] FOR select [FOR (READ ONLY | UPDATE [OF cols])])
//	set         → SET @var assign_op (expr | CURSOR ... FOR select) | SET option_name ... value
//	exec        → EXEC[UTE] ( "(" expr ("," expr)* ")" | [@ret "="] name [arg ("," arg)*] )
//	transaction → BEGIN [DISTRIBUTED] TRAN[SACTION] [name] | COMMIT [TRAN[SACTION] | WORK] [name]
//	              | ROLLBACK [TRAN[SACTION] | WORK] [name]
//	cursor_op   → (OPEN | CLOSE | DEALLOCATE) [GLOBAL] cursor
//	              | FETCH [direction] [FROM] [GLOBAL] cursor [INTO @var ("," @var)*]

// parseStatement parses a single statement, including its optional terminator.
func (p *Parser) parseStatement() *cst.Node {
	switch p.token.Type {
	case token.BEGIN:
		switch {
		case p.peek.Is("TRY"):
			return p.parseTryCatch()
		case p.peek.Type == token.TRAN, p.peek.Type == token.TRANSACTION, p.peek.Is("DISTRIBUTED"):
			return p.parseTransaction()
		default:
			return p.parseBlock()
		}
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.BREAK:
		return p.parseKeywordStatement(cst.BreakStatement)
	case token.CONTINUE:
		return p.parseKeywordStatement(cst.ContinueStatement)
	case token.RETURN:
		return p.parseReturn()
	case token.DECLARE:
		return p.parseDeclare()
	case token.SET:
		return p.parseSet()
	case token.PRINT:
		n := &cst.Node{Kind: cst.PrintStatement}
		p.take(n)
		n.Add(p.parseExpression())
		p.acceptSemicolon(n)
		return n
	case token.EXEC, token.EXECUTE:
		return p.parseExecute()
	case token.COMMIT, token.ROLLBACK:
		return p.parseTransaction()
	case token.OPEN:
		return p.parseCursorOp(cst.OpenCursor)
	case token.CLOSE:
		return p.parseCursorOp(cst.CloseCursor)
	case token.DEALLOCATE:
		return p.parseCursorOp(cst.DeallocateCursor)
	case token.FETCH:
		return p.parseFetch()
	case token.SELECT, token.WITH, token.LPAREN:
		return p.parseSelectStatement(true)
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.TRUNCATE:
		return p.parseTruncate()
	case token.CREATE, token.ALTER, token.GOTO:
		return p.parseOther()
	case token.IDENT:
		if isStatementWord(p.token) || p.checkPeek(token.COLON) {
			return p.parseOther()
		}
	}
	p.errorf(ErrUnexpectedStatement, describe(p.token))
	n := &cst.Node{Kind: cst.Other}
	return n
}

// parseKeywordStatement parses BREAK or CONTINUE.
func (p *Parser) parseKeywordStatement(kind cst.Kind) *cst.Node {
	n := &cst.Node{Kind: kind}
	p.take(n)
	p.acceptSemicolon(n)
	return n
}

// parseStatementsUntil parses statements into n until stop reports true.
func (p *Parser) parseStatementsUntil(n *cst.Node, stop func() bool) {
	for !p.done() && !stop() {
		if p.check(token.SEMICOLON) {
			p.take(n)
			continue
		}
		n.Add(p.parseStatement())
	}
}

// parseBlock parses BEGIN ... END.
func (p *Parser) parseBlock() *cst.Node {
	n := &cst.Node{Kind: cst.Block}
	p.expect(n, token.BEGIN)
	p.parseStatementsUntil(n, func() bool { return p.check(token.END) })
	p.expect(n, token.END)
	p.acceptSemicolon(n)
	return n
}

// parseTryCatch parses BEGIN TRY ... END TRY BEGIN CATCH ... END CATCH.
func (p *Parser) parseTryCatch() *cst.Node {
	n := &cst.Node{Kind: cst.TryCatchStatement}

	try := &cst.Node{Kind: cst.TryBlock}
	p.expect(try, token.BEGIN)
	p.expectWord(try, "TRY")
	p.parseStatementsUntil(try, func() bool { return p.check(token.END) })
	p.expect(try, token.END)
	p.expectWord(try, "TRY")
	p.acceptSemicolon(try)
	n.Add(try)

	catch := &cst.Node{Kind: cst.CatchBlock}
	p.expect(catch, token.BEGIN)
	p.expectWord(catch, "CATCH")
	p.parseStatementsUntil(catch, func() bool { return p.check(token.END) })
	p.expect(catch, token.END)
	p.expectWord(catch, "CATCH")
	p.acceptSemicolon(catch)
	n.Add(catch)
	return n
}

// parseIf parses IF condition statement [ELSE statement].
func (p *Parser) parseIf() *cst.Node {
	n := &cst.Node{Kind: cst.IfStatement}
	p.take(n) // IF
	n.Add(p.parseSearchCondition())
	n.Add(p.parseStatement())
	if p.accept(n, token.ELSE) {
		n.Add(p.parseStatement())
	}
	return n
}

// parseWhile parses WHILE condition statement.
func (p *Parser) parseWhile() *cst.Node {
	n := &cst.Node{Kind: cst.WhileStatement}
	p.take(n) // WHILE
	n.Add(p.parseSearchCondition())
	n.Add(p.parseStatement())
	return n
}

// parseReturn parses RETURN with an optional value.
func (p *Parser) parseReturn() *cst.Node {
	n := &cst.Node{Kind: cst.ReturnStatement}
	p.take(n) // RETURN
	if p.canStartExpression() {
		n.Add(p.parseExpression())
	}
	p.acceptSemicolon(n)
	return n
}

// canStartExpression reports whether the current token can begin a value
// rather than the next statement.
func (p *Parser) canStartExpression() bool {
	switch p.token.Type {
	case token.NUMBER, token.STRING, token.VARIABLE, token.LPAREN, token.MINUS, token.PLUS,
		token.TILDE, token.NULL, token.CASE, token.QUOTED_IDENT, token.EXISTS, token.NOT,
		token.LEFT, token.RIGHT:
		return true
	case token.IDENT:
		return !p.isStatementStart()
	default:
		return false
	}
}

// ---------- Declarations ----------

// parseDeclare parses variable, table variable and cursor declarations.
func (p *Parser) parseDeclare() *cst.Node {
	if isIdent(p.peek) && (p.peek2.Type == token.CURSOR || p.peek2.Is("INSENSITIVE") || p.peek2.Is("SCROLL")) {
		return p.parseDeclareCursor()
	}

	n := &cst.Node{Kind: cst.DeclareStatement}
	p.take(n) // DECLARE

	if p.check(token.VARIABLE) && (p.checkPeek(token.TABLE) || (p.checkPeek(token.AS) && p.peek2.Type == token.TABLE)) {
		table := &cst.Node{Kind: cst.DeclareTable}
		p.take(table)
		p.accept(table, token.AS)
		p.expect(table, token.TABLE)
		table.Add(p.parseTableTypeDefinition())
		n.Add(table)
		p.acceptSemicolon(n)
		return n
	}

	for {
		local := &cst.Node{Kind: cst.DeclareLocal}
		p.expect(local, token.VARIABLE)
		p.accept(local, token.AS)
		local.Add(p.parseDataType())
		if p.accept(local, token.EQ) {
			local.Add(p.parseExpression())
		}
		n.Add(local)
		if !p.accept(n, token.COMMA) || p.failed() {
			break
		}
	}
	p.acceptSemicolon(n)
	return n
}

// cursorOptions are the words allowed between CURSOR and FOR.
var cursorOptions = map[string]bool{
	"LOCAL": true, "GLOBAL": true, "FORWARD_ONLY": true, "SCROLL": true, "STATIC": true,
	"KEYSET": true, "DYNAMIC": true, "FAST_FORWARD": true, "READ_ONLY": true,
	"SCROLL_LOCKS": true, "OPTIMISTIC": true, "TYPE_WARNING": true, "INSENSITIVE": true,
}

func (p *Parser) takeCursorOptions(n *cst.Node) {
	for p.check(token.IDENT) && cursorOptions[strings.ToUpper(p.token.Literal)] {
		p.take(n)
	}
}

// parseDeclareCursor parses DECLARE name CURSOR ... FOR select.
func (p *Parser) parseDeclareCursor() *cst.Node {
	n := &cst.Node{Kind: cst.DeclareCursor}
	p.take(n) // DECLARE
	n.Add(p.parseCursorName())
	p.takeCursorOptions(n)
	p.expect(n, token.CURSOR)
	p.parseCursorBody(n)
	p.acceptSemicolon(n)
	return n
}

// parseCursorBody parses [options] FOR select [FOR READ ONLY | FOR UPDATE [OF cols]].
func (p *Parser) parseCursorBody(n *cst.Node) {
	p.takeCursorOptions(n)
	p.expect(n, token.FOR)
	n.Add(p.parseSelectStatement(false))
	if !p.check(token.FOR) {
		return
	}
	p.take(n)
	switch {
	case p.acceptWord(n, "READ"):
		p.expectWord(n, "ONLY")
	case p.accept(n, token.UPDATE):
		if p.accept(n, token.OF) {
			p.expectIdent(n)
			for p.accept(n, token.COMMA) {
				p.expectIdent(n)
			}
		}
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "READ ONLY or UPDATE")
	}
}

// parseSet parses variable assignment and session option statements.
func (p *Parser) parseSet() *cst.Node {
	n := &cst.Node{Kind: cst.SetStatement}
	setLine := p.token.Pos.Line
	p.take(n) // SET

	switch {
	case p.check(token.VARIABLE):
		p.take(n)
		if !token.IsAssignment(p.token.Type) {
			p.errorf(ErrUnexpectedToken, describe(p.token), "assignment operator")
			return n
		}
		p.take(n)
		if p.accept(n, token.CURSOR) {
			p.parseCursorBody(n)
		} else {
			n.Add(p.parseExpression())
		}
	case p.check(token.TRANSACTION):
		// SET TRANSACTION ISOLATION LEVEL READ COMMITTED
		p.take(n)
		p.expectWord(n, "ISOLATION")
		p.expectWord(n, "LEVEL")
		for p.check(token.IDENT) && p.token.Pos.Line == setLine {
			p.take(n)
		}
	case p.check(token.IDENT):
		p.take(n)
		// SET IDENTITY_INSERT table ON
		if n.Children[len(n.Children)-1].IsWord("IDENTITY_INSERT") {
			n.Add(p.parseMultipartName(cst.TableName))
		}
		for p.accept(n, token.COMMA) {
			p.expectIdent(n)
		}
		for !p.done() && p.token.Pos.Line == setLine && !p.check(token.SEMICOLON) && p.isOptionValue() {
			p.take(n)
		}
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "variable or option name")
	}
	p.acceptSemicolon(n)
	return n
}

// isOptionValue reports whether the current token can be part of a SET option value.
func (p *Parser) isOptionValue() bool {
	switch p.token.Type {
	case token.ON, token.IDENT, token.NUMBER, token.STRING, token.VARIABLE, token.MINUS, token.QUOTED_IDENT:
		return !isStatementWord(p.token)
	}
	return false
}

// ---------- Commands ----------

// parseExecute parses procedure calls and dynamic SQL execution.
func (p *Parser) parseExecute() *cst.Node {
	n := &cst.Node{Kind: cst.ExecuteStatement}
	p.take(n) // EXEC or EXECUTE

	if p.check(token.LPAREN) {
		p.take(n)
		n.Add(p.parseExpression())
		for p.accept(n, token.COMMA) {
			n.Add(p.parseExpression())
		}
		p.expect(n, token.RPAREN)
		p.acceptSemicolon(n)
		return n
	}

	// EXEC @ret = name
	if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
		p.take(n)
		p.take(n)
	}
	if p.check(token.VARIABLE) {
		name := &cst.Node{Kind: cst.SchemaObjectName}
		p.take(name)
		n.Add(name)
	} else {
		n.Add(p.parseMultipartName(cst.SchemaObjectName))
	}

	line := n.Span.End.Line
	if p.isExecuteArgStart(line) {
		n.Add(p.parseExecuteArg())
		for p.accept(n, token.COMMA) {
			n.Add(p.parseExecuteArg())
		}
	}
	if p.check(token.WITH) && p.peek.Is("RECOMPILE") {
		p.take(n)
		p.take(n)
	}
	p.acceptSemicolon(n)
	return n
}

// isExecuteArgStart reports whether the current token begins a procedure
// argument. Bare identifiers count only on the line of the procedure name.
func (p *Parser) isExecuteArgStart(line int) bool {
	switch p.token.Type {
	case token.VARIABLE, token.NUMBER, token.STRING, token.NULL, token.DEFAULT, token.MINUS, token.PLUS:
		return true
	case token.IDENT, token.QUOTED_IDENT:
		return p.token.Pos.Line == line && !p.isStatementStart()
	}
	return false
}

// parseExecuteArg parses [@param =] value [OUTPUT].
func (p *Parser) parseExecuteArg() *cst.Node {
	n := &cst.Node{Kind: cst.ExecuteArg}
	if p.check(token.VARIABLE) && p.checkPeek(token.EQ) {
		p.take(n)
		p.take(n)
	}
	if p.check(token.MINUS) || p.check(token.PLUS) {
		p.take(n)
	}
	switch p.token.Type {
	case token.VARIABLE, token.NUMBER, token.STRING, token.NULL, token.DEFAULT, token.IDENT, token.QUOTED_IDENT:
		p.take(n)
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "argument")
		return n
	}
	if !p.acceptWord(n, "OUTPUT") {
		p.acceptWord(n, "OUT")
	}
	return n
}

// parseTransaction parses BEGIN TRAN, COMMIT and ROLLBACK.
func (p *Parser) parseTransaction() *cst.Node {
	n := &cst.Node{Kind: cst.TransactionStatement}
	line := p.token.Pos.Line
	begin := p.check(token.BEGIN)
	p.take(n) // BEGIN, COMMIT or ROLLBACK
	if begin {
		p.acceptWord(n, "DISTRIBUTED")
		if !p.accept(n, token.TRAN) {
			p.expect(n, token.TRANSACTION)
		}
	} else if !p.accept(n, token.TRAN) && !p.accept(n, token.TRANSACTION) {
		p.acceptWord(n, "WORK")
	}

	// Optional transaction name
	if p.check(token.VARIABLE) || (p.checkIdent() && p.token.Pos.Line == line && !p.isStatementStart()) {
		p.take(n)
	}
	if begin && p.check(token.WITH) && p.peek.Is("MARK") {
		p.take(n)
		p.take(n)
		p.accept(n, token.STRING)
	}
	p.acceptSemicolon(n)
	return n
}

// ---------- Cursors ----------

// parseCursorName parses [GLOBAL] name or a cursor variable.
func (p *Parser) parseCursorName() *cst.Node {
	n := &cst.Node{Kind: cst.CursorName}
	if p.checkWord("GLOBAL") && (isIdent(p.peek) || p.peek.Type == token.VARIABLE) {
		p.take(n)
	}
	if p.check(token.VARIABLE) {
		p.take(n)
		return n
	}
	p.expectIdent(n)
	return n
}

// parseCursorOp parses OPEN, CLOSE and DEALLOCATE.
func (p *Parser) parseCursorOp(kind cst.Kind) *cst.Node {
	n := &cst.Node{Kind: kind}
	p.take(n)
	n.Add(p.parseCursorName())
	p.acceptSemicolon(n)
	return n
}

// parseFetch parses FETCH [direction] [FROM] cursor [INTO @a, @b].
// Target variables are kept as direct terminal children.
func (p *Parser) parseFetch() *cst.Node {
	n := &cst.Node{Kind: cst.FetchCursor}
	p.take(n) // FETCH

	switch {
	case p.checkWord("NEXT"), p.checkWord("PRIOR"), p.checkWord("FIRST"), p.checkWord("LAST"):
		p.take(n)
	case p.checkWord("ABSOLUTE"), p.checkWord("RELATIVE"):
		p.take(n)
		if p.check(token.MINUS) {
			p.take(n)
		}
		if !p.accept(n, token.NUMBER) {
			p.expect(n, token.VARIABLE)
		}
	}
	p.accept(n, token.FROM)
	n.Add(p.parseCursorName())

	if p.accept(n, token.INTO) {
		p.expect(n, token.VARIABLE)
		for p.accept(n, token.COMMA) {
			p.expect(n, token.VARIABLE)
		}
	}
	p.acceptSemicolon(n)
	return n
}

// ---------- Statements known by extent ----------

// parseOther parses a statement the grammar does not model, such as
// RAISERROR, THROW, DROP TABLE, CREATE TABLE or a label. Tokens are taken up
// to the next statement boundary at parenthesis depth zero.
func (p *Parser) parseOther() *cst.Node {
	n := &cst.Node{Kind: cst.Other}

	// label:
	if p.check(token.IDENT) && p.checkPeek(token.COLON) {
		p.take(n)
		p.take(n)
		return n
	}

	// MERGE requires a terminator
	if p.checkWord("MERGE") {
		for !p.done() && !p.check(token.SEMICOLON) {
			if p.check(token.LPAREN) {
				p.takeBalanced(n)
				continue
			}
			p.take(n)
		}
		p.acceptSemicolon(n)
		return n
	}

	p.take(n) // leading keyword
	for !p.done() && !p.isStatementStart() {
		if p.check(token.LPAREN) {
			p.takeBalanced(n)
			continue
		}
		p.take(n)
	}
	p.acceptSemicolon(n)
	return n
}
