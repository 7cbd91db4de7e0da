package parser

import (
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Create statements for routines, views and triggers.
//
// Grammar:
//
//	procedure  → PROC[EDURE] name [";" n] [ ["("] param ("," param)* [")"] ]
//	             [WITH option ("," option)*] [FOR REPLICATION] AS body
//	function   → FUNCTION name "(" [param ("," param)*] ")" RETURNS returns
//	             [WITH option ("," option)*] [AS] (block | RETURN select)
//	returns    → data_type | TABLE | @var TABLE "(" column_def ("," column_def)* ")"
//	view       → VIEW name ["(" column_list ")"] [WITH option ("," option)*] AS select [WITH CHECK OPTION]
//	trigger    → TRIGGER name ON table [WITH option ("," option)*] (FOR | AFTER | INSTEAD OF)
//	             event ("," event)* [WITH APPEND] [NOT FOR REPLICATION] AS body
//	param      → @var [AS] data_type [VARYING] ["=" expr] [OUT | OUTPUT] [READONLY]
//	data_type  → name ["(" (n | MAX) ["," n] ")"]

// parseCreate parses a top-level create statement. Create statements for
// other object kinds are parsed by extent only.
func (p *Parser) parseCreate() *cst.Node {
	if !p.peekIsRoutine() && !p.checkPeek(token.OR) {
		return p.parseOther()
	}

	n := &cst.Node{}
	if p.accept(n, token.CREATE) {
		if p.accept(n, token.OR) {
			p.expect(n, token.ALTER)
		}
	} else {
		p.expect(n, token.ALTER)
	}

	switch p.token.Type {
	case token.PROC, token.PROCEDURE:
		n.Kind = cst.CreateProcedure
		p.parseProcedure(n)
	case token.FUNCTION:
		n.Kind = cst.CreateFunction
		p.parseFunction(n)
	case token.VIEW:
		n.Kind = cst.CreateView
		p.parseView(n)
	case token.TRIGGER:
		n.Kind = cst.CreateTrigger
		p.parseTrigger(n)
	default:
		n.Kind = cst.Other
		p.errorf(ErrUnsupportedCreate, describe(p.token))
	}
	return n
}

func (p *Parser) parseProcedure(n *cst.Node) {
	p.take(n) // PROC or PROCEDURE
	n.Add(p.parseMultipartName(cst.SchemaObjectName))

	// Numbered procedures: name;1
	if p.check(token.SEMICOLON) && p.checkPeek(token.NUMBER) {
		p.take(n)
		p.take(n)
	}

	parens := p.accept(n, token.LPAREN)
	if p.check(token.VARIABLE) {
		n.Add(p.parseProcedureParam())
		for p.accept(n, token.COMMA) {
			n.Add(p.parseProcedureParam())
		}
	}
	if parens {
		p.expect(n, token.RPAREN)
	}

	p.parseRoutineOptions(n)
	if p.check(token.FOR) && p.peek.Is("REPLICATION") {
		p.take(n)
		p.take(n)
	}
	p.expect(n, token.AS)
	p.parseBody(n)
}

func (p *Parser) parseFunction(n *cst.Node) {
	p.take(n) // FUNCTION
	n.Add(p.parseMultipartName(cst.SchemaObjectName))

	p.expect(n, token.LPAREN)
	if p.check(token.VARIABLE) {
		n.Add(p.parseProcedureParam())
		for p.accept(n, token.COMMA) {
			n.Add(p.parseProcedureParam())
		}
	}
	p.expect(n, token.RPAREN)

	returns := &cst.Node{}
	p.expectWord(returns, "RETURNS")
	inline := false
	switch {
	case p.check(token.VARIABLE):
		returns.Kind = cst.ReturnsTable
		p.take(returns)
		p.expect(returns, token.TABLE)
		returns.Add(p.parseTableTypeDefinition())
	case p.check(token.TABLE):
		returns.Kind = cst.ReturnsInlineTable
		p.take(returns)
		inline = true
	default:
		returns.Kind = cst.ReturnsScalar
		returns.Add(p.parseDataType())
	}
	n.Add(returns)

	p.parseRoutineOptions(n)
	p.accept(n, token.AS)

	if inline {
		ret := &cst.Node{Kind: cst.ReturnStatement}
		p.expect(ret, token.RETURN)
		if p.check(token.LPAREN) {
			ret.Add(p.parseSubquery())
		} else {
			ret.Add(p.parseSelectStatement(false))
		}
		p.acceptSemicolon(ret)
		n.Add(ret)
		p.acceptSemicolon(n)
		return
	}

	if !p.check(token.BEGIN) {
		p.errorf(ErrUnexpectedToken, describe(p.token), token.BEGIN)
		return
	}
	n.Add(p.parseBlock())
	p.acceptSemicolon(n)
}

func (p *Parser) parseView(n *cst.Node) {
	p.take(n) // VIEW
	n.Add(p.parseMultipartName(cst.SchemaObjectName))
	if p.check(token.LPAREN) {
		n.Add(p.parseColumnNameList())
	}
	p.parseRoutineOptions(n)
	p.expect(n, token.AS)
	n.Add(p.parseSelectStatement(false))

	// WITH CHECK OPTION
	if p.check(token.WITH) && p.peek.Is("CHECK") {
		p.take(n)
		p.take(n)
		p.expect(n, token.OPTION)
	}
	p.acceptSemicolon(n)
}

func (p *Parser) parseTrigger(n *cst.Node) {
	p.take(n) // TRIGGER
	n.Add(p.parseMultipartName(cst.SchemaObjectName))
	p.expect(n, token.ON)
	n.Add(p.parseMultipartName(cst.TableName))
	p.parseRoutineOptions(n)

	switch {
	case p.check(token.FOR), p.checkWord("AFTER"):
		p.take(n)
	case p.checkWord("INSTEAD"):
		p.take(n)
		p.expect(n, token.OF)
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "FOR, AFTER or INSTEAD OF")
		return
	}

	n.Add(p.parseTriggerOperation())
	for p.accept(n, token.COMMA) {
		n.Add(p.parseTriggerOperation())
	}

	if p.check(token.WITH) && p.peek.Is("APPEND") {
		p.take(n)
		p.take(n)
	}
	if p.check(token.NOT) && p.checkPeek(token.FOR) {
		p.take(n)
		p.take(n)
		p.expectWord(n, "REPLICATION")
	}
	p.expect(n, token.AS)
	p.parseBody(n)
}

func (p *Parser) parseTriggerOperation() *cst.Node {
	n := &cst.Node{Kind: cst.DmlTriggerOperation}
	switch p.token.Type {
	case token.INSERT, token.UPDATE, token.DELETE:
		p.take(n)
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "INSERT, UPDATE or DELETE")
	}
	return n
}

// parseBody parses the statements of a procedure or trigger body up to the
// end of the batch.
func (p *Parser) parseBody(n *cst.Node) {
	for !p.done() && !p.checkWord("GO") {
		if p.check(token.SEMICOLON) {
			p.take(n)
			continue
		}
		n.Add(p.parseStatement())
	}
}

// parseRoutineOptions parses WITH ENCRYPTION, SCHEMABINDING, RECOMPILE,
// EXECUTE AS ... and similar option lists.
func (p *Parser) parseRoutineOptions(n *cst.Node) {
	if !p.check(token.WITH) || (!isIdent(p.peek) && p.peek.Type != token.EXECUTE && p.peek.Type != token.EXEC) {
		return
	}
	if p.peek.Is("CHECK") || p.peek.Is("APPEND") {
		return
	}
	p.take(n) // WITH
	for {
		opt := &cst.Node{Kind: cst.RoutineOption}
		if p.check(token.EXECUTE) || p.check(token.EXEC) {
			p.take(opt)
			p.expect(opt, token.AS)
			switch {
			case p.check(token.STRING), p.checkIdent():
				p.take(opt)
			default:
				p.errorf(ErrUnexpectedToken, describe(p.token), "CALLER, SELF, OWNER or a user name")
			}
		} else {
			p.expectIdent(opt)
			// RETURNS NULL ON NULL INPUT / CALLED ON NULL INPUT
			for p.check(token.NULL) || p.check(token.ON) || p.checkWord("INPUT") {
				p.take(opt)
			}
		}
		n.Add(opt)
		if !p.accept(n, token.COMMA) {
			return
		}
	}
}

// parseProcedureParam parses one routine parameter.
func (p *Parser) parseProcedureParam() *cst.Node {
	n := &cst.Node{Kind: cst.ProcedureParam}
	if !p.expect(n, token.VARIABLE) {
		return n
	}
	p.accept(n, token.AS)
	n.Add(p.parseDataType())
	p.acceptWord(n, "VARYING")
	if p.check(token.EQ) {
		def := &cst.Node{Kind: cst.DefaultValue}
		p.take(n)
		def.Add(p.parseExpression())
		n.Add(def)
	}
	if !p.acceptWord(n, "OUT") {
		p.acceptWord(n, "OUTPUT")
	}
	p.acceptWord(n, "READONLY")
	return n
}

// parseDataType parses a possibly schema-qualified type name with an
// optional length, precision or MAX.
func (p *Parser) parseDataType() *cst.Node {
	n := &cst.Node{Kind: cst.DataType}
	switch {
	case p.checkIdent(), p.check(token.CURSOR), p.check(token.TABLE):
		p.take(n)
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "data type")
		return n
	}
	for p.check(token.DOT) {
		p.take(n)
		p.expectIdent(n)
	}
	// DOUBLE PRECISION, CHARACTER VARYING and friends
	for p.checkWord("PRECISION") || (p.checkWord("VARYING") && p.checkPeek(token.LPAREN)) {
		p.take(n)
	}
	if p.check(token.LPAREN) {
		p.take(n)
		if !p.accept(n, token.NUMBER) && !p.acceptWord(n, "MAX") {
			p.errorf(ErrUnexpectedToken, describe(p.token), "length")
		}
		if p.accept(n, token.COMMA) {
			p.expect(n, token.NUMBER)
		}
		p.expect(n, token.RPAREN)
	}
	return n
}

// parseTableTypeDefinition parses "(" column_def ("," column_def)* ")".
func (p *Parser) parseTableTypeDefinition() *cst.Node {
	n := &cst.Node{Kind: cst.TableTypeDefinition}
	p.expect(n, token.LPAREN)
	for !p.done() {
		if p.isTableConstraint() {
			p.parseTableConstraint(n)
		} else {
			n.Add(p.parseColumnDefinition())
		}
		if !p.accept(n, token.COMMA) {
			break
		}
	}
	p.expect(n, token.RPAREN)
	return n
}

// isTableConstraint reports whether the current token begins a table-level
// constraint such as PRIMARY KEY (a, b).
func (p *Parser) isTableConstraint() bool {
	for _, w := range []string{"PRIMARY", "UNIQUE", "CONSTRAINT", "CHECK", "FOREIGN", "INDEX"} {
		if p.checkWord(w) {
			return true
		}
	}
	return false
}

// parseTableConstraint takes a table-level constraint as terminals.
func (p *Parser) parseTableConstraint(n *cst.Node) {
	for !p.done() && !p.check(token.COMMA) && !p.check(token.RPAREN) {
		if p.check(token.LPAREN) {
			p.takeBalanced(n)
			continue
		}
		p.take(n)
	}
}

// parseColumnDefinition parses name data_type followed by column
// constraints, which are kept as terminals.
func (p *Parser) parseColumnDefinition() *cst.Node {
	n := &cst.Node{Kind: cst.ColumnDefinition}
	if !p.expectIdent(n) {
		return n
	}
	p.accept(n, token.AS)
	n.Add(p.parseDataType())
	for !p.done() && !p.check(token.COMMA) && !p.check(token.RPAREN) {
		if p.check(token.LPAREN) {
			p.takeBalanced(n)
			continue
		}
		if p.check(token.DEFAULT) {
			p.take(n)
			def := &cst.Node{Kind: cst.DefaultValue}
			def.Add(p.parseExpression())
			n.Add(def)
			continue
		}
		p.take(n)
	}
	return n
}

// parseColumnNameList parses "(" ident ("," ident)* ")".
func (p *Parser) parseColumnNameList() *cst.Node {
	n := &cst.Node{Kind: cst.ColumnNameList}
	p.expect(n, token.LPAREN)
	p.expectIdent(n)
	for p.accept(n, token.COMMA) {
		p.expectIdent(n)
	}
	p.expect(n, token.RPAREN)
	return n
}

// parseMultipartName parses [server.][db.][schema.]name into a node of the
// given kind. Empty parts (db..name) are allowed.
func (p *Parser) parseMultipartName(kind cst.Kind) *cst.Node {
	n := &cst.Node{Kind: kind}
	if !p.expectIdent(n) {
		return n
	}
	for p.check(token.DOT) {
		p.take(n)
		if p.check(token.DOT) {
			continue
		}
		p.expectIdent(n)
	}
	return n
}
