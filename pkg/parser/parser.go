// Package parser provides a T-SQL parser producing a concrete syntax tree.
//
// # Usage
//
//	tree, err := parser.Parse("CREATE PROCEDURE dbo.P1 AS SELECT 1")
//	if err != nil {
//	    var se *core.SyntaxError
//	    errors.As(err, &se) // line, column and message
//	}
//	root := cst.GetDdlRoot(tree)
//
// # Grammar Overview
//
// The parser is a recursive descent parser for the procedural subset of T-SQL:
//
//	file          → (create_stmt | statement | GO)*
//	create_stmt   → (CREATE [OR ALTER] | ALTER) (procedure | function | view | trigger)
//	statement     → block | if | while | try_catch | declare | set | exec | dml | ...
//	block         → BEGIN statement* END
//
// Every consumed token is kept as a Terminal node so that any node's text can
// be recovered verbatim from the source. See each file for detailed grammar
// rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Parser parses T-SQL into a concrete syntax tree.
type Parser struct {
	lexer *Lexer
	token token.Token // current token
	peek  token.Token // lookahead token
	peek2 token.Token // second lookahead token
	err   *core.SyntaxError
}

// NewParser creates a new parser for the given T-SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{lexer: NewLexer(sql)}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a T-SQL source file. On failure the returned error is a
// *core.SyntaxError carrying the line and column of the first violation.
func Parse(sql string) (*cst.Tree, error) {
	p := NewParser(sql)
	root := p.parseFile()
	if p.err == nil && len(p.lexer.Errors) > 0 {
		e := p.lexer.Errors[0]
		p.err = syntaxError(e.Pos, e.Message)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &cst.Tree{Source: sql, Root: root, Comments: p.lexer.Comments}, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. Reaching an illegal token fails the
// parse with the lexer's message.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
	if p.token.Type == token.ILLEGAL && p.err == nil {
		msg := "illegal input"
		for _, e := range p.lexer.Errors {
			if e.Pos == p.token.Pos {
				msg = e.Message
				break
			}
		}
		p.err = syntaxError(p.token.Pos, msg)
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkWord returns true if the current token is the contextual keyword word.
func (p *Parser) checkWord(word string) bool {
	return p.token.Is(word)
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkIdent returns true if the current token is a plain or quoted identifier.
func (p *Parser) checkIdent() bool {
	return isIdent(p.token)
}

// failed reports whether a syntax error has been recorded.
func (p *Parser) failed() bool {
	return p.err != nil
}

// done reports whether parsing cannot continue.
func (p *Parser) done() bool {
	return p.err != nil || p.token.Type == token.EOF
}

// take appends the current token to n as a terminal and advances.
func (p *Parser) take(n *cst.Node) {
	if p.failed() {
		return
	}
	n.Add(cst.NewTerminal(p.token))
	p.nextToken()
}

// accept takes the current token if it is of type t.
func (p *Parser) accept(n *cst.Node, t token.TokenType) bool {
	if p.check(t) && !p.failed() {
		p.take(n)
		return true
	}
	return false
}

// acceptWord takes the current token if it is the contextual keyword word.
func (p *Parser) acceptWord(n *cst.Node, word string) bool {
	if p.checkWord(word) && !p.failed() {
		p.take(n)
		return true
	}
	return false
}

// expect takes the current token if it is of type t, otherwise records an error.
func (p *Parser) expect(n *cst.Node, t token.TokenType) bool {
	if p.accept(n, t) {
		return true
	}
	p.errorf(ErrUnexpectedToken, describe(p.token), t)
	return false
}

// expectWord takes the current token if it is the contextual keyword word,
// otherwise records an error.
func (p *Parser) expectWord(n *cst.Node, word string) bool {
	if p.acceptWord(n, word) {
		return true
	}
	p.errorf(ErrUnexpectedToken, describe(p.token), strings.ToUpper(word))
	return false
}

// expectIdent takes a plain or quoted identifier.
func (p *Parser) expectIdent(n *cst.Node) bool {
	if p.checkIdent() {
		p.take(n)
		return true
	}
	p.errorf(ErrUnexpectedToken, describe(p.token), "identifier")
	return false
}

// acceptSemicolon takes an optional statement terminator.
func (p *Parser) acceptSemicolon(n *cst.Node) {
	p.accept(n, token.SEMICOLON)
}

// errorf records a syntax error at the current token. Only the first error is kept.
func (p *Parser) errorf(format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = syntaxError(p.token.Pos, fmt.Sprintf(format, args...))
}

// takeBalanced takes a parenthesized group, including nested groups, as terminals.
func (p *Parser) takeBalanced(n *cst.Node) {
	if !p.expect(n, token.LPAREN) {
		return
	}
	depth := 1
	for depth > 0 && !p.done() {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.take(n)
	}
	if depth > 0 {
		p.errorf(ErrUnexpectedToken, describe(p.token), token.RPAREN)
	}
}

// ---------- Classification Helpers ----------

// isIdent returns true for plain and quoted identifiers.
func isIdent(tok token.Token) bool {
	return tok.Type == token.IDENT || tok.Type == token.QUOTED_IDENT
}

// statementWords are unreserved words that begin statements the parser
// recognises only by extent. They never act as aliases.
var statementWords = map[string]bool{
	"GO": true, "USE": true, "RAISERROR": true, "THROW": true, "WAITFOR": true,
	"DROP": true, "GRANT": true, "DENY": true, "REVOKE": true, "MERGE": true,
	"DBCC": true, "SAVE": true, "REVERT": true, "BULK": true, "CHECKPOINT": true,
	"KILL": true, "RECONFIGURE": true, "ENABLE": true, "DISABLE": true,
	"READTEXT": true, "WRITETEXT": true, "UPDATETEXT": true, "SETUSER": true,
}

// notAliasWords are unreserved words that end a table or column reference.
var notAliasWords = map[string]bool{
	"OUTPUT": true, "OFFSET": true, "APPLY": true,
}

func isStatementWord(tok token.Token) bool {
	return tok.Type == token.IDENT && statementWords[strings.ToUpper(tok.Literal)]
}

// canBeAlias reports whether tok may be an implicit alias (without AS).
func (p *Parser) canBeAlias() bool {
	switch p.token.Type {
	case token.QUOTED_IDENT, token.STRING:
		return true
	case token.IDENT:
		upper := strings.ToUpper(p.token.Literal)
		return !statementWords[upper] && !notAliasWords[upper] && !p.checkPeek(token.COLON)
	default:
		return false
	}
}

// isStatementStart reports whether the current token begins a statement.
func (p *Parser) isStatementStart() bool {
	switch p.token.Type {
	case token.SELECT, token.INSERT, token.UPDATE, token.DELETE, token.DECLARE, token.SET,
		token.IF, token.WHILE, token.BEGIN, token.END, token.RETURN, token.EXEC, token.EXECUTE,
		token.PRINT, token.OPEN, token.CLOSE, token.FETCH, token.DEALLOCATE, token.COMMIT,
		token.ROLLBACK, token.CREATE, token.ALTER, token.TRUNCATE, token.GOTO, token.BREAK,
		token.CONTINUE, token.ELSE, token.SEMICOLON, token.EOF:
		return true
	case token.IDENT:
		return isStatementWord(p.token) || p.checkPeek(token.COLON)
	default:
		return false
	}
}

// ---------- File ----------

// parseFile parses a sequence of batches separated by GO.
func (p *Parser) parseFile() *cst.Node {
	file := &cst.Node{Kind: cst.File}
	for !p.done() {
		switch {
		case p.check(token.SEMICOLON):
			p.take(file)
		case p.checkWord("GO"):
			p.take(file)
			if p.check(token.NUMBER) && p.token.Pos.Line == file.Span.End.Line {
				p.take(file)
			}
		case p.check(token.CREATE), p.check(token.ALTER) && p.peekIsRoutine():
			file.Add(p.parseCreate())
		default:
			file.Add(p.parseStatement())
		}
	}
	return file
}

// peekIsRoutine reports whether ALTER is followed by an object kind the
// parser models as a create statement.
func (p *Parser) peekIsRoutine() bool {
	switch p.peek.Type {
	case token.PROC, token.PROCEDURE, token.FUNCTION, token.VIEW, token.TRIGGER:
		return true
	}
	return false
}
