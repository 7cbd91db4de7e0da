package parser

import (
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Expressions.
//
// Expressions are kept flat: an Expression node holds its operands and
// operators in source order. Only operands with internal structure (function
// calls, column references, subqueries and CASE) get their own nodes.
//
// Grammar:
//
//	expr      → unary* operand postfix* (binary_op expr)?
//	operand   → literal | @var | "(" expr ("," expr)* ")" | subquery | case
//	          | EXISTS subquery | (ANY | ALL | SOME) subquery | function_call | column
//	postfix   → IS [NOT] NULL | [NOT] BETWEEN arith AND arith | [NOT] IN (list | subquery)
//	          | [NOT] LIKE arith [ESCAPE arith] | COLLATE name
//	function  → name "(" [* | [DISTINCT | ALL] expr [AS data_type] ("," expr)*] ")"
//	            [WITHIN GROUP "(" ... ")"] [OVER "(" ... ")"]

// parseExpression parses a full expression including logical operators.
func (p *Parser) parseExpression() *cst.Node {
	n := &cst.Node{Kind: cst.Expression}
	p.parseExpressionInto(n, false)
	return n
}

// parseSearchCondition parses a WHERE, HAVING, ON, IF or WHILE condition.
func (p *Parser) parseSearchCondition() *cst.Node {
	n := &cst.Node{Kind: cst.SearchCondition}
	n.Add(p.parseExpression())
	return n
}

// parseExpressionInto appends operands and operators to n. With arithmetic
// set only arithmetic operators continue the expression, as needed for
// BETWEEN bounds.
func (p *Parser) parseExpressionInto(n *cst.Node, arithmetic bool) {
	for !p.failed() {
		p.parseOperand(n)
		p.parsePostfix(n, arithmetic)
		if !p.isBinaryOperator(arithmetic) {
			return
		}
		p.take(n)
	}
}

func (p *Parser) isBinaryOperator(arithmetic bool) bool {
	switch p.token.Type {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.AMP, token.PIPE, token.CARET:
		return true
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE, token.NLT, token.NGT,
		token.AND, token.OR:
		return !arithmetic
	}
	return false
}

// parseOperand parses unary operators followed by one operand.
func (p *Parser) parseOperand(n *cst.Node) {
	for p.check(token.MINUS) || p.check(token.PLUS) || p.check(token.TILDE) || p.check(token.NOT) {
		p.take(n)
	}

	switch p.token.Type {
	case token.NUMBER, token.STRING, token.VARIABLE, token.NULL, token.DEFAULT:
		p.take(n)
	case token.LPAREN:
		if p.peek.Type == token.SELECT || p.peek.Type == token.WITH {
			n.Add(p.parseSubquery())
			return
		}
		p.take(n)
		n.Add(p.parseExpression())
		for p.accept(n, token.COMMA) {
			n.Add(p.parseExpression())
		}
		p.expect(n, token.RPAREN)
	case token.CASE:
		n.Add(p.parseCase())
	case token.EXISTS, token.ANY, token.ALL, token.SOME:
		p.take(n)
		n.Add(p.parseSubquery())
	case token.LEFT, token.RIGHT, token.UPDATE:
		// LEFT(s, n), RIGHT(s, n) and the trigger predicate UPDATE(col)
		if !p.checkPeek(token.LPAREN) {
			p.errorf(ErrUnexpectedToken, describe(p.token), "expression")
			return
		}
		name := &cst.Node{Kind: cst.ScalarFunctionName}
		p.take(name)
		n.Add(p.parseFunctionCall(name))
	case token.IDENT, token.QUOTED_IDENT:
		n.Add(p.parseNameOperand())
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "expression")
	}
}

// parseNameOperand parses a column reference or a function call.
func (p *Parser) parseNameOperand() *cst.Node {
	name := &cst.Node{}
	p.take(name)
	for p.check(token.DOT) {
		p.take(name)
		switch {
		case p.check(token.DOT):
			continue
		case p.check(token.STAR):
			// t.* inside COUNT(t.*)
			p.take(name)
			name.Kind = cst.FullColumnName
			return name
		default:
			p.expectIdent(name)
		}
	}
	if p.check(token.LPAREN) {
		name.Kind = cst.ScalarFunctionName
		return p.parseFunctionCall(name)
	}
	name.Kind = cst.FullColumnName
	return name
}

// parseFunctionCall parses the argument list and trailing clauses of a call.
func (p *Parser) parseFunctionCall(name *cst.Node) *cst.Node {
	n := &cst.Node{Kind: cst.FunctionCall}
	n.Add(name)
	p.expect(n, token.LPAREN)
	if !p.check(token.RPAREN) {
		if p.check(token.STAR) {
			p.take(n)
		} else {
			p.parseFunctionArg(n)
			for p.accept(n, token.COMMA) {
				p.parseFunctionArg(n)
			}
		}
	}
	p.expect(n, token.RPAREN)

	// STRING_AGG(x, ',') WITHIN GROUP (ORDER BY x)
	if p.checkWord("WITHIN") && p.checkPeek(token.GROUP) {
		p.take(n)
		p.take(n)
		p.takeBalanced(n)
	}
	if p.check(token.OVER) {
		over := &cst.Node{Kind: cst.OverClause}
		p.take(over)
		p.takeBalanced(over)
		n.Add(over)
	}
	return n
}

func (p *Parser) parseFunctionArg(n *cst.Node) {
	if !p.accept(n, token.DISTINCT) {
		p.accept(n, token.ALL)
	}
	n.Add(p.parseExpression())
	// CAST(x AS type)
	if p.accept(n, token.AS) {
		n.Add(p.parseDataType())
	}
}

// parsePostfix parses predicates that follow an operand.
func (p *Parser) parsePostfix(n *cst.Node, arithmetic bool) {
	for !p.failed() {
		if p.checkWord("COLLATE") {
			p.take(n)
			p.expectIdent(n)
			continue
		}
		if arithmetic {
			return
		}

		switch {
		case p.check(token.IS):
			p.take(n)
			p.accept(n, token.NOT)
			p.expect(n, token.NULL)
		case p.check(token.NOT) && (p.checkPeek(token.BETWEEN) || p.checkPeek(token.IN) || p.checkPeek(token.LIKE)):
			p.take(n)
		case p.check(token.BETWEEN):
			p.take(n)
			p.parseExpressionInto(n, true)
			p.expect(n, token.AND)
			p.parseExpressionInto(n, true)
		case p.check(token.IN):
			p.take(n)
			if p.check(token.LPAREN) && (p.peek.Type == token.SELECT || p.peek.Type == token.WITH) {
				n.Add(p.parseSubquery())
			} else {
				n.Add(p.parseExpressionList())
			}
		case p.check(token.LIKE):
			p.take(n)
			p.parseExpressionInto(n, true)
			if p.acceptWord(n, "ESCAPE") {
				p.parseExpressionInto(n, true)
			}
		default:
			return
		}
	}
}

// parseExpressionList parses "(" expr ("," expr)* ")".
func (p *Parser) parseExpressionList() *cst.Node {
	n := &cst.Node{Kind: cst.ExpressionList}
	p.expect(n, token.LPAREN)
	n.Add(p.parseExpression())
	for p.accept(n, token.COMMA) {
		n.Add(p.parseExpression())
	}
	p.expect(n, token.RPAREN)
	return n
}

// parseCase parses simple and searched CASE expressions.
func (p *Parser) parseCase() *cst.Node {
	n := &cst.Node{Kind: cst.CaseExpression}
	p.take(n) // CASE
	if !p.check(token.WHEN) {
		n.Add(p.parseExpression())
	}
	if !p.check(token.WHEN) {
		p.errorf(ErrUnexpectedToken, describe(p.token), token.WHEN)
		return n
	}
	for p.accept(n, token.WHEN) {
		n.Add(p.parseExpression())
		p.expect(n, token.THEN)
		n.Add(p.parseExpression())
	}
	if p.accept(n, token.ELSE) {
		n.Add(p.parseExpression())
	}
	p.expect(n, token.END)
	return n
}

// parseSubquery parses "(" select ")".
func (p *Parser) parseSubquery() *cst.Node {
	n := &cst.Node{Kind: cst.Subquery}
	p.expect(n, token.LPAREN)
	n.Add(p.parseSelectStatement(false))
	p.expect(n, token.RPAREN)
	return n
}
