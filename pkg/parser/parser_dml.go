package parser

import (
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Query and data modification statements.
//
// Grammar:
//
//	select_stmt  → [WITH cte ("," cte)*] query_expr (set_op query_expr)*
//	               [ORDER BY order_item ("," order_item)* [OFFSET n ROWS [FETCH (FIRST|NEXT) n ROWS ONLY]]]
//	               [FOR (XML | JSON | BROWSE) ...] [OPTION "(" ... ")"]
//	cte          → name ["(" column_list ")"] AS "(" select_stmt ")"
//	query_expr   → query_spec | "(" select_stmt ")"
//	query_spec   → SELECT [ALL | DISTINCT] [TOP ...] select_list [INTO table]
//	               [FROM table_sources] [WHERE cond] [GROUP BY expr ("," expr)* [WITH (ROLLUP | CUBE)]]
//	               [HAVING cond]
//	insert       → INSERT [TOP ...] [INTO] target ["(" column_list ")"]
//	               (VALUES row ("," row)* | select_stmt | exec | DEFAULT VALUES)
//	update       → UPDATE [TOP ...] target [WITH "(" hints ")"] SET assign ("," assign)*
//	               [FROM table_sources] [WHERE cond] [OPTION "(" ... ")"]
//	delete       → DELETE [TOP ...] [FROM] target [FROM table_sources] [WHERE cond] [OPTION "(" ... ")"]
//	truncate     → TRUNCATE TABLE name

// parseSelectStatement parses a full query. The statement terminator is
// consumed only when terminated is set, so nested queries leave it alone.
func (p *Parser) parseSelectStatement(terminated bool) *cst.Node {
	n := &cst.Node{Kind: cst.SelectStatement}

	if p.check(token.WITH) {
		n.Add(p.parseWithExpression())
	}

	n.Add(p.parseQueryExpression())
	for p.check(token.UNION) || p.check(token.INTERSECT) || p.check(token.EXCEPT) {
		op := &cst.Node{Kind: cst.SetOperation}
		union := p.check(token.UNION)
		p.take(op)
		if union {
			p.accept(op, token.ALL)
		}
		op.Add(p.parseQueryExpression())
		n.Add(op)
	}

	if p.check(token.ORDER) {
		n.Add(p.parseOrderByClause())
		if p.checkWord("OFFSET") {
			n.Add(p.parseOffsetClause())
			if p.check(token.FETCH) {
				n.Add(p.parseFetchClause())
			}
		}
	}

	if p.check(token.FOR) && (p.peek.Is("XML") || p.peek.Is("JSON") || p.peek.Is("BROWSE")) {
		n.Add(p.parseForClause())
	}
	if p.check(token.OPTION) {
		n.Add(p.parseOptionClause())
	}
	if terminated {
		p.acceptSemicolon(n)
	}
	return n
}

// parseWithExpression parses WITH cte ("," cte)*.
func (p *Parser) parseWithExpression() *cst.Node {
	n := &cst.Node{Kind: cst.WithExpression}
	p.take(n) // WITH
	for {
		cte := &cst.Node{Kind: cst.CommonTableExpression}
		p.expectIdent(cte)
		if p.check(token.LPAREN) {
			cte.Add(p.parseColumnNameList())
		}
		p.expect(cte, token.AS)
		p.expect(cte, token.LPAREN)
		cte.Add(p.parseSelectStatement(false))
		p.expect(cte, token.RPAREN)
		n.Add(cte)
		if !p.accept(n, token.COMMA) || p.failed() {
			return n
		}
	}
}

// parseQueryExpression parses a query specification or a parenthesized query.
func (p *Parser) parseQueryExpression() *cst.Node {
	if p.check(token.LPAREN) {
		return p.parseSubquery()
	}
	return p.parseQuerySpecification()
}

// parseQuerySpecification parses SELECT ... [FROM] [WHERE] [GROUP BY] [HAVING].
func (p *Parser) parseQuerySpecification() *cst.Node {
	n := &cst.Node{Kind: cst.QuerySpecification}
	if !p.expect(n, token.SELECT) {
		return n
	}
	if !p.accept(n, token.ALL) {
		p.accept(n, token.DISTINCT)
	}
	if p.check(token.TOP) {
		n.Add(p.parseTopClause())
	}
	n.Add(p.parseSelectList())

	if p.check(token.INTO) {
		into := &cst.Node{Kind: cst.IntoClause}
		p.take(into)
		into.Add(p.parseMultipartName(cst.TableName))
		n.Add(into)
	}
	if p.accept(n, token.FROM) {
		n.Add(p.parseTableSources())
	}
	if p.accept(n, token.WHERE) {
		n.Add(p.parseWhereCondition())
	}
	if p.check(token.GROUP) {
		p.take(n)
		p.expect(n, token.BY)
		for {
			item := &cst.Node{Kind: cst.GroupByItem}
			item.Add(p.parseExpression())
			n.Add(item)
			if !p.accept(n, token.COMMA) || p.failed() {
				break
			}
		}
		if p.check(token.WITH) && (p.peek.Is("ROLLUP") || p.peek.Is("CUBE")) {
			p.take(n)
			p.take(n)
		}
	}
	if p.accept(n, token.HAVING) {
		n.Add(p.parseSearchCondition())
	}
	return n
}

// parseWhereCondition parses a search condition or CURRENT OF cursor.
func (p *Parser) parseWhereCondition() *cst.Node {
	if p.checkWord("CURRENT") && p.checkPeek(token.OF) {
		n := &cst.Node{Kind: cst.SearchCondition}
		p.take(n)
		p.take(n)
		n.Add(p.parseCursorName())
		return n
	}
	return p.parseSearchCondition()
}

// parseTopClause parses TOP (expr) | TOP n, with PERCENT and WITH TIES.
func (p *Parser) parseTopClause() *cst.Node {
	n := &cst.Node{Kind: cst.TopClause}
	p.take(n) // TOP
	if p.accept(n, token.LPAREN) {
		n.Add(p.parseExpression())
		p.expect(n, token.RPAREN)
	} else if !p.accept(n, token.NUMBER) {
		p.expect(n, token.VARIABLE)
	}
	p.accept(n, token.PERCENT_KW)
	if p.check(token.WITH) && p.peek.Is("TIES") {
		p.take(n)
		p.take(n)
	}
	return n
}

// parseSelectList parses the comma-separated select elements.
func (p *Parser) parseSelectList() *cst.Node {
	n := &cst.Node{Kind: cst.SelectList}
	for {
		n.Add(p.parseSelectElement())
		if !p.accept(n, token.COMMA) || p.failed() {
			return n
		}
	}
}

// parseSelectElement parses *, t.*, @v = expr, alias = expr, column [AS alias]
// or expr [AS alias].
func (p *Parser) parseSelectElement() *cst.Node {
	switch {
	case p.check(token.STAR):
		n := &cst.Node{Kind: cst.Asterisk}
		p.take(n)
		return n
	case p.checkIdent() && p.isQualifiedStar():
		n := &cst.Node{Kind: cst.Asterisk}
		for !p.check(token.STAR) && !p.done() {
			p.take(n)
		}
		p.take(n)
		return n
	case p.check(token.VARIABLE) && token.IsAssignment(p.peek.Type):
		n := &cst.Node{Kind: cst.ExpressionElem}
		p.take(n)
		p.take(n)
		n.Add(p.parseExpression())
		return n
	case (p.checkIdent() || p.check(token.STRING)) && p.checkPeek(token.EQ):
		n := &cst.Node{Kind: cst.ExpressionElem}
		alias := &cst.Node{Kind: cst.ColumnAlias}
		p.take(alias)
		n.Add(alias)
		p.take(n)
		n.Add(p.parseExpression())
		return n
	}

	expr := p.parseExpression()
	var n *cst.Node
	if len(expr.Children) == 1 && expr.Children[0].Kind == cst.FullColumnName {
		n = &cst.Node{Kind: cst.ColumnElem}
		n.Add(expr.Children[0])
	} else {
		n = &cst.Node{Kind: cst.ExpressionElem}
		n.Add(expr)
	}
	p.parseColumnAlias(n)
	return n
}

// isQualifiedStar reports whether the tokens ahead form name.* or s.name.*.
func (p *Parser) isQualifiedStar() bool {
	if p.peek.Type != token.DOT {
		return false
	}
	if p.peek2.Type == token.STAR {
		return true
	}
	// Deeper qualification needs more lookahead than the parser keeps.
	lex := *p.lexer
	next := lex.NextToken()
	return isIdent(p.peek2) && next.Type == token.DOT && lex.NextToken().Type == token.STAR
}

// parseColumnAlias parses an optional [AS] alias into n.
func (p *Parser) parseColumnAlias(n *cst.Node) {
	if p.accept(n, token.AS) {
		alias := &cst.Node{Kind: cst.ColumnAlias}
		if !p.accept(alias, token.STRING) {
			p.expectIdent(alias)
		}
		n.Add(alias)
		return
	}
	if p.canBeAlias() {
		alias := &cst.Node{Kind: cst.ColumnAlias}
		p.take(alias)
		n.Add(alias)
	}
}

// parseOrderByClause parses ORDER BY expr [ASC | DESC] ("," ...)*.
func (p *Parser) parseOrderByClause() *cst.Node {
	n := &cst.Node{Kind: cst.OrderByClause}
	p.take(n) // ORDER
	p.expect(n, token.BY)
	for {
		item := &cst.Node{Kind: cst.OrderByExpression}
		item.Add(p.parseExpression())
		if !p.accept(item, token.ASC) {
			p.accept(item, token.DESC)
		}
		n.Add(item)
		if !p.accept(n, token.COMMA) || p.failed() {
			return n
		}
	}
}

// parseOffsetClause parses OFFSET expr ROW[S].
func (p *Parser) parseOffsetClause() *cst.Node {
	n := &cst.Node{Kind: cst.OffsetClause}
	p.take(n) // OFFSET
	n.Add(p.parseExpression())
	if !p.acceptWord(n, "ROWS") {
		p.expectWord(n, "ROW")
	}
	return n
}

// parseFetchClause parses FETCH (FIRST | NEXT) expr ROW[S] ONLY.
func (p *Parser) parseFetchClause() *cst.Node {
	n := &cst.Node{Kind: cst.FetchClause}
	p.take(n) // FETCH
	if !p.acceptWord(n, "FIRST") {
		p.expectWord(n, "NEXT")
	}
	n.Add(p.parseExpression())
	if !p.acceptWord(n, "ROWS") {
		p.expectWord(n, "ROW")
	}
	p.expectWord(n, "ONLY")
	return n
}

// parseForClause parses FOR XML, FOR JSON and FOR BROWSE with their options.
func (p *Parser) parseForClause() *cst.Node {
	n := &cst.Node{Kind: cst.ForClause}
	p.take(n) // FOR
	p.take(n) // XML, JSON or BROWSE
	for !p.done() {
		switch {
		case p.check(token.LPAREN):
			p.takeBalanced(n)
		case p.check(token.COMMA):
			p.take(n)
		case p.check(token.IDENT) && !p.isStatementStart():
			p.take(n)
		default:
			return n
		}
	}
	return n
}

// parseOptionClause parses OPTION "(" hint ("," hint)* ")".
func (p *Parser) parseOptionClause() *cst.Node {
	n := &cst.Node{Kind: cst.OptionClause}
	p.take(n) // OPTION
	p.takeBalanced(n)
	return n
}

// ---------- Data modification ----------

// parseDmlTarget parses the target table of INSERT, UPDATE or DELETE.
func (p *Parser) parseDmlTarget() *cst.Node {
	if p.check(token.VARIABLE) {
		n := &cst.Node{Kind: cst.TableName}
		p.take(n)
		return n
	}
	return p.parseMultipartName(cst.TableName)
}

// parseTableHints parses WITH "(" hint ("," hint)* ")" into n.
func (p *Parser) parseTableHints(n *cst.Node) {
	if p.check(token.WITH) && p.checkPeek(token.LPAREN) {
		p.take(n)
		p.takeBalanced(n)
	}
}

func (p *Parser) parseInsert() *cst.Node {
	n := &cst.Node{Kind: cst.InsertStatement}
	p.take(n) // INSERT
	if p.check(token.TOP) {
		n.Add(p.parseTopClause())
	}
	p.accept(n, token.INTO)
	n.Add(p.parseDmlTarget())
	p.parseTableHints(n)
	if p.check(token.LPAREN) && p.peek.Type != token.SELECT && p.peek.Type != token.WITH {
		n.Add(p.parseColumnNameList())
	}

	switch {
	case p.check(token.VALUES):
		n.Add(p.parseTableValueConstructor())
	case p.check(token.SELECT), p.check(token.WITH), p.check(token.LPAREN):
		n.Add(p.parseSelectStatement(false))
	case p.check(token.EXEC), p.check(token.EXECUTE):
		n.Add(p.parseExecute())
		return n
	case p.check(token.DEFAULT):
		p.take(n)
		p.expect(n, token.VALUES)
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "VALUES, SELECT or EXECUTE")
	}
	p.acceptSemicolon(n)
	return n
}

// parseTableValueConstructor parses VALUES "(" expr, ... ")" ("," ...)*.
func (p *Parser) parseTableValueConstructor() *cst.Node {
	n := &cst.Node{Kind: cst.TableValueConstructor}
	p.take(n) // VALUES
	for {
		n.Add(p.parseExpressionList())
		if !p.accept(n, token.COMMA) || p.failed() {
			return n
		}
	}
}

func (p *Parser) parseUpdate() *cst.Node {
	n := &cst.Node{Kind: cst.UpdateStatement}
	p.take(n) // UPDATE
	if p.check(token.TOP) {
		n.Add(p.parseTopClause())
	}
	n.Add(p.parseDmlTarget())
	p.parseTableHints(n)
	p.expect(n, token.SET)
	for {
		n.Add(p.parseUpdateElem())
		if !p.accept(n, token.COMMA) || p.failed() {
			break
		}
	}
	if p.accept(n, token.FROM) {
		n.Add(p.parseTableSources())
	}
	if p.accept(n, token.WHERE) {
		n.Add(p.parseWhereCondition())
	}
	if p.check(token.OPTION) {
		n.Add(p.parseOptionClause())
	}
	p.acceptSemicolon(n)
	return n
}

// parseUpdateElem parses (column | @var) assign_op expr.
func (p *Parser) parseUpdateElem() *cst.Node {
	n := &cst.Node{Kind: cst.UpdateElem}
	if p.check(token.VARIABLE) {
		p.take(n)
	} else {
		n.Add(p.parseMultipartName(cst.FullColumnName))
	}
	if !token.IsAssignment(p.token.Type) {
		p.errorf(ErrUnexpectedToken, describe(p.token), "assignment operator")
		return n
	}
	p.take(n)
	n.Add(p.parseExpression())
	return n
}

func (p *Parser) parseDelete() *cst.Node {
	n := &cst.Node{Kind: cst.DeleteStatement}
	p.take(n) // DELETE
	if p.check(token.TOP) {
		n.Add(p.parseTopClause())
	}
	p.accept(n, token.FROM)
	n.Add(p.parseDmlTarget())
	p.parseTableHints(n)
	if p.accept(n, token.FROM) {
		n.Add(p.parseTableSources())
	}
	if p.accept(n, token.WHERE) {
		n.Add(p.parseWhereCondition())
	}
	if p.check(token.OPTION) {
		n.Add(p.parseOptionClause())
	}
	p.acceptSemicolon(n)
	return n
}

func (p *Parser) parseTruncate() *cst.Node {
	n := &cst.Node{Kind: cst.TruncateTable}
	p.take(n) // TRUNCATE
	p.expect(n, token.TABLE)
	n.Add(p.parseMultipartName(cst.TableName))
	p.acceptSemicolon(n)
	return n
}
