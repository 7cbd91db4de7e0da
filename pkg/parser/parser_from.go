package parser

import (
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// FROM clause.
//
// Grammar:
//
//	table_sources → table_source ("," table_source)*
//	table_source  → table_item join_part*
//	table_item    → (name | @var | name "(" args ")" | subquery | "(" table_source ")")
//	                [[AS] alias ["(" column_list ")"]] [WITH "(" hints ")"]
//	join_part     → [INNER | (LEFT | RIGHT | FULL) [OUTER]] [hint] JOIN table_source ON cond
//	              | CROSS JOIN table_item
//	              | PIVOT "(" function FOR column IN "(" name ("," name)* ")" ")" [AS] alias
//	              | UNPIVOT "(" column FOR column IN "(" column ("," column)* ")" ")" [AS] alias
//
// The table_source after JOIN may carry its own joins, so
// "a JOIN b JOIN c ON x ON y" nests the second join inside the first.

// parseTableSources parses a comma-separated list of table sources.
func (p *Parser) parseTableSources() *cst.Node {
	n := &cst.Node{Kind: cst.TableSources}
	for {
		n.Add(p.parseTableSource())
		if !p.accept(n, token.COMMA) || p.failed() {
			return n
		}
	}
}

// parseTableSource parses a table item followed by its joins.
func (p *Parser) parseTableSource() *cst.Node {
	n := &cst.Node{Kind: cst.TableSource}
	n.Add(p.parseTableSourceItem())
	for !p.failed() {
		join := p.parseJoinPart()
		if join == nil {
			break
		}
		n.Add(join)
	}
	return n
}

// parseTableSourceItem parses one table, derived table, variable or
// table-valued function call.
func (p *Parser) parseTableSourceItem() *cst.Node {
	n := &cst.Node{Kind: cst.TableSourceItem}

	switch {
	case p.check(token.LPAREN) && (p.peek.Type == token.SELECT || p.peek.Type == token.WITH):
		derived := &cst.Node{Kind: cst.DerivedTable}
		derived.Add(p.parseSubquery())
		n.Add(derived)
	case p.check(token.LPAREN):
		p.take(n)
		n.Add(p.parseTableSource())
		p.expect(n, token.RPAREN)
		return n
	case p.check(token.VARIABLE):
		name := &cst.Node{Kind: cst.TableName}
		p.take(name)
		n.Add(name)
	case p.checkIdent():
		name := p.parseMultipartName(cst.TableName)
		if p.check(token.LPAREN) {
			name.Kind = cst.ScalarFunctionName
			n.Add(p.parseFunctionCall(name))
		} else {
			n.Add(name)
		}
	default:
		p.errorf(ErrUnexpectedToken, describe(p.token), "table name")
		return n
	}

	p.parseTableAlias(n)
	if p.check(token.LPAREN) && n.Child(cst.TableAlias) != nil && n.Child(cst.DerivedTable) != nil {
		n.Add(p.parseColumnNameList())
	}
	p.parseTableHints(n)
	return n
}

// parseTableAlias parses an optional [AS] alias into n.
func (p *Parser) parseTableAlias(n *cst.Node) {
	if p.accept(n, token.AS) {
		alias := &cst.Node{Kind: cst.TableAlias}
		p.expectIdent(alias)
		n.Add(alias)
		return
	}
	if p.check(token.IDENT) && p.canBeAlias() || p.check(token.QUOTED_IDENT) {
		alias := &cst.Node{Kind: cst.TableAlias}
		p.take(alias)
		n.Add(alias)
	}
}

// joinHints are the physical join hints allowed between the join type and JOIN.
var joinHints = []string{"LOOP", "HASH", "MERGE", "REMOTE"}

// parseJoinPart parses one join, pivot or unpivot. It returns nil when the
// current token does not start one.
func (p *Parser) parseJoinPart() *cst.Node {
	switch {
	case p.check(token.JOIN), p.check(token.INNER), p.check(token.FULL),
		p.check(token.LEFT) && !p.checkPeek(token.LPAREN),
		p.check(token.RIGHT) && !p.checkPeek(token.LPAREN):
		return p.parseQualifiedJoin()
	case p.check(token.CROSS):
		if p.peek.Is("APPLY") {
			p.errorf(ErrUnsupportedApply, "CROSS")
			return nil
		}
		n := &cst.Node{Kind: cst.JoinPart}
		p.take(n)
		p.expect(n, token.JOIN)
		n.Add(p.parseTableSourceItem())
		return n
	case p.check(token.OUTER) && p.peek.Is("APPLY"):
		p.errorf(ErrUnsupportedApply, "OUTER")
		return nil
	case p.check(token.PIVOT):
		n := &cst.Node{Kind: cst.JoinPart}
		n.Add(p.parsePivot())
		p.parseTableAlias(n)
		return n
	case p.check(token.UNPIVOT):
		n := &cst.Node{Kind: cst.JoinPart}
		n.Add(p.parseUnpivot())
		p.parseTableAlias(n)
		return n
	}
	return nil
}

// parseQualifiedJoin parses [INNER | LEFT | RIGHT | FULL [OUTER]] JOIN source ON cond.
func (p *Parser) parseQualifiedJoin() *cst.Node {
	n := &cst.Node{Kind: cst.JoinPart}
	switch {
	case p.accept(n, token.INNER):
	case p.check(token.LEFT), p.check(token.RIGHT), p.check(token.FULL):
		p.take(n)
		p.accept(n, token.OUTER)
	}
	for _, hint := range joinHints {
		if p.acceptWord(n, hint) {
			break
		}
	}
	p.expect(n, token.JOIN)
	n.Add(p.parseTableSource())
	p.expect(n, token.ON)
	n.Add(p.parseSearchCondition())
	return n
}

// parsePivot parses PIVOT "(" agg(col) FOR col IN "(" value ("," value)* ")" ")".
func (p *Parser) parsePivot() *cst.Node {
	n := &cst.Node{Kind: cst.PivotClause}
	p.take(n) // PIVOT
	p.expect(n, token.LPAREN)
	name := p.parseMultipartName(cst.ScalarFunctionName)
	n.Add(p.parseFunctionCall(name))
	p.expect(n, token.FOR)
	n.Add(p.parseMultipartName(cst.FullColumnName))
	p.expect(n, token.IN)
	p.expect(n, token.LPAREN)
	for {
		value := &cst.Node{Kind: cst.ColumnAlias}
		if !p.accept(value, token.NUMBER) && !p.accept(value, token.STRING) {
			p.expectIdent(value)
		}
		n.Add(value)
		if !p.accept(n, token.COMMA) || p.failed() {
			break
		}
	}
	p.expect(n, token.RPAREN)
	p.expect(n, token.RPAREN)
	return n
}

// parseUnpivot parses UNPIVOT "(" value FOR col IN "(" col ("," col)* ")" ")".
func (p *Parser) parseUnpivot() *cst.Node {
	n := &cst.Node{Kind: cst.UnpivotClause}
	p.take(n) // UNPIVOT
	p.expect(n, token.LPAREN)
	n.Add(p.parseMultipartName(cst.FullColumnName))
	p.expect(n, token.FOR)
	n.Add(p.parseMultipartName(cst.FullColumnName))
	p.expect(n, token.IN)
	p.expect(n, token.LPAREN)
	for {
		n.Add(p.parseMultipartName(cst.FullColumnName))
		if !p.accept(n, token.COMMA) || p.failed() {
			break
		}
	}
	p.expect(n, token.RPAREN)
	p.expect(n, token.RPAREN)
	return n
}
