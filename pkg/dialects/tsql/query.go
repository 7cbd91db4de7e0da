package tsql

import (
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// selectStatement maps a full query: CTEs, the query body, set operations
// and the trailing ORDER BY, paging and OPTION clauses.
func (b *builder) selectStatement(n *cst.Node) *core.SelectStatement {
	sel := &core.SelectStatement{Columns: []*core.ColumnName{}}
	var withs []*core.WithStatement

	for _, c := range n.Children {
		switch c.Kind {
		case cst.WithExpression:
			withs = b.withStatements(c)
		case cst.QuerySpecification, cst.Subquery:
			sel = b.queryExpression(c)
		case cst.SetOperation:
			sel.UnionStatements = append(sel.UnionStatements, b.setOperation(c))
		case cst.OrderByClause:
			for _, item := range c.ChildrenOf(cst.OrderByExpression) {
				sel.OrderBy = append(sel.OrderBy, expression(b.tree, item, core.TokenOrderBy))
			}
		case cst.OffsetClause:
			sel.LimitInfo = &core.LimitInfo{StartRowIndex: expression(b.tree, c.Child(cst.Expression), core.TokenGeneral)}
		case cst.FetchClause:
			if sel.LimitInfo == nil {
				sel.LimitInfo = &core.LimitInfo{}
			}
			sel.LimitInfo.RowCount = expression(b.tree, c.Child(cst.Expression), core.TokenGeneral)
		case cst.OptionClause:
			sel.Option = capture(b.tree, c, core.TokenOption)
		case cst.ForClause:
			b.skip(c, "FOR XML, JSON and BROWSE clauses are not kept")
		}
	}
	sel.WithStatements = withs
	return sel
}

// queryExpression maps a query specification or a parenthesized query.
func (b *builder) queryExpression(n *cst.Node) *core.SelectStatement {
	if n.Kind == cst.Subquery {
		if inner := n.Child(cst.SelectStatement); inner != nil {
			return b.selectStatement(inner)
		}
		return &core.SelectStatement{Columns: []*core.ColumnName{}}
	}
	return b.querySpecification(n)
}

func (b *builder) setOperation(n *cst.Node) *core.UnionStatement {
	u := &core.UnionStatement{Type: core.UnionDistinct}
	switch {
	case n.HasTerminal(token.INTERSECT):
		u.Type = core.Intersect
	case n.HasTerminal(token.EXCEPT):
		u.Type = core.Except
	case n.HasTerminal(token.ALL):
		u.Type = core.UnionAll
	}
	for _, c := range n.Children {
		if c.Kind == cst.QuerySpecification || c.Kind == cst.Subquery {
			u.Select = b.queryExpression(c)
		}
	}
	return u
}

func (b *builder) withStatements(n *cst.Node) []*core.WithStatement {
	var out []*core.WithStatement
	for _, cte := range n.ChildrenOf(cst.CommonTableExpression) {
		w := &core.WithStatement{
			Name:    capture(b.tree, cte.Children[0], core.TokenGeneral),
			Columns: b.columnList(cte.Child(cst.ColumnNameList)),
		}
		if sel := cte.Child(cst.SelectStatement); sel != nil {
			w.Select = b.selectStatement(sel)
		}
		out = append(out, w)
	}
	return out
}

// querySpecification maps SELECT ... FROM ... WHERE ... GROUP BY ... HAVING.
func (b *builder) querySpecification(n *cst.Node) *core.SelectStatement {
	sel := &core.SelectStatement{
		Columns:       []*core.ColumnName{},
		Distinct:      n.HasTerminal(token.DISTINCT),
		TopInfo:       b.topInfo(n.Child(cst.TopClause)),
		IntoTableName: ParseTableName(b.tree, n.Child(cst.IntoClause), true),
		FromItems:     b.fromItems(n.Child(cst.TableSources)),
	}
	if len(sel.FromItems) > 0 {
		sel.TableName = sel.FromItems[0].TableName
	}

	if list := n.Child(cst.SelectList); list != nil {
		for _, el := range list.Children {
			if el.Kind != cst.Terminal {
				sel.Columns = append(sel.Columns, ParseColumnName(b.tree, el, false))
			}
		}
	}

	var clause token.TokenType
	for _, c := range n.Children {
		switch {
		case c.IsTerminal(token.WHERE), c.IsTerminal(token.HAVING):
			clause = c.Token.Type
		case c.Kind == cst.SearchCondition && clause == token.WHERE:
			sel.Condition = b.condition(c)
		case c.Kind == cst.SearchCondition && clause == token.HAVING:
			sel.Having = b.condition(c)
		case c.Kind == cst.GroupByItem:
			sel.GroupBy = append(sel.GroupBy, expression(b.tree, c, core.TokenGroupBy))
		case c.IsWord("ROLLUP"), c.IsWord("CUBE"):
			b.skip(c, "GROUP BY WITH ROLLUP or CUBE is not kept")
		}
	}
	return sel
}

// topInfo maps TOP n, TOP (expr) and TOP n PERCENT.
func (b *builder) topInfo(n *cst.Node) *core.TopInfo {
	if n == nil {
		return nil
	}
	top := &core.TopInfo{IsPercent: n.HasTerminal(token.PERCENT_KW)}
	if expr := n.Child(cst.Expression); expr != nil {
		top.TopCount = expression(b.tree, expr, core.TokenGeneral)
	} else if num := n.Terminal(token.NUMBER); num != nil {
		top.TopCount = capture(b.tree, num, core.TokenGeneral)
	} else {
		top.TopCount = capture(b.tree, n.Terminal(token.VARIABLE), core.TokenVariableName)
	}
	if n.HasWord("TIES") {
		b.skip(n, "TOP WITH TIES is not kept")
	}
	return top
}

// ---------- FROM ----------

// fromItems maps the comma-separated table sources of a FROM clause.
func (b *builder) fromItems(n *cst.Node) []*core.FromItem {
	if n == nil {
		return nil
	}
	var items []*core.FromItem
	for _, src := range n.ChildrenOf(cst.TableSource) {
		items = append(items, b.fromItem(src))
	}
	return items
}

// fromItem maps a table source with its chain of joins. The links of each
// top-level join are re-linearized once, after the nested links have been
// collected.
func (b *builder) fromItem(n *cst.Node) *core.FromItem {
	item := b.sourceItem(n.Child(cst.TableSourceItem))
	for _, join := range n.ChildrenOf(cst.JoinPart) {
		links := b.joinPart(join)
		relinearize(links)
		item.JoinItems = append(item.JoinItems, links...)
	}
	return item
}

// relinearize swaps neighbouring join targets from the last link down,
// never touching the first.
func relinearize(links []*core.JoinItem) {
	for i := len(links) - 1; i > 1; i-- {
		links[i-1].SwapTarget(links[i])
	}
}

// sourceItem maps a table, table variable, table-valued function or derived
// table. A parenthesized table source flattens into the item it contains.
func (b *builder) sourceItem(n *cst.Node) *core.FromItem {
	if n == nil {
		return &core.FromItem{}
	}
	if inner := n.Child(cst.TableSource); inner != nil {
		return b.fromItem(inner)
	}

	if derived := n.Child(cst.DerivedTable); derived != nil {
		item := &core.FromItem{Alias: capture(b.tree, n.Child(cst.TableAlias), core.TokenAlias)}
		if sel := derived.Find(cst.SelectStatement); sel != nil {
			item.SubSelect = b.selectStatement(sel)
		}
		if n.Child(cst.ColumnNameList) != nil {
			b.skip(n, "derived table column list is not kept")
		}
		return item
	}

	table := ParseTableName(b.tree, n, false)
	return &core.FromItem{TableName: table, Alias: table.Alias}
}

// joinPart maps one join, pivot or unpivot. A join whose right-hand source
// carries joins of its own yields the link followed by the nested links in
// source order, unswapped.
func (b *builder) joinPart(n *cst.Node) []*core.JoinItem {
	if pivot := n.Child(cst.PivotClause); pivot != nil {
		return []*core.JoinItem{{
			Type:  core.JoinPivot,
			Alias: capture(b.tree, n.Child(cst.TableAlias), core.TokenAlias),
			Pivot: b.pivotItem(pivot),
		}}
	}
	if unpivot := n.Child(cst.UnpivotClause); unpivot != nil {
		return []*core.JoinItem{{
			Type:    core.JoinUnpivot,
			Alias:   capture(b.tree, n.Child(cst.TableAlias), core.TokenAlias),
			Unpivot: b.unpivotItem(unpivot),
		}}
	}

	var target *core.FromItem
	var joins []*cst.Node
	if src := n.Child(cst.TableSource); src != nil {
		target = b.sourceItem(src.Child(cst.TableSourceItem))
		joins = src.ChildrenOf(cst.JoinPart)
	} else {
		target = b.sourceItem(n.Child(cst.TableSourceItem))
	}

	links := []*core.JoinItem{{
		Type:      joinType(n),
		TableName: target.TableName,
		SubSelect: target.SubSelect,
		Alias:     target.Alias,
		Condition: b.condition(n.Child(cst.SearchCondition)),
	}}
	links = append(links, target.JoinItems...)
	for _, join := range joins {
		links = append(links, b.joinPart(join)...)
	}
	return links
}

func joinType(n *cst.Node) core.JoinType {
	switch {
	case n.HasTerminal(token.LEFT):
		return core.JoinLeft
	case n.HasTerminal(token.RIGHT):
		return core.JoinRight
	case n.HasTerminal(token.FULL):
		return core.JoinFull
	case n.HasTerminal(token.CROSS):
		return core.JoinCross
	default:
		return core.JoinInner
	}
}

// pivotItem maps PIVOT (fn(col) FOR col IN (values)).
func (b *builder) pivotItem(n *cst.Node) *core.PivotItem {
	p := &core.PivotItem{ColumnName: capture(b.tree, n.Child(cst.FullColumnName), core.TokenColumnName)}
	if fn := n.Child(cst.FunctionCall); fn != nil {
		p.AggregationFunctionName = capture(b.tree, fn.Child(cst.ScalarFunctionName), core.TokenRoutineName)
		p.AggregatedColumnName = expression(b.tree, fn.Child(cst.Expression), core.TokenColumnName)
	}
	for _, v := range n.ChildrenOf(cst.ColumnAlias) {
		p.Values = append(p.Values, capture(b.tree, v, core.TokenGeneral))
	}
	return p
}

// unpivotItem maps UNPIVOT (value FOR col IN (cols)).
func (b *builder) unpivotItem(n *cst.Node) *core.UnpivotItem {
	cols := n.ChildrenOf(cst.FullColumnName)
	u := &core.UnpivotItem{}
	if len(cols) < 2 {
		return u
	}
	u.ValueColumnName = capture(b.tree, cols[0], core.TokenColumnName)
	u.ForColumnName = capture(b.tree, cols[1], core.TokenColumnName)
	for _, c := range cols[2:] {
		u.InColumnNames = append(u.InColumnNames, capture(b.tree, c, core.TokenColumnName))
	}
	return u
}
