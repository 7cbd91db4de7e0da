package generator

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// Select renders a query at level. A query nested in a set operation, CTE
// or subquery is rendered without the terminating semicolon.
//
// ORDER BY, paging and OPTION follow the set operation chain since they
// apply to the whole compound query.
func (b *Base) Select(s *core.SelectStatement, level int, terminate bool) (string, error) {
	if s == nil {
		return "", b.Unsupported("empty query")
	}
	ind := b.Indent(level)
	var lines []string

	if len(s.WithStatements) > 0 {
		with, err := b.with(s.WithStatements, level)
		if err != nil {
			return "", err
		}
		lines = append(lines, with)
	}

	if s.IntoTableName != nil && b.Style.SelectIntoTable != "" {
		lines = append(lines, ind+fmt.Sprintf(b.Style.SelectIntoTable, b.Table(s.IntoTableName)))
	}

	head := "SELECT"
	if s.Distinct {
		head += " DISTINCT"
	}
	if s.TopInfo != nil && b.Style.Top {
		head += " " + b.Top(s.TopInfo)
	} else if s.TopInfo != nil && s.TopInfo.IsPercent {
		return "", b.Unsupported("TOP ... PERCENT")
	}

	cols, into, err := b.selectList(s.Columns)
	if err != nil {
		return "", err
	}
	lines = append(lines, ind+head+" "+strings.Join(cols, ",\n"+b.Indent(level+1)))
	if len(into) > 0 {
		lines = append(lines, ind+"INTO "+strings.Join(into, ", "))
	}
	if s.IntoTableName != nil && b.Style.SelectIntoTable == "" {
		lines = append(lines, ind+"INTO "+b.Table(s.IntoTableName))
	}

	switch {
	case len(s.FromItems) > 0:
		from, err := b.FromItems(s.FromItems, level)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+"FROM "+from)
	case s.TableName != nil:
		lines = append(lines, ind+"FROM "+b.Table(s.TableName))
	}

	if s.Condition != nil {
		lines = append(lines, ind+"WHERE "+b.Text(s.Condition))
	}
	if len(s.GroupBy) > 0 {
		lines = append(lines, ind+"GROUP BY "+b.Tokens(s.GroupBy, ", "))
	}
	if s.Having != nil {
		lines = append(lines, ind+"HAVING "+b.Text(s.Having))
	}

	for _, u := range s.UnionStatements {
		part, err := b.union(u, level)
		if err != nil {
			return "", err
		}
		lines = append(lines, ind+u.Type.Keyword(), part)
	}

	if len(s.OrderBy) > 0 {
		lines = append(lines, ind+"ORDER BY "+b.Tokens(s.OrderBy, ", "))
	}
	lines = append(lines, b.paging(s, ind)...)

	if s.Option != nil {
		if b.Style.KeepOption {
			lines = append(lines, ind+b.Text(s.Option))
		} else {
			b.Logger.Debug("dropping query hint", "dialect", b.Dialect.Name, "option", s.Option.Symbol)
		}
	}

	out := strings.Join(lines, "\n")
	if terminate {
		out += ";"
	}
	return out, nil
}

// Top renders TOP (n) [PERCENT].
func (b *Base) Top(t *core.TopInfo) string {
	out := "TOP (" + strings.Trim(b.Text(t.TopCount), "()") + ")"
	if t.IsPercent {
		out += " PERCENT"
	}
	return out
}

// selectList renders the select elements. Variable assignments become
// INTO targets when the target assigns with SELECT ... INTO.
func (b *Base) selectList(cols []*core.ColumnName) (rendered, into []string, err error) {
	for _, c := range cols {
		if c.Variable == nil {
			rendered = append(rendered, b.Column(c))
			continue
		}
		if !b.Style.AssignInto {
			rendered = append(rendered, b.Variable(c.Variable)+" = "+b.Text(c.Name))
			continue
		}
		if c.Name == nil {
			return nil, nil, b.Unsupported("compound assignment in select list")
		}
		rendered = append(rendered, b.Text(c.Name))
		into = append(into, b.Variable(c.Variable))
	}
	if len(rendered) == 0 {
		rendered = []string{"*"}
	}
	return rendered, into, nil
}

func (b *Base) with(withs []*core.WithStatement, level int) (string, error) {
	ind := b.Indent(level)
	var sb strings.Builder
	sb.WriteString(ind + "WITH ")
	for i, w := range withs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Text(w.Name))
		if len(w.Columns) > 0 {
			sb.WriteString(" (" + b.ColumnNames(w.Columns) + ")")
		}
		body, err := b.Select(w.Select, level+1, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(" AS (\n" + body + "\n" + ind + ")")
	}
	return sb.String(), nil
}

// union renders the right-hand side of a set operation. A query with its
// own ordering or paging is parenthesized.
func (b *Base) union(u *core.UnionStatement, level int) (string, error) {
	s := u.Select
	if s != nil && (len(s.OrderBy) > 0 || s.LimitInfo != nil) {
		body, err := b.Select(s, level+1, false)
		if err != nil {
			return "", err
		}
		ind := b.Indent(level)
		return ind + "(\n" + body + "\n" + ind + ")", nil
	}
	return b.Select(s, level, false)
}

// paging renders TOP as LIMIT where the target has no TOP, and the OFFSET
// window in the target's syntax.
func (b *Base) paging(s *core.SelectStatement, ind string) []string {
	lim := s.LimitInfo
	if b.Style.OffsetFetch {
		if lim == nil {
			return nil
		}
		line := ind + "OFFSET " + b.Text(lim.StartRowIndex) + " ROWS"
		if lim.RowCount != nil {
			line += " FETCH NEXT " + b.Text(lim.RowCount) + " ROWS ONLY"
		}
		return []string{line}
	}

	switch {
	case lim != nil && lim.RowCount != nil:
		return []string{ind + "LIMIT " + b.Text(lim.RowCount) + " OFFSET " + b.Text(lim.StartRowIndex)}
	case lim != nil:
		return []string{ind + "LIMIT " + b.Style.UnboundedLimit + " OFFSET " + b.Text(lim.StartRowIndex)}
	case s.TopInfo != nil && !b.Style.Top:
		return []string{ind + "LIMIT " + strings.Trim(b.Text(s.TopInfo.TopCount), "()")}
	}
	return nil
}

// ---------- FROM ----------

// FromItems renders the comma-separated sources of a FROM clause.
func (b *Base) FromItems(items []*core.FromItem, level int) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		part, err := b.FromItem(item, level)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ",\n"+b.Indent(level+1)), nil
}

// FromItem renders a source with its join chain, one join per line.
func (b *Base) FromItem(item *core.FromItem, level int) (string, error) {
	src, err := b.Source(item.TableName, item.SubSelect, item.Alias, level)
	if err != nil {
		return "", err
	}
	parts := []string{src}
	for _, j := range item.JoinItems {
		part, err := b.Join(j, level)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n"+b.Indent(level+1)), nil
}

// Source renders a table or a derived table with its alias.
func (b *Base) Source(t *core.TableName, sub *core.SelectStatement, alias *core.Token, level int) (string, error) {
	var out string
	if sub != nil {
		body, err := b.Select(sub, level+2, false)
		if err != nil {
			return "", err
		}
		out = "(\n" + body + "\n" + b.Indent(level+1) + ")"
	} else {
		out = b.Table(t)
	}
	if alias != nil {
		out += " " + b.Alias(alias)
	}
	return out, nil
}

// Join renders one link of a join chain.
func (b *Base) Join(j *core.JoinItem, level int) (string, error) {
	switch j.Type {
	case core.JoinPivot:
		if !b.Style.Pivot || j.Pivot == nil {
			return "", b.Unsupported("PIVOT")
		}
		p := j.Pivot
		out := fmt.Sprintf("PIVOT (%s(%s) FOR %s IN (%s))",
			b.Text(p.AggregationFunctionName), b.Text(p.AggregatedColumnName),
			b.Text(p.ColumnName), b.Tokens(p.Values, ", "))
		return withAlias(out, b.Alias(j.Alias)), nil

	case core.JoinUnpivot:
		if !b.Style.Pivot || j.Unpivot == nil {
			return "", b.Unsupported("UNPIVOT")
		}
		u := j.Unpivot
		out := fmt.Sprintf("UNPIVOT (%s FOR %s IN (%s))",
			b.Text(u.ValueColumnName), b.Text(u.ForColumnName), b.Tokens(u.InColumnNames, ", "))
		return withAlias(out, b.Alias(j.Alias)), nil

	case core.JoinFull:
		if !b.Style.FullJoin {
			return "", b.Unsupported("FULL JOIN")
		}
	}

	src, err := b.Source(j.TableName, j.SubSelect, j.Alias, level)
	if err != nil {
		return "", err
	}
	out := string(j.Type) + " JOIN " + src
	if j.Condition != nil && j.Type != core.JoinCross {
		out += " ON " + b.Text(j.Condition)
	}
	return out, nil
}

func withAlias(s, alias string) string {
	if alias == "" {
		return s
	}
	return s + " " + alias
}

// ---------- DML ----------

// Insert renders INSERT INTO with literal rows, a query or default values.
func (b *Base) Insert(s *core.InsertStatement, level int) (string, error) {
	ind := b.Indent(level)
	head := ind + "INSERT INTO " + b.Table(s.TableName)
	if len(s.Columns) > 0 {
		head += " (" + b.ColumnNames(s.Columns) + ")"
	}

	switch {
	case len(s.Values) > 0:
		rows := make([]string, len(s.Values))
		for i, row := range s.Values {
			rows[i] = "(" + b.Tokens(row, ", ") + ")"
		}
		return head + "\n" + ind + "VALUES " + strings.Join(rows, ",\n"+b.Indent(level+1)) + ";\n", nil
	case s.Select != nil:
		body, err := b.Select(s.Select, level, true)
		if err != nil {
			return "", err
		}
		return head + "\n" + body + "\n", nil
	default:
		return head + " " + b.Style.DefaultValues + ";\n", nil
	}
}

// Truncate renders TRUNCATE TABLE.
func (b *Base) Truncate(s *core.TruncateStatement, level int) string {
	return b.Indent(level) + "TRUNCATE TABLE " + b.Table(s.TableName) + ";\n"
}

// Assignments renders the SET list of an UPDATE. Compound operators are
// expanded when the target lacks them.
func (b *Base) Assignments(items []*core.NameValueItem, compound bool) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = b.Assignment(item.Name, item.Operator, item.Value, compound)
	}
	return out
}

// Assignment renders name op value. The target text of name is translated
// with Variable when it is a variable.
func (b *Base) Assignment(name *core.Token, op string, value *core.Token, compound bool) string {
	target := b.Text(name)
	if name != nil && name.Type == core.TokenVariableName {
		target = b.Variable(name)
	}
	if op == "" {
		op = "="
	}
	if op == "=" || compound {
		return target + " " + op + " " + b.Text(value)
	}
	return target + " = " + target + " " + strings.TrimSuffix(op, "=") + " " + b.Text(value)
}

// Flatten splits the FROM clause of an UPDATE or DELETE for targets that
// name the modified table separately: the first source is the table being
// modified, the remaining sources are listed after it and the conditions of
// inner joins move into the WHERE clause.
func (b *Base) Flatten(items []*core.FromItem, where *core.Token, level int) (target string, others []string, conds []string, err error) {
	first := items[0]
	target, err = b.Source(first.TableName, first.SubSelect, first.Alias, level)
	if err != nil {
		return "", nil, nil, err
	}
	for _, j := range first.JoinItems {
		if j.Type != core.JoinInner && j.Type != core.JoinCross {
			return "", nil, nil, b.Unsupported("%s JOIN in UPDATE or DELETE", j.Type)
		}
		src, err := b.Source(j.TableName, j.SubSelect, j.Alias, level)
		if err != nil {
			return "", nil, nil, err
		}
		others = append(others, src)
		if j.Condition != nil {
			conds = append(conds, "("+b.Text(j.Condition)+")")
		}
	}
	for _, item := range items[1:] {
		src, err := b.FromItem(item, level)
		if err != nil {
			return "", nil, nil, err
		}
		others = append(others, src)
	}
	if where != nil {
		conds = append(conds, "("+b.Text(where)+")")
	}
	return target, others, conds, nil
}
