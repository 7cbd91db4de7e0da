package tsql

import (
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/references"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// ParseTableName resolves a table reference node (a multipart name, a table
// source with its alias, a derived table or an INTO target) into a TableName.
// When no shape matches, a strict call returns nil and a lenient call
// returns a generic capture of the node's whole span.
func ParseTableName(tree *cst.Tree, n *cst.Node, strict bool) *core.TableName {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case cst.TableName, cst.SchemaObjectName:
		name := capture(tree, n, core.TokenTableName)
		return &core.TableName{Token: *name, Name: name}

	case cst.IntoClause:
		return ParseTableName(tree, n.Child(cst.TableName), strict)

	case cst.TableSourceItem:
		alias := n.Child(cst.TableAlias)
		var target *cst.Node
		for _, c := range n.Children {
			if c.Kind == cst.TableName || c.Kind == cst.FunctionCall || c.Kind == cst.DerivedTable {
				target = c
				break
			}
		}
		if target == nil {
			break
		}
		last := target
		if alias != nil {
			last = alias
		}
		t := &core.TableName{Token: *captureRange(tree, target, last, core.TokenTableName)}
		if target.Kind != cst.DerivedTable {
			t.Name = capture(tree, target, core.TokenTableName)
		}
		t.Alias = capture(tree, alias, core.TokenAlias)
		return t
	}

	if strict {
		return nil
	}
	return &core.TableName{Token: *capture(tree, n, core.TokenGeneral)}
}

// ParseColumnName resolves a select element, column reference, column
// definition or column list entry into a ColumnName. When no shape matches,
// a strict call returns nil and a lenient call returns a generic capture of
// the node's whole span.
func ParseColumnName(tree *cst.Tree, n *cst.Node, strict bool) *core.ColumnName {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case cst.ColumnElem:
		c := qualifiedColumn(tree, n.Child(cst.FullColumnName))
		c.Token = *capture(tree, n, core.TokenColumnName)
		c.Alias = capture(tree, n.Child(cst.ColumnAlias), core.TokenAlias)
		return c

	case cst.FullColumnName, cst.Asterisk:
		c := qualifiedColumn(tree, n)
		c.Token = *capture(tree, n, core.TokenColumnName)
		return c

	case cst.ExpressionElem:
		return expressionColumn(tree, n)

	case cst.ColumnDefinition:
		c := &core.ColumnName{Token: *capture(tree, n, core.TokenColumnName)}
		if len(n.Children) > 0 && n.Children[0].Kind == cst.Terminal {
			c.Name = capture(tree, n.Children[0], core.TokenColumnName)
		}
		c.DataType = capture(tree, n.Child(cst.DataType), core.TokenDataType)
		return c

	case cst.Terminal:
		if n.Token.Type == token.IDENT || n.Token.Type == token.QUOTED_IDENT {
			name := capture(tree, n, core.TokenColumnName)
			return &core.ColumnName{Token: *name, Name: name}
		}
	}

	if strict {
		return nil
	}
	return &core.ColumnName{Token: *capture(tree, n, core.TokenGeneral)}
}

// qualifiedColumn splits [table.]column or [table.]* into its parts.
func qualifiedColumn(tree *cst.Tree, n *cst.Node) *core.ColumnName {
	c := &core.ColumnName{}
	if n == nil || len(n.Children) == 0 {
		return c
	}
	kids := n.Children
	last := kids[len(kids)-1]
	c.Name = capture(tree, last, core.TokenColumnName)
	if len(kids) >= 3 && kids[len(kids)-2].IsTerminal(token.DOT) {
		c.TableName = captureRange(tree, kids[0], kids[len(kids)-3], core.TokenTableName)
	}
	return c
}

// expressionColumn handles expr [AS] alias, alias = expr and @v = expr.
func expressionColumn(tree *cst.Tree, n *cst.Node) *core.ColumnName {
	c := &core.ColumnName{Token: *capture(tree, n, core.TokenColumnName)}
	expr := n.Child(cst.Expression)
	if len(n.Children) == 0 || expr == nil {
		c.Name = capture(tree, n, core.TokenGeneral)
		return c
	}

	first := n.Children[0]
	switch {
	case first.IsTerminal(token.VARIABLE):
		if !n.Children[1].IsTerminal(token.EQ) {
			// Compound assignment keeps its operator in the expression
			c.Name = expression(tree, n, core.TokenGeneral)
			return c
		}
		c.Variable = capture(tree, first, core.TokenVariableName)
		c.Name = expression(tree, expr, core.TokenGeneral)
	case first.Kind == cst.ColumnAlias:
		c.Alias = capture(tree, first, core.TokenAlias)
		c.Name = expression(tree, expr, core.TokenGeneral)
	default:
		c.Name = expression(tree, expr, core.TokenGeneral)
		c.Alias = capture(tree, n.Child(cst.ColumnAlias), core.TokenAlias)
	}
	return c
}

// ---------- Token helpers ----------

// capture wraps the source text of n in a token, or returns nil for a nil node.
func capture(tree *cst.Tree, n *cst.Node, typ core.TokenType) *core.Token {
	if n == nil {
		return nil
	}
	return core.NewToken(tree.Text(n), typ, n.Span)
}

// captureRange wraps the source text from first to last in a token.
func captureRange(tree *cst.Tree, first, last *cst.Node, typ core.TokenType) *core.Token {
	if first == nil || last == nil {
		return nil
	}
	return core.NewToken(tree.TextRange(first, last), typ, first.Span.Cover(last.Span))
}

// expression captures n and attaches the references found inside it.
func expression(tree *cst.Tree, n *cst.Node, typ core.TokenType) *core.Token {
	t := capture(tree, n, typ)
	if t != nil {
		t.Tokens = references.Tokens(n)
	}
	return t
}

// terminal wraps a lexical token.
func terminal(tok *token.Token, typ core.TokenType) *core.Token {
	if tok == nil {
		return nil
	}
	return core.NewToken(tok.Literal, typ, tok.Span())
}
