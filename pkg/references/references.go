// Package references flags the identifier-level references in a concrete
// syntax tree: routine calls, table references and column references.
//
// Only positively identified nodes are reported. Table variables (@t) and
// temporary tables (#t) are local to a batch and never reported.
package references

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Extract returns the references found under n in source order.
func Extract(n *cst.Node) []core.Reference {
	var refs []core.Reference
	visit(n, func(typ core.TokenType, name string, at *cst.Node) {
		pos := at.Span.Start
		refs = append(refs, core.Reference{Type: typ, Name: name, Line: pos.Line, Column: pos.Column})
	})
	return refs
}

// ExtractTree returns every reference in the tree.
func ExtractTree(tree *cst.Tree) []core.Reference {
	if tree == nil {
		return nil
	}
	return Extract(tree.Root)
}

// Tokens returns the references found under n as classified tokens. Each
// token's span is the span of the referencing name.
func Tokens(n *cst.Node) []*core.Token {
	var toks []*core.Token
	visit(n, func(typ core.TokenType, name string, at *cst.Node) {
		toks = append(toks, core.NewToken(name, typ, at.Span))
	})
	return toks
}

// Routines returns the distinct routine names called under n, in order of
// first appearance.
func Routines(n *cst.Node) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range Extract(n) {
		if r.Type != core.TokenRoutineName {
			continue
		}
		key := strings.ToLower(r.Name)
		if !seen[key] {
			seen[key] = true
			names = append(names, r.Name)
		}
	}
	return names
}

func visit(n *cst.Node, emit func(core.TokenType, string, *cst.Node)) {
	n.Walk(func(m *cst.Node) bool {
		if !isReference(m) {
			return true
		}
		switch m.Kind {
		case cst.ExecuteStatement:
			name := m.Child(cst.SchemaObjectName)
			emit(core.TokenRoutineName, Name(name), name)
			return true
		case cst.FunctionCall:
			name := m.Child(cst.ScalarFunctionName)
			emit(core.TokenRoutineName, Name(name), name)
			return true
		case cst.TableName:
			emit(core.TokenTableName, Name(m), m)
		case cst.FullColumnName:
			emit(core.TokenColumnName, Name(m), m)
		}
		return false
	})
}

// isReference reports whether m is a node visit emits a reference for.
func isReference(m *cst.Node) bool {
	switch m.Kind {
	case cst.ExecuteStatement:
		name := m.Child(cst.SchemaObjectName)
		return name != nil && !name.HasTerminal(token.VARIABLE)
	case cst.FunctionCall:
		// Built-in functions are never schema-qualified
		return Parts(m.Child(cst.ScalarFunctionName)) > 1
	case cst.TableName:
		if m.HasTerminal(token.VARIABLE) {
			return false
		}
		name := Name(m)
		return name != "" && !strings.HasPrefix(name, "#")
	case cst.FullColumnName:
		return !m.HasTerminal(token.STAR)
	}
	return false
}

// Name joins the terminals of a multipart name without surrounding whitespace.
func Name(n *cst.Node) string {
	var sb strings.Builder
	for _, t := range n.Terminals() {
		sb.WriteString(t.Literal)
	}
	return sb.String()
}

// Parts counts the identifier parts of a multipart name.
func Parts(n *cst.Node) int {
	count := 0
	for _, t := range n.Terminals() {
		if t.Type == token.IDENT || t.Type == token.QUOTED_IDENT {
			count++
		}
	}
	return count
}
