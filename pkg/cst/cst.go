// Package cst defines the concrete syntax tree produced by the T-SQL parser.
//
// The tree is grammar-shaped: every reserved word, identifier and operator is
// kept as a Terminal child, and every node records the source span it covers.
// Analysers work on the tree by switching over Kind.
package cst

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Node is a single node of the concrete syntax tree.
type Node struct {
	Kind     Kind
	Token    *token.Token // set for Terminal nodes only
	Children []*Node
	Span     token.Span
}

// NewTerminal wraps a lexical token in a Terminal node.
func NewTerminal(tok token.Token) *Node {
	t := tok
	return &Node{Kind: Terminal, Token: &t, Span: tok.Span()}
}

// Add appends children and widens the node span to cover them.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		n.Children = append(n.Children, c)
		n.Span = n.Span.Cover(c.Span)
	}
}

// IsTerminal reports whether n is a terminal of the given token type.
func (n *Node) IsTerminal(t token.TokenType) bool {
	return n != nil && n.Kind == Terminal && n.Token.Type == t
}

// IsWord reports whether n is an identifier terminal spelling word.
func (n *Node) IsWord(word string) bool {
	return n != nil && n.Kind == Terminal && n.Token.Is(word)
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all direct children of the given kind in source order.
func (n *Node) ChildrenOf(k Kind) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// Terminal returns the first direct terminal child of the given token type.
func (n *Node) Terminal(t token.TokenType) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.IsTerminal(t) {
			return c
		}
	}
	return nil
}

// HasTerminal reports whether a direct child is a terminal of type t.
func (n *Node) HasTerminal(t token.TokenType) bool {
	return n.Terminal(t) != nil
}

// HasWord reports whether a direct child is an identifier spelling word.
func (n *Node) HasWord(word string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Children {
		if c.IsWord(word) {
			return true
		}
	}
	return false
}

// Terminals returns the direct terminal children in source order.
func (n *Node) Terminals() []*token.Token {
	if n == nil {
		return nil
	}
	var out []*token.Token
	for _, c := range n.Children {
		if c.Kind == Terminal {
			out = append(out, c.Token)
		}
	}
	return out
}

// FirstToken returns the leftmost token under n.
func (n *Node) FirstToken() *token.Token {
	if n == nil {
		return nil
	}
	if n.Kind == Terminal {
		return n.Token
	}
	for _, c := range n.Children {
		if tok := c.FirstToken(); tok != nil {
			return tok
		}
	}
	return nil
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first descendant of the given kind, excluding n itself.
func (n *Node) Find(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
		if found := c.Find(k); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of the given kind in source order.
func (n *Node) FindAll(k Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(m *Node) bool {
			if m.Kind == k {
				out = append(out, m)
			}
			return true
		})
	}
	return out
}

// Tree is a parsed source file.
type Tree struct {
	Source   string
	Root     *Node
	Comments []*token.Comment
}

// Text returns the exact source text covered by n.
func (t *Tree) Text(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Span.Text(t.Source)
}

// TextRange returns the source text from the start of first to the end of last.
func (t *Tree) TextRange(first, last *Node) string {
	if first == nil || last == nil {
		return ""
	}
	return first.Span.Cover(last.Span).Text(t.Source)
}

// GetDdlRoot returns the first top-level create statement in the tree, or nil
// when the file holds none. Session statements such as SET ANSI_NULLS ON that
// precede the create statement are skipped.
func GetDdlRoot(t *Tree) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	for _, c := range t.Root.Children {
		if c.Kind.IsCreate() {
			return c
		}
	}
	return nil
}

// Dump renders the tree structure for debugging and tests.
func Dump(n *Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.Kind == Terminal {
		sb.WriteString(n.Token.Literal)
	} else {
		sb.WriteString(n.Kind.String())
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		dump(sb, c, depth+1)
	}
}
