// Package translate rewrites verbatim T-SQL text for another dialect at the
// identifier level: quoted identifiers, variables, temporary tables, function
// names, system variables, string prefixes and data types.
//
// Expressions are not interpreted. Text that carries no dialect-specific
// identifier passes through unchanged, including whitespace and comments.
package translate

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/parser"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Translator rewrites text written in From for To.
type Translator struct {
	From *dialect.Dialect
	To   *dialect.Dialect
}

// New creates a translator between two dialects.
func New(from, to *dialect.Dialect) *Translator {
	return &Translator{From: from, To: to}
}

// Identity reports whether text passes through unchanged.
func (t *Translator) Identity() bool {
	return t == nil || t.To == nil || t.From == t.To
}

// Token returns the translated symbol of tok, or "" for nil.
func (t *Translator) Token(tok *core.Token) string {
	if tok == nil {
		return ""
	}
	return t.Expr(tok.Symbol)
}

// Expr rewrites an expression, condition or name.
func (t *Translator) Expr(text string) string {
	if t.Identity() || text == "" {
		return text
	}

	toks := parser.Tokenize(text)
	var sb strings.Builder
	last := 0
	for i := 0; i < len(toks) && toks[i].Type != token.EOF; {
		tok := toks[i]
		sb.WriteString(text[last:tok.Pos.Offset])
		out, n := t.rewrite(toks, i)
		sb.WriteString(out)
		last = toks[i+n-1].End.Offset
		i += n
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// rewrite returns the replacement for the tokens starting at i and how many
// tokens it consumed.
func (t *Translator) rewrite(toks []token.Token, i int) (string, int) {
	tok := toks[i]
	next := func(k int) token.Token {
		if i+k < len(toks) {
			return toks[i+k]
		}
		return token.Token{Type: token.EOF}
	}
	afterDot := i > 0 && toks[i-1].Type == token.DOT

	switch tok.Type {
	case token.IDENT, token.QUOTED_IDENT:
		name := Unquote(tok.Literal)

		// dbo.name -> name when the target has another default schema
		if !afterDot && next(1).Type == token.DOT && isIdentToken(next(2)) && t.dropsSchema(name) {
			return "", 2
		}

		// CAST(x AS type)
		if tok.Type == token.IDENT && i > 0 && toks[i-1].Type == token.AS &&
			(next(1).Type == token.RPAREN || next(1).Type == token.LPAREN) {
			if repl, ok := t.To.DataType(name); ok {
				return repl, 1
			}
			return tok.Literal, 1
		}

		if tok.Type == token.IDENT && !afterDot && next(1).Type == token.LPAREN {
			if next(2).Type == token.RPAREN {
				if repl, ok := t.To.Function(name + "()"); ok {
					return repl, 3
				}
			}
			if repl, ok := t.To.Function(name); ok {
				return repl, 1
			}
			return tok.Literal, 1
		}

		if tok.Type == token.IDENT {
			return t.Identifier(tok.Literal), 1
		}
		return t.To.QuoteIdentifierIfNeeded(t.tempName(name)), 1

	case token.VARIABLE:
		if strings.HasPrefix(tok.Literal, "@@") {
			if repl, ok := t.To.SystemVariable(tok.Literal); ok {
				return repl, 1
			}
			return tok.Literal, 1
		}
		return t.To.Variable(tok.Literal), 1

	case token.STRING:
		if !t.To.NationalStrings && (tok.Literal[0] == 'N' || tok.Literal[0] == 'n') {
			return tok.Literal[1:], 1
		}
	}
	return tok.Literal, 1
}

// Identifier rewrites a single unquoted identifier.
func (t *Translator) Identifier(name string) string {
	if t.Identity() {
		return name
	}
	bare := t.tempName(name)
	if bare != name || t.To.IsReservedWord(bare) {
		return t.To.QuoteIdentifierIfNeeded(bare)
	}
	return bare
}

// Name rewrites a possibly qualified and quoted object name.
func (t *Translator) Name(tok *core.Token) string {
	return t.Token(tok)
}

// Variable rewrites a variable name.
func (t *Translator) Variable(tok *core.Token) string {
	if tok == nil {
		return ""
	}
	if t.Identity() {
		return tok.Symbol
	}
	return t.To.Variable(tok.Symbol)
}

// DataType rewrites a data type such as NVARCHAR(50) or [int]. The full
// spelling is looked up before the bare type name. A replacement that
// carries its own arguments drops the original ones.
func (t *Translator) DataType(tok *core.Token) string {
	if tok == nil {
		return ""
	}
	text := strings.TrimSpace(tok.Symbol)
	if t.Identity() {
		return text
	}

	compact := strings.Join(strings.Fields(text), "")
	if repl, ok := t.To.DataType(compact); ok {
		return repl
	}

	base, args := text, ""
	if i := strings.IndexByte(text, '('); i >= 0 {
		base, args = strings.TrimSpace(text[:i]), text[i:]
	}
	base = Unquote(base)
	repl, ok := t.To.DataType(base)
	if !ok {
		return base + args
	}
	if strings.Contains(repl, "(") {
		return repl
	}
	return repl + args
}

func (t *Translator) dropsSchema(owner string) bool {
	return t.From != nil && t.From.DefaultSchema != "" &&
		!strings.EqualFold(t.From.DefaultSchema, t.To.DefaultSchema) &&
		strings.EqualFold(owner, t.From.DefaultSchema)
}

func (t *Translator) tempName(name string) string {
	if t.To.HashTempTables {
		return name
	}
	return strings.TrimLeft(name, "#")
}

func isIdentToken(tok token.Token) bool {
	return tok.Type == token.IDENT || tok.Type == token.QUOTED_IDENT
}

// Unquote strips [], "" or `` quoting from an identifier and collapses its
// escaped closing delimiters.
func Unquote(name string) string {
	if len(name) < 2 {
		return name
	}
	var closing string
	switch name[0] {
	case '[':
		closing = "]"
	case '"':
		closing = `"`
	case '`':
		closing = "`"
	default:
		return name
	}
	if !strings.HasSuffix(name, closing) {
		return name
	}
	return strings.ReplaceAll(name[1:len(name)-1], closing+closing, closing)
}
