package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

const indentSize = 2

// Indent returns the leading whitespace for a nesting level.
func Indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(" ", level*indentSize)
}

// Printer accumulates the re-cased token stream.
type Printer struct {
	dialect *dialect.Dialect
	caser   caser
	output  *bytes.Buffer
}

func newPrinter(opts Options) *Printer {
	return &Printer{
		dialect: opts.Dialect,
		caser:   newCaser(opts.Case),
		output:  &bytes.Buffer{},
	}
}

// gap copies the text between two tokens unchanged.
func (p *Printer) gap(s string) {
	p.output.WriteString(s)
}

// token writes a token, casing it when it is a keyword.
func (p *Printer) token(tok token.Token) {
	if p.isKeyword(tok) {
		p.output.WriteString(p.caser.apply(tok.Literal))
		return
	}
	p.output.WriteString(tok.Literal)
}

func (p *Printer) isKeyword(tok token.Token) bool {
	if token.IsKeyword(tok.Type) {
		return true
	}
	return tok.Type == token.IDENT && p.dialect != nil && p.dialect.IsKeyword(tok.Literal)
}

// String returns the output with trailing spaces removed, blank line runs
// collapsed and exactly one final newline.
func (p *Printer) String() string {
	lines := strings.Split(strings.ReplaceAll(p.output.String(), "\r\n", "\n"), "\n")
	var sb strings.Builder
	blank := true // drops leading blank lines
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
			sb.WriteByte('\n')
			continue
		}
		blank = false
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	out := strings.TrimRight(sb.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}
