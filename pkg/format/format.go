// Package format is the final formatting pass applied to generated scripts.
//
// The pass is lexical: the text is re-tokenized, keywords are re-cased and
// everything between tokens (whitespace, comments) is copied unchanged.
// Line endings are then normalised so that output is stable no matter how
// the generator assembled it.
package format

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/parser"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeywordCase selects how keywords are cased.
type KeywordCase int

// Keyword cases.
const (
	CasePreserve KeywordCase = iota
	CaseUpper
	CaseLower
)

func (c KeywordCase) String() string {
	switch c {
	case CaseUpper:
		return "upper"
	case CaseLower:
		return "lower"
	default:
		return "preserve"
	}
}

// ParseKeywordCase parses "upper", "lower" or "preserve". The empty string
// means preserve.
func ParseKeywordCase(s string) (KeywordCase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return CasePreserve, nil
	case "upper":
		return CaseUpper, nil
	case "lower":
		return CaseLower, nil
	default:
		return CasePreserve, fmt.Errorf("invalid keyword case %q (want upper, lower or preserve)", s)
	}
}

// Options configures Format.
type Options struct {
	// Dialect supplies words cased as keywords in addition to the T-SQL
	// reserved words. It may be nil.
	Dialect *dialect.Dialect
	Case    KeywordCase
}

// Format re-cases keywords and normalises layout: trailing spaces are
// trimmed, runs of blank lines collapse to one and the text ends with a
// single newline. Format is idempotent.
func Format(text string, opts Options) string {
	p := newPrinter(opts)
	toks := parser.Tokenize(text)
	last := 0
	for _, tok := range toks {
		if tok.Type == token.EOF {
			break
		}
		p.gap(text[last:tok.Pos.Offset])
		p.token(tok)
		last = tok.End.Offset
	}
	p.gap(text[last:])
	return p.String()
}

// caser applies a keyword case.
type caser struct {
	kind  KeywordCase
	upper cases.Caser
	lower cases.Caser
}

func newCaser(kind KeywordCase) caser {
	return caser{
		kind:  kind,
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

func (c caser) apply(word string) string {
	switch c.kind {
	case CaseUpper:
		return c.upper.String(word)
	case CaseLower:
		return c.lower.String(word)
	default:
		return word
	}
}
