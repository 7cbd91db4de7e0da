package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken        = "unexpected %s, expected %s"
	ErrUnexpectedStatement    = "unexpected %s at start of statement"
	ErrUnterminatedString     = "unterminated string literal"
	ErrUnterminatedIdentifier = "unterminated quoted identifier"
	ErrUnterminatedComment    = "unterminated block comment"
	ErrUnsupportedCreate      = "CREATE %s is not supported"
	ErrUnsupportedApply       = "%s APPLY is not supported"
)

// syntaxError converts a position and message into the error type the
// parser reports.
func syntaxError(pos token.Position, msg string) *core.SyntaxError {
	return &core.SyntaxError{Message: msg, Line: pos.Line, Column: pos.Column}
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.ILLEGAL:
		return fmt.Sprintf("illegal input %q", tok.Literal)
	default:
		return fmt.Sprintf("%q", tok.Literal)
	}
}
