package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Lexer tokenizes T-SQL input.
//
// Token literals are the raw source text, quotes and brackets included, so
// that every token can be reproduced verbatim.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	// Comments collected during lexing (for formatter)
	Comments []*token.Comment

	// Errors holds lexical errors in input order.
	Errors []*LexError
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
		if l.pos < len(l.input) {
			l.col++
		}
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	tok := token.Token{Pos: l.currentPos()}
	start := l.pos

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.End = tok.Pos
		return tok
	case '+', '-', '*', '/', '%', '&', '|', '^':
		tok.Type = l.readArithmetic()
	case '~':
		l.readChar()
		tok.Type = token.TILDE
	case '=':
		l.readChar()
		tok.Type = token.EQ
	case '<':
		l.readChar()
		switch l.ch {
		case '=':
			l.readChar()
			tok.Type = token.LE
		case '>':
			l.readChar()
			tok.Type = token.NE
		default:
			tok.Type = token.LT
		}
	case '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			tok.Type = token.GE
		} else {
			tok.Type = token.GT
		}
	case '!':
		l.readChar()
		switch l.ch {
		case '=':
			l.readChar()
			tok.Type = token.NE
		case '<':
			l.readChar()
			tok.Type = token.NLT
		case '>':
			l.readChar()
			tok.Type = token.NGT
		default:
			tok.Type = token.ILLEGAL
			l.addError(tok.Pos, "unexpected character '!'")
		}
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = token.NUMBER
			l.readNumber()
		} else {
			l.readChar()
			tok.Type = token.DOT
		}
	case ',':
		l.readChar()
		tok.Type = token.COMMA
	case ';':
		l.readChar()
		tok.Type = token.SEMICOLON
	case ':':
		l.readChar()
		tok.Type = token.COLON
	case '(':
		l.readChar()
		tok.Type = token.LPAREN
	case ')':
		l.readChar()
		tok.Type = token.RPAREN
	case '\'':
		tok.Type = l.readString(tok.Pos)
	case '"':
		tok.Type = l.readDelimited(tok.Pos, '"', '"')
	case '[':
		tok.Type = l.readDelimited(tok.Pos, '[', ']')
	case '`':
		tok.Type = l.readDelimited(tok.Pos, '`', '`')
	case '@':
		l.readIdentifier()
		tok.Type = token.VARIABLE
	default:
		switch {
		case (l.ch == 'N' || l.ch == 'n') && l.peekChar() == '\'':
			l.readChar() // skip N prefix
			tok.Type = l.readString(tok.Pos)
		case isIdentStart(l.ch):
			l.readIdentifier()
			tok.Type = token.LookupIdent(strings.ToLower(l.input[start:l.pos]))
		case isDigit(l.ch):
			tok.Type = token.NUMBER
			l.readNumber()
		default:
			tok.Type = token.ILLEGAL
			l.addError(tok.Pos, "unexpected character '"+string(l.ch)+"'")
			l.readChar()
		}
	}

	tok.Literal = l.input[start:l.pos]
	tok.End = l.currentPos()
	return tok
}

// readArithmetic reads an arithmetic or bitwise operator, including the
// compound assignment forms such as += and |=.
func (l *Lexer) readArithmetic() token.TokenType {
	ch := l.ch
	l.readChar()
	compound := l.ch == '='
	if compound {
		l.readChar()
	}
	switch ch {
	case '+':
		return pick(compound, token.PLUS_EQ, token.PLUS)
	case '-':
		return pick(compound, token.MINUS_EQ, token.MINUS)
	case '*':
		return pick(compound, token.STAR_EQ, token.STAR)
	case '/':
		return pick(compound, token.SLASH_EQ, token.SLASH)
	case '%':
		return pick(compound, token.MOD_EQ, token.PERCENT)
	case '&':
		return pick(compound, token.AMP_EQ, token.AMP)
	case '|':
		return pick(compound, token.PIPE_EQ, token.PIPE)
	default:
		return pick(compound, token.CARET_EQ, token.CARET)
	}
}

func pick(cond bool, a, b token.TokenType) token.TokenType {
	if cond {
		return a
	}
	return b
}

func (l *Lexer) addError(pos token.Position, msg string) {
	l.Errors = append(l.Errors, &LexError{Pos: pos, Message: msg})
}

// skipWhitespaceAndComments skips whitespace and collects comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		// Skip whitespace
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v' {
			l.readChar()
		}

		// Collect line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			l.collectLineComment()
			continue
		}

		// Collect block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.collectBlockComment()
			continue
		}

		break
	}
}

// collectLineComment collects a line comment.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	// Consume until end of line
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.LineComment,
		Text: strings.TrimRight(l.input[startOffset:l.pos], "\r"),
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// collectBlockComment collects a block comment. T-SQL block comments nest.
func (l *Lexer) collectBlockComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	depth := 1
	for l.ch != 0 && depth > 0 {
		switch {
		case l.ch == '/' && l.peekChar() == '*':
			depth++
			l.readChar()
		case l.ch == '*' && l.peekChar() == '/':
			depth--
			l.readChar()
		}
		l.readChar()
	}
	if depth > 0 {
		l.addError(startPos, ErrUnterminatedComment)
	}

	l.Comments = append(l.Comments, &token.Comment{
		Kind: token.BlockComment,
		Text: l.input[startOffset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// readString reads a single-quoted string literal.
// Doubled single quotes are an escape: 'it''s'.
func (l *Lexer) readString(start token.Position) token.TokenType {
	l.readChar() // skip opening quote

	for l.ch != 0 {
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				l.readChar() // skip first quote
				l.readChar() // skip second quote
				continue
			}
			l.readChar() // skip closing quote
			return token.STRING
		}
		l.readChar()
	}
	l.addError(start, ErrUnterminatedString)
	return token.ILLEGAL
}

// readDelimited reads a [bracketed], "double-quoted" or `backquoted` identifier.
// A doubled closing delimiter is an escape: [a]]b] or "a""b".
func (l *Lexer) readDelimited(start token.Position, _, closing byte) token.TokenType {
	l.readChar() // skip opening delimiter

	for l.ch != 0 {
		if l.ch == closing {
			if l.peekChar() == closing {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing delimiter
			return token.QUOTED_IDENT
		}
		l.readChar()
	}
	l.addError(start, ErrUnterminatedIdentifier)
	return token.ILLEGAL
}

// readIdentifier reads an unquoted identifier, local variable or temp table
// name. Letters, digits, _, @, # and $ may follow the first character.
func (l *Lexer) readIdentifier() {
	l.readChar()
	for isIdentStart(l.ch) || isDigit(l.ch) || l.ch == '$' {
		l.readChar()
	}
}

// readNumber reads a numeric literal (integer, decimal, scientific or hex).
func (l *Lexer) readNumber() {
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar() // skip '0'
		l.readChar() // skip 'x'
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return
	}

	// Read integer part
	for isDigit(l.ch) {
		l.readChar()
	}

	// Read decimal part
	if l.ch == '.' {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Read exponent part (e.g., 1e10, 1E-5)
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar() // skip 'e' or 'E'
		if l.ch == '+' || l.ch == '-' {
			l.readChar() // skip sign
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

// isIdentStart returns true if ch may start an identifier.
func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '#' || ch == '@' || ch >= 0x80 || unicode.IsLetter(rune(ch))
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
