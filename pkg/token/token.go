// Package token defines the lexical token types for T-SQL parsing.
//
// Only reserved words get their own token type. Contextual keywords such as
// TRY, RETURNS or OUTPUT lex as IDENT and are recognised by the parser through
// case-insensitive literal comparison, mirroring how SQL Server treats them.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT        // identifier, #temp, ##global
	QUOTED_IDENT // [identifier] or "identifier"
	VARIABLE     // @local or @@system
	NUMBER       // 123, 45.67, 1e10, 0x1F
	STRING       // 'hello' or N'hello'

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	AMP       // &
	PIPE      // |
	CARET     // ^
	TILDE     // ~
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	NLT       // !<
	NGT       // !>
	PLUS_EQ   // +=
	MINUS_EQ  // -=
	STAR_EQ   // *=
	SLASH_EQ  // /=
	MOD_EQ    // %=
	AMP_EQ    // &=
	PIPE_EQ   // |=
	CARET_EQ  // ^=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	LPAREN    // (
	RPAREN    // )

	// Reserved keywords (alphabetical)
	ALL
	ALTER
	AND
	ANY
	AS
	ASC
	BEGIN
	BETWEEN
	BREAK
	BY
	CASE
	CLOSE
	COMMIT
	CONTINUE
	CREATE
	CROSS
	CURSOR
	DEALLOCATE
	DECLARE
	DEFAULT
	DELETE
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXEC
	EXECUTE
	EXISTS
	FETCH
	FOR
	FROM
	FULL
	FUNCTION
	GOTO
	GROUP
	HAVING
	IF
	IN
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	JOIN
	LEFT
	LIKE
	NOT
	NULL
	OF
	ON
	OPEN
	OPTION
	OR
	ORDER
	OUTER
	OVER
	PERCENT_KW
	PIVOT
	PRINT
	PROC
	PROCEDURE
	RETURN
	RIGHT
	ROLLBACK
	SELECT
	SET
	SOME
	TABLE
	THEN
	TOP
	TRAN
	TRANSACTION
	TRIGGER
	TRUNCATE
	UNION
	UNPIVOT
	UPDATE
	VALUES
	VIEW
	WHEN
	WHERE
	WHILE
	WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:        "IDENT",
	QUOTED_IDENT: "QUOTED_IDENT",
	VARIABLE:     "VARIABLE",
	NUMBER:       "NUMBER",
	STRING:       "STRING",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	AMP:       "&",
	PIPE:      "|",
	CARET:     "^",
	TILDE:     "~",
	EQ:        "=",
	NE:        "<>",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	NLT:       "!<",
	NGT:       "!>",
	PLUS_EQ:   "+=",
	MINUS_EQ:  "-=",
	STAR_EQ:   "*=",
	SLASH_EQ:  "/=",
	MOD_EQ:    "%=",
	AMP_EQ:    "&=",
	PIPE_EQ:   "|=",
	CARET_EQ:  "^=",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	COLON:     ":",
	LPAREN:    "(",
	RPAREN:    ")",
}

// keywords maps lowercase reserved words to their token types.
var keywords = map[string]TokenType{
	"all":         ALL,
	"alter":       ALTER,
	"and":         AND,
	"any":         ANY,
	"as":          AS,
	"asc":         ASC,
	"begin":       BEGIN,
	"between":     BETWEEN,
	"break":       BREAK,
	"by":          BY,
	"case":        CASE,
	"close":       CLOSE,
	"commit":      COMMIT,
	"continue":    CONTINUE,
	"create":      CREATE,
	"cross":       CROSS,
	"cursor":      CURSOR,
	"deallocate":  DEALLOCATE,
	"declare":     DECLARE,
	"default":     DEFAULT,
	"delete":      DELETE,
	"desc":        DESC,
	"distinct":    DISTINCT,
	"else":        ELSE,
	"end":         END,
	"except":      EXCEPT,
	"exec":        EXEC,
	"execute":     EXECUTE,
	"exists":      EXISTS,
	"fetch":       FETCH,
	"for":         FOR,
	"from":        FROM,
	"full":        FULL,
	"function":    FUNCTION,
	"goto":        GOTO,
	"group":       GROUP,
	"having":      HAVING,
	"if":          IF,
	"in":          IN,
	"inner":       INNER,
	"insert":      INSERT,
	"intersect":   INTERSECT,
	"into":        INTO,
	"is":          IS,
	"join":        JOIN,
	"left":        LEFT,
	"like":        LIKE,
	"not":         NOT,
	"null":        NULL,
	"of":          OF,
	"on":          ON,
	"open":        OPEN,
	"option":      OPTION,
	"or":          OR,
	"order":       ORDER,
	"outer":       OUTER,
	"over":        OVER,
	"percent":     PERCENT_KW,
	"pivot":       PIVOT,
	"print":       PRINT,
	"proc":        PROC,
	"procedure":   PROCEDURE,
	"return":      RETURN,
	"right":       RIGHT,
	"rollback":    ROLLBACK,
	"select":      SELECT,
	"set":         SET,
	"some":        SOME,
	"table":       TABLE,
	"then":        THEN,
	"top":         TOP,
	"tran":        TRAN,
	"transaction": TRANSACTION,
	"trigger":     TRIGGER,
	"truncate":    TRUNCATE,
	"union":       UNION,
	"unpivot":     UNPIVOT,
	"update":      UPDATE,
	"values":      VALUES,
	"view":        VIEW,
	"when":        WHEN,
	"where":       WHERE,
	"while":       WHILE,
	"with":        WITH,
}

func init() {
	for word, t := range keywords {
		tokenNames[t] = strings.ToUpper(word)
	}
}

// LookupIdent returns the token type for the given lowercase identifier.
// If the identifier is a reserved word, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns all reserved words in upper case.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, strings.ToUpper(word))
	}
	return words
}

// IsKeyword returns true if the token type is a reserved keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITH
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= RPAREN
}

// IsAssignment returns true for = and the compound assignment operators.
func IsAssignment(t TokenType) bool {
	return t == EQ || (t >= PLUS_EQ && t <= CARET_EQ)
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position // first character
	End     Position // character immediately after the token
}

// Is reports whether the token is an identifier spelling the given word,
// compared case-insensitively. Used for contextual keywords.
func (t Token) Is(word string) bool {
	return t.Type == IDENT && strings.EqualFold(t.Literal, word)
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End}
}
