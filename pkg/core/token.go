package core

import (
	"fmt"

	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// TokenType classifies the role of a verbatim capture.
//
//nolint:revive // core.TokenType reads better than core.Type at call sites
type TokenType int

// Token classifications.
const (
	TokenNone TokenType = iota
	TokenTableName
	TokenColumnName
	TokenVariableName
	TokenParameterName
	TokenDataType
	TokenCondition
	TokenRoutineName
	TokenCursorName
	TokenAlias
	TokenGroupBy
	TokenOrderBy
	TokenOption
	TokenGeneral
)

var tokenTypeNames = [...]string{
	TokenNone:          "None",
	TokenTableName:     "TableName",
	TokenColumnName:    "ColumnName",
	TokenVariableName:  "VariableName",
	TokenParameterName: "ParameterName",
	TokenDataType:      "DataType",
	TokenCondition:     "Condition",
	TokenRoutineName:   "RoutineName",
	TokenCursorName:    "CursorName",
	TokenAlias:         "Alias",
	TokenGroupBy:       "GroupBy",
	TokenOrderBy:       "OrderBy",
	TokenOption:        "Option",
	TokenGeneral:       "General",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t TokenType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Token is a verbatim slice of source text with an optional classification.
// Symbol reproduces the originating substring exactly; synthesized tokens
// carry a zero Span.
type Token struct {
	Symbol string     `json:"symbol" yaml:"symbol"`
	Type   TokenType  `json:"type" yaml:"type"`
	Span   token.Span `json:"-" yaml:"-"`

	// Tokens holds identifier-level references found inside the capture.
	Tokens []*Token `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// NewToken creates a token for the given source range.
func NewToken(symbol string, typ TokenType, span token.Span) *Token {
	return &Token{Symbol: symbol, Type: typ, Span: span}
}

// Synthesize creates a token that has no source position.
func Synthesize(symbol string, typ TokenType) *Token {
	return &Token{Symbol: symbol, Type: typ}
}

// IsSynthesized reports whether the token was created without a source range.
func (t *Token) IsSynthesized() bool {
	return !t.Span.IsValid()
}

func (t *Token) String() string {
	if t == nil {
		return ""
	}
	return t.Symbol
}

// TableName is a table reference capture.
// Token.Symbol holds the whole capture including any alias.
type TableName struct {
	Token
	Name  *Token `json:"name,omitempty" yaml:"name,omitempty"`
	Alias *Token `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// String returns the bare name, falling back to the full capture.
func (t *TableName) String() string {
	if t == nil {
		return ""
	}
	if t.Name != nil {
		return t.Name.Symbol
	}
	return t.Symbol
}

// ColumnName is a column reference or column definition capture.
type ColumnName struct {
	Token
	Name      *Token `json:"name,omitempty" yaml:"name,omitempty"`
	TableName *Token `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	Alias     *Token `json:"alias,omitempty" yaml:"alias,omitempty"`
	DataType  *Token `json:"data_type,omitempty" yaml:"data_type,omitempty"`

	// Variable is the target of a select-list assignment: SELECT @v = expr.
	Variable *Token `json:"variable,omitempty" yaml:"variable,omitempty"`
}

// String returns the bare name, falling back to the full capture.
func (c *ColumnName) String() string {
	if c == nil {
		return ""
	}
	if c.Name != nil {
		return c.Name.Symbol
	}
	return c.Symbol
}
