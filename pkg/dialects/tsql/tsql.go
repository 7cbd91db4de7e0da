// Package tsql provides the T-SQL (SQL Server) dialect: the analyser that
// maps procedures, functions, views and triggers onto the canonical script
// model, and the generator that renders scripts back as T-SQL.
package tsql

import (
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

func init() {
	dialect.Register(TSQL)
}

// contextualKeywords are words the lexer reads as identifiers that the
// formatter still cases as keywords.
var contextualKeywords = []string{
	"AFTER", "CATCH", "INSTEAD", "NOCOUNT", "OUTPUT", "PERCENT", "READONLY",
	"RETURNS", "ROWS", "THROW", "TRAN", "TRY", "XACT_ABORT",
}

// TSQL is the SQL Server dialect. It is the canonical source dialect: the
// translation tables of the other dialects are keyed by T-SQL spellings.
var TSQL = dialect.NewDialect("tsql").
	Identifiers("[", "]", "]]", dialect.NormCaseInsensitive).
	DefaultSchema("dbo").
	Placeholder("PRINT('BLANK!');").
	TSQLLiterals().
	WithKeywords(token.Keywords()...).
	WithKeywords(contextualKeywords...).
	WithReservedWords(token.Keywords()...).
	Analyser(NewAnalyser(nil)).
	Generator(func(d *dialect.Dialect) dialect.Generator { return NewGenerator(d, nil) }).
	Build()
