// Package dialect provides the SQL dialect contract and the dialect registry.
//
// A Dialect bundles the identifier rules and translation tables of one SQL
// dialect together with its optional Analyser (source side) and Generator
// (target side). Concrete dialects are registered from pkg/dialects/*/
// packages in their init functions.
package dialect

import (
	"sort"
	"strings"
)

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

// Normalization strategies.
const (
	// NormCaseInsensitive compares identifiers case-insensitively and
	// normalizes them to lowercase (SQL Server, MySQL).
	NormCaseInsensitive NormalizationStrategy = iota
	// NormLowercase folds unquoted identifiers to lowercase (PostgreSQL).
	NormLowercase
	// NormUppercase folds unquoted identifiers to uppercase (Oracle, Snowflake).
	NormUppercase
	// NormCaseSensitive keeps identifiers as written.
	NormCaseSensitive
)

// IdentifierConfig describes how a dialect quotes identifiers.
type IdentifierConfig struct {
	Quote         string // opening quote: ", [ or `
	QuoteEnd      string // closing quote: ", ] or `
	Escape        string // escaped closing quote inside a quoted name: "", ]] or ``
	Normalization NormalizationStrategy
}

// Capability names reported by Capabilities.
const (
	CapabilityAnalyse = "analyse"
	CapabilityRender  = "render"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	// VariablePrefix replaces the @ of a T-SQL local variable when scripts are
	// rendered in this dialect. "@" keeps variables unchanged.
	VariablePrefix string

	// DefaultSchema is dropped from qualified names when it is the owner ("dbo", "public").
	DefaultSchema string

	// Statement used to fill an otherwise empty IF branch.
	Placeholder string

	// NationalStrings keeps the N prefix of N'...' string literals.
	NationalStrings bool

	// HashTempTables keeps the # prefix of temporary table names.
	HashTempTables bool

	// Translation tables, keyed by upper-case canonical (T-SQL) spelling
	functions       map[string]string
	systemVariables map[string]string
	dataTypes       map[string]string

	keywords      map[string]struct{} // words cased as keywords by the formatter
	reservedWords map[string]struct{} // words that need quoting as identifiers

	analyser  Analyser
	generator Generator
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case NormUppercase:
		return strings.ToUpper(name)
	case NormLowercase, NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// Analyser returns the dialect's analyser, or nil when the dialect cannot be
// used as a conversion source.
func (d *Dialect) Analyser() Analyser {
	return d.analyser
}

// Generator returns the dialect's generator, or nil when the dialect cannot
// be used as a conversion target.
func (d *Dialect) Generator() Generator {
	return d.generator
}

// Capabilities lists what the dialect can do.
func (d *Dialect) Capabilities() []string {
	var caps []string
	if d.analyser != nil {
		caps = append(caps, CapabilityAnalyse)
	}
	if d.generator != nil {
		caps = append(caps, CapabilityRender)
	}
	return caps
}

// Function returns the dialect's spelling of a canonical function name.
func (d *Dialect) Function(name string) (string, bool) {
	f, ok := d.functions[strings.ToUpper(name)]
	return f, ok
}

// SystemVariable returns the dialect's replacement for a @@ system variable.
func (d *Dialect) SystemVariable(name string) (string, bool) {
	v, ok := d.systemVariables[strings.ToUpper(name)]
	return v, ok
}

// DataType returns the dialect's spelling of a canonical data type. The full
// spelling (NVARCHAR(MAX)) is tried before the bare type name.
func (d *Dialect) DataType(name string) (string, bool) {
	t, ok := d.dataTypes[strings.ToUpper(name)]
	return t, ok
}

// Keywords returns the dialect keywords (sorted, upper case).
func (d *Dialect) Keywords() []string {
	kws := make([]string, 0, len(d.keywords))
	for kw := range d.keywords {
		kws = append(kws, kw)
	}
	sort.Strings(kws)
	return kws
}

// IsKeyword reports whether word is a dialect keyword.
func (d *Dialect) IsKeyword(word string) bool {
	_, ok := d.keywords[strings.ToUpper(word)]
	return ok
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToUpper(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it's a reserved word
// or cannot be written bare.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !isBareIdentifier(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// Variable renders a T-SQL variable name (with its @) in this dialect.
func (d *Dialect) Variable(name string) string {
	if d.VariablePrefix == "@" || !strings.HasPrefix(name, "@") || strings.HasPrefix(name, "@@") {
		return name
	}
	return d.VariablePrefix + name[1:]
}

func isBareIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '$'):
		default:
			return false
		}
	}
	return true
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect   *Dialect
	generator func(*Dialect) Generator
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: NormLowercase,
			},
			VariablePrefix:  "@",
			functions:       make(map[string]string),
			systemVariables: make(map[string]string),
			dataTypes:       make(map[string]string),
			keywords:        make(map[string]struct{}),
			reservedWords:   make(map[string]struct{}),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm NormalizationStrategy) *Builder {
	b.dialect.Identifiers = IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// Variables sets the prefix local variables are rendered with.
func (b *Builder) Variables(prefix string) *Builder {
	b.dialect.VariablePrefix = prefix
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// Placeholder sets the statement rendered into empty IF branches.
func (b *Builder) Placeholder(stmt string) *Builder {
	b.dialect.Placeholder = stmt
	return b
}

// TSQLLiterals keeps N'...' strings and #temp table names as written.
func (b *Builder) TSQLLiterals() *Builder {
	b.dialect.NationalStrings = true
	b.dialect.HashTempTables = true
	return b
}

// Functions registers function renames from canonical names. A key ending
// in "()" replaces the whole parameterless call.
func (b *Builder) Functions(renames map[string]string) *Builder {
	for from, to := range renames {
		b.dialect.functions[strings.ToUpper(from)] = to
	}
	return b
}

// SystemVariables registers replacements for @@ system variables.
func (b *Builder) SystemVariables(vars map[string]string) *Builder {
	for from, to := range vars {
		b.dialect.systemVariables[strings.ToUpper(from)] = to
	}
	return b
}

// DataTypes registers data type renames from canonical types.
func (b *Builder) DataTypes(types map[string]string) *Builder {
	for from, to := range types {
		b.dialect.dataTypes[strings.ToUpper(from)] = to
	}
	return b
}

// WithKeywords registers keywords.
func (b *Builder) WithKeywords(kws ...string) *Builder {
	for _, kw := range kws {
		b.dialect.keywords[strings.ToUpper(kw)] = struct{}{}
	}
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToUpper(w)] = struct{}{}
	}
	return b
}

// Analyser sets the dialect's analyser.
func (b *Builder) Analyser(a Analyser) *Builder {
	b.dialect.analyser = a
	return b
}

// Generator sets a constructor for the dialect's generator. It is called by
// Build with the finished dialect so the generator can use its tables.
func (b *Builder) Generator(fn func(*Dialect) Generator) *Builder {
	b.generator = fn
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	if b.generator != nil {
		b.dialect.generator = b.generator(b.dialect)
	}
	return b.dialect
}
