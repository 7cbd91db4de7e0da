// Package core defines the shared language of the sqlconvert system.
//
// This package contains:
//   - The canonical statement model (Statement variants, Script, Parameter)
//   - Verbatim source captures (Token, TableName, ColumnName)
//   - Result and error types (AnalyseResult, SyntaxError, UnsupportedConstructError)
//   - Service interfaces (Adapter, Store)
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
