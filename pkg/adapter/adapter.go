// Package adapter applies rendered scripts to a live database.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves in their init functions.
package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// Type aliases for the contracts defined in pkg/core.
type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Replacer is implemented by adapters whose dialect cannot recreate every
// object in place. DropStatements returns the statements that remove the
// objects script creates, so that applying it twice succeeds.
type Replacer interface {
	DropStatements(script core.Script) []string
}

// ApplyOptions configures Apply.
type ApplyOptions struct {
	// Replace drops existing objects first when the adapter is a Replacer.
	Replace bool
}

// Apply executes the rendered text of script through a, one create
// statement at a time. It returns the number of statements executed.
func Apply(ctx context.Context, a Adapter, script core.Script, text string, opts ApplyOptions) (int, error) {
	var stmts []string
	if r, ok := a.(Replacer); ok && opts.Replace && script != nil {
		stmts = append(stmts, r.DropStatements(script)...)
	}
	stmts = append(stmts, SplitScript(text)...)

	for i, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := a.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	return len(stmts), nil
}

// SplitScript splits rendered text into its top-level create statements.
// A statement starts at a CREATE in the first column that follows a blank
// line; generated bodies are always indented.
func SplitScript(text string) []string {
	var (
		parts   []string
		current []string
		blank   = true
	)
	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			parts = append(parts, s)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if blank && startsCreate(line) {
			flush()
		}
		current = append(current, line)
		blank = strings.TrimSpace(line) == ""
	}
	flush()
	return parts
}

func startsCreate(line string) bool {
	return len(line) >= 7 && strings.EqualFold(line[:7], "CREATE ")
}
