// Package convert runs the conversion pipeline: source text is analysed by
// the source dialect into a script, the script is rendered by the target
// dialect and the result goes through the final formatting pass.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/format"

	// Registered dialects.
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
)

// Errors for dialects used in a role they have no implementation for.
var (
	ErrCannotAnalyse = errors.New("dialect cannot be used as a conversion source")
	ErrCannotRender  = errors.New("dialect cannot be used as a conversion target")
)

// Request describes one conversion.
type Request struct {
	Source string          // source dialect name
	Target string          // target dialect name
	Kind   core.ScriptKind // "" detects the kind from the text
	SQL    string

	// Path names the input in log lines and errors. It may be empty.
	Path string

	KeywordCase format.KeywordCase
}

// Result is the outcome of a successful conversion.
type Result struct {
	Script     core.Script
	References []core.Reference
	Warnings   []core.Warning
	Text       string
}

// Converter converts scripts between registered dialects.
type Converter struct {
	logger *slog.Logger
}

// New creates a Converter. A nil logger discards output.
func New(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Converter{logger: logger}
}

var std = New(nil)

// Convert converts req with a Converter that does not log.
func Convert(ctx context.Context, req Request) (*Result, error) {
	return std.Convert(ctx, req)
}

// Analyse analyses sql with a Converter that does not log.
func Analyse(ctx context.Context, source string, kind core.ScriptKind, sql string) (*core.AnalyseResult, error) {
	return std.Analyse(ctx, source, kind, sql)
}

// Analyse analyses sql in the source dialect. Syntax errors are reported in
// the returned result; the error is reserved for lookup failures and
// cancellation.
func (c *Converter) Analyse(ctx context.Context, source string, kind core.ScriptKind, sql string) (*core.AnalyseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := dialect.Lookup(source)
	if err != nil {
		return nil, err
	}
	a := d.Analyser()
	if a == nil {
		return nil, fmt.Errorf("%s: %w", d.Name, ErrCannotAnalyse)
	}
	res := dialect.Analyse(a, kind, sql)
	if res.OK() {
		for _, w := range res.Script.Common().Warnings {
			c.logger.Debug("skipped construct",
				slog.String("construct", w.Construct),
				slog.Int("line", w.Line),
				slog.Int("column", w.Column))
		}
	}
	return res, nil
}

// Convert analyses req.SQL in the source dialect and renders it in the
// target dialect. A syntax error is returned as *core.SyntaxError and a
// construct the target cannot express as *core.UnsupportedConstructError,
// both wrapped with the input path.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	target, err := generatorFor(req.Target)
	if err != nil {
		return nil, err
	}

	log := c.logger.With(slog.String("source", req.Source), slog.String("target", target.Name))
	if req.Path != "" {
		log = log.With(slog.String("path", req.Path))
	}

	res, err := c.Analyse(ctx, req.Source, req.Kind, req.SQL)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("analyse %s: %w", displayName(req), res.Error)
	}
	script := res.Script
	log.Debug("analysed",
		slog.String("kind", string(script.ScriptKind())),
		slog.String("name", script.Common().FullName()),
		slog.Int("statements", len(script.Common().Statements)))

	text, err := c.render(ctx, target, script, req.KeywordCase)
	if err != nil {
		return nil, fmt.Errorf("render %s as %s: %w", displayName(req), target.Name, err)
	}
	log.Debug("rendered", slog.Int("bytes", len(text)))

	return &Result{
		Script:     script,
		References: res.References,
		Warnings:   script.Common().Warnings,
		Text:       text,
	}, nil
}

// Render renders an analysed script in the target dialect and applies the
// formatting pass.
func (c *Converter) Render(ctx context.Context, target string, script core.Script, kc format.KeywordCase) (string, error) {
	d, err := generatorFor(target)
	if err != nil {
		return "", err
	}
	return c.render(ctx, d, script, kc)
}

func (c *Converter) render(ctx context.Context, target *dialect.Dialect, script core.Script, kc format.KeywordCase) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := target.Generator().Render(script)
	if err != nil {
		return "", err
	}
	return format.Format(text, format.Options{Dialect: target, Case: kc}), nil
}

func generatorFor(name string) (*dialect.Dialect, error) {
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, err
	}
	if d.Generator() == nil {
		return nil, fmt.Errorf("%s: %w", d.Name, ErrCannotRender)
	}
	return d, nil
}

func displayName(req Request) string {
	if req.Path != "" {
		return req.Path
	}
	return "script"
}
