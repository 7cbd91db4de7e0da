package tsql

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/cst"
	"github.com/leapstack-labs/sqlconvert/pkg/parser"
	"github.com/leapstack-labs/sqlconvert/pkg/references"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

// Analyser maps T-SQL create statements onto the canonical script model.
// It holds no per-call state and is safe for concurrent use.
type Analyser struct {
	logger *slog.Logger
}

// NewAnalyser creates an analyser. A nil logger discards output.
func NewAnalyser(logger *slog.Logger) *Analyser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyser{logger: logger}
}

// AnalyseProcedure analyses CREATE PROCEDURE text.
func (a *Analyser) AnalyseProcedure(sql string) (*core.RoutineScript, error) {
	b, root, err := a.parse(sql, cst.CreateProcedure)
	if err != nil {
		return nil, err
	}
	script := &core.RoutineScript{Kind: core.KindProcedure, CommonScript: emptyCommon()}
	if root == nil {
		return script, nil
	}

	b.header(&script.CommonScript, root)
	script.Statements = b.statements(bodyAfterAS(root))
	script.Warnings = b.warnings
	return script, nil
}

// AnalyseFunction analyses CREATE FUNCTION text: scalar, multi-statement
// table-valued and inline table-valued functions.
func (a *Analyser) AnalyseFunction(sql string) (*core.RoutineScript, error) {
	b, root, err := a.parse(sql, cst.CreateFunction)
	if err != nil {
		return nil, err
	}
	script := &core.RoutineScript{Kind: core.KindFunction, CommonScript: emptyCommon()}
	if root == nil {
		return script, nil
	}

	b.header(&script.CommonScript, root)
	switch {
	case root.Child(cst.ReturnsScalar) != nil:
		script.ReturnDataType = capture(b.tree, root.Child(cst.ReturnsScalar).Child(cst.DataType), core.TokenDataType)
	case root.Child(cst.ReturnsTable) != nil:
		ret := root.Child(cst.ReturnsTable)
		script.ReturnTable = b.temporaryTable(ret.Terminal(token.VARIABLE), ret.Child(cst.TableTypeDefinition))
	case root.Child(cst.ReturnsInlineTable) != nil:
		script.InlineTable = true
	}

	if block := root.Child(cst.Block); block != nil {
		script.Statements = b.statements(block.Children)
	} else if ret := root.Child(cst.ReturnStatement); ret != nil {
		// RETURN (select): the body is the query itself
		sel := ret.Child(cst.SelectStatement)
		if sub := ret.Child(cst.Subquery); sub != nil {
			sel = sub.Child(cst.SelectStatement)
		}
		if sel != nil {
			script.Statements = []core.Statement{b.selectStatement(sel)}
		}
	}
	script.Warnings = b.warnings
	return script, nil
}

// AnalyseView analyses CREATE VIEW text. The body is one SelectStatement.
func (a *Analyser) AnalyseView(sql string) (*core.ViewScript, error) {
	b, root, err := a.parse(sql, cst.CreateView)
	if err != nil {
		return nil, err
	}
	script := &core.ViewScript{CommonScript: emptyCommon()}
	if root == nil {
		return script, nil
	}

	b.header(&script.CommonScript, root)
	script.Columns = b.columnList(root.Child(cst.ColumnNameList))
	if sel := root.Child(cst.SelectStatement); sel != nil {
		script.Statements = []core.Statement{b.selectStatement(sel)}
	}
	script.Warnings = b.warnings
	return script, nil
}

// AnalyseTrigger analyses CREATE TRIGGER text. FOR is treated as AFTER.
func (a *Analyser) AnalyseTrigger(sql string) (*core.TriggerScript, error) {
	b, root, err := a.parse(sql, cst.CreateTrigger)
	if err != nil {
		return nil, err
	}
	script := &core.TriggerScript{CommonScript: emptyCommon()}
	if root == nil {
		return script, nil
	}

	b.header(&script.CommonScript, root)
	script.TableName = ParseTableName(b.tree, root.Child(cst.TableName), false)
	script.Time = core.TimeAfter
	for _, c := range root.Children {
		if c.IsWord("INSTEAD") {
			script.Time = core.TimeInsteadOf
		}
		if c.Kind != cst.DmlTriggerOperation || len(c.Children) == 0 {
			continue
		}
		switch c.Children[0].Token.Type {
		case token.INSERT:
			script.AddEvent(core.EventInsert)
		case token.UPDATE:
			script.AddEvent(core.EventUpdate)
		case token.DELETE:
			script.AddEvent(core.EventDelete)
		}
	}
	script.Statements = b.statements(bodyAfterAS(root))
	script.Warnings = b.warnings
	return script, nil
}

// DetectKind reports the kind of the first create statement in sql.
func (a *Analyser) DetectKind(sql string) (core.ScriptKind, error) {
	tree, err := parser.Parse(sql)
	if err != nil {
		return "", err
	}
	switch root := cst.GetDdlRoot(tree); {
	case root == nil:
		return "", nil
	case root.Kind == cst.CreateFunction:
		return core.KindFunction, nil
	case root.Kind == cst.CreateView:
		return core.KindView, nil
	case root.Kind == cst.CreateTrigger:
		return core.KindTrigger, nil
	default:
		return core.KindProcedure, nil
	}
}

// ExtractReferences lists the routine, table and column references in sql.
func (a *Analyser) ExtractReferences(sql string) ([]core.Reference, error) {
	tree, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return references.ExtractTree(tree), nil
}

// parse parses sql and returns the create statement of the wanted kind, or
// a nil node when the text holds no such statement.
func (a *Analyser) parse(sql string, want cst.Kind) (*builder, *cst.Node, error) {
	tree, err := parser.Parse(sql)
	if err != nil {
		a.logger.Debug("parse failed", "kind", want, "error", err)
		return nil, nil, err
	}
	b := &builder{tree: tree, logger: a.logger}
	root := cst.GetDdlRoot(tree)
	if root == nil || root.Kind != want {
		a.logger.Debug("no matching create statement", "kind", want)
		return b, nil, nil
	}
	return b, root, nil
}

func emptyCommon() core.CommonScript {
	return core.CommonScript{Statements: []core.Statement{}}
}

// bodyAfterAS returns the children following the AS that opens a
// procedure or trigger body.
func bodyAfterAS(root *cst.Node) []*cst.Node {
	for i, c := range root.Children {
		if c.IsTerminal(token.AS) {
			return root.Children[i+1:]
		}
	}
	return nil
}

// ---------- Builder ----------

// builder carries the per-call state of one analysis.
type builder struct {
	tree     *cst.Tree
	logger   *slog.Logger
	warnings []core.Warning
}

// skip records a node that has no structural mapping.
func (b *builder) skip(n *cst.Node, msg string) {
	construct := n.Kind.String()
	if tok := n.FirstToken(); tok != nil && n.Kind == cst.Other {
		construct = strings.ToUpper(tok.Literal)
	}
	w := core.Warning{
		Severity:  core.SeverityWarning,
		Construct: construct,
		Message:   msg,
		Line:      n.Span.Start.Line,
		Column:    n.Span.Start.Column,
	}
	b.warnings = append(b.warnings, w)
	b.logger.Debug("skipped construct", "construct", w.Construct, "line", w.Line, "column", w.Column, "reason", msg)
}

// header fills the script name, owner and parameters.
func (b *builder) header(script *core.CommonScript, root *cst.Node) {
	if name := root.Child(cst.SchemaObjectName); name != nil {
		var parts []*cst.Node
		for _, c := range name.Children {
			if !c.IsTerminal(token.DOT) {
				parts = append(parts, c)
			}
		}
		if len(parts) > 0 {
			script.Name = capture(b.tree, parts[len(parts)-1], core.TokenRoutineName)
		}
		if len(parts) > 1 {
			script.Owner = capture(b.tree, parts[len(parts)-2], core.TokenGeneral)
		}
	}

	for _, p := range root.ChildrenOf(cst.ProcedureParam) {
		param := &core.Parameter{
			Name:      capture(b.tree, p.Terminal(token.VARIABLE), core.TokenParameterName),
			DataType:  capture(b.tree, p.Child(cst.DataType), core.TokenDataType),
			Direction: core.DirectionNone,
		}
		if p.HasWord("OUT") || p.HasWord("OUTPUT") {
			param.Direction = core.DirectionOut
		}
		if def := p.Child(cst.DefaultValue); def != nil {
			param.DefaultValue = expression(b.tree, def, core.TokenGeneral)
		}
		script.Parameters = append(script.Parameters, param)
	}
}

// temporaryTable builds a table variable definition.
func (b *builder) temporaryTable(name *cst.Node, def *cst.Node) *core.TemporaryTable {
	t := &core.TemporaryTable{Name: capture(b.tree, name, core.TokenVariableName)}
	for _, col := range def.ChildrenOf(cst.ColumnDefinition) {
		t.Columns = append(t.Columns, ParseColumnName(b.tree, col, false))
	}
	return t
}

// columnList maps a parenthesized column list.
func (b *builder) columnList(n *cst.Node) []*core.ColumnName {
	if n == nil {
		return nil
	}
	var cols []*core.ColumnName
	for _, c := range n.Children {
		if col := ParseColumnName(b.tree, c, true); col != nil {
			cols = append(cols, col)
		}
	}
	return cols
}
