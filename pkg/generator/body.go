package generator

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// Declarations collects the variable and cursor declarations of a body,
// including those nested in control flow. Targets that declare everything
// at the top of a routine render them ahead of the statements.
func Declarations(stmts []core.Statement) (vars []*core.DeclareStatement, cursors []*core.DeclareCursorStatement) {
	core.Walk(stmts, func(s core.Statement) bool {
		switch d := s.(type) {
		case *core.DeclareStatement:
			if d.Type == core.DeclareVariable {
				vars = append(vars, d)
			}
		case *core.DeclareCursorStatement:
			cursors = append(cursors, d)
		}
		return true
	})
	return vars, cursors
}

// Contains reports whether any statement of the body, at any depth,
// satisfies match.
func Contains(stmts []core.Statement, match func(core.Statement) bool) bool {
	found := false
	core.Walk(stmts, func(s core.Statement) bool {
		if match(s) {
			found = true
		}
		return !found
	})
	return found
}

// ElseIf returns the nested IF of an ELSE branch that holds nothing else,
// so targets with an ELSEIF keyword can flatten the chain.
func ElseIf(item *core.IfStatementItem) (*core.IfStatement, bool) {
	if item.Type != core.IfItemElse || len(item.Statements) != 1 {
		return nil, false
	}
	nested, ok := item.Statements[0].(*core.IfStatement)
	return nested, ok
}

// UnqualifiedColumn strips the table qualifier from a SET target.
func UnqualifiedColumn(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Branches flattens an IF chain whose ELSE branches hold a single nested IF
// into IF, ELSEIF ... and an optional trailing ELSE.
func Branches(s *core.IfStatement) []*core.IfStatementItem {
	var out []*core.IfStatementItem
	for _, item := range s.Items {
		if nested, ok := ElseIf(item); ok {
			out = append(out, Branches(nested)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// DynamicSQL returns the statement text of EXEC (...) and of a call to
// sp_executesql without parameters.
func DynamicSQL(s *core.CallStatement) (*core.Token, bool) {
	if s.Name == nil {
		return s.Dynamic, s.Dynamic != nil
	}
	name := s.Name.Symbol
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if strings.EqualFold(strings.Trim(name, "[]"), "sp_executesql") && len(s.Arguments) == 1 {
		return s.Arguments[0].Value, s.Arguments[0].Value != nil
	}
	return nil, false
}
