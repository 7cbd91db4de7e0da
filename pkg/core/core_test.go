package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Message: "unexpected END", Line: 3, Column: 7}
	assert.Equal(t, "syntax error at line 3, column 7: unexpected END", err.Error())

	wrapped := fmt.Errorf("analyse p.sql: %w", err)
	var se *SyntaxError
	require.True(t, errors.As(wrapped, &se))
	assert.Equal(t, 3, se.Line)
}

func TestUnsupportedConstruct(t *testing.T) {
	err := Unsupported("mysql", "trigger time %s", TimeInsteadOf)
	assert.True(t, errors.Is(err, ErrUnsupportedConstruct))
	assert.True(t, errors.Is(fmt.Errorf("render: %w", err), ErrUnsupportedConstruct))
	assert.Equal(t, "mysql: unsupported construct: trigger time INSTEAD_OF", err.Error())
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name   string
		script CommonScript
		want   string
	}{
		{"owner", CommonScript{Name: Synthesize("P1", TokenRoutineName), Owner: Synthesize("dbo", TokenGeneral)}, "dbo.P1"},
		{"no owner", CommonScript{Name: Synthesize("P1", TokenRoutineName)}, "P1"},
		{"empty", CommonScript{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.script.FullName())
		})
	}
}

func TestScriptKinds(t *testing.T) {
	var s Script = &RoutineScript{Kind: KindFunction}
	assert.Equal(t, KindFunction, s.ScriptKind())
	s.Common().Name = Synthesize("f", TokenRoutineName)
	assert.Equal(t, "f", s.(*RoutineScript).Name.Symbol)

	assert.Equal(t, KindView, (&ViewScript{}).ScriptKind())
	assert.Equal(t, KindTrigger, (&TriggerScript{}).ScriptKind())
}

func TestTriggerAddEventKeepsOrderedSet(t *testing.T) {
	tr := &TriggerScript{}
	tr.AddEvent(EventUpdate)
	tr.AddEvent(EventInsert)
	tr.AddEvent(EventUpdate)
	assert.Equal(t, []TriggerEvent{EventUpdate, EventInsert}, tr.Events)
}

func TestSwapTarget(t *testing.T) {
	a := &JoinItem{Type: JoinInner, TableName: &TableName{Token: Token{Symbol: "B"}}, Condition: Synthesize("c1", TokenCondition)}
	b := &JoinItem{Type: JoinLeft, TableName: &TableName{Token: Token{Symbol: "C"}}, Condition: Synthesize("c2", TokenCondition)}
	a.SwapTarget(b)

	assert.Equal(t, "C", a.TableName.Symbol)
	assert.Equal(t, JoinInner, a.Type)
	assert.Equal(t, "c1", a.Condition.Symbol)
	assert.Equal(t, "B", b.TableName.Symbol)
}

func TestWalkVisitsNestedBodies(t *testing.T) {
	stmts := []Statement{
		&IfStatement{Items: []*IfStatementItem{
			{Type: IfItemIf, Statements: []Statement{&PrintStatement{}}},
			{Type: IfItemElse, Statements: []Statement{
				&LoopStatement{Kind: LoopWhile, Statements: []Statement{&BreakStatement{}}},
			}},
		}},
		&TryCatchStatement{
			TryStatements:   []Statement{&LeaveStatement{}},
			CatchStatements: []Statement{&TransactionStatement{Command: TransactionRollback}},
		},
	}

	var names []string
	Walk(stmts, func(s Statement) bool {
		names = append(names, StatementName(s))
		return true
	})
	assert.Equal(t, []string{"IF", "PRINT", "WHILE", "BREAK", "TRY_CATCH", "LEAVE", "ROLLBACK_TRANSACTION"}, names)
}

func TestTokenTypeText(t *testing.T) {
	text, err := TokenRoutineName.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "RoutineName", string(text))
	assert.Equal(t, "TokenType(99)", TokenType(99).String())
	assert.True(t, Synthesize("x", TokenGeneral).IsSynthesized())
}

func TestAtLeast(t *testing.T) {
	ws := []Warning{{Severity: SeverityInfo}, {Severity: SeverityWarning}}
	assert.True(t, AtLeast(ws, SeverityWarning))
	assert.False(t, AtLeast(ws, SeverityError))

	sev, ok := ParseSeverity("ERROR")
	assert.True(t, ok)
	assert.Equal(t, SeverityError, sev)
}
