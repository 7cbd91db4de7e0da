package dialect

import (
	"errors"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// Analyser turns source text of one dialect into scripts.
// Every method is pure and safe for concurrent use. Parse failures are
// returned as *core.SyntaxError.
type Analyser interface {
	AnalyseProcedure(sql string) (*core.RoutineScript, error)
	AnalyseFunction(sql string) (*core.RoutineScript, error)
	AnalyseView(sql string) (*core.ViewScript, error)
	AnalyseTrigger(sql string) (*core.TriggerScript, error)

	// DetectKind reports the kind of the first create statement in sql,
	// or "" when there is none.
	DetectKind(sql string) (core.ScriptKind, error)

	// ExtractReferences lists the routine, table and column references in sql.
	ExtractReferences(sql string) ([]core.Reference, error)
}

// Generator renders scripts as source text of one dialect.
// Render fails with *core.UnsupportedConstructError for constructs the
// dialect has no rendering rule for.
type Generator interface {
	Render(script core.Script) (string, error)
}

// Analyse runs the analyser method for kind and packs the outcome into an
// AnalyseResult. An empty kind is detected from the text; text without a
// create statement is analysed as a procedure with an empty body.
func Analyse(a Analyser, kind core.ScriptKind, sql string) *core.AnalyseResult {
	if kind == "" {
		detected, err := a.DetectKind(sql)
		if err != nil {
			return failed(err)
		}
		kind = detected
	}

	var script core.Script
	switch kind {
	case core.KindFunction:
		s, err := a.AnalyseFunction(sql)
		if err != nil {
			return failed(err)
		}
		script = s
	case core.KindView:
		s, err := a.AnalyseView(sql)
		if err != nil {
			return failed(err)
		}
		script = s
	case core.KindTrigger:
		s, err := a.AnalyseTrigger(sql)
		if err != nil {
			return failed(err)
		}
		script = s
	default:
		s, err := a.AnalyseProcedure(sql)
		if err != nil {
			return failed(err)
		}
		script = s
	}

	refs, err := a.ExtractReferences(sql)
	if err != nil {
		return failed(err)
	}
	return &core.AnalyseResult{Script: script, References: refs}
}

func failed(err error) *core.AnalyseResult {
	var se *core.SyntaxError
	if !errors.As(err, &se) {
		se = &core.SyntaxError{Message: err.Error()}
	}
	return &core.AnalyseResult{Error: se}
}
