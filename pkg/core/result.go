package core

// AnalyseResult is the outcome of analysing one source text.
// Exactly one of Script and Error is set.
type AnalyseResult struct {
	Script     Script       `json:"script,omitempty" yaml:"script,omitempty"`
	Error      *SyntaxError `json:"error,omitempty" yaml:"error,omitempty"`
	References []Reference  `json:"references,omitempty" yaml:"references,omitempty"`
}

// OK reports whether analysis produced a script.
func (r *AnalyseResult) OK() bool {
	return r.Error == nil && r.Script != nil
}

// Reference is an identifier-level reference to another object.
type Reference struct {
	Type   TokenType `json:"type" yaml:"type"`
	Name   string    `json:"name" yaml:"name"`
	Line   int       `json:"line" yaml:"line"`
	Column int       `json:"column" yaml:"column"`
}
