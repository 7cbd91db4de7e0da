package core

import (
	"errors"
	"fmt"
)

// SyntaxError is a grammar violation reported by the parser.
type SyntaxError struct {
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ErrUnsupportedConstruct is matched by every UnsupportedConstructError.
var ErrUnsupportedConstruct = errors.New("unsupported construct")

// UnsupportedConstructError reports a script or statement a generator has no
// rendering rule for.
type UnsupportedConstructError struct {
	Dialect   string
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: unsupported construct: %s", e.Dialect, e.Construct)
}

// Is makes errors.Is(err, ErrUnsupportedConstruct) succeed.
func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

// Unsupported builds an UnsupportedConstructError.
func Unsupported(dialect, format string, args ...any) error {
	return &UnsupportedConstructError{Dialect: dialect, Construct: fmt.Sprintf(format, args...)}
}
