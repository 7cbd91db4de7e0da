package core

import "strings"

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of an analysis warning.
type Severity int

// Severity levels for warnings.
const (
	// SeverityError indicates input that could not be converted.
	SeverityError Severity = iota
	// SeverityWarning indicates input that was skipped.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}

// =============================================================================
// Warning
// =============================================================================

// Warning records a construct the analyser skipped.
type Warning struct {
	Severity  Severity `json:"severity" yaml:"severity"`
	Construct string   `json:"construct" yaml:"construct"`
	Message   string   `json:"message" yaml:"message"`
	Line      int      `json:"line" yaml:"line"`
	Column    int      `json:"column" yaml:"column"`
}

// AtLeast reports whether any warning is at least as severe as min.
func AtLeast(warnings []Warning, min Severity) bool {
	for _, w := range warnings {
		if w.Severity <= min {
			return true
		}
	}
	return false
}
