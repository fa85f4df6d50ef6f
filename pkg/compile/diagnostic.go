package compile

import (
	"fmt"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns a string representation of Severity
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// 🩺 Diagnostic is one problem found in the compilation unit
type Diagnostic struct {
	File     string // slash separated path relative to the project root, empty for config level problems
	Line     int    // 1 based
	Column   int    // 1 based
	Message  string
	Severity Severity
}

// String formats the diagnostic as "file (line,col): message", or the bare
// message when it is not tied to a file.
func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}
	return fmt.Sprintf("%s (%d,%d): %s", d.File, d.Line, d.Column, d.Message)
}

// CountErrors returns the number of error severity diagnostics
func CountErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
