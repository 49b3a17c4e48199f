package model

import "fmt"

// DiagnosticKind classifies a recoverable data-quality issue.
type DiagnosticKind string

const (
	DiagUnknownRegion    DiagnosticKind = "unknown-region"
	DiagUnrecognizedSize DiagnosticKind = "unrecognized-size"
	DiagDroppedRow       DiagnosticKind = "dropped-row"
	DiagClampedCovered   DiagnosticKind = "clamped-covered"
)

// Diagnostic records one recoverable issue found during a run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Report  ReportKind     `json:"report"`
	Line    int            `json:"line,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] %s line %d: %s", d.Kind, d.Report, d.Line, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Report, d.Message)
}

// CountByKind tallies diagnostics per kind.
func CountByKind(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
