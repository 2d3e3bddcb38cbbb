package checker

import "sort"

// Severity indicates how critical an issue is. It maps directly onto the
// gutter mark kinds the host can draw.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single problem a checker found in a document.
type Issue struct {
	// Line is the 1-based line the issue was found on.
	Line int `json:"line"`

	// Column is the 0-based column within the line.
	Column int `json:"column"`

	// Code identifies the checker rule that produced the issue.
	Code string `json:"code"`

	// Message is a human-readable description of the issue.
	Message string `json:"message"`

	// Severity indicates how critical this issue is.
	Severity Severity `json:"severity"`
}

// SortIssues orders issues by line, then column, then code. The state store
// keeps per-document issues in this order so the host can render them
// top to bottom.
func SortIssues(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Code < b.Code
	})
}
