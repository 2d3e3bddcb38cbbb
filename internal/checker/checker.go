// Package checker defines the checker abstraction and the language registry.
//
// A checker analyzes one document and reports issues. Checkers are registered
// per language at plugin load time; the assigner decides which of them apply
// to an open document based on its syntax and the current settings.
//
// The actual work of invoking external linter binaries is out of scope here:
// a Checker may shell out, run in process, or talk to a daemon, as long as it
// honors the context and returns plain issues.
package checker

import "context"

// Input carries everything a checker needs for one run.
//
// Input is read-only. Checkers must not mutate Content or Options; if one
// needs to transform the content it must copy it first.
type Input struct {
	// DocumentID identifies the document being checked.
	DocumentID string

	// Path is the document's file path, empty for unsaved buffers.
	Path string

	// Content is the full document content at the time of the check.
	Content []byte

	// Options is the merged per-checker settings (defaults overlaid with the
	// user's "linters.<name>" section).
	Options map[string]any
}

// Checker analyzes a document and reports issues.
type Checker interface {
	// Check runs the checker against the input. It returns the issues found,
	// in no particular order; the caller sorts them before storing.
	Check(ctx context.Context, input Input) []Issue
}

// LanguageAny registers a checker for every language.
const LanguageAny = "*"

// Descriptor describes a registered checker.
type Descriptor struct {
	// Name is the unique checker name (e.g. "flake8", "trailing-whitespace").
	Name string

	// Language is the language the checker applies to (lowercase).
	Language string

	// Description explains what the checker does.
	Description string

	// Defaults are the checker's default settings, merged under
	// "linters.<name>" unless the user overrides them.
	Defaults map[string]any

	// Factory creates a checker instance for a document assignment.
	Factory func() Checker
}

// Instance is a checker bound to a document.
type Instance struct {
	Descriptor Descriptor
	Checker    Checker
}
