// Package builtin provides the in-process checkers that ship with the
// plugin. They exist so the scheduler and state store are exercisable end to
// end without any external linter binaries installed.
//
// Registration is explicit: the process entry point calls [Register] once
// during startup, before any document is assigned.
package builtin

import (
	"context"
	"strings"

	"github.com/simonzack/sublimelint/internal/checker"
)

// TrailingWhitespaceName is the registered name of the trailing-whitespace
// checker.
const TrailingWhitespaceName = "trailing-whitespace"

// trailingWhitespace flags lines that end in spaces or tabs.
type trailingWhitespace struct{}

// trailingWhitespaceDescriptor returns the registry descriptor.
func trailingWhitespaceDescriptor() checker.Descriptor {
	return checker.Descriptor{
		Name:        TrailingWhitespaceName,
		Language:    checker.LanguageAny,
		Description: "Disallows trailing whitespace at the end of lines",
		Defaults: map[string]any{
			"@disable":         false,
			"skip-blank-lines": false,
		},
		Factory: func() checker.Checker { return trailingWhitespace{} },
	}
}

func (trailingWhitespace) Check(_ context.Context, input checker.Input) []checker.Issue {
	skipBlank := boolOption(input.Options, "skip-blank-lines")

	var issues []checker.Issue
	for i, line := range splitLines(input.Content) {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == line {
			continue
		}
		if skipBlank && trimmed == "" {
			continue
		}
		issues = append(issues, checker.Issue{
			Line:     i + 1,
			Column:   len(trimmed),
			Code:     TrailingWhitespaceName,
			Message:  "trailing whitespace",
			Severity: checker.SeverityWarning,
		})
	}
	return issues
}

// splitLines splits content into lines without trailing newlines. A final
// newline does not produce a phantom empty line.
func splitLines(content []byte) []string {
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func boolOption(opts map[string]any, key string) bool {
	b, _ := opts[key].(bool)
	return b
}
