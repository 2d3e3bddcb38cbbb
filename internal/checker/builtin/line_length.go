package builtin

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/simonzack/sublimelint/internal/checker"
)

// LineLengthName is the registered name of the line-length checker.
const LineLengthName = "line-length"

// defaultMaxLineLength mirrors the common editor ruler default.
const defaultMaxLineLength = 120

// lineLength flags lines longer than the configured maximum.
type lineLength struct{}

func lineLengthDescriptor() checker.Descriptor {
	return checker.Descriptor{
		Name:        LineLengthName,
		Language:    checker.LanguageAny,
		Description: "Flags lines exceeding the configured maximum length",
		Defaults: map[string]any{
			"@disable": true, // opt-in: not every project wants a ruler
			"max":      defaultMaxLineLength,
		},
		Factory: func() checker.Checker { return lineLength{} },
	}
}

func (lineLength) Check(_ context.Context, input checker.Input) []checker.Issue {
	max := intOption(input.Options, "max", defaultMaxLineLength)
	if max <= 0 {
		return nil
	}

	var issues []checker.Issue
	for i, line := range splitLines(input.Content) {
		width := utf8.RuneCountInString(line)
		if width <= max {
			continue
		}
		issues = append(issues, checker.Issue{
			Line:     i + 1,
			Column:   max,
			Code:     LineLengthName,
			Message:  fmt.Sprintf("line is %d characters, max %d", width, max),
			Severity: checker.SeverityWarning,
		})
	}
	return issues
}

// intOption reads a numeric option, tolerating the float64 that JSON
// decoding produces.
func intOption(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Register adds the builtin checkers to a registry.
func Register(registry *checker.Registry) {
	registry.Register(trailingWhitespaceDescriptor())
	registry.Register(lineLengthDescriptor())
}
