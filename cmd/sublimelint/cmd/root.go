package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/simonzack/sublimelint/internal/version"
)

// Exit codes
const (
	ExitSuccess     = 0 // No issues found
	ExitIssues      = 1 // Issues found
	ExitConfigError = 2 // Settings or invocation error
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "sublimelint",
		Usage:   "Editor-integrated code checking core",
		Version: version.Version(),
		Description: `sublimelint is the scheduling and state core of an editor code-checking
plugin. It tracks open documents, assigns checkers per language, and
debounces edit bursts into single lint runs.

Examples:
  sublimelint serve
  sublimelint check main.py
  sublimelint check .`,
		Commands: []*cli.Command{
			serveCommand(),
			checkCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
