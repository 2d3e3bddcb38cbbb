package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/simonzack/sublimelint/internal/app"
	"github.com/simonzack/sublimelint/internal/checker"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check file(s) once and print the issues found",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the user settings file",
				Sources: cli.EnvVars("SUBLIMELINT_SETTINGS"),
			},
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language to assign checkers for (default: file extension)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				fmt.Fprintln(os.Stderr, "Error: no files given")
				return cli.Exit("", ExitConfigError)
			}

			core := app.New(app.Options{SettingsPath: cmd.String("settings")})
			defer core.Teardown()
			if err := core.Settings.Load(false); err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), ExitConfigError)
			}

			total := 0
			for _, path := range files {
				issues, err := checkFile(ctx, core, path, cmd.String("language"))
				if err != nil {
					return cli.Exit(fmt.Sprintf("Error: %v", err), ExitConfigError)
				}
				for _, issue := range issues {
					fmt.Printf("%s:%d:%d: [%s] %s\n",
						path, issue.Line, issue.Column, issue.Code, issue.Message)
				}
				total += len(issues)
			}

			if total > 0 {
				return cli.Exit("", ExitIssues)
			}
			return nil
		},
	}
}

// checkFile runs the checkers assigned to one file.
func checkFile(ctx context.Context, core *app.App, path, language string) ([]checker.Issue, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if language == "" {
		language = strings.TrimPrefix(filepath.Ext(path), ".")
		if language == "" {
			language = "plain text"
		}
	}

	instances := core.Assigner.Assign(checker.DocumentInfo{
		ID:     path,
		Path:   path,
		Syntax: language,
	})

	var issues []checker.Issue
	for _, instance := range instances {
		found := instance.Checker.Check(ctx, checker.Input{
			DocumentID: path,
			Path:       path,
			Content:    content,
			Options:    core.Settings.CheckerOptions(instance.Descriptor.Name),
		})
		issues = append(issues, found...)
	}
	checker.SortIssues(issues)
	return issues, nil
}
