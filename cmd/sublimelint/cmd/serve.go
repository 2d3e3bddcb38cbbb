package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/simonzack/sublimelint/internal/app"
	"github.com/simonzack/sublimelint/internal/hostserver"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the editor-facing protocol on stdin/stdout",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Use stdin/stdout for communication (required)",
				Value: true,
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to the user settings file",
				Sources: cli.EnvVars("SUBLIMELINT_SETTINGS"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("stdio") {
				fmt.Fprintln(os.Stderr, "Error: only --stdio transport is supported")
				return cli.Exit("", ExitConfigError)
			}

			core := app.New(app.Options{SettingsPath: cmd.String("settings")})
			server := hostserver.New(core)
			return server.RunStdio(ctx)
		},
	}
}
