// Package main provides the catlog binary entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/catlog/internal/buildinfo"
	"github.com/dmitrijs2005/catlog/internal/client/cli"
	"github.com/dmitrijs2005/catlog/internal/client/config"
	"github.com/dmitrijs2005/catlog/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catlog",
		Short: "Terminal client for the cat entry service",
		Long: `catlog keeps a login session on disk and lets you browse, create,
edit and delete cat entries and upload their pictures.

Run without a subcommand to start the interactive shell.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				return app.Run(ctx)
			})
		},
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				return app.Whoami(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *cli.App) error {
				return app.Logout(ctx)
			})
		},
	})

	return cmd
}

// withApp loads the configuration from cmd's flags, builds the App and runs
// fn with it.
func withApp(cmd *cobra.Command, fn func(context.Context, *cli.App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := logging.NewTextLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	app.SetOutput(cmd.OutOrStdout())
	return fn(ctx, app)
}
