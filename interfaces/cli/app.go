// Package cli provides the command-line interface for the droid simulator.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	droid "github.com/felixgeelhaar/droid-go"
	infraconfig "github.com/felixgeelhaar/droid-go/infrastructure/config"
)

// Version information set at build time.
var (
	Version   = droid.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root     *cobra.Command
	stdout   io.Writer
	stderr   io.Writer
	envFiles []string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "droid",
		Short: "Tick-driven droid routine simulator",
		Long: `droid runs grid scenarios in which each droid executes a routine
(move_to, follow_behind, spiral_scan or protect) one step per tick.

Runs are recorded as an event log and summarised in a report, both kept in
the storage backend named by the scenario.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return infraconfig.LoadEnvFiles(app.envFiles...)
		},
	}
	app.root.PersistentFlags().StringArrayVar(&app.envFiles, "env-file", nil,
		"Load KEY=value pairs (e.g. DROID_STORAGE_DSN) before reading the scenario; repeatable")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newRunCmd(),
		app.newReportsCmd(),
		app.newReplayCmd(),
		app.newSchemaCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "droid version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
