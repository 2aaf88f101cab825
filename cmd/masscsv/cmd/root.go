// Package cmd wires the masscsv subcommands: info, view, search, and edit.
package cmd

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/massive-csv/massivecsv/csverr"
)

var verbose bool

// argError marks a failure as a CLI usage error (bad flags, unparsable
// arguments) rather than an engine failure, so Execute can map it to the
// argument-error exit code instead of the engine-error one.
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

func newArgError(err error) error { return &argError{err: err} }

var rootCmd = &cobra.Command{
	Use:           "masscsv",
	Short:         "View, search, and edit massive delimiter-separated files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(infoCmd, viewCmd, searchCmd, editCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a failure returned from Execute to the process exit code:
// 0 is handled by main on a nil error, 1 is an engine failure (the closed
// csverr taxonomy), 2 is everything else — bad flags, unparsable ranges,
// cobra's own usage errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := err.(*argError); ok {
		return 2
	}
	if _, ok := err.(*csverr.Error); ok {
		return 1
	}
	return 2
}

func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
}
