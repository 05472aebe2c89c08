// Command pushwork is the CLI front end for the Sync Engine: it drives one
// sync root's control directory (.pushwork) through init/clone and repeated
// sync cycles, plus the status/diff/ls/url/rm/config/watch commands that
// inspect or adjust that state without a full sync.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "pushwork",
	Short: "Pushwork synchronizes a local directory against a CRDT document tree.",
}

func init() {
	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		initCommand,
		cloneCommand,
		syncCommand,
		statusCommand,
		diffCommand,
		lsCommand,
		urlCommand,
		rmCommand,
		configCommand,
		watchCommand,
	)
}

func main() {
	// fatih/color already checks this on most platforms, but its Windows
	// detection relies on console mode bits that mintty-style terminals
	// don't set; fall back to isatty directly so piped output (redirected
	// to a file, or captured by another process) never gets escape codes.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if err := rootCommand.Execute(); err != nil {
		// cobra has already printed the error; just pick the exit code.
		os.Exit(exitGeneral)
	}
}
