package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func syncMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("sync takes at most one path argument"))
	}

	root, err := openSyncRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()

	root.Rec.DryRun = syncConfiguration.dryRun
	if syncConfiguration.parallelism > 0 {
		root.Rec.SetParallelism(syncConfiguration.parallelism)
	}

	result, err := root.Rec.Sync(context.Background())
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	printSyncResult(result)

	if code := resultExitCode(result); code != exitSuccess {
		return withExitCode(code, fmt.Errorf("sync completed with errors"))
	}
	return nil
}

var syncCommand = &cobra.Command{
	Use:   "sync [<path>]",
	Short: "Run one push/pull cycle between the local tree and the document store",
	Run:   mainify(syncMain),
}

var syncConfiguration struct {
	dryRun      bool
	parallelism int
}

// registerSyncFlags binds the sync command's flags, taking the flag set
// explicitly typed as *pflag.FlagSet (rather than via cobra's wrapper) so it
// can be reused against any command's flag set.
func registerSyncFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&syncConfiguration.dryRun, "dry-run", false, "Classify pending work without changing the filesystem, document store, or snapshot")
	flags.IntVar(&syncConfiguration.parallelism, "parallelism", 0, "Override the configured number of concurrent file operations for this run")
}

func init() {
	registerSyncFlags(syncCommand.Flags())
}
