package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func rmMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return withExitCode(exitGeneral, fmt.Errorf("rm requires a sync root path and a path relative to it"))
	}
	rootArg, relPath := arguments[0], arguments[1]

	root, err := openSyncRoot(rootArg)
	if err != nil {
		return err
	}
	defer root.Close()

	target := filepath.Join(root.Path, filepath.FromSlash(relPath))
	if err := os.RemoveAll(target); err != nil {
		return withExitCode(exitFilesystem, fmt.Errorf("unable to remove %s: %w", relPath, err))
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

var rmCommand = &cobra.Command{
	Use:   "rm <path> <relPath>",
	Short: "Remove a path from the local tree and propagate the deletion",
	Run:   mainify(rmMain),
}
