package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("status takes at most one path argument"))
	}

	root, err := openSyncRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()

	entries, err := root.Rec.Status()
	if err != nil {
		return withExitCode(exitGeneral, err)
	}

	if len(entries) == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}
	for _, entry := range entries {
		kind := "file"
		if entry.IsDirectory {
			kind = "dir "
		}
		fmt.Printf("%-11s %s %s\n", entry.Class, kind, entry.Path)
	}
	return nil
}

var statusCommand = &cobra.Command{
	Use:   "status [<path>]",
	Short: "Show paths that differ between the local tree, the last snapshot, and the document store",
	Run:   mainify(statusMain),
}
