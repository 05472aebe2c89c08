package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func diffMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("diff takes at most one path argument"))
	}

	root, err := openSyncRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()

	entries, err := root.Rec.Diff()
	if err != nil {
		return withExitCode(exitGeneral, err)
	}

	if len(entries) == 0 {
		fmt.Println("No file content differences.")
		return nil
	}
	for _, entry := range entries {
		local := "-"
		if entry.LocalPresent {
			local = humanize.Bytes(uint64(entry.LocalSize))
		}
		remote := "-"
		if entry.RemotePresent {
			remote = humanize.Bytes(uint64(entry.RemoteSize))
		}
		fmt.Printf("%-11s %-40s local: %-10s remote: %s\n", entry.Class, entry.Path, local, remote)
	}
	return nil
}

var diffCommand = &cobra.Command{
	Use:   "diff [<path>]",
	Short: "Show local and remote sizes for every file that differs",
	Run:   mainify(diffMain),
}
