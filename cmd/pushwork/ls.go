package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func lsMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("ls takes at most one path argument"))
	}

	root, err := openSyncRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()

	snap, err := root.Snaps.Load(root.Path)
	if err != nil {
		return withExitCode(exitGeneral, fmt.Errorf("unable to load snapshot: %w", err))
	}

	paths := make([]string, 0, len(snap.Files)+len(snap.Directories))
	for p := range snap.Files {
		paths = append(paths, p)
	}
	for p := range snap.Directories {
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if entry, ok := snap.Files[p]; ok {
			size := "-"
			if doc, _, err := root.Store.ReadFile(entry.URL); err == nil {
				size = humanize.Bytes(uint64(docContentSize(doc)))
			}
			fmt.Printf("file %-10s %s\n", size, p)
			continue
		}
		fmt.Printf("dir  %-10s %s\n", "-", p)
	}
	return nil
}

var lsCommand = &cobra.Command{
	Use:   "ls [<path>]",
	Short: "List every path tracked in the last snapshot",
	Run:   mainify(lsMain),
}
