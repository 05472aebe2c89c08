package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func urlMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("url takes at most one path argument"))
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

	storePath, err := storePathFor(root.Path, root.Cfg)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	fmt.Printf("%s#%s\n", storePath, snap.RootDirectoryURL)
	return nil
}

var urlCommand = &cobra.Command{
	Use:   "url [<path>]",
	Short: "Print the share url that clone accepts for this sync root's document tree",
	Run:   mainify(urlMain),
}

