package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/docstore/boltstore"
	"github.com/inkandswitch/pushwork/pkg/filesystem"
	"github.com/inkandswitch/pushwork/pkg/logging"
	"github.com/inkandswitch/pushwork/pkg/reconcile"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

func initMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("init takes at most one path argument"))
	}

	absPath, err := filesystem.Normalize(path)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}

	if rootAlreadyInitialized(absPath) {
		return withExitCode(exitConfig, fmt.Errorf("%s is already a pushwork sync root", absPath))
	}

	cfg := config.Default()
	configPath, err := filesystem.ControlSubpath(absPath, true, filesystem.ConfigurationFileName)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	if err := config.Save(configPath, cfg); err != nil {
		return withExitCode(exitConfig, err)
	}

	storePath, err := filesystem.ControlSubpath(absPath, true, filesystem.DocumentStoreDirectoryName, "store.bolt")
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	store, err := boltstore.Open(storePath, actorIdentity())
	if err != nil {
		return withExitCode(exitFilesystem, fmt.Errorf("unable to create document store: %w", err))
	}
	defer store.Close()

	rootID, _, err := store.CreateDirectory()
	if err != nil {
		return withExitCode(exitGeneral, fmt.Errorf("unable to create root directory document: %w", err))
	}

	snapshotPath, err := filesystem.ControlSubpath(absPath, true, filesystem.SnapshotFileName)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	snaps := snapshot.NewStore(snapshotPath, logging.RootLogger)
	snap := snapshot.Empty(absPath)
	snap.RootDirectoryURL = rootID
	if err := snaps.Save(snap, false); err != nil {
		return withExitCode(exitFilesystem, fmt.Errorf("unable to write initial snapshot: %w", err))
	}

	rec, err := reconcile.New(absPath, store, snaps, cfg, logging.RootLogger)
	if err != nil {
		return withExitCode(exitConfig, err)
	}

	result, err := rec.Sync(context.Background())
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	printSyncResult(result)
	if code := resultExitCode(result); code != exitSuccess {
		return withExitCode(code, fmt.Errorf("initial sync completed with errors"))
	}

	fmt.Printf("Initialized pushwork sync root at %s (root document %s)\n", absPath, rootID)
	return nil
}

var initCommand = &cobra.Command{
	Use:   "init [<path>]",
	Short: "Initialize a new sync root, creating its root document and pushing any existing local content",
	Run:   mainify(initMain),
}

func rootAlreadyInitialized(absPath string) bool {
	configPath, err := filesystem.ControlSubpath(absPath, false, filesystem.ConfigurationFileName)
	if err != nil {
		return false
	}
	return fileExists(configPath)
}
