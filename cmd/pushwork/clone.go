package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore/boltstore"
	"github.com/inkandswitch/pushwork/pkg/filesystem"
	"github.com/inkandswitch/pushwork/pkg/logging"
	"github.com/inkandswitch/pushwork/pkg/reconcile"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// parseShareURL splits a pushwork share URL, "<store-path>#<document-id>",
// into its two components. This is the filesystem-local stand-in for real
// peer addressing, consistent with Config.SyncServerURL's role as a
// placeholder for the out-of-scope network transport.
func parseShareURL(raw string) (storePath string, rootID docmodel.DocumentID, err error) {
	idx := strings.LastIndex(raw, "#")
	if idx < 0 {
		return "", "", fmt.Errorf("invalid pushwork url %q: expected <store-path>#<document-id>", raw)
	}
	storePath, id := raw[:idx], raw[idx+1:]
	if storePath == "" || id == "" {
		return "", "", fmt.Errorf("invalid pushwork url %q: expected <store-path>#<document-id>", raw)
	}
	return storePath, docmodel.DocumentID(id), nil
}

func cloneMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return withExitCode(exitGeneral, fmt.Errorf("clone requires a url and a destination path"))
	}
	storePath, rootID, err := parseShareURL(arguments[0])
	if err != nil {
		return withExitCode(exitConfig, err)
	}

	absPath, err := filesystem.Normalize(arguments[1])
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	if rootAlreadyInitialized(absPath) {
		return withExitCode(exitConfig, fmt.Errorf("%s is already a pushwork sync root", absPath))
	}

	cfg := config.Default()
	cfg.SyncServerURL = storePath
	configPath, err := filesystem.ControlSubpath(absPath, true, filesystem.ConfigurationFileName)
	if err != nil {
		return withExitCode(exitGeneral, err)
	}
	if err := config.Save(configPath, cfg); err != nil {
		return withExitCode(exitConfig, err)
	}

	store, err := boltstore.Open(storePath, actorIdentity())
	if err != nil {
		return withExitCode(exitFilesystem, fmt.Errorf("unable to open document store at %s: %w", storePath, err))
	}
	defer store.Close()

	if _, err := store.Heads(rootID); err != nil {
		return withExitCode(exitConfig, fmt.Errorf("%s does not name a document known to %s: %w", rootID, storePath, err))
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

	fmt.Printf("Cloned %s into %s\n", rootID, absPath)
	return nil
}

var cloneCommand = &cobra.Command{
	Use:   "clone <url> <path>",
	Short: "Materialize an existing document tree into a new local sync root",
	Run:   mainify(cloneMain),
}
