// Package main implements the pushwork CLI: init/clone/sync plus the
// status/diff/ls/url/rm/config/watch convenience commands, built on cobra
// and pflag, calling the sync engine's packages directly in-process rather
// than through a daemon.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
	"github.com/inkandswitch/pushwork/pkg/docstore/boltstore"
	"github.com/inkandswitch/pushwork/pkg/filesystem"
	"github.com/inkandswitch/pushwork/pkg/logging"
	"github.com/inkandswitch/pushwork/pkg/reconcile"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// Exit codes, per the specification's external interface section.
const (
	exitSuccess            = 0
	exitGeneral            = 1
	exitConfig             = 2
	exitNetwork            = 3
	exitFilesystem         = 4
	exitUnresolvedConflict = 5
)

// exitError pairs an error with the exit code it should produce, letting
// command bodies return a plain error for exitGeneral or an exitError for
// anything more specific.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// mainify adapts a RunE-style entry point into cobra's Run, translating a
// returned error into a printed message and a process exit using the
// command's specific exit code when one is attached.
func mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			code := exitGeneral
			if ee, ok := err.(*exitError); ok {
				code = ee.code
			}
			fmt.Fprintln(color.Error, color.RedString("Error:"), err)
			os.Exit(code)
		}
	}
}

// warnf prints a color-coded warning to stderr.
func warnf(format string, args ...interface{}) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), fmt.Sprintf(format, args...))
}

// syncRoot bundles everything a command needs to operate on an initialized
// sync root: its document store, its snapshot store, its configuration, and
// a ready-to-use Reconciler.
type syncRoot struct {
	Path  string
	Store docstore.Store
	Snaps *snapshot.Store
	Cfg   *config.Config
	Rec   *reconcile.Reconciler
}

// openSyncRoot loads the control directory at path, which must already have
// been created by init or clone.
func openSyncRoot(path string) (*syncRoot, error) {
	absPath, err := filesystem.Normalize(path)
	if err != nil {
		return nil, withExitCode(exitGeneral, err)
	}

	controlDir, err := filesystem.ControlDirectory(absPath, false)
	if err != nil {
		return nil, withExitCode(exitGeneral, err)
	}
	if _, err := os.Stat(controlDir); os.IsNotExist(err) {
		return nil, withExitCode(exitConfig, fmt.Errorf("%s is not a pushwork sync root (run init or clone first)", absPath))
	}

	configPath, err := filesystem.ControlSubpath(absPath, false, filesystem.ConfigurationFileName)
	if err != nil {
		return nil, withExitCode(exitGeneral, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, withExitCode(exitConfig, err)
		}
	}

	storePath, err := storePathFor(absPath, cfg)
	if err != nil {
		return nil, withExitCode(exitGeneral, err)
	}
	store, err := boltstore.Open(storePath, actorIdentity())
	if err != nil {
		return nil, withExitCode(exitFilesystem, fmt.Errorf("unable to open document store: %w", err))
	}

	snapshotPath, err := filesystem.ControlSubpath(absPath, true, filesystem.SnapshotFileName)
	if err != nil {
		store.Close()
		return nil, withExitCode(exitGeneral, err)
	}
	snaps := snapshot.NewStore(snapshotPath, logging.RootLogger)

	rec, err := reconcile.New(absPath, store, snaps, cfg, logging.RootLogger)
	if err != nil {
		store.Close()
		return nil, withExitCode(exitConfig, err)
	}

	return &syncRoot{Path: absPath, Store: store, Snaps: snaps, Cfg: cfg, Rec: rec}, nil
}

func (r *syncRoot) Close() {
	if r.Store != nil {
		r.Store.Close()
	}
}

// storePathFor resolves the document store's on-disk path for a sync root.
// Ordinarily this is the root's own .pushwork/automerge/store.bolt, but a
// cloned root instead shares the store file named in its configuration's
// SyncServerURL, so that pushwork's single shared store can stand in for the
// specification's out-of-scope networked peer: clone and its source root
// read and write the very same underlying documents.
func storePathFor(absPath string, cfg *config.Config) (string, error) {
	if cfg.SyncServerURL != "" {
		return cfg.SyncServerURL, nil
	}
	return filesystem.ControlSubpath(absPath, true, filesystem.DocumentStoreDirectoryName, "store.bolt")
}

// docContentSize returns the byte length of a file document's content under
// its own type discipline (the UTF-8 encoded byte length for text, or the raw
// byte count for binary).
func docContentSize(doc *docmodel.FileDoc) int {
	if doc == nil {
		return 0
	}
	if doc.Type == docmodel.FileTypeText {
		return len(string(doc.Text))
	}
	return len(doc.Bytes)
}

// fileExists reports whether path names an existing file or directory.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// actorIdentity derives a stable per-host actor name for change attribution,
// falling back to a fixed name if the hostname cannot be determined.
func actorIdentity() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "pushwork"
	}
	return host
}

// resultExitCode maps a completed SyncResult to the specification's exit
// codes: a fatal (non-recoverable) invariant violation is an unresolved
// conflict; any other fatal error is a general failure; a clean run whose
// barriers nonetheless timed out reports the transient-network code even
// though the run itself succeeded; recoverable filesystem errors alone
// report the filesystem code; otherwise success.
func resultExitCode(result *reconcile.SyncResult) int {
	if !result.Success {
		for _, e := range result.Errors {
			if e.Kind == reconcile.KindInvariantViolation {
				return exitUnresolvedConflict
			}
		}
		return exitGeneral
	}
	if len(result.Errors) > 0 {
		return exitFilesystem
	}
	if len(result.Warnings) > 0 {
		return exitNetwork
	}
	return exitSuccess
}

func printSyncResult(result *reconcile.SyncResult) {
	fmt.Printf("%d file(s), %d director(y/ies) changed\n", result.FilesChanged, result.DirectoriesChanged)
	for _, w := range result.Warnings {
		warnf("%s", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintln(color.Error, color.RedString("Error:"), e.Error())
	}
}
