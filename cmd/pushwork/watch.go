package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/inkandswitch/pushwork/pkg/filesystem"
)

// addWatchRecursive registers every directory under root with watcher.
// fsnotify only watches the directories it is explicitly told about, so new
// subdirectories created after the watch begins are picked up by re-running
// watch rather than by this call.
func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == filesystem.ControlDirectoryName {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// isControlDirectoryEvent reports whether a watched path falls inside the
// sync root's control directory, whose own writes (snapshot, store) should
// never themselves trigger another sync.
func isControlDirectoryEvent(root, eventPath string) bool {
	rel, err := filepath.Rel(root, eventPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == filesystem.ControlDirectoryName || strings.HasPrefix(rel, filesystem.ControlDirectoryName+"/")
}

// watchMain is a convenience wrapper around repeated explicit sync
// invocation: it watches the local tree for filesystem events and debounces
// them into a sync call, rather than implementing its own change-propagation
// path. The document store side of a sync root has no equivalent local
// notification source (that belongs to the out-of-scope network transport),
// so only local events trigger a re-sync; remote-only changes still surface
// the next time something runs sync.
func watchMain(command *cobra.Command, arguments []string) error {
	path := "."
	if len(arguments) == 1 {
		path = arguments[0]
	} else if len(arguments) > 1 {
		return withExitCode(exitGeneral, fmt.Errorf("watch takes at most one path argument"))
	}

	root, err := openSyncRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return withExitCode(exitFilesystem, fmt.Errorf("unable to create filesystem watcher: %w", err))
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root.Path); err != nil {
		return withExitCode(exitFilesystem, err)
	}

	fmt.Printf("Watching %s for changes (Ctrl-C to stop)\n", root.Path)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	const debounceInterval = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isControlDirectoryEvent(root.Path, event.Name) {
				continue
			}
			debounce.Reset(debounceInterval)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnf("watch: %v", err)
		case <-debounce.C:
			result, err := root.Rec.Sync(context.Background())
			if err != nil {
				warnf("sync: %v", err)
				continue
			}
			printSyncResult(result)
		}
	}
}

var watchCommand = &cobra.Command{
	Use:   "watch [<path>]",
	Short: "Watch the local tree and run sync automatically as it changes",
	Run:   mainify(watchMain),
}
