package reconcile

import (
	"fmt"
	"os"
	"sort"

	"github.com/inkandswitch/pushwork/pkg/classify"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// StatusEntry summarizes one path's current classification, for callers
// (the CLI's status and diff commands) that want the plan without running a
// sync.
type StatusEntry struct {
	Path        string
	IsDirectory bool
	Class       classify.Class
}

// classifyCurrent loads the snapshot and classifies every path, without
// mutating the filesystem, document store, or snapshot. Status and Diff both
// build on this.
func (r *Reconciler) classifyCurrent() ([]*planItem, error) {
	snap, err := r.snaps.Load(r.rootPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load snapshot: %w", err)
	}
	if snap.RootDirectoryURL == "" {
		return nil, fmt.Errorf("sync root is not initialized: run init or clone first")
	}
	if _, ok := snap.Directories[""]; !ok {
		snap.Directories[""] = snapshot.DirectoryEntry{URL: snap.RootDirectoryURL}
	}

	items, err := r.plan(snap)
	if err != nil {
		return nil, fmt.Errorf("unable to build classification plan: %w", err)
	}
	return items, nil
}

// Status classifies the current local/base/remote state without mutating
// the filesystem, document store, or snapshot, returning entries sorted by
// path. It shares the Sync path's classification logic exactly, so its
// output always matches what the next sync would act on.
func (r *Reconciler) Status() ([]StatusEntry, error) {
	items, err := r.classifyCurrent()
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(items))
	for _, item := range items {
		if item.Class == classify.NoChange || item.Class == classify.Missing {
			continue
		}
		entries = append(entries, StatusEntry{
			Path:        item.Path,
			IsDirectory: item.Kind == kindDirectory,
			Class:       item.Class,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// DiffEntry summarizes one changed file's local and remote sizes, for the
// diff command. Directories carry no content of their own and are omitted.
type DiffEntry struct {
	Path          string
	Class         classify.Class
	LocalPresent  bool
	LocalSize     int64
	RemotePresent bool
	RemoteSize    int64
}

// Diff reports, for every changed file, its local and remote sizes, without
// mutating any state. It shares Status's classification pass and adds a
// content-size lookup on top.
func (r *Reconciler) Diff() ([]DiffEntry, error) {
	items, err := r.classifyCurrent()
	if err != nil {
		return nil, err
	}

	entries := make([]DiffEntry, 0, len(items))
	for _, item := range items {
		if item.Kind != kindFile {
			continue
		}
		if item.Class == classify.NoChange || item.Class == classify.Missing {
			continue
		}

		entry := DiffEntry{Path: item.Path, Class: item.Class}
		if item.LocalEntry != nil {
			if info, err := os.Stat(r.localFSPath(item.Path)); err == nil {
				entry.LocalPresent = true
				entry.LocalSize = info.Size()
			}
		}
		if item.HasRemote {
			if doc, _, err := r.store.ReadFile(item.Remote.URL); err == nil {
				entry.RemotePresent = true
				entry.RemoteSize = int64(len(docBytes(doc)))
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
