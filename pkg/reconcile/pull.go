package reconcile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkandswitch/pushwork/pkg/classify"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// pullPlan executes Phase P2: it re-derives the classification (since P1 and
// the barriers may have changed both the document tree and, via the upload
// acknowledgement, what "remote" means) and materializes, removes, or
// retypes filesystem entries so the tree matches the document tree.
// Materializations run parents-before-children; removals run
// children-before-parents.
func (r *Reconciler) pullPlan(snap *snapshot.Snapshot, result *SyncResult) error {
	items, err := r.plan(snap)
	if err != nil {
		return err
	}

	pullable := make(map[string]*planItem)
	for _, item := range items {
		if item.Class == classify.RemoteOnly || item.Class == classify.BothChanged {
			pullable[item.Path] = item
		}
	}

	// A push that merged with a concurrent remote change already advances
	// the snapshot's recorded head to the merged result, which makes the
	// base-relative reclassification above see "remote == base" even though
	// the on-disk bytes are still whatever was there before the merge. Catch
	// that directly by comparing local content to the document's current
	// content, independent of the (now stale-relative-to-disk) base.
	for _, item := range items {
		if item.Kind != kindFile || item.LocalEntry == nil || !item.HasRemote {
			continue
		}
		if _, already := pullable[item.Path]; already {
			continue
		}
		diverged, err := r.localDivergesFromRemote(item)
		if err != nil {
			return err
		}
		if diverged {
			pullable[item.Path] = item
		}
	}

	materializations := make([]string, 0, len(pullable))
	removals := make([]string, 0, len(pullable))
	for p, item := range pullable {
		if item.HasRemote {
			materializations = append(materializations, p)
		} else {
			removals = append(removals, p)
		}
	}
	sort.SliceStable(materializations, func(i, j int) bool {
		return strings.Count(materializations[i], "/") < strings.Count(materializations[j], "/")
	})
	sort.SliceStable(removals, func(i, j int) bool {
		return strings.Count(removals[i], "/") > strings.Count(removals[j], "/")
	})

	for _, p := range materializations {
		item := pullable[p]
		if err := r.materialize(item, snap, result); err != nil {
			result.addError(p, "pull", isRecoverableFSError(err), err)
		}
	}
	for _, p := range removals {
		item := pullable[p]
		if err := r.removeLocal(item, snap, result); err != nil {
			result.addError(p, "pull", isRecoverableFSError(err), err)
		}
	}

	return nil
}

func (r *Reconciler) localFSPath(relPath string) string {
	return filepath.Join(r.rootPath, filepath.FromSlash(relPath))
}

func (r *Reconciler) materialize(item *planItem, snap *snapshot.Snapshot, result *SyncResult) error {
	if item.Kind == kindDirectory {
		if err := os.MkdirAll(r.localFSPath(item.Path), 0755); err != nil {
			return err
		}
		heads, err := r.store.Heads(item.Remote.URL)
		if err != nil {
			return err
		}
		snap.Directories[item.Path] = snapshot.DirectoryEntry{URL: item.Remote.URL, Head: heads}
		result.DirectoriesChanged++
		return r.persistSnapshot(snap)
	}

	doc, heads, err := r.store.ReadFile(item.Remote.URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.localFSPath(item.Path)), 0755); err != nil {
		return err
	}

	if item.LocalEntry != nil && item.LocalEntry.FileType != doc.Type {
		// Retype: remove the stale on-disk entry before writing the new
		// content under the same path.
		if err := os.Remove(r.localFSPath(item.Path)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	data := docBytes(doc)
	permissions := os.FileMode(0644)
	if doc.Metadata.Permissions != 0 {
		permissions = os.FileMode(doc.Metadata.Permissions)
	}
	if err := os.WriteFile(r.localFSPath(item.Path), data, permissions); err != nil {
		return err
	}

	snap.Files[item.Path] = snapshot.FileEntry{
		URL:       item.Remote.URL,
		Head:      heads,
		Extension: doc.Extension,
		MimeType:  doc.MimeType,
	}
	r.maybeRecordContentHash(snap, item.Path, data)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}

// localDivergesFromRemote compares on-disk content directly to the
// document's current folded content, bypassing the snapshot's base
// entirely. It is the safety net that catches a merge landed by this run's
// own push phase.
func (r *Reconciler) localDivergesFromRemote(item *planItem) (bool, error) {
	localDoc, err := readLocalFileDoc(r.rootPath, item.Path, *item.LocalEntry)
	if err != nil {
		return false, err
	}
	remoteDoc, _, err := r.store.ReadFile(item.Remote.URL)
	if err != nil {
		return false, err
	}
	return !localDoc.ContentEqual(remoteDoc), nil
}

func (r *Reconciler) removeLocal(item *planItem, snap *snapshot.Snapshot, result *SyncResult) error {
	path := r.localFSPath(item.Path)
	if item.Kind == kindDirectory {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		delete(snap.Directories, item.Path)
		result.DirectoriesChanged++
		return r.persistSnapshot(snap)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(snap.Files, item.Path)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}
