package reconcile

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkandswitch/pushwork/pkg/classify"
	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
	"github.com/inkandswitch/pushwork/pkg/movedetect"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// parentPath returns p's parent path in the snapshot's uniform addressing
// scheme, where the root directory itself is addressed by the empty path.
func parentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

func baseName(p string) string {
	return path.Base(p)
}

// pushPlan executes Phase P1 against the classified work list: creates,
// updates, deletes, moves, type changes, and directory create/delete,
// ordered directories-before-children for creates and children-before
// -directories for deletes. It mutates snap in place, persisting after each
// successful per-path operation, and returns the set of documents it touched
// (for the upload barrier) plus counts for the SyncResult.
func (r *Reconciler) pushPlan(ctx context.Context, items []*planItem, snap *snapshot.Snapshot, result *SyncResult) ([]docmodel.DocumentID, error) {
	var touched []docmodel.DocumentID
	touch := func(id docmodel.DocumentID) {
		touched = append(touched, id)
	}

	workable := make(map[string]*planItem)
	for _, item := range items {
		if item.Class == classify.LocalOnly || item.Class == classify.BothChanged {
			workable[item.Path] = item
		}
	}

	var readPaths []string
	for p, item := range workable {
		if item.Kind == kindFile && item.LocalEntry != nil {
			readPaths = append(readPaths, p)
		}
	}
	contents, failures := r.readLocalContentsBounded(ctx, readPaths)
	r.pendingContents = contents
	defer func() { r.pendingContents = nil }()
	for p, err := range failures {
		result.addError(p, "read", isRecoverableFSError(err), err)
		delete(workable, p)
	}

	handled := make(map[string]bool)
	moves := r.detectLocalMoves(workable, snap)
	for _, move := range moves {
		if err := r.applyMove(move, snap, touch); err != nil {
			recoverable := isRecoverableFSError(err)
			result.addError(move.CreatedPath, "move", recoverable, err)
			if isInvariantViolation(err) {
				return touched, nil
			}
			continue
		}
		handled[move.DeletedPath] = true
		handled[move.CreatedPath] = true
		result.FilesChanged++
	}

	// Creates and updates run shallowest-first; deletes (no local entry) run
	// after them, deepest-first, so children leave before their directory.
	var ordered, deletes []string
	for _, p := range orderedPaths(workable) {
		if workable[p].LocalEntry == nil {
			deletes = append(deletes, p)
		} else {
			ordered = append(ordered, p)
		}
	}
	for i := len(deletes) - 1; i >= 0; i-- {
		ordered = append(ordered, deletes[i])
	}
	for _, p := range ordered {
		if handled[p] {
			continue
		}
		item := workable[p]
		if err := r.pushPath(item, snap, touch, result); err != nil {
			recoverable := isRecoverableFSError(err)
			result.addError(p, "push", recoverable, err)
			if isInvariantViolation(err) {
				return touched, nil
			}
		}
	}

	return touched, nil
}

// orderedPaths returns paths ordered shallowest-first, which is the
// create/update order; callers needing delete order should reverse it.
func orderedPaths(items map[string]*planItem) []string {
	paths := make([]string, 0, len(items))
	for p := range items {
		paths = append(paths, p)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return strings.Count(paths[i], "/") < strings.Count(paths[j], "/")
	})
	return paths
}

func (r *Reconciler) pushPath(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	switch item.Kind {
	case kindDirectory:
		return r.pushDirectory(item, snap, touch, result)
	case kindFile:
		return r.pushFile(item, snap, touch, result)
	}
	return nil
}

func (r *Reconciler) pushDirectory(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	localPresent := item.LocalEntry != nil
	basePresent := item.HasSnapshotDir

	switch {
	case localPresent && !basePresent:
		// Directory create.
		id, heads, err := r.store.CreateDirectory()
		if err != nil {
			return err
		}
		touch(id)
		if err := r.linkIntoParent(item.Path, id, docmodel.EntryKindFolder, snap, touch); err != nil {
			return err
		}
		snap.Directories[item.Path] = snapshot.DirectoryEntry{URL: id, Head: heads}
		result.DirectoriesChanged++
		return r.persistSnapshot(snap)

	case !localPresent && basePresent:
		// Directory delete: detach from parent; the document is orphaned.
		if err := r.unlinkFromParent(item.Path, snap, touch); err != nil {
			return err
		}
		delete(snap.Directories, item.Path)
		result.DirectoriesChanged++
		return r.persistSnapshot(snap)
	}
	return nil
}

func (r *Reconciler) pushFile(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	localPresent := item.LocalEntry != nil
	basePresent := item.HasSnapshotFile

	switch {
	case localPresent && !basePresent:
		return r.pushFileCreate(item, snap, touch, result)
	case !localPresent && basePresent:
		return r.pushFileDelete(item, snap, touch, result)
	case localPresent && basePresent:
		return r.pushFileUpdate(item, snap, touch, result)
	}
	return nil
}

func (r *Reconciler) readLocalContent(relPath string) ([]byte, error) {
	if r.pendingContents != nil {
		if data, ok := r.pendingContents[relPath]; ok {
			return data, nil
		}
	}
	return os.ReadFile(filepath.Join(r.rootPath, filepath.FromSlash(relPath)))
}

func (r *Reconciler) pushFileCreate(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	data, err := r.readLocalContent(item.Path)
	if err != nil {
		return err
	}
	entry := *item.LocalEntry

	id, heads, err := r.store.CreateFile(docstore.FileCreate{
		Name:      baseName(item.Path),
		Extension: entry.Extension,
		MimeType:  entry.MimeType,
		Type:      entry.FileType,
	})
	if err != nil {
		return err
	}
	touch(id)

	heads, err = r.writeWholeContent(id, heads, entry.FileType, data)
	if err != nil {
		return err
	}
	heads, err = r.store.ChangeFileAt(id, heads, docstore.SetMetadata{Permissions: entry.Permissions})
	if err != nil {
		return err
	}

	if err := r.linkIntoParent(item.Path, id, docmodel.EntryKindFile, snap, touch); err != nil {
		return err
	}

	snap.Files[item.Path] = snapshot.FileEntry{URL: id, Head: heads, Extension: entry.Extension, MimeType: entry.MimeType}
	r.maybeRecordContentHash(snap, item.Path, data)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}

func (r *Reconciler) pushFileDelete(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	if err := r.unlinkFromParent(item.Path, snap, touch); err != nil {
		return err
	}
	delete(snap.Files, item.Path)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}

func (r *Reconciler) pushFileUpdate(item *planItem, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	base, err := r.store.ReadFileAt(item.SnapshotFile.URL, item.SnapshotFile.Head)
	if err != nil {
		return err
	}
	data, err := r.readLocalContent(item.Path)
	if err != nil {
		return err
	}
	entry := *item.LocalEntry

	if base != nil && base.Type != entry.FileType {
		return r.pushFileTypeChange(item, base, data, snap, touch, result)
	}

	localDoc := &docmodel.FileDoc{Type: entry.FileType}
	if entry.FileType == docmodel.FileTypeText {
		localDoc.Text = []rune(string(data))
	} else {
		localDoc.Bytes = data
	}
	if localDoc.ContentEqual(base) {
		// Nothing changed locally at this path; only the remote side moved
		// (BothChanged collapses to a push no-op when the local content
		// still matches base; the read-back in P2 will pick up the merge).
		touch(item.SnapshotFile.URL)
		return nil
	}

	var heads docmodel.Heads
	if entry.FileType == docmodel.FileTypeText {
		splice := minimalSplice(base.Text, localDoc.Text)
		heads, err = r.store.ChangeFileAt(item.SnapshotFile.URL, item.SnapshotFile.Head, splice)
	} else {
		heads, err = r.store.ChangeFileAt(item.SnapshotFile.URL, item.SnapshotFile.Head, docstore.BytesReplace{Bytes: data})
	}
	if err != nil {
		return err
	}
	touch(item.SnapshotFile.URL)

	updated := item.SnapshotFile
	updated.Head = heads
	snap.Files[item.Path] = updated
	r.maybeRecordContentHash(snap, item.Path, data)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}

// pushFileTypeChange allocates a new document for a path whose text/binary
// discipline changed since the base, orphaning the old document and pointing
// the parent at the new one.
func (r *Reconciler) pushFileTypeChange(item *planItem, base *docmodel.FileDoc, data []byte, snap *snapshot.Snapshot, touch func(docmodel.DocumentID), result *SyncResult) error {
	entry := *item.LocalEntry

	id, heads, err := r.store.CreateFile(docstore.FileCreate{
		Name:      baseName(item.Path),
		Extension: entry.Extension,
		MimeType:  entry.MimeType,
		Type:      entry.FileType,
	})
	if err != nil {
		return err
	}
	touch(id)

	heads, err = r.writeWholeContent(id, heads, entry.FileType, data)
	if err != nil {
		return err
	}

	if err := r.linkIntoParent(item.Path, id, docmodel.EntryKindFile, snap, touch); err != nil {
		return err
	}

	snap.Files[item.Path] = snapshot.FileEntry{URL: id, Head: heads, Extension: entry.Extension, MimeType: entry.MimeType}
	r.maybeRecordContentHash(snap, item.Path, data)
	result.FilesChanged++
	return r.persistSnapshot(snap)
}

func (r *Reconciler) writeWholeContent(id docmodel.DocumentID, heads docmodel.Heads, fileType docmodel.FileType, data []byte) (docmodel.Heads, error) {
	if fileType == docmodel.FileTypeText {
		return r.store.ChangeFileAt(id, heads, docstore.TextSplice{Position: 0, Delete: 0, Insert: []rune(string(data))})
	}
	return r.store.ChangeFileAt(id, heads, docstore.BytesReplace{Bytes: data})
}

// linkIntoParent adds an entry for (path, id) into path's parent directory,
// causally anchored against the parent's snapshot head, and records the
// parent's new head. The parent directory must already exist in the
// snapshot (directories are pushed before their children).
func (r *Reconciler) linkIntoParent(childPath string, id docmodel.DocumentID, kind docmodel.EntryKind, snap *snapshot.Snapshot, touch func(docmodel.DocumentID)) error {
	parent := parentPath(childPath)
	parentEntry, ok := snap.Directories[parent]
	if !ok {
		return &invariantError{message: "parent directory not tracked: " + parent}
	}
	heads, err := r.store.ChangeDirectoryAt(parentEntry.URL, parentEntry.Head, docstore.AddEntry{
		Entry: docmodel.DirectoryEntry{Name: baseName(childPath), Kind: kind, URL: id},
	})
	if err != nil {
		return err
	}
	touch(parentEntry.URL)
	parentEntry.Head = heads
	parentEntry.ChildNames = appendUnique(parentEntry.ChildNames, baseName(childPath))
	snap.Directories[parent] = parentEntry
	return nil
}

func (r *Reconciler) unlinkFromParent(childPath string, snap *snapshot.Snapshot, touch func(docmodel.DocumentID)) error {
	parent := parentPath(childPath)
	parentEntry, ok := snap.Directories[parent]
	if !ok {
		return &invariantError{message: "parent directory not tracked: " + parent}
	}
	heads, err := r.store.ChangeDirectoryAt(parentEntry.URL, parentEntry.Head, docstore.RemoveEntry{Name: baseName(childPath)})
	if err != nil {
		return err
	}
	touch(parentEntry.URL)
	parentEntry.Head = heads
	parentEntry.ChildNames = removeName(parentEntry.ChildNames, baseName(childPath))
	snap.Directories[parent] = parentEntry
	return nil
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func removeName(names []string, name string) []string {
	result := names[:0]
	for _, n := range names {
		if n != name {
			result = append(result, n)
		}
	}
	return result
}

func (r *Reconciler) maybeRecordContentHash(snap *snapshot.Snapshot, relPath string, data []byte) {
	if !r.cfg.IsArtifactPath(relPath) {
		return
	}
	entry := snap.Files[relPath]
	entry.ContentHash = hashBytes(data)
	snap.Files[relPath] = entry
}

// detectLocalMoves pairs LocalOnly/BothChanged file deletes against creates
// using size-ratio-prefiltered similarity scoring, accepting only the
// high-confidence (auto) tier for unattended execution: borderline pairs are
// left as independent delete+create, per the specification's guidance to
// never silently merge below the auto threshold.
func (r *Reconciler) detectLocalMoves(workable map[string]*planItem, snap *snapshot.Snapshot) []movedetect.Pair {
	var deleted, created []movedetect.Candidate
	for p, item := range workable {
		if item.Kind != kindFile {
			continue
		}
		if item.LocalEntry == nil && item.HasSnapshotFile {
			path := p
			url := item.SnapshotFile.URL
			head := item.SnapshotFile.Head
			deleted = append(deleted, movedetect.Candidate{
				Path: path,
				Size: 0,
				Content: func() ([]byte, error) {
					doc, err := r.store.ReadFileAt(url, head)
					if err != nil {
						return nil, err
					}
					return docBytes(doc), nil
				},
			})
		} else if item.LocalEntry != nil && !item.HasSnapshotFile {
			path := p
			created = append(created, movedetect.Candidate{
				Path: path,
				Size: item.LocalEntry.Size,
				Content: func() ([]byte, error) {
					return r.readLocalContent(path)
				},
			})
		}
	}
	if len(deleted) == 0 || len(created) == 0 {
		return nil
	}
	for i := range deleted {
		if content, err := deleted[i].Content(); err == nil {
			deleted[i].Size = int64(len(content))
		}
	}

	pairs, err := movedetect.Detect(deleted, created)
	if err != nil {
		return nil
	}
	var accepted []movedetect.Pair
	for _, pair := range pairs {
		if pair.Tier == movedetect.TierAuto {
			accepted = append(accepted, pair)
		}
	}
	return accepted
}

func docBytes(doc *docmodel.FileDoc) []byte {
	if doc == nil {
		return nil
	}
	if doc.Type == docmodel.FileTypeText {
		return []byte(string(doc.Text))
	}
	return doc.Bytes
}

// applyMove realizes a detected move: a rename within the same parent
// directory updates the entry name in place; a move across parents removes
// the entry from the old parent and adds it (preserving URL) to the new one.
func (r *Reconciler) applyMove(move movedetect.Pair, snap *snapshot.Snapshot, touch func(docmodel.DocumentID)) error {
	fileEntry, ok := snap.Files[move.DeletedPath]
	if !ok {
		return &invariantError{message: "move source not tracked: " + move.DeletedPath}
	}

	oldParent := parentPath(move.DeletedPath)
	newParent := parentPath(move.CreatedPath)

	if oldParent == newParent {
		parentEntry, ok := snap.Directories[oldParent]
		if !ok {
			return &invariantError{message: "parent directory not tracked: " + oldParent}
		}
		heads, err := r.store.ChangeDirectoryAt(parentEntry.URL, parentEntry.Head, docstore.RenameEntry{
			OldName: baseName(move.DeletedPath),
			NewName: baseName(move.CreatedPath),
		})
		if err != nil {
			return err
		}
		touch(parentEntry.URL)
		parentEntry.Head = heads
		parentEntry.ChildNames = appendUnique(removeName(parentEntry.ChildNames, baseName(move.DeletedPath)), baseName(move.CreatedPath))
		snap.Directories[oldParent] = parentEntry
	} else {
		if err := r.unlinkFromParent(move.DeletedPath, snap, touch); err != nil {
			return err
		}
		if err := r.linkIntoParent(move.CreatedPath, fileEntry.URL, docmodel.EntryKindFile, snap, touch); err != nil {
			return err
		}
	}

	delete(snap.Files, move.DeletedPath)
	snap.Files[move.CreatedPath] = fileEntry
	return r.persistSnapshot(snap)
}

type invariantError struct{ message string }

func (e *invariantError) Error() string { return e.message }

// isInvariantViolation reports whether err is fatal for the current run: per
// the error handling design, an invariant break aborts the remainder of the
// push phase rather than continuing to the next path.
func isInvariantViolation(err error) bool {
	_, ok := err.(*invariantError)
	return ok
}

func isRecoverableFSError(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err)
}
