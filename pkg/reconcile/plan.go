package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/inkandswitch/pushwork/pkg/classify"
	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
	"github.com/inkandswitch/pushwork/pkg/scanner"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

type pathKind int

const (
	kindUnknown pathKind = iota
	kindFile
	kindDirectory
)

// remoteEntry is a single path's current remote document reference,
// discovered by walking the document tree from the root.
type remoteEntry struct {
	URL  docmodel.DocumentID
	Kind pathKind
}

// planItem is the per-path unit of classification and work-list planning.
type planItem struct {
	Path string
	Kind pathKind

	LocalEntry *scanner.Entry

	HasSnapshotFile bool
	SnapshotFile    snapshot.FileEntry
	HasSnapshotDir  bool
	SnapshotDir     snapshot.DirectoryEntry

	HasRemote bool
	Remote    remoteEntry

	Class classify.Class
}

// walkRemoteTree traverses the document tree from root, producing a flat map
// of relative path to remote document reference, mirroring what the Scanner
// does for the local tree.
func walkRemoteTree(store docstore.Store, root docmodel.DocumentID) (map[string]remoteEntry, error) {
	result := make(map[string]remoteEntry)

	var visit func(id docmodel.DocumentID, prefix string) error
	visit = func(id docmodel.DocumentID, prefix string) error {
		dir, _, err := store.ReadDirectory(id)
		if err != nil {
			return err
		}
		if dir == nil {
			return nil
		}
		for _, entry := range dir.Docs {
			childPath := entry.Name
			if prefix != "" {
				childPath = path.Join(prefix, entry.Name)
			}
			kind := kindFile
			if entry.Kind == docmodel.EntryKindFolder {
				kind = kindDirectory
			}
			result[childPath] = remoteEntry{URL: entry.URL, Kind: kind}
			if kind == kindDirectory {
				if err := visit(entry.URL, childPath); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := visit(root, ""); err != nil {
		return nil, err
	}
	return result, nil
}

// buildPlan merges local scan results, the snapshot, and the remote tree
// into one planItem per distinct path.
func buildPlan(local map[string]scanner.Entry, snap *snapshot.Snapshot, remote map[string]remoteEntry) []*planItem {
	items := make(map[string]*planItem)

	get := func(p string) *planItem {
		item, ok := items[p]
		if !ok {
			item = &planItem{Path: p}
			items[p] = item
		}
		return item
	}

	for p, entry := range local {
		entry := entry
		item := get(p)
		item.LocalEntry = &entry
		if entry.Kind == scanner.EntryDirectory {
			item.Kind = kindDirectory
		} else if entry.Kind == scanner.EntryFile {
			item.Kind = kindFile
		}
	}
	for p, entry := range snap.Files {
		item := get(p)
		item.HasSnapshotFile = true
		item.SnapshotFile = entry
		if item.Kind == kindUnknown {
			item.Kind = kindFile
		}
	}
	for p, entry := range snap.Directories {
		if p == "" {
			// The sync root itself is never scanned or listed remotely; it
			// is not a path to push or pull.
			continue
		}
		item := get(p)
		item.HasSnapshotDir = true
		item.SnapshotDir = entry
		if item.Kind == kindUnknown {
			item.Kind = kindDirectory
		}
	}
	for p, entry := range remote {
		item := get(p)
		item.HasRemote = true
		item.Remote = entry
		if item.Kind == kindUnknown {
			item.Kind = entry.Kind
		}
	}

	result := make([]*planItem, 0, len(items))
	for _, item := range items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// classifyItem computes the three-way classification inputs for a single
// path, reading local and historical-base content only where both sides of
// a comparison are actually present.
func classifyItem(rootPath string, item *planItem, store docstore.Store, cfg *config.Config) (classify.Inputs, error) {
	localPresent := item.LocalEntry != nil && item.LocalEntry.Kind != scanner.EntryUntracked
	basePresent := item.HasSnapshotFile || item.HasSnapshotDir
	remotePresent := item.HasRemote

	in := classify.Inputs{LocalPresent: localPresent, BasePresent: basePresent, RemotePresent: remotePresent}

	if item.Kind == kindDirectory {
		// Directories have no independent content beyond their children
		// (which are classified at their own paths), so only presence
		// against the base matters.
		in.LocalEqualsBase = basePresent
		in.RemoteEqualsBase = basePresent
		return in, nil
	}

	if !item.HasSnapshotFile {
		return in, nil
	}

	if localPresent && remotePresent && cfg.IsArtifactPath(item.Path) && item.SnapshotFile.ContentHash != "" {
		if skip, matched, err := artifactShortcut(rootPath, item, store); err != nil {
			return in, err
		} else if skip {
			in.LocalEqualsBase = matched
			in.RemoteEqualsBase = matched
			return in, nil
		}
	}

	var baseDoc *docmodel.FileDoc
	if localPresent || remotePresent {
		doc, err := store.ReadFileAt(item.SnapshotFile.URL, item.SnapshotFile.Head)
		if err != nil {
			return in, err
		}
		baseDoc = doc
	}

	if localPresent {
		localDoc, err := readLocalFileDoc(rootPath, item.Path, *item.LocalEntry)
		if err != nil {
			return in, err
		}
		in.LocalEqualsBase = localDoc.ContentEqual(baseDoc)
	}
	if remotePresent {
		remoteDoc, _, err := store.ReadFile(item.Remote.URL)
		if err != nil {
			return in, err
		}
		in.RemoteEqualsBase = remoteDoc.ContentEqual(baseDoc)
	}
	return in, nil
}

// artifactShortcut implements the artifact-file optimization: when a path
// lies under a configured artifact directory and the remote document's
// current heads still equal the snapshot's recorded head, comparing the
// on-disk content hash to the snapshot's recorded hash is sufficient to
// decide NoChange without folding the document or re-reading its content.
// skip is false (falling back to the general path) whenever the document
// has moved on, since the cached hash is meaningful only while the heads are
// unchanged.
func artifactShortcut(rootPath string, item *planItem, store docstore.Store) (skip bool, matched bool, err error) {
	currentHeads, err := store.Heads(item.Remote.URL)
	if err != nil {
		return false, false, err
	}
	if !currentHeads.Equal(item.SnapshotFile.Head) {
		return false, false, nil
	}
	data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(item.Path)))
	if err != nil {
		return false, false, err
	}
	sum := sha256.Sum256(data)
	return true, hex.EncodeToString(sum[:]) == item.SnapshotFile.ContentHash, nil
}

// readLocalFileDoc constructs an ephemeral FileDoc from the current on-disk
// content of a local file, purely for content-equality comparison; it is
// never persisted.
func readLocalFileDoc(rootPath, relPath string, entry scanner.Entry) (*docmodel.FileDoc, error) {
	data, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}
	doc := &docmodel.FileDoc{Type: entry.FileType}
	if entry.FileType == docmodel.FileTypeText {
		doc.Text = []rune(string(data))
	} else {
		doc.Bytes = data
	}
	return doc, nil
}
