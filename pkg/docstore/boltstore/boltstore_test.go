package boltstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
)

func openTestStore(t *testing.T, actor string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "automerge.db")
	store, err := Open(path, actor)
	if err != nil {
		t.Fatalf("unable to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndReadFile(t *testing.T) {
	store := openTestStore(t, "peer-a")

	id, heads, err := store.CreateFile(docstore.FileCreate{
		Name: "test.txt",
		Type: docmodel.FileTypeText,
	})
	if err != nil {
		t.Fatalf("unable to create file: %v", err)
	}
	if len(heads) != 1 {
		t.Fatalf("expected a single initial head, got %d", len(heads))
	}

	newHeads, err := store.ChangeFileAt(id, heads, docstore.TextSplice{Insert: []rune("hello")})
	if err != nil {
		t.Fatalf("unable to change file: %v", err)
	}

	file, _, err := store.ReadFile(id)
	if err != nil {
		t.Fatalf("unable to read file: %v", err)
	}
	if string(file.Text) != "hello" {
		t.Fatalf("expected content %q, got %q", "hello", string(file.Text))
	}
	if newHeads.Equal(heads) {
		t.Fatal("expected heads to advance after a change")
	}
}

func TestConcurrentTextSplicesMerge(t *testing.T) {
	store := openTestStore(t, "peer-a")

	id, base, err := store.CreateFile(docstore.FileCreate{Type: docmodel.FileTypeText})
	if err != nil {
		t.Fatalf("unable to create file: %v", err)
	}
	base, err = store.ChangeFileAt(id, base, docstore.TextSplice{Insert: []rune("line one\nline two")})
	if err != nil {
		t.Fatalf("unable to seed content: %v", err)
	}

	// Two causally-anchored edits against the same base, simulating a local
	// edit and a concurrent remote edit neither side observed the other's.
	if _, err := store.ChangeFileAt(id, base, docstore.TextSplice{Position: 8, Insert: []rune(" A")}); err != nil {
		t.Fatalf("unable to apply first concurrent edit: %v", err)
	}
	if _, err := store.ChangeFileAt(id, base, docstore.TextSplice{Position: 18, Insert: []rune(" B")}); err != nil {
		t.Fatalf("unable to apply second concurrent edit: %v", err)
	}

	file, heads, err := store.ReadFile(id)
	if err != nil {
		t.Fatalf("unable to read file: %v", err)
	}
	if len(heads) != 2 {
		t.Fatalf("expected two divergent heads before a merging fold, got %d", len(heads))
	}
	// Both edits are reachable from the fold even though neither change knew
	// about the other; the Reconciler's role is to eventually record a
	// change whose parents unify the two branches back into one head.
	if !containsRune(file.Text, 'A') || !containsRune(file.Text, 'B') {
		t.Fatalf("expected fold to contain both concurrent insertions, got %q", string(file.Text))
	}
}

func containsRune(text []rune, r rune) bool {
	for _, c := range text {
		if c == r {
			return true
		}
	}
	return false
}

func TestDirectoryAddAndRename(t *testing.T) {
	store := openTestStore(t, "peer-a")

	rootID, rootHeads, err := store.CreateDirectory()
	if err != nil {
		t.Fatalf("unable to create root directory: %v", err)
	}
	fileID, _, err := store.CreateFile(docstore.FileCreate{Name: "original.txt", Type: docmodel.FileTypeText})
	if err != nil {
		t.Fatalf("unable to create file: %v", err)
	}

	rootHeads, err = store.ChangeDirectoryAt(rootID, rootHeads, docstore.AddEntry{
		Entry: docmodel.DirectoryEntry{Name: "original.txt", Kind: docmodel.EntryKindFile, URL: fileID},
	})
	if err != nil {
		t.Fatalf("unable to add entry: %v", err)
	}

	rootHeads, err = store.ChangeDirectoryAt(rootID, rootHeads, docstore.RenameEntry{
		OldName: "original.txt",
		NewName: "renamed.txt",
	})
	if err != nil {
		t.Fatalf("unable to rename entry: %v", err)
	}

	dir, _, err := store.ReadDirectory(rootID)
	if err != nil {
		t.Fatalf("unable to read directory: %v", err)
	}
	if len(dir.Docs) != 1 || dir.Docs[0].Name != "renamed.txt" || dir.Docs[0].URL != fileID {
		t.Fatalf("expected renamed entry preserving document id, got %+v", dir.Docs)
	}
	_ = rootHeads
}

func TestRemoteHeadsEventuallyAcknowledged(t *testing.T) {
	store := openTestStore(t, "peer-a")
	store.ackDelay = 5 * time.Millisecond

	id, heads, err := store.CreateFile(docstore.FileCreate{Type: docmodel.FileTypeText})
	if err != nil {
		t.Fatalf("unable to create file: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if remote, ok := store.RemoteHeads(id); ok && remote.Equal(heads) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for simulated remote acknowledgement")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAllReachable(t *testing.T) {
	store := openTestStore(t, "peer-a")

	rootID, rootHeads, err := store.CreateDirectory()
	if err != nil {
		t.Fatalf("unable to create root: %v", err)
	}
	childDirID, _, err := store.CreateDirectory()
	if err != nil {
		t.Fatalf("unable to create child directory: %v", err)
	}
	fileID, _, err := store.CreateFile(docstore.FileCreate{Name: "file.txt", Type: docmodel.FileTypeText})
	if err != nil {
		t.Fatalf("unable to create file: %v", err)
	}

	rootHeads, err = store.ChangeDirectoryAt(rootID, rootHeads, docstore.AddEntry{
		Entry: docmodel.DirectoryEntry{Name: "dir2", Kind: docmodel.EntryKindFolder, URL: childDirID},
	})
	if err != nil {
		t.Fatalf("unable to add subdirectory: %v", err)
	}
	childHeads, err := store.Heads(childDirID)
	if err != nil {
		t.Fatalf("unable to read child heads: %v", err)
	}
	if _, err := store.ChangeDirectoryAt(childDirID, childHeads, docstore.AddEntry{
		Entry: docmodel.DirectoryEntry{Name: "file.txt", Kind: docmodel.EntryKindFile, URL: fileID},
	}); err != nil {
		t.Fatalf("unable to add nested file: %v", err)
	}

	reachable, err := store.AllReachable(rootID)
	if err != nil {
		t.Fatalf("unable to compute reachable set: %v", err)
	}
	if len(reachable) != 3 {
		t.Fatalf("expected root, subdirectory, and file to be reachable, got %d: %v", len(reachable), reachable)
	}
	_ = rootHeads
}
