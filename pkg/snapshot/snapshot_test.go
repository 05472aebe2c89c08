package snapshot

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
)

func TestSnapshotJSONRoundTrip(t *testing.T) {
	original := Empty("/home/user/project")
	original.RootDirectoryURL = docmodel.NewDocumentID()
	original.Files["a.txt"] = FileEntry{
		URL:       docmodel.NewDocumentID(),
		Head:      docmodel.NewHeads(docmodel.ComputeChangeID(nil, []byte("a"))),
		Extension: ".txt",
		MimeType:  "text/plain",
	}
	original.Directories["dir"] = DirectoryEntry{
		URL:        docmodel.NewDocumentID(),
		Head:       docmodel.NewHeads(docmodel.ComputeChangeID(nil, []byte("dir"))),
		ChildNames: []string{"a.txt"},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("unable to marshal snapshot: %v", err)
	}

	restored := &Snapshot{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unable to unmarshal snapshot: %v", err)
	}

	if restored.RootPath != original.RootPath {
		t.Error("root path did not round-trip")
	}
	if restored.RootDirectoryURL != original.RootDirectoryURL {
		t.Error("root directory url did not round-trip")
	}
	entry, ok := restored.Files["a.txt"]
	if !ok {
		t.Fatal("expected a.txt entry to round-trip")
	}
	if !entry.Head.Equal(original.Files["a.txt"].Head) {
		t.Error("file head did not round-trip")
	}
}

func TestSnapshotJSONEncodesMapsAsPairArrays(t *testing.T) {
	original := Empty("/root")
	original.Files["a.txt"] = FileEntry{URL: docmodel.NewDocumentID()}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("unable to marshal snapshot: %v", err)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unable to unmarshal into generic map: %v", err)
	}
	files, ok := generic["Files"].([]interface{})
	if !ok {
		t.Fatalf("expected Files to be encoded as an array, got %T", generic["Files"])
	}
	if len(files) != 1 {
		t.Fatalf("expected one file pair, got %d", len(files))
	}
}

func TestStoreLoadMissingReturnsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "snapshot.json"), nil)
	snap, err := store.Load("/root")
	if err != nil {
		t.Fatalf("unable to load missing snapshot: %v", err)
	}
	if len(snap.Files) != 0 || len(snap.Directories) != 0 {
		t.Fatal("expected empty snapshot for missing file")
	}
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewStore(path, nil)

	original := Empty("/root")
	original.Files["a.txt"] = FileEntry{URL: docmodel.NewDocumentID()}
	if err := store.Save(original, true); err != nil {
		t.Fatalf("unable to save snapshot: %v", err)
	}

	loaded, err := store.Load("/root")
	if err != nil {
		t.Fatalf("unable to load snapshot: %v", err)
	}
	if _, ok := loaded.Files["a.txt"]; !ok {
		t.Fatal("expected saved entry to be present after load")
	}

	// A second save with backupOnSave should not fail even though a prior
	// snapshot now exists at the target path.
	if err := store.Save(original, true); err != nil {
		t.Fatalf("unable to save snapshot a second time: %v", err)
	}
}
