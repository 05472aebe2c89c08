package docmodel

import "testing"

func TestHeadsEqual(t *testing.T) {
	a := NewHeads(ComputeChangeID(nil, []byte("x")), ComputeChangeID(nil, []byte("y")))
	b := NewHeads(ComputeChangeID(nil, []byte("y")), ComputeChangeID(nil, []byte("x")))
	if !a.Equal(b) {
		t.Fatal("expected equal heads regardless of insertion order")
	}
	c := NewHeads(ComputeChangeID(nil, []byte("x")))
	if a.Equal(c) {
		t.Fatal("expected unequal heads for different sets")
	}
}

func TestComputeChangeIDDeterministic(t *testing.T) {
	parents := NewHeads(ComputeChangeID(nil, []byte("base")))
	id1 := ComputeChangeID(parents, []byte("payload"))
	id2 := ComputeChangeID(parents, []byte("payload"))
	if id1 != id2 {
		t.Fatal("expected identical change ids for identical parents and payload")
	}
}

func TestDocumentIDValid(t *testing.T) {
	id := NewDocumentID()
	if !id.Valid() {
		t.Fatalf("expected freshly generated document id to be valid: %s", id)
	}
	if DocumentID("not-a-url").Valid() {
		t.Fatal("expected malformed document id to be invalid")
	}
}

func TestDirectoryDocEnsureValid(t *testing.T) {
	doc := &DirectoryDoc{
		Docs: []DirectoryEntry{
			{Name: "a.txt", Kind: EntryKindFile, URL: NewDocumentID()},
			{Name: "a.txt", Kind: EntryKindFolder, URL: NewDocumentID()},
		},
	}
	if err := doc.EnsureValid(); err == nil {
		t.Fatal("expected error for duplicate entry name")
	}
}

func TestFileDocContentEqual(t *testing.T) {
	a := &FileDoc{Type: FileTypeText, Text: []rune("hello")}
	b := &FileDoc{Type: FileTypeText, Text: []rune("hello")}
	c := &FileDoc{Type: FileTypeBinary, Bytes: []byte("hello")}
	if !a.ContentEqual(b) {
		t.Fatal("expected equal text content to compare equal")
	}
	if a.ContentEqual(c) {
		t.Fatal("expected differing types to never compare equal")
	}
}
