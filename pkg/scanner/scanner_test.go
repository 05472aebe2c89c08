package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/ignore"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("unable to create parent directories: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("unable to write file: %v", err)
	}
}

func TestScanClassifiesTextAndBinary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "readme.txt"), []byte("hello world"))
	writeFile(t, filepath.Join(root, "image.bin"), []byte{0x00, 0x01, 0x02})

	s := New(root, nil, nil)
	entries, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	readme, ok := entries["readme.txt"]
	if !ok || readme.Kind != EntryFile || readme.FileType != docmodel.FileTypeText {
		t.Fatalf("expected readme.txt classified as text file, got %+v (present=%v)", readme, ok)
	}

	image, ok := entries["image.bin"]
	if !ok || image.Kind != EntryFile || image.FileType != docmodel.FileTypeBinary {
		t.Fatalf("expected image.bin classified as binary file, got %+v (present=%v)", image, ok)
	}
}

func TestScanRespectsExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), []byte("keep"))
	writeFile(t, filepath.Join(root, "build", "out.txt"), []byte("generated"))

	matcher, err := ignore.New([]string{"build/"})
	if err != nil {
		t.Fatalf("unable to build matcher: %v", err)
	}

	s := New(root, matcher, nil)
	entries, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if _, ok := entries["keep.txt"]; !ok {
		t.Fatal("expected keep.txt to be present")
	}
	if _, ok := entries["build/out.txt"]; ok {
		t.Fatal("expected build/out.txt to be excluded")
	}
	if _, ok := entries["build"]; ok {
		t.Fatal("expected build directory itself to be excluded")
	}
}

func TestScanSkipsControlDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".pushwork", "snapshot.json"), []byte("{}"))
	writeFile(t, filepath.Join(root, "doc.txt"), []byte("content"))

	s := New(root, nil, nil)
	entries, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	for path := range entries {
		if path == ".pushwork" || filepath.Dir(path) == ".pushwork" {
			t.Fatalf("expected control directory contents to be excluded, found %s", path)
		}
	}
	if _, ok := entries["doc.txt"]; !ok {
		t.Fatal("expected doc.txt to be present")
	}
}

func TestScanReportsSymlinksAsUntracked(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target.txt")
	writeFile(t, target, []byte("content"))

	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}

	s := New(root, nil, nil)
	entries, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	linkEntry, ok := entries["link.txt"]
	if !ok || linkEntry.Kind != EntryUntracked {
		t.Fatalf("expected link.txt classified as untracked, got %+v (present=%v)", linkEntry, ok)
	}
}

func TestScanClassifiesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "file.txt"), []byte("content"))

	s := New(root, nil, nil)
	entries, err := s.Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	sub, ok := entries["sub"]
	if !ok || sub.Kind != EntryDirectory {
		t.Fatalf("expected sub classified as directory, got %+v (present=%v)", sub, ok)
	}
}

func TestPathsByDepthOrdersShallowFirst(t *testing.T) {
	entries := map[string]Entry{
		"a/b/c.txt": {RelPath: "a/b/c.txt"},
		"a.txt":     {RelPath: "a.txt"},
		"a/b.txt":   {RelPath: "a/b.txt"},
	}

	ordered := PathsByDepth(entries)
	if ordered[0] != "a.txt" {
		t.Fatalf("expected shallowest path first, got %v", ordered)
	}
	if ordered[len(ordered)-1] != "a/b/c.txt" {
		t.Fatalf("expected deepest path last, got %v", ordered)
	}
}
