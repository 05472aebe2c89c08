package main

import (
	"path/filepath"
	"testing"
)

func TestIsControlDirectoryEvent(t *testing.T) {
	root := filepath.FromSlash("/home/user/project")
	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, ".pushwork"), true},
		{filepath.Join(root, ".pushwork", "snapshot.json"), true},
		{filepath.Join(root, ".pushwork", "automerge", "store.bolt"), true},
		{filepath.Join(root, "src", "main.go"), false},
		{root, false},
	}
	for _, c := range cases {
		if got := isControlDirectoryEvent(root, c.path); got != c.want {
			t.Errorf("isControlDirectoryEvent(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
