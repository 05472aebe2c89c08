package filesystem

import (
	"io"
	"os"
	"sort"
)

// Rename moves oldpath to newpath. It first attempts a direct rename (atomic
// on any single filesystem) and, if that fails because the paths span
// devices, falls back to a copy-and-remove sequence. The fallback is not
// atomic, but cross-device moves cannot be made atomic without filesystem
// support that this package does not assume.
func Rename(oldpath, newpath string) error {
	if err := os.Rename(oldpath, newpath); err == nil {
		return nil
	} else if !isCrossDeviceError(err) {
		return err
	}
	if err := copyFile(oldpath, newpath); err != nil {
		return err
	}
	return os.Remove(oldpath)
}

// copyFile copies the file at source to destination, preserving permissions.
func copyFile(source, destination string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DirectoryContentsByPath reads the contents of the directory at the
// specified path and returns them sorted by name for deterministic
// traversal order.
func DirectoryContentsByPath(path string) ([]os.FileInfo, error) {
	directory, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer directory.Close()
	contents, err := directory.Readdir(0)
	if err != nil {
		return nil, err
	}
	sort.Slice(contents, func(i, j int) bool {
		return contents[i].Name() < contents[j].Name()
	})
	return contents, nil
}
