package filesystem

import (
	"os"
	"path/filepath"
)

const (
	// ControlDirectoryName is the name of the directory, rooted at a
	// synchronized tree, that holds Pushwork's local state: configuration,
	// the snapshot, and the document store's on-disk storage.
	ControlDirectoryName = ".pushwork"

	// ConfigurationFileName is the name of the configuration file inside the
	// control directory.
	ConfigurationFileName = "config"

	// SnapshotFileName is the name of the serialized snapshot file inside the
	// control directory.
	SnapshotFileName = "snapshot.json"

	// SnapshotBackupFileName is the name used for the previous snapshot when
	// a backup is retained across loads.
	SnapshotBackupFileName = "snapshot.json.bak"

	// DocumentStoreDirectoryName is the name of the subdirectory that holds
	// the opaque document-store storage.
	DocumentStoreDirectoryName = "automerge"
)

// ControlDirectory computes (and optionally creates) the control directory
// for the tree rooted at root.
func ControlDirectory(root string, create bool) (string, error) {
	result := filepath.Join(root, ControlDirectoryName)
	if create {
		if err := os.MkdirAll(result, 0700); err != nil {
			return "", err
		}
	}
	return result, nil
}

// ControlSubpath computes (and optionally creates) a path to a named
// component inside the control directory for the tree rooted at root.
func ControlSubpath(root string, create bool, components ...string) (string, error) {
	base, err := ControlDirectory(root, create)
	if err != nil {
		return "", err
	}
	result := filepath.Join(append([]string{base}, components...)...)
	if create {
		if err := os.MkdirAll(filepath.Dir(result), 0700); err != nil {
			return "", err
		}
	}
	return result, nil
}
