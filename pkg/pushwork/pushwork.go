// Package pushwork holds process-wide constants and identifiers shared
// across the rest of the codebase.
package pushwork

import "os"

const (
	// Version is the current Pushwork release version.
	Version = "0.1.0"

	// SnapshotFormatVersion identifies the on-disk snapshot schema. It must
	// be incremented whenever the Snapshot struct changes shape in a way
	// that isn't backward compatible.
	SnapshotFormatVersion = 1

	// DocumentSchemaVersion identifies the document-tree shape (DirectoryDoc
	// and FileDoc fields). It must be incremented alongside changes to the
	// core/docmodel types.
	DocumentSchemaVersion = 1
)

// DebugEnabled controls whether verbose debug logging is enabled. It is set
// automatically based on the PUSHWORK_DEBUG environment variable.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("PUSHWORK_DEBUG") == "1"
}
