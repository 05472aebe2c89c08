// Package snapshot defines the sole local record of "what we knew after the
// last successful sync" and its persistence to .pushwork/snapshot.json.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
)

// FileEntry records what the Reconciler knew about a single file path as of
// the last successful operation touching it.
type FileEntry struct {
	// URL is the file's document id.
	URL docmodel.DocumentID
	// Head is the document's heads at the moment of the last successful
	// push/pull for this path (the anchor for both causality and change
	// detection).
	Head docmodel.Heads
	// Extension and MimeType mirror the document's static identity fields,
	// cached here so the Scanner and Classifier don't need a document read
	// just to compare them.
	Extension string
	MimeType  string
	// ContentHash is populated only for paths under a configured artifact
	// directory, enabling Phase P2 to skip a remote read when the on-disk
	// hash still matches and the document's heads are unchanged.
	ContentHash string `json:"ContentHash,omitempty"`
}

// DirectoryEntry records what the Reconciler knew about a single directory
// path as of the last successful operation touching it.
type DirectoryEntry struct {
	URL        docmodel.DocumentID
	Head       docmodel.Heads
	ChildNames []string
}

// Snapshot is the sole local record of "what we knew after the last
// successful sync." It contains no filesystem mtimes and no content hashes
// beyond the artifact-file optimization; `Head` is the only anchor used for
// both causality and change detection.
type Snapshot struct {
	Timestamp        time.Time
	RootPath         string
	RootDirectoryURL docmodel.DocumentID
	Files            map[string]FileEntry
	Directories      map[string]DirectoryEntry
}

// Empty returns the pre-init snapshot: no root, no entries.
func Empty(rootPath string) *Snapshot {
	return &Snapshot{
		RootPath:    rootPath,
		Files:       make(map[string]FileEntry),
		Directories: make(map[string]DirectoryEntry),
	}
}

// Clone returns a deep-enough copy of the snapshot for safe incremental
// mutation: the Reconciler owns this copy exclusively for the duration of a
// sync run and persists it after each successful per-path operation.
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		Timestamp:        s.Timestamp,
		RootPath:         s.RootPath,
		RootDirectoryURL: s.RootDirectoryURL,
		Files:            make(map[string]FileEntry, len(s.Files)),
		Directories:      make(map[string]DirectoryEntry, len(s.Directories)),
	}
	for path, entry := range s.Files {
		entry.Head = entry.Head.Clone()
		clone.Files[path] = entry
	}
	for path, entry := range s.Directories {
		entry.Head = entry.Head.Clone()
		entry.ChildNames = append([]string(nil), entry.ChildNames...)
		clone.Directories[path] = entry
	}
	return clone
}

// HasPath reports whether path is tracked as either a file or a directory.
func (s *Snapshot) HasPath(path string) bool {
	if _, ok := s.Files[path]; ok {
		return true
	}
	_, ok := s.Directories[path]
	return ok
}

// --- JSON wire format -------------------------------------------------
//
// snapshot.json encodes the Files and Directories maps as arrays of
// {"Path": ..., "Entry": ...} objects rather than as JSON objects keyed by
// path, and not as two-element [key, value] arrays. The pairs are written in
// Go map iteration order, so their order in the file is not stable from one
// save to the next.

type filePair struct {
	Path  string
	Entry FileEntry
}

type directoryPair struct {
	Path  string
	Entry DirectoryEntry
}

type wireSnapshot struct {
	Timestamp        time.Time
	RootPath         string
	RootDirectoryURL docmodel.DocumentID
	Files            []filePair
	Directories      []directoryPair
}

// MarshalJSON implements json.Marshaler using the array-of-pairs map
// encoding required by the on-disk format.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	wire := wireSnapshot{
		Timestamp:        s.Timestamp,
		RootPath:         s.RootPath,
		RootDirectoryURL: s.RootDirectoryURL,
		Files:            make([]filePair, 0, len(s.Files)),
		Directories:      make([]directoryPair, 0, len(s.Directories)),
	}
	for path, entry := range s.Files {
		wire.Files = append(wire.Files, filePair{Path: path, Entry: entry})
	}
	for path, entry := range s.Directories {
		wire.Directories = append(wire.Directories, directoryPair{Path: path, Entry: entry})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler for the array-of-pairs format.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var wire wireSnapshot
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Timestamp = wire.Timestamp
	s.RootPath = wire.RootPath
	s.RootDirectoryURL = wire.RootDirectoryURL
	s.Files = make(map[string]FileEntry, len(wire.Files))
	for _, pair := range wire.Files {
		s.Files[pair.Path] = pair.Entry
	}
	s.Directories = make(map[string]DirectoryEntry, len(wire.Directories))
	for _, pair := range wire.Directories {
		s.Directories[pair.Path] = pair.Entry
	}
	return nil
}
