// Package docmodel defines the CRDT document tree shape that Pushwork
// synchronizes against: directory documents, file documents, and the
// identifiers and version markers ("heads") used to address and causally
// anchor edits to them.
package docmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// FileType identifies the content discipline of a FileDoc.
type FileType int

const (
	// FileTypeText indicates content stored as a collaborative text CRDT.
	FileTypeText FileType = iota
	// FileTypeBinary indicates content stored as an opaque byte sequence.
	FileTypeBinary
	// FileTypeDirectory indicates a DirectoryDoc rather than a FileDoc. It
	// appears in classification contexts where file and directory entries
	// are compared uniformly.
	FileTypeDirectory
)

// String renders the file type for logging and status output.
func (t FileType) String() string {
	switch t {
	case FileTypeText:
		return "text"
	case FileTypeBinary:
		return "binary"
	case FileTypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// EntryKind identifies what a DirectoryDoc entry points to.
type EntryKind int

const (
	EntryKindFile EntryKind = iota
	EntryKindFolder
)

// MarshalText implements encoding.TextMarshaler.
func (k EntryKind) MarshalText() ([]byte, error) {
	switch k {
	case EntryKindFile:
		return []byte("file"), nil
	case EntryKindFolder:
		return []byte("folder"), nil
	default:
		return nil, fmt.Errorf("unknown entry kind: %d", k)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EntryKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file":
		*k = EntryKindFile
	case "folder":
		*k = EntryKindFolder
	default:
		return fmt.Errorf("unknown entry kind: %s", text)
	}
	return nil
}

// DocumentID is an opaque, globally unique identifier for a document in the
// store. It doubles as the "share URL" exchanged between peers when it names
// a tree root.
type DocumentID string

// NewDocumentID allocates a fresh, random document identifier.
func NewDocumentID() DocumentID {
	return DocumentID("pushwork://" + uuid.New().String())
}

// Valid reports whether the identifier is syntactically well-formed.
func (id DocumentID) Valid() bool {
	const prefix = "pushwork://"
	if len(id) <= len(prefix) || string(id[:len(prefix)]) != prefix {
		return false
	}
	_, err := uuid.Parse(string(id[len(prefix):]))
	return err == nil
}

// ChangeID is a content-addressed identifier for a single change record,
// computed as the SHA-256 digest of its causal parents and payload. Two
// changes with identical parents and payload collapse to the same id, which
// is what lets independently-computed folds agree bit-for-bit.
type ChangeID [sha256.Size]byte

// String renders the change id as hex, matching how the pack's examples
// render content hashes in logs and status output.
func (id ChangeID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler, used both directly for JSON
// serialization and so ChangeID can serve as a JSON map key (the encoding/json
// package requires map keys to be strings, integers, or TextMarshalers).
func (id ChangeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ChangeID) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid change id: %w", err)
	}
	if len(decoded) != len(id) {
		return fmt.Errorf("invalid change id length: %d", len(decoded))
	}
	copy(id[:], decoded)
	return nil
}

// ComputeChangeID derives a ChangeID from a change's parents and payload.
func ComputeChangeID(parents Heads, payload []byte) ChangeID {
	h := sha256.New()
	for _, p := range parents.Sorted() {
		h.Write(p[:])
	}
	h.Write(payload)
	var id ChangeID
	copy(id[:], h.Sum(nil))
	return id
}

// Heads is the set of latest version identifiers for a document. Equality of
// two Heads values (as sorted sequences) means identical document state.
type Heads map[ChangeID]struct{}

// NewHeads constructs a Heads set from the given change ids.
func NewHeads(ids ...ChangeID) Heads {
	h := make(Heads, len(ids))
	for _, id := range ids {
		h[id] = struct{}{}
	}
	return h
}

// Sorted returns the heads as a deterministically ordered slice.
func (h Heads) Sorted() []ChangeID {
	result := make([]ChangeID, 0, len(h))
	for id := range h {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}

// Equal reports whether two Heads sets contain exactly the same change ids.
// This is the basis for both the upload barrier and the stabilization
// barrier: both reduce to a Heads equality check.
func (h Heads) Equal(other Heads) bool {
	if len(h) != len(other) {
		return false
	}
	for id := range h {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the heads set.
func (h Heads) Clone() Heads {
	result := make(Heads, len(h))
	for id := range h {
		result[id] = struct{}{}
	}
	return result
}

// DirectoryEntry is a single child reference within a DirectoryDoc.
type DirectoryEntry struct {
	// Name is the child's name within the directory. Name uniqueness within
	// a directory is an invariant enforced by Store.CreateDirectory/AddEntry.
	Name string
	// Kind identifies whether the child is a file or a folder.
	Kind EntryKind
	// URL is the document id of the child.
	URL DocumentID
}

// DirectoryDoc is the CRDT document type backing a directory. Docs is an
// ordered slice (insertion order, for stable `ls` output) keyed by entry
// name: adding an entry replaces any existing entry with the same name, and
// when concurrent changes add or remove the same name, the change applied
// later in fold order wins.
type DirectoryDoc struct {
	ID   DocumentID
	Docs []DirectoryEntry
}

// EnsureValid checks the directory-doc invariants: no duplicate names, and
// no name mapping to both a file and folder entry.
func (d *DirectoryDoc) EnsureValid() error {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Docs))
	for _, entry := range d.Docs {
		if entry.Name == "" {
			return errors.New("directory entry with empty name")
		}
		if _, ok := seen[entry.Name]; ok {
			return fmt.Errorf("duplicate directory entry name: %s", entry.Name)
		}
		seen[entry.Name] = struct{}{}
	}
	return nil
}

// IndexOf returns the index of the entry with the given name, or -1.
func (d *DirectoryDoc) IndexOf(name string) int {
	for i, entry := range d.Docs {
		if entry.Name == name {
			return i
		}
	}
	return -1
}

// FileMetadata carries the non-content attributes of a FileDoc.
type FileMetadata struct {
	// Permissions holds the POSIX permission bits. Per the classifier's
	// design, permissions are tracked and materialized but never drive a
	// ChangeClass decision.
	Permissions uint32
}

// FileDoc is the CRDT document type backing a file. Content is either Text
// (a sequence of runes edited by position-based character splices) or Bytes
// (a whole-value replace target for binary content).
type FileDoc struct {
	ID        DocumentID
	Name      string
	Extension string
	MimeType  string
	Type      FileType
	Text      []rune
	Bytes     []byte
	Metadata  FileMetadata
}

// ContentEqual reports whether two file contents are equal under the file's
// type discipline, per the classifier's content-equality rule. Differing
// types are never equal, which is what forces a type change to allocate a
// new document rather than mutate the old one.
func (f *FileDoc) ContentEqual(other *FileDoc) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Type != other.Type {
		return false
	}
	switch f.Type {
	case FileTypeText:
		return string(f.Text) == string(other.Text)
	default:
		return bytesEqual(f.Bytes, other.Bytes)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
