package docstore

import (
	"bytes"
	"encoding/gob"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
)

// Op is a single serializable mutation applied to a document. Ops are the
// payload of a Change; folding a document replays its ops in causal order.
type Op interface {
	// apply mutates the in-progress fold state in place.
	apply(fold *FoldResult)
}

func init() {
	gob.Register(FileCreate{})
	gob.Register(TextSplice{})
	gob.Register(BytesReplace{})
	gob.Register(SetMetadata{})
	gob.Register(DirCreate{})
	gob.Register(AddEntry{})
	gob.Register(RemoveEntry{})
	gob.Register(RenameEntry{})
}

// FileCreate establishes a file document's static identity. It is always the
// first op in a file document's history.
type FileCreate struct {
	Name      string
	Extension string
	MimeType  string
	Type      docmodel.FileType
}

func (o FileCreate) apply(f *FoldResult) {
	f.file = &docmodel.FileDoc{
		Name:      o.Name,
		Extension: o.Extension,
		MimeType:  o.MimeType,
		Type:      o.Type,
	}
}

// TextSplice performs a character-level insert/delete at a rune position in
// text content; a causally anchored text update is expressed as one. The
// position applies to the text as folded so far and is not adjusted for
// concurrent splices folded before it.
type TextSplice struct {
	Position int
	Delete   int
	Insert   []rune
}

func (o TextSplice) apply(f *FoldResult) {
	if f.file == nil {
		return
	}
	text := f.file.Text
	pos := clamp(o.Position, 0, len(text))
	del := clamp(o.Delete, 0, len(text)-pos)
	merged := make([]rune, 0, len(text)-del+len(o.Insert))
	merged = append(merged, text[:pos]...)
	merged = append(merged, o.Insert...)
	merged = append(merged, text[pos+del:]...)
	f.file.Text = merged
}

// BytesReplace replaces binary content wholesale; binary content has no
// sub-value splice operation.
type BytesReplace struct {
	Bytes []byte
}

func (o BytesReplace) apply(f *FoldResult) {
	if f.file == nil {
		return
	}
	f.file.Bytes = append([]byte(nil), o.Bytes...)
}

// SetMetadata updates non-content file metadata (currently permission bits).
type SetMetadata struct {
	Permissions uint32
}

func (o SetMetadata) apply(f *FoldResult) {
	if f.file == nil {
		return
	}
	f.file.Metadata.Permissions = o.Permissions
}

// DirCreate establishes a directory document's existence. It is always the
// first op in a directory document's history.
type DirCreate struct{}

func (o DirCreate) apply(f *FoldResult) {
	f.dir = &docmodel.DirectoryDoc{}
}

// AddEntry inserts an entry into a directory's entry set, replacing any
// existing entry with the same name.
type AddEntry struct {
	Entry docmodel.DirectoryEntry
}

func (o AddEntry) apply(f *FoldResult) {
	if f.dir == nil {
		return
	}
	if idx := f.dir.IndexOf(o.Entry.Name); idx >= 0 {
		f.dir.Docs[idx] = o.Entry
		return
	}
	f.dir.Docs = append(f.dir.Docs, o.Entry)
}

// RemoveEntry removes a named entry from a directory's entry set.
type RemoveEntry struct {
	Name string
}

func (o RemoveEntry) apply(f *FoldResult) {
	if f.dir == nil {
		return
	}
	if idx := f.dir.IndexOf(o.Name); idx >= 0 {
		f.dir.Docs = append(f.dir.Docs[:idx], f.dir.Docs[idx+1:]...)
	}
}

// RenameEntry changes an entry's name in place, preserving its URL. This is
// how a detected move is realized without allocating a new FileDoc.
type RenameEntry struct {
	OldName string
	NewName string
}

func (o RenameEntry) apply(f *FoldResult) {
	if f.dir == nil {
		return
	}
	if idx := f.dir.IndexOf(o.OldName); idx >= 0 {
		f.dir.Docs[idx].Name = o.NewName
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Change is a single content-addressed node in a document's change DAG.
type Change struct {
	ID      docmodel.ChangeID
	Parents []docmodel.ChangeID
	Actor   string
	Counter uint64
	Ops     []Op
}

// encodeOps gob-encodes a change's op list, used both for storage (via
// EncodeChange) and for content-addressing a change's id.
func encodeOps(ops []Op) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ops); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
