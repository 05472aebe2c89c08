package docstore

import "github.com/inkandswitch/pushwork/pkg/docmodel"

// Store is the CRDT document store interface the Reconciler and Scanner
// depend on. It stands in for the real Automerge binding and wire transport
// that the core specification places out of scope: document create/find,
// heads, and changeAt for causally anchored mutations.
type Store interface {
	// CreateFile allocates a new file document and returns its id and
	// initial heads.
	CreateFile(create FileCreate) (docmodel.DocumentID, docmodel.Heads, error)
	// CreateDirectory allocates a new, empty directory document.
	CreateDirectory() (docmodel.DocumentID, docmodel.Heads, error)

	// Heads reports a document's current version.
	Heads(id docmodel.DocumentID) (docmodel.Heads, error)
	// ReadFile folds and returns a file document's current content.
	ReadFile(id docmodel.DocumentID) (*docmodel.FileDoc, docmodel.Heads, error)
	// ReadDirectory folds and returns a directory document's current entries.
	ReadDirectory(id docmodel.DocumentID) (*docmodel.DirectoryDoc, docmodel.Heads, error)

	// ReadFileAt folds and returns a file document as of a specific, possibly
	// historical, set of heads; the mechanism the Classifier uses to compare
	// current local content against the snapshot's recorded base without a
	// separately persisted copy of that base content.
	ReadFileAt(id docmodel.DocumentID, at docmodel.Heads) (*docmodel.FileDoc, error)
	// ReadDirectoryAt is ReadFileAt for directory documents.
	ReadDirectoryAt(id docmodel.DocumentID, at docmodel.Heads) (*docmodel.DirectoryDoc, error)

	// ChangeFileAt applies ops to the file document as of the given heads
	// (not necessarily the document's current heads at call time), recording
	// a new change whose declared parents are exactly `at`. This is
	// changeAt(heads, mutation): concurrent edits merge at the next fold
	// rather than one overwriting the other.
	ChangeFileAt(id docmodel.DocumentID, at docmodel.Heads, ops ...Op) (docmodel.Heads, error)
	// ChangeDirectoryAt is ChangeFileAt for directory documents.
	ChangeDirectoryAt(id docmodel.DocumentID, at docmodel.Heads, ops ...Op) (docmodel.Heads, error)

	// RemoteHeads reports the last heads acknowledged by the simulated
	// remote peer for a document, and whether the peer has seen it at all.
	// The Reconciler's upload barrier polls this.
	RemoteHeads(id docmodel.DocumentID) (docmodel.Heads, bool)

	// AllReachable returns every document id transitively reachable from
	// root via DirectoryDoc entries, used by the stabilization barrier to
	// compute the whole-tree heads union.
	AllReachable(root docmodel.DocumentID) ([]docmodel.DocumentID, error)

	// Close releases the store's underlying resources.
	Close() error
}
