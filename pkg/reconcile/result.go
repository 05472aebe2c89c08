package reconcile

import "os"

// ErrorKind classifies a SyncError against the specification's error-kinds
// table, so callers (notably the CLI) can map outcomes to distinct exit
// codes without re-deriving the classification from an error string.
type ErrorKind int

const (
	// KindTransientNetwork covers barrier timeouts: the simulated remote
	// peer did not acknowledge or stabilize in time. Already-committed
	// operations remain; the next sync resumes.
	KindTransientNetwork ErrorKind = iota
	// KindFilesystemPermission covers a path that could not be read or
	// written due to permissions.
	KindFilesystemPermission
	// KindFilesystemMissing covers a path that disappeared mid-sync.
	KindFilesystemMissing
	// KindStoreConflict covers a document that became unreachable from
	// root, or any other document-store-level inconsistency.
	KindStoreConflict
	// KindInvariantViolation covers a detected invariant break (e.g. a name
	// collision after a move) serious enough to abort the current run
	// before any partial parent-document mutation for that operation.
	KindInvariantViolation
)

// SyncError describes a single recoverable or fatal failure encountered
// during a sync run.
type SyncError struct {
	Path        string
	Op          string
	Kind        ErrorKind
	Recoverable bool
	Err         error
}

func (e *SyncError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// SyncResult summarizes the outcome of one P1+P2 cycle. Partial success is
// the norm: Success is true iff no fatal errors occurred; recoverable
// per-path errors are reported in Errors but do not flip it.
type SyncResult struct {
	Success            bool
	FilesChanged       int
	DirectoriesChanged int
	Errors             []SyncError
	Warnings           []string
}

func (r *SyncResult) addError(path, op string, recoverable bool, err error) {
	r.Errors = append(r.Errors, SyncError{Path: path, Op: op, Kind: classifyErrorKind(err), Recoverable: recoverable, Err: err})
	if !recoverable {
		r.Success = false
	}
}

func (r *SyncResult) warn(message string) {
	r.Warnings = append(r.Warnings, message)
}

// classifyErrorKind maps a raw error to the specification's error-kinds
// table. Invariant violations are identified by type; everything else falls
// back to the filesystem/store distinction isRecoverableFSError already
// draws, since that is the only other information callers have at hand.
func classifyErrorKind(err error) ErrorKind {
	if _, ok := err.(*invariantError); ok {
		return KindInvariantViolation
	}
	if os.IsPermission(err) {
		return KindFilesystemPermission
	}
	if os.IsNotExist(err) {
		return KindFilesystemMissing
	}
	return KindStoreConflict
}
