// Package classify determines, for every path present in current-FS ∪
// snapshot ∪ current-docs, which of the Classifier's five change classes
// applies. Classification is entirely content-based: no mtimes are
// consulted.
package classify

// Class is the result of comparing a path's local, base, and remote content.
type Class int

const (
	// NoChange means local and remote both still agree with the snapshot's
	// recorded base content.
	NoChange Class = iota
	// LocalOnly means the filesystem has changed since the snapshot but the
	// remote document has not.
	LocalOnly
	// RemoteOnly means the remote document has changed since the snapshot
	// but the filesystem has not.
	RemoteOnly
	// BothChanged means both sides have diverged from the snapshot's base.
	BothChanged
	// Missing means the path is absent from both current sources and was
	// not present in the snapshot either (effectively "nothing to do").
	Missing
)

func (c Class) String() string {
	switch c {
	case NoChange:
		return "NoChange"
	case LocalOnly:
		return "LocalOnly"
	case RemoteOnly:
		return "RemoteOnly"
	case BothChanged:
		return "BothChanged"
	case Missing:
		return "Missing"
	default:
		return "Unknown"
	}
}

// Inputs is the three-way comparison basis for a single path: whether local,
// base (the snapshot's recorded content), and remote content are present,
// plus equality predicates comparing each present pair. Absent content on
// either side of a comparison is always treated as unequal, per the
// specification.
type Inputs struct {
	LocalPresent  bool
	BasePresent   bool
	RemotePresent bool

	// LocalEqualsBase and RemoteEqualsBase are only consulted when both
	// operands of the respective comparison are present.
	LocalEqualsBase  bool
	RemoteEqualsBase bool
}

// Classify applies the classification table to a single path's inputs.
func Classify(in Inputs) Class {
	if !in.LocalPresent && !in.BasePresent && !in.RemotePresent {
		return Missing
	}

	localChanged := !(in.LocalPresent && in.BasePresent && in.LocalEqualsBase)
	remoteChanged := !(in.RemotePresent && in.BasePresent && in.RemoteEqualsBase)

	switch {
	case !localChanged && !remoteChanged:
		return NoChange
	case localChanged && !remoteChanged:
		return LocalOnly
	case !localChanged && remoteChanged:
		return RemoteOnly
	default:
		return BothChanged
	}
}
