// Package scanner implements Component C1: it walks the local tree rooted
// at a sync root and classifies every entry as a directory, a text file, a
// binary file, or untracked (symlinks and other non-regular content), honor
// ing exclude patterns along the way. It never reads full file content;
// content reads are the Reconciler's job and happen only where a decision
// requires them.
package scanner

import (
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/filesystem"
	"github.com/inkandswitch/pushwork/pkg/ignore"
	"github.com/inkandswitch/pushwork/pkg/logging"
)

// EntryKind identifies what kind of filesystem content an Entry represents.
type EntryKind int

const (
	// EntryFile is a regular file; consult Entry.FileType for text/binary.
	EntryFile EntryKind = iota
	// EntryDirectory is a directory.
	EntryDirectory
	// EntryUntracked is content the Sync Engine does not materialize as a
	// document: symlinks and other non-regular files. It is still reported
	// so that status/diff output can surface it, per the resolved handling
	// of the specification's open question on symlinks.
	EntryUntracked
)

// sniffSize is the number of leading bytes read to distinguish text from
// binary content.
const sniffSize = 8 * 1024

// Entry describes a single scanned filesystem path.
type Entry struct {
	RelPath     string
	Kind        EntryKind
	FileType    docmodel.FileType
	Size        int64
	Permissions uint32
	Extension   string
	MimeType    string
}

// Scanner walks a sync root and produces a flat set of entries, honoring the
// configured exclude patterns.
type Scanner struct {
	root    string
	matcher *ignore.Matcher
	logger  *logging.Logger
}

// New creates a Scanner rooted at root. matcher may be nil, in which case
// nothing is excluded beyond the control directory.
func New(root string, matcher *ignore.Matcher, logger *logging.Logger) *Scanner {
	return &Scanner{root: root, matcher: matcher, logger: logger}
}

// Scan walks the tree and returns every non-excluded entry, keyed by its
// path relative to the sync root (using forward slashes regardless of
// platform, so snapshot and document paths are portable).
func (s *Scanner) Scan() (map[string]Entry, error) {
	entries := make(map[string]Entry)

	err := filesystem.Walk(s.root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn(walkErr)
			return nil
		}
		if path == s.root {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		// macOS's filesystem returns decomposed (NFD) Unicode names for paths
		// with accented characters; normalize to NFC so the same logical name
		// hashes and compares identically across platforms.
		relPath = norm.NFC.String(relPath)

		if relPath == filesystem.ControlDirectoryName || strings.HasPrefix(relPath, filesystem.ControlDirectoryName+"/") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if s.matcher.Ignored(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry, err := s.classify(path, relPath, info)
		if err != nil {
			s.logger.Warn(err)
			return nil
		}
		entries[relPath] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *Scanner) classify(path, relPath string, info os.FileInfo) (Entry, error) {
	mode := info.Mode()
	perm := uint32(mode.Perm())

	if info.IsDir() {
		return Entry{RelPath: relPath, Kind: EntryDirectory, Permissions: perm}, nil
	}

	if mode&os.ModeSymlink != 0 || !mode.IsRegular() {
		return Entry{RelPath: relPath, Kind: EntryUntracked, Permissions: perm}, nil
	}

	fileType, err := sniffFileType(path)
	if err != nil {
		return Entry{}, err
	}

	extension := filepath.Ext(relPath)
	return Entry{
		RelPath:     relPath,
		Kind:        EntryFile,
		FileType:    fileType,
		Size:        info.Size(),
		Permissions: perm,
		Extension:   extension,
		MimeType:    mimeTypeFor(extension),
	}, nil
}

// sniffFileType classifies a file as text or binary by reading up to
// sniffSize leading bytes: a NUL byte anywhere in that prefix marks the
// file binary.
func sniffFileType(path string) (docmodel.FileType, error) {
	file, err := os.Open(path)
	if err != nil {
		return docmodel.FileTypeBinary, err
	}
	defer file.Close()

	buffer := make([]byte, sniffSize)
	n, err := file.Read(buffer)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return docmodel.FileTypeBinary, err
	}

	for _, b := range buffer[:n] {
		if b == 0 {
			return docmodel.FileTypeBinary, nil
		}
	}
	return docmodel.FileTypeText, nil
}

func mimeTypeFor(extension string) string {
	if mimeType := mime.TypeByExtension(extension); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

// SortedPaths returns the entries' relative paths in a deterministic order,
// directories sorted alongside files by lexicographic path; callers that
// need directory-before-child ordering should prefer PathsByDepth.
func SortedPaths(entries map[string]Entry) []string {
	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// PathsByDepth returns paths sorted so that shallower paths (fewer path
// separators) precede deeper ones, which is the order creates/materializes
// must be applied in; reverse it for deletes/removals.
func PathsByDepth(entries map[string]Entry) []string {
	paths := SortedPaths(entries)
	sort.SliceStable(paths, func(i, j int) bool {
		return strings.Count(paths[i], "/") < strings.Count(paths[j], "/")
	})
	return paths
}
