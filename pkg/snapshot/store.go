package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkandswitch/pushwork/pkg/filesystem"
	"github.com/inkandswitch/pushwork/pkg/logging"
)

// Store persists and loads a Snapshot atomically. It exposes only
// load/save/backup and does not interpret the snapshot's contents; that is
// the Reconciler's job, per the separation of concerns in the component
// design.
type Store struct {
	path   string
	logger *logging.Logger
}

// NewStore creates a Store backed by the given snapshot file path, typically
// <root>/.pushwork/snapshot.json (see pkg/filesystem.ControlSubpath).
func NewStore(path string, logger *logging.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the persisted snapshot. If no snapshot file exists yet (the
// pre-init state), it returns the empty snapshot for rootPath rather than an
// error.
func (s *Store) Load(rootPath string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(rootPath), nil
		}
		return nil, fmt.Errorf("unable to read snapshot file: %w", err)
	}

	result := &Snapshot{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("unable to decode snapshot: %w", err)
	}
	return result, nil
}

// Save persists the snapshot atomically via temp-file-plus-rename. If
// backupOnSave is true and a prior snapshot exists at this path, it is
// copied aside first so a corrupted write can be diagnosed or recovered
// from manually.
func (s *Store) Save(snap *Snapshot, backupOnSave bool) error {
	if backupOnSave {
		if err := s.backupExisting(); err != nil {
			s.logger.Warn(fmt.Errorf("unable to back up prior snapshot: %w", err))
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal snapshot: %w", err)
	}
	if err := filesystem.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}
	return nil
}

// backupPath is the sibling path used for the optional prior-snapshot
// backup copy.
func (s *Store) backupPath() string {
	return s.path + ".bak"
}

func (s *Store) backupExisting() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return filesystem.WriteFileAtomic(s.backupPath(), data, 0600)
}
