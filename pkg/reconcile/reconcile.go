// Package reconcile implements Component C4, the Reconciler: the two-phase
// push/pull engine that reads the Scanner's local tree, the SnapshotStore's
// recorded base, and the document store's remote tree, and drives all three
// toward agreement using causally anchored mutations.
package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/inkandswitch/pushwork/pkg/classify"
	"github.com/inkandswitch/pushwork/pkg/config"
	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
	"github.com/inkandswitch/pushwork/pkg/ignore"
	"github.com/inkandswitch/pushwork/pkg/logging"
	"github.com/inkandswitch/pushwork/pkg/scanner"
	"github.com/inkandswitch/pushwork/pkg/snapshot"
)

// Reconciler runs one P1 (push) + P2 (pull) cycle against a sync root.
type Reconciler struct {
	rootPath string
	store    docstore.Store
	snaps    *snapshot.Store
	cfg      *config.Config
	matcher  *ignore.Matcher
	logger   *logging.Logger
	limiter  *semaphore.Weighted

	uploadTimeout time.Duration

	// pendingContents caches local file reads performed by the bounded
	// parallel read pass at the start of pushPlan, consumed by the
	// sequential mutation loop that follows it.
	pendingContents map[string][]byte

	// DryRun, when true, classifies the planned work and reports its counts
	// in the SyncResult without mutating the document store, the snapshot, or
	// the filesystem.
	DryRun bool
}

// New constructs a Reconciler for the given sync root.
func New(rootPath string, store docstore.Store, snaps *snapshot.Store, cfg *config.Config, logger *logging.Logger) (*Reconciler, error) {
	matcher, err := cfg.IgnoreMatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to build ignore matcher: %w", err)
	}
	parallelism := int64(cfg.Parallelism)
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Reconciler{
		rootPath:      rootPath,
		store:         store,
		snaps:         snaps,
		cfg:           cfg,
		matcher:       matcher,
		logger:        logger,
		limiter:       semaphore.NewWeighted(parallelism),
		uploadTimeout: defaultUploadTimeout,
	}, nil
}

// SetParallelism replaces the bounded-I/O limiter with one sized for n
// concurrent operations, letting a caller (the CLI's --parallelism flag)
// override the configured value for a single invocation without re-reading
// or rewriting the persisted configuration.
func (r *Reconciler) SetParallelism(n int) {
	if n <= 0 {
		n = 1
	}
	r.limiter = semaphore.NewWeighted(int64(n))
}

// Sync runs one full P1+P2 cycle and returns its outcome. It never returns a
// non-nil error for ordinary sync failures; those are reported inside the
// SyncResult. A non-nil error return indicates the run could not even be
// attempted (e.g. the snapshot could not be loaded).
func (r *Reconciler) Sync(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{Success: true}

	snap, err := r.snaps.Load(r.rootPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load snapshot: %w", err)
	}
	snap = snap.Clone()
	if snap.RootDirectoryURL == "" {
		return nil, fmt.Errorf("sync root is not initialized: run init or clone first")
	}
	if _, ok := snap.Directories[""]; !ok {
		snap.Directories[""] = snapshot.DirectoryEntry{URL: snap.RootDirectoryURL}
	}

	items, err := r.plan(snap)
	if err != nil {
		return nil, fmt.Errorf("unable to build classification plan: %w", err)
	}

	if r.DryRun {
		r.summarizeDryRun(items, result)
		return result, nil
	}

	touched, err := r.pushPlan(ctx, items, snap, result)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		if e.Kind == KindInvariantViolation {
			// Fatal for the run: the snapshot already holds every operation
			// committed before the violation.
			return result, nil
		}
	}
	if len(touched) > 0 {
		if err := waitForUploadBarrier(ctx, r.store, dedupeDocIDs(touched), r.uploadTimeout); err != nil {
			result.warn(err.Error())
		}
	}

	if err := waitForStabilization(ctx, r.store, snap.RootDirectoryURL); err != nil {
		result.warn(err.Error())
	}

	if err := r.pullPlan(snap, result); err != nil {
		return nil, err
	}

	if err := r.persistSnapshot(snap); err != nil {
		return nil, fmt.Errorf("unable to persist final snapshot: %w", err)
	}

	return result, nil
}

// plan scans the local tree, walks the remote document tree, and classifies
// every path the union of local/base/remote sources names.
func (r *Reconciler) plan(snap *snapshot.Snapshot) ([]*planItem, error) {
	s := scanner.New(r.rootPath, r.matcher, r.logger)
	local, err := s.Scan()
	if err != nil {
		return nil, err
	}

	remote, err := walkRemoteTree(r.store, snap.RootDirectoryURL)
	if err != nil {
		return nil, err
	}

	items := buildPlan(local, snap, remote)
	for _, item := range items {
		in, err := classifyItem(r.rootPath, item, r.store, r.cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to classify %s: %w", item.Path, err)
		}
		item.Class = classify.Classify(in)
	}
	return items, nil
}

func (r *Reconciler) summarizeDryRun(items []*planItem, result *SyncResult) {
	for _, item := range items {
		switch item.Class {
		case classify.LocalOnly, classify.BothChanged, classify.RemoteOnly:
			if item.Kind == kindDirectory {
				result.DirectoriesChanged++
			} else {
				result.FilesChanged++
			}
		}
	}
}

func (r *Reconciler) persistSnapshot(snap *snapshot.Snapshot) error {
	snap.Timestamp = r.now()
	return r.snaps.Save(snap, false)
}

// now is overridable by tests that need deterministic snapshot timestamps.
var nowFunc = time.Now

func (r *Reconciler) now() time.Time {
	return nowFunc()
}

func dedupeDocIDs(ids []docmodel.DocumentID) []docmodel.DocumentID {
	seen := make(map[docmodel.DocumentID]struct{}, len(ids))
	result := make([]docmodel.DocumentID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
