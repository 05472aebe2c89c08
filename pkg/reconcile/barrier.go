package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
)

const (
	// uploadPollInterval is how often the upload barrier re-polls a touched
	// document's remote-acknowledged heads.
	uploadPollInterval = 25 * time.Millisecond
	// defaultUploadTimeout is the per-document wait for remote acknowledgement.
	defaultUploadTimeout = 60 * time.Second

	// stabilizationPollInterval is the interval between whole-tree heads
	// polls during Phase P2's stabilization wait.
	stabilizationPollInterval = 100 * time.Millisecond
	// stabilizationK is the number of consecutive unchanged polls required
	// before the tree is considered stable.
	stabilizationK = 3
)

// waitForUploadBarrier blocks until every touched document's current local
// heads equal the simulated remote peer's last-acknowledged heads, or until
// timeout. A timeout is not fatal: it is reported as a warning by the caller.
func waitForUploadBarrier(ctx context.Context, store docstore.Store, touched []docmodel.DocumentID, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	deadline := time.Now().Add(timeout)

	pending := make(map[docmodel.DocumentID]struct{}, len(touched))
	for _, id := range touched {
		pending[id] = struct{}{}
	}

	for len(pending) > 0 {
		for id := range pending {
			local, err := store.Heads(id)
			if err != nil {
				return fmt.Errorf("unable to read heads for %s: %w", id, err)
			}
			remote, ok := store.RemoteHeads(id)
			if ok && remote.Equal(local) {
				delete(pending, id)
			}
		}
		if len(pending) == 0 {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("upload barrier timed out with %d document(s) unacknowledged", len(pending))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uploadPollInterval):
		}
	}
	return nil
}

// stabilizationTimeout scales with tree size, per the specification: floor
// 10s, growing by 0.05s per reachable document.
func stabilizationTimeout(docCount int) time.Duration {
	scaled := 5*time.Second + time.Duration(float64(docCount)*0.05*float64(time.Second))
	if scaled < 10*time.Second {
		return 10 * time.Second
	}
	return scaled
}

// waitForStabilization blocks until the union of document heads reachable
// from root is unchanged across stabilizationK consecutive polls, or until
// timeout. A timeout is reported as a warning, not an error.
func waitForStabilization(ctx context.Context, store docstore.Store, root docmodel.DocumentID) error {
	reachable, err := store.AllReachable(root)
	if err != nil {
		return fmt.Errorf("unable to compute reachable documents: %w", err)
	}
	timeout := stabilizationTimeout(len(reachable))
	deadline := time.Now().Add(timeout)

	var previous string
	stable := 0
	for stable < stabilizationK {
		union, err := treeHeadsFingerprint(store, root)
		if err != nil {
			return err
		}
		if union == previous {
			stable++
		} else {
			stable = 1
			previous = union
		}
		if stable >= stabilizationK {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("tree stabilization timed out")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stabilizationPollInterval):
		}
	}
	return nil
}

// treeHeadsFingerprint computes a deterministic string summarizing the heads
// of every document reachable from root, used to detect whole-tree
// stabilization without re-walking document content on every poll.
func treeHeadsFingerprint(store docstore.Store, root docmodel.DocumentID) (string, error) {
	ids, err := store.AllReachable(root)
	if err != nil {
		return "", err
	}
	fingerprint := ""
	for _, id := range ids {
		heads, err := store.Heads(id)
		if err != nil {
			return "", err
		}
		fingerprint += string(id) + ":"
		for _, h := range heads.Sorted() {
			fingerprint += h.String()
		}
		fingerprint += "|"
	}
	return fingerprint, nil
}
