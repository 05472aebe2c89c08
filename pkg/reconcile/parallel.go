package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// readLocalContentsBounded reads every path's local content concurrently,
// bounded by the Reconciler's configured parallelism. This is the bounded
// parallel I/O the specification calls for: file reads are independent of
// each other, and the only shared mutable state is the two result maps,
// guarded by mu; the sequential mutation pass that follows consumes them.
func (r *Reconciler) readLocalContentsBounded(ctx context.Context, paths []string) (contents map[string][]byte, failures map[string]error) {
	contents = make(map[string][]byte, len(paths))
	failures = make(map[string]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range paths {
		p := p
		if err := r.limiter.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures[p] = err
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.limiter.Release(1)
			data, err := os.ReadFile(filepath.Join(r.rootPath, filepath.FromSlash(p)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[p] = err
				return
			}
			contents[p] = data
		}()
	}
	wg.Wait()
	return contents, failures
}
