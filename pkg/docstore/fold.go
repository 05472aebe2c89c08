package docstore

import (
	"fmt"
	"sort"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
)

// FoldResult accumulates the result of replaying a document's change DAG.
// Exactly one of file/dir is populated, depending on the document's kind.
type FoldResult struct {
	file *docmodel.FileDoc
	dir  *docmodel.DirectoryDoc
}

// File returns the folded file content, or nil if the fold produced a
// directory (or no document-establishing op was ever applied).
func (f *FoldResult) File() *docmodel.FileDoc {
	return f.file
}

// Directory returns the folded directory content, or nil if the fold
// produced a file.
func (f *FoldResult) Directory() *docmodel.DirectoryDoc {
	return f.dir
}

// fold deterministically reduces the changes reachable from heads into a
// single document value. Traversal visits every ancestor of heads exactly
// once and applies them in an order that respects parent-before-child and
// breaks ties on (Counter, Actor): the same change DAG folded from any set
// of heads on any peer produces the same bytes, which is what makes the
// convergence property hold.
func Fold(changes map[docmodel.ChangeID]*Change, heads docmodel.Heads) (*FoldResult, error) {
	visited := make(map[docmodel.ChangeID]struct{})
	var order []*Change

	var visit func(id docmodel.ChangeID) error
	visit = func(id docmodel.ChangeID) error {
		if _, ok := visited[id]; ok {
			return nil
		}
		change, ok := changes[id]
		if !ok {
			return fmt.Errorf("change %s not found in store", id)
		}
		visited[id] = struct{}{}
		for _, parent := range change.Parents {
			if err := visit(parent); err != nil {
				return err
			}
		}
		order = append(order, change)
		return nil
	}

	for _, id := range heads.Sorted() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	// A DFS postorder over parents already yields a valid topological order,
	// but it is not a canonical one (it depends on heads iteration order, not
	// on the DAG alone). Stabilize it with a deterministic stable sort that
	// preserves the parent-before-child partial order: among changes whose
	// relative order DFS left ambiguous, break ties on (Counter, Actor, ID).
	position := make(map[docmodel.ChangeID]int, len(order))
	for i, c := range order {
		position[c.ID] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.Counter != b.Counter {
			return a.Counter < b.Counter
		}
		if a.Actor != b.Actor {
			return a.Actor < b.Actor
		}
		return a.ID.String() < b.ID.String()
	})
	// The stable sort above can reorder a child ahead of its parent if their
	// counters tie unexpectedly (they shouldn't, since a new change's counter
	// is the document's highest counter plus one and so exceeds every
	// parent's, but guard against malformed input from
	// a misbehaving peer rather than silently producing wrong content).
	seen := make(map[docmodel.ChangeID]struct{}, len(order))
	for _, c := range order {
		for _, parent := range c.Parents {
			if _, ok := seen[parent]; !ok {
				return nil, fmt.Errorf("change %s observed before parent %s in fold order", c.ID, parent)
			}
		}
		seen[c.ID] = struct{}{}
	}

	state := &FoldResult{}
	for _, c := range order {
		for _, op := range c.Ops {
			op.apply(state)
		}
	}
	return state, nil
}
