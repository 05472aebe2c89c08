// Package docstore implements the CRDT document store the rest of Pushwork
// treats as an external collaborator: document creation, content folding,
// and changeAt for causally anchored mutations. It is the concrete stand-in
// for a production Automerge binding and its wire transport (both of which
// are out of scope here), so the Sync Engine has something real to run and
// test against.
//
// Documents are represented as a DAG of content-addressed Change records.
// Folding a document replays every change reachable from a given set of
// heads in a deterministic order, so two peers that received the same
// changes (in any order, over any transport) compute bit-identical content.
// changeAt is implemented directly: a mutation is recorded as a change whose
// declared parents are the caller-supplied heads, not necessarily the
// document's current heads, which is what lets a write made without
// knowledge of a concurrent remote edit merge with that edit instead of
// clobbering it.
//
// What this package simplifies away, relative to a production CRDT: there is
// no real network transport (the "remote peer" is an in-process
// acknowledgement simulation, see boltstore.Store), no compression, and no
// binary wire encoding: all explicitly out of scope for the Sync Engine
// this repository implements.
package docstore
