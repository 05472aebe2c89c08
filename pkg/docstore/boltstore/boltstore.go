// Package boltstore provides an embedded, disk-backed implementation of
// docstore.Store, persisting each document's change DAG in a BoltDB
// database under the control directory's automerge/ subdirectory.
package boltstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/boltdb/bolt"

	"github.com/inkandswitch/pushwork/pkg/docmodel"
	"github.com/inkandswitch/pushwork/pkg/docstore"
)

var (
	documentsBucket = []byte("documents")
	remoteBucket    = []byte("remote")

	kindKey  = []byte("kind")
	headsKey = []byte("heads")
)

const (
	kindFile byte = iota
	kindDirectory
)

// document is the in-memory representation of a single document's history.
// The database is the durable record; this is a read-through cache rebuilt
// on Open and kept current on every write.
type document struct {
	kind    byte
	changes map[docmodel.ChangeID]*docstore.Change
	heads   docmodel.Heads
	counter uint64
}

// Store is a BoltDB-backed docstore.Store. It additionally simulates the
// out-of-scope remote peer: after a short acknowledgement delay, a
// background goroutine copies each document's local heads into a separate
// "remote heads" record, which is what the Reconciler's upload barrier
// polls. This is the glue standing in for real peer-to-peer heads gossip.
type Store struct {
	mu       sync.Mutex
	db       *bolt.DB
	actor    string
	docs     map[docmodel.DocumentID]*document
	remote   map[docmodel.DocumentID]docmodel.Heads
	ackDelay time.Duration
}

// Open opens (creating if necessary) a BoltDB database at path and loads its
// existing documents into memory.
func Open(path string, actor string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open document store: %w", err)
	}

	s := &Store{
		db:       db,
		actor:    actor,
		docs:     make(map[docmodel.DocumentID]*document),
		remote:   make(map[docmodel.DocumentID]docmodel.Heads),
		ackDelay: 50 * time.Millisecond,
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	return s.db.View(func(tx *bolt.Tx) error {
		documents := tx.Bucket(documentsBucket)
		if documents == nil {
			return nil
		}
		return documents.ForEach(func(k, _ []byte) error {
			docBucket := documents.Bucket(k)
			if docBucket == nil {
				return nil
			}
			doc := &document{changes: make(map[docmodel.ChangeID]*docstore.Change)}
			if kindBytes := docBucket.Get(kindKey); len(kindBytes) == 1 {
				doc.kind = kindBytes[0]
			}
			if headBytes := docBucket.Get(headsKey); headBytes != nil {
				heads, err := decodeHeads(headBytes)
				if err != nil {
					return err
				}
				doc.heads = heads
			} else {
				doc.heads = docmodel.NewHeads()
			}
			if err := docBucket.ForEach(func(ck, cv []byte) error {
				if bytes.Equal(ck, kindKey) || bytes.Equal(ck, headsKey) {
					return nil
				}
				change, err := decodeChange(cv)
				if err != nil {
					return err
				}
				doc.changes[change.ID] = change
				if change.Counter > doc.counter {
					doc.counter = change.Counter
				}
				return nil
			}); err != nil {
				return err
			}
			s.docs[docmodel.DocumentID(k)] = doc

			if remoteBkt := tx.Bucket(remoteBucket); remoteBkt != nil {
				if rv := remoteBkt.Get(k); rv != nil {
					if heads, err := decodeHeads(rv); err == nil {
						s.remote[docmodel.DocumentID(k)] = heads
					}
				}
			}
			return nil
		})
	})
}

// CreateFile implements docstore.Store.
func (s *Store) CreateFile(create docstore.FileCreate) (docmodel.DocumentID, docmodel.Heads, error) {
	return s.createDocument(kindFile, create)
}

// CreateDirectory implements docstore.Store.
func (s *Store) CreateDirectory() (docmodel.DocumentID, docmodel.Heads, error) {
	return s.createDocument(kindDirectory, docstore.DirCreate{})
}

func (s *Store) createDocument(kind byte, initial docstore.Op) (docmodel.DocumentID, docmodel.Heads, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := docmodel.NewDocumentID()
	change := &docstore.Change{
		Parents: nil,
		Actor:   s.actor,
		Counter: 1,
		Ops:     []docstore.Op{initial},
	}
	change.ID = docmodel.ComputeChangeID(docmodel.NewHeads(), mustEncodeOps(change.Ops))

	doc := &document{
		kind:    kind,
		changes: map[docmodel.ChangeID]*docstore.Change{change.ID: change},
		heads:   docmodel.NewHeads(change.ID),
		counter: 1,
	}
	s.docs[id] = doc

	if err := s.persistDocument(id, doc, change); err != nil {
		return "", nil, err
	}
	s.scheduleAck(id)

	return id, doc.heads.Clone(), nil
}

// Heads implements docstore.Store.
func (s *Store) Heads(id docmodel.DocumentID) (docmodel.Heads, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("unknown document: %s", id)
	}
	return doc.heads.Clone(), nil
}

// ReadFile implements docstore.Store.
func (s *Store) ReadFile(id docmodel.DocumentID) (*docmodel.FileDoc, docmodel.Heads, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.kind != kindFile {
		return nil, nil, fmt.Errorf("unknown file document: %s", id)
	}
	state, err := docstore.Fold(doc.changes, doc.heads)
	if err != nil {
		return nil, nil, err
	}
	file := state.File()
	if file != nil {
		file.ID = id
	}
	return file, doc.heads.Clone(), nil
}

// ReadDirectory implements docstore.Store.
func (s *Store) ReadDirectory(id docmodel.DocumentID) (*docmodel.DirectoryDoc, docmodel.Heads, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.kind != kindDirectory {
		return nil, nil, fmt.Errorf("unknown directory document: %s", id)
	}
	state, err := docstore.Fold(doc.changes, doc.heads)
	if err != nil {
		return nil, nil, err
	}
	dir := state.Directory()
	if dir != nil {
		dir.ID = id
	}
	return dir, doc.heads.Clone(), nil
}

// ReadFileAt implements docstore.Store.
func (s *Store) ReadFileAt(id docmodel.DocumentID, at docmodel.Heads) (*docmodel.FileDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.kind != kindFile {
		return nil, fmt.Errorf("unknown file document: %s", id)
	}
	state, err := docstore.Fold(doc.changes, at)
	if err != nil {
		return nil, err
	}
	file := state.File()
	if file != nil {
		file.ID = id
	}
	return file, nil
}

// ReadDirectoryAt implements docstore.Store.
func (s *Store) ReadDirectoryAt(id docmodel.DocumentID, at docmodel.Heads) (*docmodel.DirectoryDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok || doc.kind != kindDirectory {
		return nil, fmt.Errorf("unknown directory document: %s", id)
	}
	state, err := docstore.Fold(doc.changes, at)
	if err != nil {
		return nil, err
	}
	dir := state.Directory()
	if dir != nil {
		dir.ID = id
	}
	return dir, nil
}

// ChangeFileAt implements docstore.Store.
func (s *Store) ChangeFileAt(id docmodel.DocumentID, at docmodel.Heads, ops ...docstore.Op) (docmodel.Heads, error) {
	return s.changeAt(id, kindFile, at, ops)
}

// ChangeDirectoryAt implements docstore.Store.
func (s *Store) ChangeDirectoryAt(id docmodel.DocumentID, at docmodel.Heads, ops ...docstore.Op) (docmodel.Heads, error) {
	return s.changeAt(id, kindDirectory, at, ops)
}

func (s *Store) changeAt(id docmodel.DocumentID, kind byte, at docmodel.Heads, ops []docstore.Op) (docmodel.Heads, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok || doc.kind != kind {
		return nil, fmt.Errorf("unknown document: %s", id)
	}
	for parent := range at {
		if _, ok := doc.changes[parent]; !ok {
			return nil, fmt.Errorf("change %s is not part of document %s's history", parent, id)
		}
	}

	counter := doc.counter + 1
	change := &docstore.Change{
		Parents: at.Sorted(),
		Actor:   s.actor,
		Counter: counter,
		Ops:     ops,
	}
	change.ID = docmodel.ComputeChangeID(at, mustEncodeOps(ops))

	doc.changes[change.ID] = change
	doc.counter = counter
	// The new change's parents are `at`, which may be a strict subset of the
	// document's current heads if a concurrent change landed first; the new
	// heads are the current heads with `at` replaced by the new change, so
	// concurrent branches both remain heads until a future fold/merge.
	newHeads := doc.heads.Clone()
	for parent := range at {
		delete(newHeads, parent)
	}
	newHeads[change.ID] = struct{}{}
	doc.heads = newHeads

	if err := s.persistDocument(id, doc, change); err != nil {
		return nil, err
	}
	s.scheduleAck(id)

	return doc.heads.Clone(), nil
}

// RemoteHeads implements docstore.Store.
func (s *Store) RemoteHeads(id docmodel.DocumentID) (docmodel.Heads, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	heads, ok := s.remote[id]
	if !ok {
		return nil, false
	}
	return heads.Clone(), true
}

// AllReachable implements docstore.Store.
func (s *Store) AllReachable(root docmodel.DocumentID) ([]docmodel.DocumentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visited := make(map[docmodel.DocumentID]struct{})
	var order []docmodel.DocumentID

	var visit func(id docmodel.DocumentID) error
	visit = func(id docmodel.DocumentID) error {
		if _, ok := visited[id]; ok {
			return nil
		}
		visited[id] = struct{}{}
		order = append(order, id)

		doc, ok := s.docs[id]
		if !ok {
			return fmt.Errorf("unknown document: %s", id)
		}
		if doc.kind != kindDirectory {
			return nil
		}
		state, err := docstore.Fold(doc.changes, doc.heads)
		if err != nil {
			return err
		}
		dir := state.Directory()
		if dir == nil {
			return nil
		}
		for _, entry := range dir.Docs {
			if err := visit(entry.URL); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}

// scheduleAck simulates asynchronous peer acknowledgement: after ackDelay,
// the document's heads as they are at that moment (including any change made
// since scheduling) are copied into the remote-heads record.
func (s *Store) scheduleAck(id docmodel.DocumentID) {
	go func() {
		time.Sleep(s.ackDelay)
		s.mu.Lock()
		defer s.mu.Unlock()
		doc, ok := s.docs[id]
		if !ok {
			return
		}
		heads := doc.heads.Clone()
		s.remote[id] = heads
		_ = s.db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists(remoteBucket)
			if err != nil {
				return err
			}
			return bucket.Put([]byte(id), encodeHeads(heads))
		})
	}()
}

func (s *Store) persistDocument(id docmodel.DocumentID, doc *document, change *docstore.Change) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		documents, err := tx.CreateBucketIfNotExists(documentsBucket)
		if err != nil {
			return err
		}
		docBucket, err := documents.CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return err
		}
		if err := docBucket.Put(kindKey, []byte{doc.kind}); err != nil {
			return err
		}
		if err := docBucket.Put(headsKey, encodeHeads(doc.heads)); err != nil {
			return err
		}
		encoded, err := encodeChange(change)
		if err != nil {
			return err
		}
		return docBucket.Put([]byte(change.ID.String()), encoded)
	})
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeHeads(h docmodel.Heads) []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(h.Sorted())
	return buf.Bytes()
}

func decodeHeads(data []byte) (docmodel.Heads, error) {
	var ids []docmodel.ChangeID
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ids); err != nil {
		return nil, err
	}
	return docmodel.NewHeads(ids...), nil
}

func encodeChange(c *docstore.Change) ([]byte, error) {
	return docstore.EncodeChange(c)
}

func decodeChange(data []byte) (*docstore.Change, error) {
	return docstore.DecodeChange(data)
}

func mustEncodeOps(ops []docstore.Op) []byte {
	data, err := docstore.EncodeOpsForHashing(ops)
	if err != nil {
		panic(err)
	}
	return data
}

var _ docstore.Store = (*Store)(nil)
