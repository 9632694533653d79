// Package memstore is an in-memory docstore.Store with transactional
// semantics, used by tests and local development. A single store-wide mutex
// makes every transaction serializable, so ErrConflict is never produced
// here; the Firestore driver is where optimistic retries happen.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/velopreem/backend/internal/docstore"
)

// Store holds documents keyed by full document path.
type Store struct {
	mu   sync.Mutex
	docs map[string]map[string]any

	// FailWrite, when set, is consulted before each staged write. A non-nil
	// result aborts the surrounding transaction without applying anything.
	// Used by tests to exercise atomicity.
	FailWrite func(path string) error
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string]map[string]any)}
}

var _ docstore.Store = (*Store)(nil)

type write struct {
	path    string
	data    map[string]any // full doc for set/create, nil for update
	updates map[string]any
	create  bool
}

type memTx struct {
	s      *Store
	staged []write
}

func (t *memTx) Get(path string) (*docstore.Document, error) {
	data, ok := t.s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, docstore.ErrNotFound)
	}
	return &docstore.Document{ID: docID(path), Path: path, Data: copyMap(data)}, nil
}

func (t *memTx) GetAll(collectionPath string) ([]*docstore.Document, error) {
	return t.collect(collectionPath, "", nil, false)
}

func (t *memTx) GetAllWhere(collectionPath, field string, value any) ([]*docstore.Document, error) {
	return t.collect(collectionPath, field, value, true)
}

func (t *memTx) collect(collectionPath, field string, value any, filter bool) ([]*docstore.Document, error) {
	prefix := collectionPath + "/"
	var out []*docstore.Document
	for path, data := range t.s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if strings.ContainsRune(path[len(prefix):], '/') {
			continue // document of a nested collection
		}
		if filter && !valueEqual(getField(data, field), value) {
			continue
		}
		out = append(out, &docstore.Document{ID: docID(path), Path: path, Data: copyMap(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) Create(path string, data map[string]any) error {
	if err := t.failIfHooked(path); err != nil {
		return err
	}
	if _, ok := t.s.docs[path]; ok {
		return fmt.Errorf("%s: %w", path, docstore.ErrExists)
	}
	t.staged = append(t.staged, write{path: path, data: copyMap(data), create: true})
	return nil
}

func (t *memTx) Set(path string, data map[string]any) error {
	if err := t.failIfHooked(path); err != nil {
		return err
	}
	t.staged = append(t.staged, write{path: path, data: copyMap(data)})
	return nil
}

func (t *memTx) Update(path string, updates map[string]any) error {
	if err := t.failIfHooked(path); err != nil {
		return err
	}
	if _, ok := t.s.docs[path]; !ok {
		return fmt.Errorf("%s: %w", path, docstore.ErrNotFound)
	}
	t.staged = append(t.staged, write{path: path, updates: copyMap(updates)})
	return nil
}

func (t *memTx) failIfHooked(path string) error {
	if t.s.FailWrite == nil {
		return nil
	}
	return t.s.FailWrite(path)
}

// RunTransaction runs fn under the store lock and applies staged writes only
// if fn succeeds.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, w := range tx.staged {
		s.apply(w)
	}
	return nil
}

func (s *Store) apply(w write) {
	switch {
	case w.updates != nil:
		doc := s.docs[w.path]
		for k, v := range w.updates {
			setField(doc, k, v)
		}
	default:
		s.docs[w.path] = w.data
	}
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	var doc *docstore.Document
	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		var err error
		doc, err = tx.Get(path)
		return err
	})
	return doc, err
}

func (s *Store) GetAll(ctx context.Context, collectionPath string) ([]*docstore.Document, error) {
	var docs []*docstore.Document
	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		var err error
		docs, err = tx.GetAll(collectionPath)
		return err
	})
	return docs, err
}

func (s *Store) GetAllWhere(ctx context.Context, collectionPath, field string, value any) ([]*docstore.Document, error) {
	var docs []*docstore.Document
	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		var err error
		docs, err = tx.GetAllWhere(collectionPath, field, value)
		return err
	})
	return docs, err
}

func (s *Store) Create(ctx context.Context, path string, data map[string]any) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error { return tx.Create(path, data) })
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error { return tx.Set(path, data) })
}

func (s *Store) Update(ctx context.Context, path string, updates map[string]any) error {
	return s.RunTransaction(ctx, func(tx docstore.Tx) error { return tx.Update(path, updates) })
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func docID(path string) string {
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}

// setField writes a possibly dotted field path into nested maps, creating
// intermediate maps as needed.
func setField(doc map[string]any, field string, value any) {
	segs := strings.Split(field, ".")
	m := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}

// getField resolves a possibly dotted field path against nested maps.
func getField(doc map[string]any, field string) any {
	var cur any = doc
	for _, seg := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return copyMap(vv)
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

func valueEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}
