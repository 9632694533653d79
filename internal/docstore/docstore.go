// Package docstore defines the minimal document-store surface the
// application needs: point reads, collection reads, equality queries, and
// writes, both directly and inside a transaction. Production runs against
// Cloud Firestore (firestoredb); tests and local development inject the
// in-memory implementation (memstore).
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned by Create when the document already exists.
	ErrExists = errors.New("document already exists")
	// ErrConflict is returned when a transaction could not commit after the
	// store's own retry policy was exhausted.
	ErrConflict = errors.New("transaction conflict")
)

// Document is a stored document. Data values are plain Go types; nested
// documents are map[string]any and timestamps are time.Time.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// Tx is the read/write surface inside a transaction. All reads must be
// issued before the first write; the store commits atomically.
type Tx interface {
	Get(path string) (*Document, error)
	GetAll(collectionPath string) ([]*Document, error)
	GetAllWhere(collectionPath, field string, value any) ([]*Document, error)
	Create(path string, data map[string]any) error
	Set(path string, data map[string]any) error
	// Update merges the given fields into an existing document. Keys may be
	// dotted paths ("metadata.lastModified") addressing nested fields.
	Update(path string, updates map[string]any) error
}

// Store is the top-level client handle.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	GetAll(ctx context.Context, collectionPath string) ([]*Document, error)
	GetAllWhere(ctx context.Context, collectionPath, field string, value any) ([]*Document, error)
	Create(ctx context.Context, path string, data map[string]any) error
	Set(ctx context.Context, path string, data map[string]any) error
	Update(ctx context.Context, path string, updates map[string]any) error

	// RunTransaction executes fn atomically. If fn returns an error no
	// staged write is applied. The implementation retries on contention up
	// to its own policy and surfaces ErrConflict when retries are exhausted.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
