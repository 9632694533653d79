// Package firestoredb implements docstore.Store on Cloud Firestore. The
// hierarchy's path scheme maps directly onto Firestore document and
// collection references; transactions rely on Firestore's optimistic
// concurrency and built-in retries.
package firestoredb

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/velopreem/backend/internal/docstore"
)

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
	logger *zap.Logger
}

// New connects to Firestore for the given project. With
// FIRESTORE_EMULATOR_HOST set, the client talks to the emulator instead.
func New(ctx context.Context, projectID string, logger *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	logger.Info("firestore client connected", zap.String("project", projectID))
	return &Store{client: client, logger: logger}, nil
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		return nil, mapErr(path, err)
	}
	return snapDoc(path, snap), nil
}

func (s *Store) GetAll(ctx context.Context, collectionPath string) ([]*docstore.Document, error) {
	snaps, err := s.client.Collection(collectionPath).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(collectionPath, err)
	}
	return snapDocs(collectionPath, snaps), nil
}

func (s *Store) GetAllWhere(ctx context.Context, collectionPath, field string, value any) ([]*docstore.Document, error) {
	q := s.client.Collection(collectionPath).Where(field, "==", value)
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(collectionPath, err)
	}
	return snapDocs(collectionPath, snaps), nil
}

func (s *Store) Create(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Create(ctx, data)
	return mapErr(path, err)
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Set(ctx, data)
	return mapErr(path, err)
}

func (s *Store) Update(ctx context.Context, path string, updates map[string]any) error {
	_, err := s.client.Doc(path).Update(ctx, toUpdates(updates))
	return mapErr(path, err)
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(&fsTx{client: s.client, tx: tx})
	})
	return mapErr("transaction", err)
}

func (s *Store) Close() error { return s.client.Close() }

type fsTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *fsTx) Get(path string) (*docstore.Document, error) {
	snap, err := t.tx.Get(t.client.Doc(path))
	if err != nil {
		return nil, mapErr(path, err)
	}
	return snapDoc(path, snap), nil
}

func (t *fsTx) GetAll(collectionPath string) ([]*docstore.Document, error) {
	snaps, err := t.tx.Documents(t.client.Collection(collectionPath)).GetAll()
	if err != nil {
		return nil, mapErr(collectionPath, err)
	}
	return snapDocs(collectionPath, snaps), nil
}

func (t *fsTx) GetAllWhere(collectionPath, field string, value any) ([]*docstore.Document, error) {
	q := t.client.Collection(collectionPath).Where(field, "==", value)
	snaps, err := t.tx.Documents(q).GetAll()
	if err != nil {
		return nil, mapErr(collectionPath, err)
	}
	return snapDocs(collectionPath, snaps), nil
}

func (t *fsTx) Create(path string, data map[string]any) error {
	return mapErr(path, t.tx.Create(t.client.Doc(path), data))
}

func (t *fsTx) Set(path string, data map[string]any) error {
	return mapErr(path, t.tx.Set(t.client.Doc(path), data))
}

func (t *fsTx) Update(path string, updates map[string]any) error {
	return mapErr(path, t.tx.Update(t.client.Doc(path), toUpdates(updates)))
}

func snapDoc(path string, snap *firestore.DocumentSnapshot) *docstore.Document {
	return &docstore.Document{ID: snap.Ref.ID, Path: path, Data: snap.Data()}
}

func snapDocs(collectionPath string, snaps []*firestore.DocumentSnapshot) []*docstore.Document {
	out := make([]*docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapDoc(collectionPath+"/"+snap.Ref.ID, snap))
	}
	return out
}

// toUpdates converts a field map into Firestore updates in a stable order.
func toUpdates(m map[string]any) []firestore.Update {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		out = append(out, firestore.Update{Path: k, Value: m[k]})
	}
	return out
}

func mapErr(path string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", path, docstore.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", path, docstore.ErrExists)
	case codes.Aborted:
		return fmt.Errorf("%s: %w", path, docstore.ErrConflict)
	}
	return err
}
