// Package datastore is the write and read path for the race-event document
// hierarchy. Its centerpiece is the cascading update engine: editing an
// entity rewrites the denormalized briefs on every document in its subtree
// inside a single transaction, so a brief can never go stale.
package datastore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/models"
)

// Identity is the authenticated caller, as established by the auth layer.
type Identity struct {
	UID   string
	Email string
}

// UserRef returns the caller's user document reference.
func (id Identity) UserRef() models.DocRef {
	return models.DocRef{ID: id.UID, Path: "users/" + id.UID}
}

// Repository executes all reads and writes against an injected document
// store. It holds no cache: every call sees a fresh snapshot.
type Repository struct {
	db     docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a repository on top of the given store.
func New(db docstore.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger, now: time.Now}
}

// authorize fails closed: any gate error is reported as ErrUnauthorized.
func (r *Repository) authorize(ctx context.Context, caller Identity, path string) error {
	ok, err := r.IsAuthorized(ctx, caller, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s may not write %s", ErrUnauthorized, caller.UID, path)
	}
	return nil
}

func zapPath(p string) zap.Field { return zap.String("path", p) }

// updateMetadata are the field writes stamped on every entity update.
func (r *Repository) updateMetadata(caller Identity) map[string]any {
	return map[string]any{
		"metadata.lastModified":   r.now().UTC(),
		"metadata.lastModifiedBy": caller.UserRef().Map(),
	}
}
