package datastore

import (
	"context"
	"errors"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/paths"
)

// IsAuthorized reports whether the caller may write the document at path.
// The decision rests entirely on the path's root document: membership in
// the owning organization, or ownership of the user document. A missing
// root denies; any store error is surfaced so callers can fail closed.
func (r *Repository) IsAuthorized(ctx context.Context, caller Identity, path string) (bool, error) {
	docPath, err := paths.AsDocPath(path)
	if err != nil {
		return false, err
	}
	root := paths.RootDoc(docPath)

	doc, err := r.db.Get(ctx, root)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			r.logger.Debug("authorization root missing", zapPath(root))
			return false, nil
		}
		return false, err
	}

	switch paths.CollectionGroup(root) {
	case "organizations":
		members, _ := doc.Data["memberRefs"].([]any)
		for _, m := range members {
			ref, _ := m.(map[string]any)
			if ref["id"] == caller.UID {
				return true, nil
			}
		}
		return false, nil
	case "users":
		return doc.Data["id"] == caller.UID, nil
	}
	return false, nil
}
