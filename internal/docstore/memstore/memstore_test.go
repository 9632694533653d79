package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/docstore"
)

func TestCreateGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Create(ctx, "organizations/org-1", map[string]any{"name": "Alpha"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "organizations/org-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", doc.ID)
	assert.Equal(t, "organizations/org-1", doc.Path)
	assert.Equal(t, "Alpha", doc.Data["name"])

	err = s.Create(ctx, "organizations/org-1", map[string]any{"name": "Beta"})
	assert.ErrorIs(t, err, docstore.ErrExists)

	_, err = s.Get(ctx, "organizations/missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetAllDirectChildrenOnly(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "organizations/o/series/b", map[string]any{"name": "B"}))
	require.NoError(t, s.Set(ctx, "organizations/o/series/a", map[string]any{"name": "A"}))
	require.NoError(t, s.Set(ctx, "organizations/o/series/a/events/e", map[string]any{"name": "nested"}))
	require.NoError(t, s.Set(ctx, "organizations/other/series/c", map[string]any{"name": "C"}))

	docs, err := s.GetAll(ctx, "organizations/o/series")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// sorted by id
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
}

func TestGetAllWhere(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "invites/i1", map[string]any{"email": "a@x.com", "status": "pending"}))
	require.NoError(t, s.Set(ctx, "invites/i2", map[string]any{"email": "b@x.com", "status": "pending"}))
	require.NoError(t, s.Set(ctx, "organizations/o1", map[string]any{
		"stripe": map[string]any{"connectAccountId": "acct_1"},
	}))

	docs, err := s.GetAllWhere(ctx, "invites", "email", "a@x.com")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "i1", docs[0].ID)

	// dotted field paths reach into nested maps
	docs, err = s.GetAllWhere(ctx, "organizations", "stripe.connectAccountId", "acct_1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "o1", docs[0].ID)

	docs, err = s.GetAllWhere(ctx, "invites", "email", "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUpdateDottedFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Set(ctx, "organizations/o", map[string]any{
		"name":     "Alpha",
		"metadata": map[string]any{"created": now},
	}))
	require.NoError(t, s.Update(ctx, "organizations/o", map[string]any{
		"name":                    "Beta",
		"metadata.lastModified":   now.Add(time.Hour),
		"stripe.connectAccountId": "acct_9",
	}))

	doc, err := s.Get(ctx, "organizations/o")
	require.NoError(t, err)
	assert.Equal(t, "Beta", doc.Data["name"])
	meta := doc.Data["metadata"].(map[string]any)
	assert.Equal(t, now, meta["created"])
	assert.Equal(t, now.Add(time.Hour), meta["lastModified"])
	stripe := doc.Data["stripe"].(map[string]any)
	assert.Equal(t, "acct_9", stripe["connectAccountId"])

	err = s.Update(ctx, "organizations/missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestTransactionAtomicity(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "organizations/o", map[string]any{"name": "Alpha"}))

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		require.NoError(t, tx.Update("organizations/o", map[string]any{"name": "Beta"}))
		require.NoError(t, tx.Set("organizations/o2", map[string]any{"name": "Gamma"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := s.Get(ctx, "organizations/o")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", doc.Data["name"], "failed transaction must not apply writes")
	assert.Equal(t, 1, s.Len())
}

func TestFailWriteHookAborts(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "organizations/o", map[string]any{"name": "Alpha"}))

	hookErr := errors.New("write rejected")
	s.FailWrite = func(path string) error {
		if path == "organizations/o2" {
			return hookErr
		}
		return nil
	}

	err := s.RunTransaction(ctx, func(tx docstore.Tx) error {
		if err := tx.Update("organizations/o", map[string]any{"name": "Beta"}); err != nil {
			return err
		}
		return tx.Set("organizations/o2", map[string]any{"name": "Gamma"})
	})
	assert.ErrorIs(t, err, hookErr)

	doc, err := s.Get(ctx, "organizations/o")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", doc.Data["name"])
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "organizations/o", map[string]any{
		"name":       "Alpha",
		"memberRefs": []any{map[string]any{"id": "u1"}},
	}))

	doc, err := s.Get(ctx, "organizations/o")
	require.NoError(t, err)
	doc.Data["name"] = "mutated"
	doc.Data["memberRefs"].([]any)[0].(map[string]any)["id"] = "mutated"

	doc2, err := s.Get(ctx, "organizations/o")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", doc2.Data["name"])
	assert.Equal(t, "u1", doc2.Data["memberRefs"].([]any)[0].(map[string]any)["id"])
}
