package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorizedOrganizationMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// membership on the root organization covers the whole subtree
	for _, path := range []string{f.org.Path, f.series.Path, f.race.Path, f.contribution.Path} {
		ok, err := f.repo.IsAuthorized(ctx, organizer, path)
		require.NoError(t, err)
		assert.True(t, ok, path)
	}

	ok, err := f.repo.IsAuthorized(ctx, stranger, f.series.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	// and the stranger's own organization denies the organizer
	ok, err = f.repo.IsAuthorized(ctx, organizer, f.otherPreem.Path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthorizedUserSelfOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.repo.IsAuthorized(ctx, organizer, "users/"+organizer.UID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.IsAuthorized(ctx, stranger, "users/"+organizer.UID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthorizedMissingRootDenies(t *testing.T) {
	f := newFixture(t)

	ok, err := f.repo.IsAuthorized(context.Background(), organizer, "organizations/ghost/series/s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAuthorizedBadPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.IsAuthorized(context.Background(), organizer, "organizations//broken")
	assert.Error(t, err)
}
