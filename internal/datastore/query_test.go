package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/paths"
)

func TestTypedGetters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org, err := f.repo.GetOrganization(ctx, f.org.Path)
	require.NoError(t, err)
	assert.Equal(t, f.org.Name, org.Name)
	require.Len(t, org.MemberRefs, 1)
	assert.Equal(t, organizer.UID, org.MemberRefs[0].ID)

	series, err := f.repo.GetSeries(ctx, f.series.Path)
	require.NoError(t, err)
	require.NotNil(t, series.StartDate)
	assert.Equal(t, seriesStart, *series.StartDate)
	assert.Equal(t, f.org.Name, series.OrganizationBrief.Name)
	assert.Equal(t, f.org.Path, series.OrganizationBrief.Path)

	race, err := f.repo.GetRace(ctx, f.race.Path)
	require.NoError(t, err)
	assert.Equal(t, 75, race.MaxRacers)

	preem, err := f.repo.GetPreem(ctx, f.preem.Path)
	require.NoError(t, err)
	assert.Equal(t, float64(25), preem.PrizePool)

	user, err := f.repo.GetUser(ctx, organizer.UID)
	require.NoError(t, err)
	assert.Equal(t, organizer.Email, user.Email)
}

func TestGetTypedWrongGroup(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.GetSeries(context.Background(), f.org.Path)
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
}

func TestGetUserByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.repo.GetUserByEmail(ctx, "Organizer@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, organizer.UID, u.ID)

	_, err = f.repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetOrganizationWithSeriesTree(t *testing.T) {
	f := newFixture(t)

	tree, err := f.repo.GetOrganizationWithSeries(context.Background(), f.org.Path)
	require.NoError(t, err)

	assert.Equal(t, f.org.ID, tree.Organization.ID)
	require.Len(t, tree.Series, 1)
	require.Len(t, tree.Series[0].Events, 1)
	require.Len(t, tree.Series[0].Events[0].Races, 1)
	race := tree.Series[0].Events[0].Races[0]
	assert.Equal(t, f.race.Name, race.Race.Name)
	require.Len(t, race.Preems, 1)
	require.Len(t, race.Preems[0].Contributions, 1)
	assert.Equal(t, "pi_fixture_1", race.Preems[0].Contributions[0].ID)
}

func TestListOrganizations(t *testing.T) {
	f := newFixture(t)

	orgs, err := f.repo.ListOrganizations(context.Background())
	require.NoError(t, err)
	assert.Len(t, orgs, 2)
}

func TestGetOrganizationForPath(t *testing.T) {
	f := newFixture(t)

	org, err := f.repo.GetOrganizationForPath(context.Background(), f.contribution.Path)
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, org.ID)
}

func TestGetOrganizationByStripeAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.repo.UpdateOrganizationStripeAccount(ctx, f.org.ID, "acct_find_me", nil, organizer)
	require.NoError(t, err)

	org, err := f.repo.GetOrganizationByStripeAccount(ctx, "acct_find_me")
	require.NoError(t, err)
	assert.Equal(t, f.org.ID, org.ID)

	_, err = f.repo.GetOrganizationByStripeAccount(ctx, "acct_unknown")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestListContributionsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.repo.ListContributionsByUser(ctx, f.preem.Path, stranger.UID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "pi_fixture_1", mine[0].ID)

	none, err := f.repo.ListContributionsByUser(ctx, f.preem.Path, organizer.UID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
