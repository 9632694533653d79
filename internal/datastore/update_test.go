package datastore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

func briefAt(t *testing.T, data map[string]any, fields ...string) map[string]any {
	t.Helper()
	cur := data
	for _, f := range fields {
		next, ok := cur[f].(map[string]any)
		require.True(t, ok, "missing brief field %s", f)
		cur = next
	}
	return cur
}

func TestUpdateOrganizationCascadesToWholeSubtree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	applied, err := f.repo.UpdateOrganization(ctx, f.org.Path, OrganizationUpdate{
		Name: strPtr("Mega Sprinkles Racing"),
	}, organizer)
	require.NoError(t, err)

	// root + series + event + race + preem + contribution
	assert.Len(t, applied, 6)
	assert.Equal(t, f.org.Path, applied[0].Path)

	org := f.get(t, f.org.Path)
	assert.Equal(t, "Mega Sprinkles Racing", org["name"])

	series := f.get(t, f.series.Path)
	assert.Equal(t, "Mega Sprinkles Racing", briefAt(t, series, "organizationBrief")["name"])

	event := f.get(t, f.event.Path)
	assert.Equal(t, "Mega Sprinkles Racing",
		briefAt(t, event, "seriesBrief", "organizationBrief")["name"])

	race := f.get(t, f.race.Path)
	assert.Equal(t, "Mega Sprinkles Racing",
		briefAt(t, race, "eventBrief", "seriesBrief", "organizationBrief")["name"])

	preem := f.get(t, f.preem.Path)
	assert.Equal(t, "Mega Sprinkles Racing",
		briefAt(t, preem, "raceBrief", "eventBrief", "seriesBrief", "organizationBrief")["name"])

	contribution := f.get(t, f.contribution.Path)
	assert.Equal(t, "Mega Sprinkles Racing",
		briefAt(t, contribution, "preemBrief", "raceBrief", "eventBrief", "seriesBrief", "organizationBrief")["name"])
}

func TestUpdateOrganizationSameNameSkipsCascade(t *testing.T) {
	f := newFixture(t)

	applied, err := f.repo.UpdateOrganization(context.Background(), f.org.Path, OrganizationUpdate{
		Name:        strPtr(f.org.Name),
		Description: strPtr("new words"),
	}, organizer)
	require.NoError(t, err)

	// identical name is not a change; only the root doc is written
	require.Len(t, applied, 1)
	assert.Equal(t, f.org.Path, applied[0].Path)
	assert.Equal(t, "new words", f.get(t, f.org.Path)["description"])
}

func TestUpdateOrganizationLeavesSiblingsAlone(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpdateOrganization(context.Background(), f.org.Path, OrganizationUpdate{
		Name: strPtr("Renamed"),
	}, organizer)
	require.NoError(t, err)

	otherPreem := f.get(t, f.otherPreem.Path)
	assert.Equal(t, "Rival Racing",
		briefAt(t, otherPreem, "raceBrief", "eventBrief", "seriesBrief", "organizationBrief")["name"])
}

func TestUpdateSeriesDatesCascade(t *testing.T) {
	f := newFixture(t)
	newStart := seriesStart.AddDate(0, 0, 14)

	applied, err := f.repo.UpdateSeries(context.Background(), f.series.Path, SeriesUpdate{
		StartDate: timePtr(newStart),
	}, organizer)
	require.NoError(t, err)

	// series + event + race + preem + contribution
	assert.Len(t, applied, 5)

	event := f.get(t, f.event.Path)
	sb := briefAt(t, event, "seriesBrief")
	assert.Equal(t, newStart, sb["startDate"])
	assert.Equal(t, seriesEnd, sb["endDate"])
	// the organization chain rides along unchanged
	assert.Equal(t, f.org.Name, briefAt(t, event, "seriesBrief", "organizationBrief")["name"])
}

func TestUpdatePreemCascadesToContributionsOnly(t *testing.T) {
	f := newFixture(t)

	applied, err := f.repo.UpdatePreem(context.Background(), f.preem.Path, PreemUpdate{
		Name: strPtr("Final Lap Leader"),
	}, organizer)
	require.NoError(t, err)

	assert.Len(t, applied, 2)
	contribution := f.get(t, f.contribution.Path)
	pb := briefAt(t, contribution, "preemBrief")
	assert.Equal(t, "Final Lap Leader", pb["name"])
	// preem briefs carry no dates
	_, hasStart := pb["startDate"]
	assert.False(t, hasStart)
}

func TestUpdateUnchangedDescendantBriefsSurvive(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpdateEvent(context.Background(), f.event.Path, EventUpdate{
		Name: strPtr("Giro Night Edition"),
	}, organizer)
	require.NoError(t, err)

	race := f.get(t, f.race.Path)
	eb := briefAt(t, race, "eventBrief")
	assert.Equal(t, "Giro Night Edition", eb["name"])
	assert.Equal(t, eventStart, eb["startDate"])

	// the race's own brief inside the preem re-embeds the new event chain
	preem := f.get(t, f.preem.Path)
	rb := briefAt(t, preem, "raceBrief")
	assert.Equal(t, f.race.Name, rb["name"])
	assert.Equal(t, "Giro Night Edition", briefAt(t, preem, "raceBrief", "eventBrief")["name"])
}

func TestUpdateMetadataStamped(t *testing.T) {
	f := newFixture(t)
	before := f.get(t, f.org.Path)["metadata"].(map[string]any)

	_, err := f.repo.UpdateOrganization(context.Background(), f.org.Path, OrganizationUpdate{
		Description: strPtr("fresh"),
	}, organizer)
	require.NoError(t, err)

	after := f.get(t, f.org.Path)["metadata"].(map[string]any)
	assert.Equal(t, before["created"], after["created"])
	assert.NotEqual(t, before["lastModified"], after["lastModified"])
	assert.Equal(t, organizer.UID, after["lastModifiedBy"].(map[string]any)["id"])
}

func TestUpdateUnauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpdateOrganization(context.Background(), f.org.Path, OrganizationUpdate{
		Name: strPtr("Hijacked"),
	}, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, f.org.Name, f.get(t, f.org.Path)["name"])
}

func TestUpdateMissingDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpdateSeries(context.Background(), f.org.Path+"/series/nope", SeriesUpdate{
		Name: strPtr("ghost"),
	}, organizer)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUpdateWrongCollection(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.UpdateSeries(context.Background(), f.org.Path, SeriesUpdate{
		Name: strPtr("x"),
	}, organizer)
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
}

func TestUpdateEventDateOutsideSeriesRejected(t *testing.T) {
	f := newFixture(t)
	late := seriesEnd.AddDate(0, 1, 0)

	_, err := f.repo.UpdateEvent(context.Background(), f.event.Path, EventUpdate{
		StartDate: timePtr(seriesEnd),
		EndDate:   timePtr(late),
	}, organizer)
	assert.ErrorIs(t, err, ErrDateRange)

	event := f.get(t, f.event.Path)
	assert.Equal(t, eventEnd, event["endDate"], "rejected update must not write")
}

func TestUpdateRaceDateWithinEventAccepted(t *testing.T) {
	f := newFixture(t)
	start := eventStart.Add(10 * time.Hour)
	end := start.Add(45 * time.Minute)

	_, err := f.repo.UpdateRace(context.Background(), f.race.Path, RaceUpdate{
		StartDate: timePtr(start),
		EndDate:   timePtr(end),
	}, organizer)
	require.NoError(t, err)
	assert.Equal(t, start, f.get(t, f.race.Path)["startDate"])
}

func TestUpdateCascadeIsAtomic(t *testing.T) {
	f := newFixture(t)

	rejected := errors.New("simulated write failure")
	f.store.FailWrite = func(path string) error {
		if path == f.contribution.Path {
			return rejected
		}
		return nil
	}

	_, err := f.repo.UpdateOrganization(context.Background(), f.org.Path, OrganizationUpdate{
		Name: strPtr("Half Renamed"),
	}, organizer)
	require.ErrorIs(t, err, rejected)
	f.store.FailWrite = nil

	// nothing in the subtree moved
	assert.Equal(t, f.org.Name, f.get(t, f.org.Path)["name"])
	series := f.get(t, f.series.Path)
	assert.Equal(t, f.org.Name, briefAt(t, series, "organizationBrief")["name"])
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)

	err := f.repo.UpdateUser(context.Background(), "users/"+organizer.UID, UserUpdate{
		Affiliation: strPtr("Sprinkles Cycling Club"),
	}, organizer)
	require.NoError(t, err)
	assert.Equal(t, "Sprinkles Cycling Club", f.get(t, "users/"+organizer.UID)["affiliation"])

	// users may only edit themselves
	err = f.repo.UpdateUser(context.Background(), "users/"+organizer.UID, UserUpdate{
		Name: strPtr("impostor"),
	}, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.AddFavorite(ctx, f.org.Path, stranger))
	require.NoError(t, f.repo.AddFavorite(ctx, f.race.Path, stranger))
	// favoriting the same document twice keeps a single entry
	require.NoError(t, f.repo.AddFavorite(ctx, f.org.Path, stranger))

	user, err := f.repo.GetUser(ctx, stranger.UID)
	require.NoError(t, err)
	require.Len(t, user.FavoriteRefs, 2)
	assert.Equal(t, f.org.ID, user.FavoriteRefs[0].ID)
	assert.Equal(t, f.org.Path, user.FavoriteRefs[0].Path)

	require.NoError(t, f.repo.RemoveFavorite(ctx, f.org.Path, stranger))
	user, err = f.repo.GetUser(ctx, stranger.UID)
	require.NoError(t, err)
	require.Len(t, user.FavoriteRefs, 1)
	assert.Equal(t, f.race.Path, user.FavoriteRefs[0].Path)

	// removing an absent favorite is harmless
	require.NoError(t, f.repo.RemoveFavorite(ctx, f.org.Path, stranger))

	err = f.repo.AddFavorite(ctx, "not/a/doc", stranger)
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
}

// seedPreem writes a preem document directly into the store, bypassing the
// create path so the test controls the document id.
func seedPreem(t *testing.T, f *fixture, racePath, id string) string {
	t.Helper()
	ctx := context.Background()

	race, err := f.store.Get(ctx, racePath)
	require.NoError(t, err)

	preemPath := racePath + "/preems/" + id
	ref := models.DocRef{ID: organizer.UID, Path: "users/" + organizer.UID}
	require.NoError(t, f.store.Set(ctx, preemPath, map[string]any{
		"id":               id,
		"path":             preemPath,
		"name":             "Sprint Prime",
		"type":             models.PreemTypePooled,
		"status":           models.PreemStatusOpen,
		"prizePool":        int64(0),
		"minimumThreshold": int64(50),
		"raceBrief":        docBrief(race, true, "eventBrief"),
		"metadata":         models.NewMetadata(time.Now().UTC(), ref).Map(),
	}))
	return preemPath
}

func TestUpdateRaceScopesCascadeBySubtreeNotID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two races in the same event, each holding a preem with the literal
	// same document id. Only the updated race's copy may be rewritten.
	race2, err := f.repo.CreateRace(ctx, f.event.Path, NewRace{
		Name:      "Junior Men",
		StartDate: &raceStart,
		EndDate:   &raceEnd,
	}, organizer)
	require.NoError(t, err)

	preem1 := seedPreem(t, f, f.race.Path, "sprint-prime")
	preem2 := seedPreem(t, f, race2.Path, "sprint-prime")

	applied, err := f.repo.UpdateRace(ctx, f.race.Path, RaceUpdate{
		Name: strPtr("Masters Women 40+ Crit"),
	}, organizer)
	require.NoError(t, err)

	for _, du := range applied {
		assert.NotEqual(t, preem2, du.Path)
	}

	rb1 := briefAt(t, f.get(t, preem1), "raceBrief")
	assert.Equal(t, "Masters Women 40+ Crit", rb1["name"])

	rb2 := briefAt(t, f.get(t, preem2), "raceBrief")
	assert.Equal(t, "Junior Men", rb2["name"])
	assert.Equal(t, race2.Path, rb2["path"])
}

func TestUpdateRepeatedIdenticalUpdateStaysQuiet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	update := OrganizationUpdate{Name: strPtr("Mega Sprinkles Racing")}

	applied, err := f.repo.UpdateOrganization(ctx, f.org.Path, update, organizer)
	require.NoError(t, err)
	assert.Len(t, applied, 6)

	// the rename already landed; applying it again touches only the root
	applied, err = f.repo.UpdateOrganization(ctx, f.org.Path, update, organizer)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, f.org.Path, applied[0].Path)

	contribution := f.get(t, f.contribution.Path)
	assert.Equal(t, "Mega Sprinkles Racing",
		briefAt(t, contribution, "preemBrief", "raceBrief", "eventBrief", "seriesBrief", "organizationBrief")["name"])
}

func TestUpdateOrganizationStripeAccount(t *testing.T) {
	f := newFixture(t)

	err := f.repo.UpdateOrganizationStripeAccount(context.Background(), f.org.ID, "acct_123", map[string]any{
		"chargesEnabled": true,
	}, organizer)
	require.NoError(t, err)

	org := f.get(t, f.org.Path)
	stripe := briefAt(t, org, "stripe")
	assert.Equal(t, "acct_123", stripe["connectAccountId"])
	assert.Equal(t, true, stripe["account"].(map[string]any)["chargesEnabled"])

	err = f.repo.UpdateOrganizationStripeAccount(context.Background(), f.org.ID, "acct_456", nil, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
