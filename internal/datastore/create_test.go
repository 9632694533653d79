package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/docstore/memstore"
	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

func TestCreateOrganizationRecordsMembership(t *testing.T) {
	f := newFixture(t)

	org := f.get(t, f.org.Path)
	members := org["memberRefs"].([]any)
	require.Len(t, members, 1)
	assert.Equal(t, organizer.UID, members[0].(map[string]any)["id"])

	user := f.get(t, "users/"+organizer.UID)
	refs := user["organizationRefs"].([]any)
	require.Len(t, refs, 1)
	assert.Equal(t, f.org.Path, refs[0].(map[string]any)["path"])

	meta := org["metadata"].(map[string]any)
	assert.Equal(t, organizer.UID, meta["createdBy"].(map[string]any)["id"])
}

func TestCreateSeriesStampsOrganizationBrief(t *testing.T) {
	f := newFixture(t)

	series := f.get(t, f.series.Path)
	ob := briefAt(t, series, "organizationBrief")
	assert.Equal(t, f.org.ID, ob["id"])
	assert.Equal(t, f.org.Path, ob["path"])
	assert.Equal(t, f.org.Name, ob["name"])
	// organizations carry no dates in their brief
	_, hasStart := ob["startDate"]
	assert.False(t, hasStart)
}

func TestCreatePreemStampsNestedRaceBrief(t *testing.T) {
	f := newFixture(t)

	preem := f.get(t, f.preem.Path)
	rb := briefAt(t, preem, "raceBrief")
	assert.Equal(t, f.race.Name, rb["name"])
	assert.Equal(t, raceStart, rb["startDate"])
	assert.Equal(t, f.event.Name, briefAt(t, preem, "raceBrief", "eventBrief")["name"])
	assert.Equal(t, f.org.Name,
		briefAt(t, preem, "raceBrief", "eventBrief", "seriesBrief", "organizationBrief")["name"])
}

func TestCreatePreemDefaults(t *testing.T) {
	f := newFixture(t)

	p, err := f.repo.CreatePreem(context.Background(), f.race.Path, NewPreem{Name: "Bell Lap"}, organizer)
	require.NoError(t, err)
	assert.Equal(t, models.PreemTypePooled, p.Type)
	assert.Equal(t, models.PreemStatusOpen, p.Status)
	assert.Zero(t, p.PrizePool)
}

func TestCreateEventOutsideSeriesDatesRejected(t *testing.T) {
	f := newFixture(t)
	start := seriesStart.AddDate(0, -1, 0)
	end := seriesStart.AddDate(0, 0, 1)

	_, err := f.repo.CreateEvent(context.Background(), f.series.Path, NewEvent{
		Name:      "Too Early",
		StartDate: &start,
		EndDate:   &end,
	}, organizer)
	assert.ErrorIs(t, err, ErrDateRange)
}

func TestCreateRaceEndBeforeStartRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.CreateRace(context.Background(), f.event.Path, NewRace{
		Name:      "Backwards",
		StartDate: &raceEnd,
		EndDate:   &raceStart,
	}, organizer)
	assert.ErrorIs(t, err, ErrDateRange)
}

func TestCreateChildRequiresMembership(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.CreateSeries(context.Background(), f.org.Path, NewSeries{Name: "Nope"}, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateChildRejectsWrongParentPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.CreateEvent(context.Background(), f.org.Path, NewEvent{Name: "Misplaced"}, organizer)
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
}

func TestCreateInvite(t *testing.T) {
	f := newFixture(t)

	inv, err := f.repo.CreateInvite(context.Background(), f.org.Path, NewInvite{
		Email: "Newcomer@Example.com",
	}, organizer)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, inv.Status)
	assert.Equal(t, "newcomer@example.com", inv.Email)
	require.Len(t, inv.OrganizationRefs, 1)
	assert.Equal(t, f.org.ID, inv.OrganizationRefs[0].ID)

	_, err = f.repo.CreateInvite(context.Background(), f.org.Path, NewInvite{}, organizer)
	assert.ErrorIs(t, err, paths.ErrInvalidPath, "invite needs an email or uid")

	_, err = f.repo.CreateInvite(context.Background(), f.org.Path, NewInvite{Email: "x@y.z"}, stranger)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateUserAcceptsPendingInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byEmail, err := f.repo.CreateInvite(ctx, f.org.Path, NewInvite{Email: "casey@example.com"}, organizer)
	require.NoError(t, err)
	byUID, err := f.repo.CreateInvite(ctx, f.otherOrg.Path, NewInvite{UID: "casey"}, stranger)
	require.NoError(t, err)
	// a duplicate invite to the same organization must not double the ref
	_, err = f.repo.CreateInvite(ctx, f.org.Path, NewInvite{Email: "casey@example.com"}, organizer)
	require.NoError(t, err)

	u, err := f.repo.CreateUser(ctx, "casey", NewUser{
		Name:          "Casey",
		Email:         "Casey@Example.com",
		TermsAccepted: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "casey@example.com", u.Email)
	require.Len(t, u.OrganizationRefs, 2)
	got := map[string]bool{}
	for _, ref := range u.OrganizationRefs {
		got[ref.ID] = true
	}
	assert.True(t, got[f.org.ID])
	assert.True(t, got[f.otherOrg.ID])

	for _, path := range []string{byEmail.Path, byUID.Path} {
		inv := f.get(t, path)
		assert.Equal(t, models.InviteStatusAccepted, inv["status"])
		assert.Equal(t, "casey", inv["uid"])
	}

	// the invite records the link on the user; the organization's member
	// list is managed separately and stays untouched
	org := f.get(t, f.org.Path)
	assert.Len(t, org["memberRefs"].([]any), 1)
}

func TestCreateUserDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.CreateUser(context.Background(), organizer.UID, NewUser{
		Name:  "Clone",
		Email: organizer.Email,
	})
	assert.ErrorIs(t, err, docstore.ErrExists)
}

func TestCreateUserEmptyID(t *testing.T) {
	store := memstore.New()
	repo := New(store, nil)

	_, err := repo.CreateUser(context.Background(), "", NewUser{Name: "Nobody"})
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
	assert.Zero(t, store.Len())
}
