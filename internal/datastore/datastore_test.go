package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/docstore/memstore"
	"github.com/velopreem/backend/internal/models"
)

var (
	organizer = Identity{UID: "organizer", Email: "organizer@example.com"}
	stranger  = Identity{UID: "stranger", Email: "stranger@example.com"}

	seriesStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seriesEnd   = time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	eventStart  = time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)
	eventEnd    = time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)
	raceStart   = time.Date(2025, 7, 12, 16, 0, 0, 0, time.UTC)
	raceEnd     = time.Date(2025, 7, 12, 17, 0, 0, 0, time.UTC)
)

// fixture is a fully populated organization subtree plus an outsider's
// sibling organization, built through the repository's own create path.
type fixture struct {
	store *memstore.Store
	repo  *Repository

	org          *models.Organization
	series       *models.Series
	event        *models.Event
	race         *models.Race
	preem        *models.Preem
	contribution *models.Contribution

	otherOrg   *models.Organization
	otherPreem *models.Preem
}

func seedUser(t *testing.T, store *memstore.Store, id Identity) {
	t.Helper()
	ref := models.DocRef{ID: id.UID, Path: "users/" + id.UID}
	err := store.Set(context.Background(), ref.Path, map[string]any{
		"id":            id.UID,
		"path":          ref.Path,
		"name":          id.UID,
		"email":         id.Email,
		"termsAccepted": true,
		"metadata":      models.NewMetadata(time.Now().UTC(), ref).Map(),
	})
	require.NoError(t, err)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	repo := New(store, nil)

	seedUser(t, store, organizer)
	seedUser(t, store, stranger)

	f := &fixture{store: store, repo: repo}
	var err error

	f.org, err = repo.CreateOrganization(ctx, NewOrganization{Name: "Super Sprinkles Racing"}, organizer)
	require.NoError(t, err)

	f.series, err = repo.CreateSeries(ctx, f.org.Path, NewSeries{
		Name:      "Sprinkles Crit Series",
		Location:  "San Francisco, CA",
		StartDate: &seriesStart,
		EndDate:   &seriesEnd,
	}, organizer)
	require.NoError(t, err)

	f.event, err = repo.CreateEvent(ctx, f.series.Path, NewEvent{
		Name:      "Giro di San Francisco",
		Location:  "North Beach",
		StartDate: &eventStart,
		EndDate:   &eventEnd,
	}, organizer)
	require.NoError(t, err)

	f.race, err = repo.CreateRace(ctx, f.event.Path, NewRace{
		Name:      "Masters Women 40+",
		Category:  "Masters",
		Gender:    "Women",
		MaxRacers: 75,
		StartDate: &raceStart,
		EndDate:   &raceEnd,
	}, organizer)
	require.NoError(t, err)

	f.preem, err = repo.CreatePreem(ctx, f.race.Path, NewPreem{
		Name:             "First Lap Leader",
		Type:             models.PreemTypePooled,
		MinimumThreshold: 100,
	}, organizer)
	require.NoError(t, err)

	f.contribution, err = repo.ProcessContribution(ctx, ConfirmedPayment{
		IntentID:  "pi_fixture_1",
		PreemPath: f.preem.Path,
		UserID:    stranger.UID,
		Amount:    25,
	})
	require.NoError(t, err)

	// A sibling organization owned by someone else, for isolation checks.
	f.otherOrg, err = repo.CreateOrganization(ctx, NewOrganization{Name: "Rival Racing"}, stranger)
	require.NoError(t, err)
	otherSeries, err := repo.CreateSeries(ctx, f.otherOrg.Path, NewSeries{Name: "Rival Series"}, stranger)
	require.NoError(t, err)
	otherEvent, err := repo.CreateEvent(ctx, otherSeries.Path, NewEvent{Name: "Rival Event"}, stranger)
	require.NoError(t, err)
	otherRace, err := repo.CreateRace(ctx, otherEvent.Path, NewRace{Name: "Rival Race"}, stranger)
	require.NoError(t, err)
	f.otherPreem, err = repo.CreatePreem(ctx, otherRace.Path, NewPreem{Name: "Rival Preem"}, stranger)
	require.NoError(t, err)

	return f
}

// get reads a raw document map straight from the store.
func (f *fixture) get(t *testing.T, path string) map[string]any {
	t.Helper()
	doc, err := f.store.Get(context.Background(), path)
	require.NoError(t, err)
	return doc.Data
}

func strPtr(s string) *string        { return &s }
func timePtr(v time.Time) *time.Time { return &v }
