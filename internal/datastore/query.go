package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

// getTyped reads one document of the expected collection group into out.
func (r *Repository) getTyped(ctx context.Context, path, group string, out any) error {
	docPath, err := paths.AsDocPath(path)
	if err != nil {
		return err
	}
	if paths.CollectionGroup(docPath) != group {
		return fmt.Errorf("%w: %q is not in collection %s", paths.ErrInvalidPath, path, group)
	}
	doc, err := r.db.Get(ctx, docPath)
	if err != nil {
		return err
	}
	return decodeInto(doc.Data, out)
}

// GetOrganization reads one organization.
func (r *Repository) GetOrganization(ctx context.Context, path string) (*models.Organization, error) {
	var o models.Organization
	if err := r.getTyped(ctx, path, "organizations", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetSeries reads one series.
func (r *Repository) GetSeries(ctx context.Context, path string) (*models.Series, error) {
	var s models.Series
	if err := r.getTyped(ctx, path, "series", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetEvent reads one event.
func (r *Repository) GetEvent(ctx context.Context, path string) (*models.Event, error) {
	var e models.Event
	if err := r.getTyped(ctx, path, "events", &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetRace reads one race.
func (r *Repository) GetRace(ctx context.Context, path string) (*models.Race, error) {
	var rc models.Race
	if err := r.getTyped(ctx, path, "races", &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

// GetPreem reads one preem.
func (r *Repository) GetPreem(ctx context.Context, path string) (*models.Preem, error) {
	var p models.Preem
	if err := r.getTyped(ctx, path, "preems", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUser reads one user by id.
func (r *Repository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := r.getTyped(ctx, "users/"+uid, "users", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail finds the user holding the given email, or ErrNotFound.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := r.db.GetAllWhere(ctx, "users", "email", strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("user %w", docstore.ErrNotFound)
	}
	var u models.User
	if err := decodeInto(docs[0].Data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// The *WithChildren shapes return an entity together with its fetched
// sub-collections, the read path behind rendered pages.

// PreemWithContributions is a preem and its contributions.
type PreemWithContributions struct {
	Preem         models.Preem          `json:"preem"`
	Contributions []models.Contribution `json:"contributions"`
}

// RaceWithPreems is a race and its preems, each with contributions.
type RaceWithPreems struct {
	Race   models.Race              `json:"race"`
	Preems []PreemWithContributions `json:"preems"`
}

// EventWithRaces is an event and its races, recursively fetched.
type EventWithRaces struct {
	Event models.Event     `json:"event"`
	Races []RaceWithPreems `json:"races"`
}

// SeriesWithEvents is a series and its events, recursively fetched.
type SeriesWithEvents struct {
	Series models.Series    `json:"series"`
	Events []EventWithRaces `json:"events"`
}

// OrganizationWithSeries is an organization and its full subtree.
type OrganizationWithSeries struct {
	Organization models.Organization `json:"organization"`
	Series       []SeriesWithEvents  `json:"series"`
}

// GetPreemWithContributions fetches a preem and its contributions.
func (r *Repository) GetPreemWithContributions(ctx context.Context, path string) (*PreemWithContributions, error) {
	p, err := r.GetPreem(ctx, path)
	if err != nil {
		return nil, err
	}
	out := PreemWithContributions{Preem: *p}
	docs, err := r.db.GetAll(ctx, p.Path+"/contributions")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		var c models.Contribution
		if err := decodeInto(doc.Data, &c); err != nil {
			return nil, err
		}
		out.Contributions = append(out.Contributions, c)
	}
	return &out, nil
}

// GetRaceWithPreems fetches a race and its preems with contributions.
func (r *Repository) GetRaceWithPreems(ctx context.Context, path string) (*RaceWithPreems, error) {
	rc, err := r.GetRace(ctx, path)
	if err != nil {
		return nil, err
	}
	out := RaceWithPreems{Race: *rc}
	docs, err := r.db.GetAll(ctx, rc.Path+"/preems")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		pc, err := r.GetPreemWithContributions(ctx, doc.Path)
		if err != nil {
			return nil, err
		}
		out.Preems = append(out.Preems, *pc)
	}
	return &out, nil
}

// GetEventWithRaces fetches an event and its race subtree.
func (r *Repository) GetEventWithRaces(ctx context.Context, path string) (*EventWithRaces, error) {
	e, err := r.GetEvent(ctx, path)
	if err != nil {
		return nil, err
	}
	out := EventWithRaces{Event: *e}
	docs, err := r.db.GetAll(ctx, e.Path+"/races")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		rp, err := r.GetRaceWithPreems(ctx, doc.Path)
		if err != nil {
			return nil, err
		}
		out.Races = append(out.Races, *rp)
	}
	return &out, nil
}

// GetSeriesWithEvents fetches a series and its event subtree.
func (r *Repository) GetSeriesWithEvents(ctx context.Context, path string) (*SeriesWithEvents, error) {
	s, err := r.GetSeries(ctx, path)
	if err != nil {
		return nil, err
	}
	out := SeriesWithEvents{Series: *s}
	docs, err := r.db.GetAll(ctx, s.Path+"/events")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		er, err := r.GetEventWithRaces(ctx, doc.Path)
		if err != nil {
			return nil, err
		}
		out.Events = append(out.Events, *er)
	}
	return &out, nil
}

// GetOrganizationWithSeries fetches an organization and its whole subtree.
func (r *Repository) GetOrganizationWithSeries(ctx context.Context, path string) (*OrganizationWithSeries, error) {
	o, err := r.GetOrganization(ctx, path)
	if err != nil {
		return nil, err
	}
	out := OrganizationWithSeries{Organization: *o}
	docs, err := r.db.GetAll(ctx, o.Path+"/series")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		se, err := r.GetSeriesWithEvents(ctx, doc.Path)
		if err != nil {
			return nil, err
		}
		out.Series = append(out.Series, *se)
	}
	return &out, nil
}

// ListOrganizations lists all organizations.
func (r *Repository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	docs, err := r.db.GetAll(ctx, "organizations")
	if err != nil {
		return nil, err
	}
	out := make([]models.Organization, 0, len(docs))
	for _, doc := range docs {
		var o models.Organization
		if err := decodeInto(doc.Data, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// GetOrganizationForPath resolves the organization owning any document in
// its subtree, the lookup behind per-organization payment routing.
func (r *Repository) GetOrganizationForPath(ctx context.Context, path string) (*models.Organization, error) {
	docPath, err := paths.AsDocPath(path)
	if err != nil {
		return nil, err
	}
	return r.GetOrganization(ctx, paths.RootDoc(docPath))
}

// GetOrganizationByStripeAccount finds the organization linked to a Stripe
// Connect account, or ErrNotFound.
func (r *Repository) GetOrganizationByStripeAccount(ctx context.Context, accountID string) (*models.Organization, error) {
	docs, err := r.db.GetAllWhere(ctx, "organizations", "stripe.connectAccountId", accountID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("organization for account %s %w", accountID, docstore.ErrNotFound)
	}
	var o models.Organization
	if err := decodeInto(docs[0].Data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListContributionsByUser lists a user's contributions across one preem's
// collection; callers aggregate per preem path.
func (r *Repository) ListContributionsByUser(ctx context.Context, preemPath, uid string) ([]models.Contribution, error) {
	preemDoc, err := paths.AsDocPath(preemPath)
	if err != nil {
		return nil, err
	}
	docs, err := r.db.GetAll(ctx, preemDoc+"/contributions")
	if err != nil {
		return nil, err
	}
	var out []models.Contribution
	for _, doc := range docs {
		var c models.Contribution
		if err := decodeInto(doc.Data, &c); err != nil {
			return nil, err
		}
		if c.Contributor != nil && c.Contributor.ID == uid {
			out = append(out, c)
		}
	}
	return out, nil
}
