package datastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

// NewUser carries the fields of a user record being created.
type NewUser struct {
	Name          string
	Email         string
	AvatarURL     string
	Affiliation   string
	RaceLicenseID string
	Address       string
	TermsAccepted bool
	PasswordHash  string
}

// CreateUser creates the user document for uid and accepts any pending
// invites addressed to the user's email or uid, granting the organization
// memberships they carry. Everything runs in one transaction so an invite
// can never be accepted twice.
func (r *Repository) CreateUser(ctx context.Context, uid string, nu NewUser) (*models.User, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: empty user id", paths.ErrInvalidPath)
	}
	docPath := "users/" + uid
	ref := models.DocRef{ID: uid, Path: docPath}

	data := map[string]any{
		"id":            uid,
		"path":          docPath,
		"name":          nu.Name,
		"email":         strings.ToLower(nu.Email),
		"termsAccepted": nu.TermsAccepted,
		"metadata":      models.NewMetadata(r.now().UTC(), ref).Map(),
	}
	if nu.AvatarURL != "" {
		data["avatarUrl"] = nu.AvatarURL
	}
	if nu.Affiliation != "" {
		data["affiliation"] = nu.Affiliation
	}
	if nu.RaceLicenseID != "" {
		data["raceLicenseId"] = nu.RaceLicenseID
	}
	if nu.Address != "" {
		data["address"] = nu.Address
	}
	if nu.PasswordHash != "" {
		data["passwordHash"] = nu.PasswordHash
	}

	err := r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		byEmail, err := tx.GetAllWhere("invites", "email", data["email"])
		if err != nil {
			return err
		}
		byUID, err := tx.GetAllWhere("invites", "uid", uid)
		if err != nil {
			return err
		}

		var orgRefs []any
		seen := map[string]bool{}
		var accepted []string
		for _, inv := range append(byEmail, byUID...) {
			if inv.Data["status"] != models.InviteStatusPending || seen["invite:"+inv.ID] {
				continue
			}
			seen["invite:"+inv.ID] = true
			accepted = append(accepted, inv.Path)
			refs, _ := inv.Data["organizationRefs"].([]any)
			for _, raw := range refs {
				or, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				id, _ := or["id"].(string)
				if id == "" || seen[id] {
					continue
				}
				seen[id] = true
				orgRefs = append(orgRefs, or)
			}
		}
		if len(orgRefs) > 0 {
			data["organizationRefs"] = orgRefs
		}

		if err := tx.Create(docPath, data); err != nil {
			return err
		}
		for _, p := range accepted {
			if err := tx.Update(p, map[string]any{
				"status":                models.InviteStatusAccepted,
				"uid":                   uid,
				"metadata.lastModified": r.now().UTC(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := decodeInto(data, &u); err != nil {
		return nil, err
	}
	r.logger.Info("user created", zapPath(docPath), zap.Int("invites_accepted", len(u.OrganizationRefs)))
	return &u, nil
}

// NewOrganization carries the fields of an organization being created.
type NewOrganization struct {
	Name        string
	Description string
	Website     string
}

// CreateOrganization creates an organization with the caller as its first
// member, and records the membership on the caller's user document.
func (r *Repository) CreateOrganization(ctx context.Context, no NewOrganization, caller Identity) (*models.Organization, error) {
	id := uuid.NewString()
	docPath := "organizations/" + id
	orgRef := models.DocRef{ID: id, Path: docPath}

	data := map[string]any{
		"id":         id,
		"path":       docPath,
		"name":       no.Name,
		"memberRefs": []any{caller.UserRef().Map()},
		"metadata":   models.NewMetadata(r.now().UTC(), caller.UserRef()).Map(),
	}
	if no.Description != "" {
		data["description"] = no.Description
	}
	if no.Website != "" {
		data["website"] = no.Website
	}

	err := r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		user, err := tx.Get(caller.UserRef().Path)
		if err != nil {
			return fmt.Errorf("caller %w", err)
		}
		refs, _ := user.Data["organizationRefs"].([]any)
		refs = append(refs, any(orgRef.Map()))

		if err := tx.Create(docPath, data); err != nil {
			return err
		}
		return tx.Update(user.Path, map[string]any{
			"organizationRefs":        refs,
			"metadata.lastModified":   r.now().UTC(),
			"metadata.lastModifiedBy": caller.UserRef().Map(),
		})
	})
	if err != nil {
		return nil, err
	}

	var o models.Organization
	if err := decodeInto(data, &o); err != nil {
		return nil, err
	}
	r.logger.Info("organization created", zapPath(docPath), zap.String("by", caller.UID))
	return &o, nil
}

// NewSeries carries the fields of a series being created.
type NewSeries struct {
	Name        string
	Description string
	Website     string
	Location    string
	Timezone    string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateSeries creates a series under the given organization document path.
func (r *Repository) CreateSeries(ctx context.Context, orgPath string, ns NewSeries, caller Identity) (*models.Series, error) {
	data := map[string]any{"name": ns.Name}
	putNonEmpty(data, "description", ns.Description)
	putNonEmpty(data, "website", ns.Website)
	putNonEmpty(data, "location", ns.Location)
	putNonEmpty(data, "timezone", ns.Timezone)
	putTime(data, "startDate", ns.StartDate)
	putTime(data, "endDate", ns.EndDate)

	doc, err := r.createChild(ctx, orgPath, organizationLevel, "series", data, caller, nil)
	if err != nil {
		return nil, err
	}
	var s models.Series
	if err := decodeInto(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NewEvent carries the fields of an event being created.
type NewEvent struct {
	Name        string
	Description string
	Website     string
	Location    string
	Timezone    string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateEvent creates an event under the given series document path. Its
// dates must fall within the series' date range.
func (r *Repository) CreateEvent(ctx context.Context, seriesPath string, ne NewEvent, caller Identity) (*models.Event, error) {
	data := map[string]any{"name": ne.Name}
	putNonEmpty(data, "description", ne.Description)
	putNonEmpty(data, "website", ne.Website)
	putNonEmpty(data, "location", ne.Location)
	putNonEmpty(data, "timezone", ne.Timezone)
	putTime(data, "startDate", ne.StartDate)
	putTime(data, "endDate", ne.EndDate)

	doc, err := r.createChild(ctx, seriesPath, seriesLevel, "events", data, caller,
		func(parent map[string]any) error {
			return checkDateRange(ne.StartDate, ne.EndDate, parent, "event", "series")
		})
	if err != nil {
		return nil, err
	}
	var e models.Event
	if err := decodeInto(doc, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// NewRace carries the fields of a race being created.
type NewRace struct {
	Name          string
	Description   string
	Location      string
	Category      string
	Gender        string
	CourseDetails string
	CourseLink    string
	Duration      string
	Timezone      string
	MaxRacers     int
	Laps          int
	Podiums       int
	Sponsors      []string
	StartDate     *time.Time
	EndDate       *time.Time
}

// CreateRace creates a race under the given event document path. Its dates
// must fall within the event's date range.
func (r *Repository) CreateRace(ctx context.Context, eventPath string, nr NewRace, caller Identity) (*models.Race, error) {
	data := map[string]any{"name": nr.Name}
	putNonEmpty(data, "description", nr.Description)
	putNonEmpty(data, "location", nr.Location)
	putNonEmpty(data, "category", nr.Category)
	putNonEmpty(data, "gender", nr.Gender)
	putNonEmpty(data, "courseDetails", nr.CourseDetails)
	putNonEmpty(data, "courseLink", nr.CourseLink)
	putNonEmpty(data, "duration", nr.Duration)
	putNonEmpty(data, "timezone", nr.Timezone)
	if nr.MaxRacers > 0 {
		data["maxRacers"] = nr.MaxRacers
	}
	if nr.Laps > 0 {
		data["laps"] = nr.Laps
	}
	if nr.Podiums > 0 {
		data["podiums"] = nr.Podiums
	}
	if len(nr.Sponsors) > 0 {
		sponsors := make([]any, len(nr.Sponsors))
		for i, s := range nr.Sponsors {
			sponsors[i] = s
		}
		data["sponsors"] = sponsors
	}
	putTime(data, "startDate", nr.StartDate)
	putTime(data, "endDate", nr.EndDate)

	doc, err := r.createChild(ctx, eventPath, eventLevel, "races", data, caller,
		func(parent map[string]any) error {
			return checkDateRange(nr.StartDate, nr.EndDate, parent, "race", "event")
		})
	if err != nil {
		return nil, err
	}
	var rc models.Race
	if err := decodeInto(doc, &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

// NewPreem carries the fields of a preem being created.
type NewPreem struct {
	Name             string
	Description      string
	Type             string
	MinimumThreshold float64
	TimeLimit        *time.Time
}

// CreatePreem creates a preem under the given race document path, open and
// with an empty prize pool.
func (r *Repository) CreatePreem(ctx context.Context, racePath string, np NewPreem, caller Identity) (*models.Preem, error) {
	typ := np.Type
	if typ == "" {
		typ = models.PreemTypePooled
	}
	data := map[string]any{
		"name":      np.Name,
		"type":      typ,
		"status":    models.PreemStatusOpen,
		"prizePool": float64(0),
	}
	putNonEmpty(data, "description", np.Description)
	if np.MinimumThreshold > 0 {
		data["minimumThreshold"] = np.MinimumThreshold
	}
	putTime(data, "timeLimit", np.TimeLimit)

	doc, err := r.createChild(ctx, racePath, raceLevel, "preems", data, caller, nil)
	if err != nil {
		return nil, err
	}
	var p models.Preem
	if err := decodeInto(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// createChild is the shared path for creating a document under a parent:
// authorize against the parent's root, read the parent inside the
// transaction, stamp the parent's brief onto the child, then create it.
func (r *Repository) createChild(
	ctx context.Context,
	parentPath string,
	parentLvl entityLevel,
	collection string,
	data map[string]any,
	caller Identity,
	validate func(parent map[string]any) error,
) (map[string]any, error) {
	parentDoc, err := paths.AsDocPath(parentPath)
	if err != nil {
		return nil, err
	}
	if paths.CollectionGroup(parentDoc) != parentLvl.group {
		return nil, fmt.Errorf("%w: %q is not a %s path", paths.ErrInvalidPath, parentPath, parentLvl.kind)
	}
	childColl, err := paths.SubCollectionPath(parentDoc, collection)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(ctx, caller, parentDoc); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	docPath := childColl + "/" + id
	data["id"] = id
	data["path"] = docPath
	data["metadata"] = models.NewMetadata(r.now().UTC(), caller.UserRef()).Map()

	err = r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		parent, err := tx.Get(parentDoc)
		if err != nil {
			return fmt.Errorf("%s %w", parentLvl.kind, err)
		}
		if validate != nil {
			if err := validate(parent.Data); err != nil {
				return err
			}
		}
		data[cascadeChain[parentLvl.depth].briefField] = docBrief(parent, parentLvl.dated, parentLvl.parentBrief)
		return tx.Create(docPath, data)
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("document created", zapPath(docPath), zap.String("by", caller.UID))
	return data, nil
}

// NewInvite carries the fields of an organization invite being created.
type NewInvite struct {
	Email string
	UID   string
}

// CreateInvite invites a user, by email or uid, into an organization. If
// the user record already exists the invite is accepted when they next
// sign in; otherwise it is accepted at account creation.
func (r *Repository) CreateInvite(ctx context.Context, orgPath string, ni NewInvite, caller Identity) (*models.Invite, error) {
	orgDoc, err := paths.AsDocPath(orgPath)
	if err != nil {
		return nil, err
	}
	if paths.CollectionGroup(orgDoc) != "organizations" {
		return nil, fmt.Errorf("%w: %q is not an organization path", paths.ErrInvalidPath, orgPath)
	}
	if ni.Email == "" && ni.UID == "" {
		return nil, fmt.Errorf("%w: invite needs an email or uid", paths.ErrInvalidPath)
	}
	if err := r.authorize(ctx, caller, orgDoc); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	docPath := "invites/" + id
	data := map[string]any{
		"id":               id,
		"path":             docPath,
		"status":           models.InviteStatusPending,
		"organizationRefs": []any{map[string]any{"id": paths.DocID(orgDoc), "path": orgDoc}},
		"metadata":         models.NewMetadata(r.now().UTC(), caller.UserRef()).Map(),
	}
	putNonEmpty(data, "email", strings.ToLower(ni.Email))
	putNonEmpty(data, "uid", ni.UID)

	if err := r.db.Create(ctx, docPath, data); err != nil {
		return nil, err
	}
	var inv models.Invite
	if err := decodeInto(data, &inv); err != nil {
		return nil, err
	}
	r.logger.Info("invite created", zapPath(docPath), zap.String("organization", orgDoc))
	return &inv, nil
}

func putNonEmpty(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
