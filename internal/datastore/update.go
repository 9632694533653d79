package datastore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/paths"
)

// DocUpdate is one write applied by an update call: the target document and
// exactly the fields written to it. The engine returns every write it makes
// (root plus cascaded descendants) so callers can assert propagation.
type DocUpdate struct {
	Path    string         `json:"path"`
	Updates map[string]any `json:"updates"`
}

// cascadeChain describes the child collection at each depth of the
// hierarchy. Entry i holds the collection fanned into below level i, the
// brief field its documents carry for their parent, and whether documents
// at that entry embed start/end dates in their own brief.
var cascadeChain = []struct {
	collection string
	briefField string
	dated      bool
}{
	{"series", "organizationBrief", true},
	{"events", "seriesBrief", true},
	{"races", "eventBrief", true},
	{"preems", "raceBrief", false},
	{"contributions", "preemBrief", false},
}

// entityLevel positions one entity type within the cascade chain.
type entityLevel struct {
	kind        string // singular noun for errors
	group       string // collection group of the entity's own documents
	depth       int    // index into cascadeChain of its child link
	dated       bool   // whether the entity's own brief carries dates
	parentBrief string // brief field passed through from the entity's doc
}

var (
	organizationLevel = entityLevel{kind: "organization", group: "organizations", depth: 0}
	seriesLevel       = entityLevel{kind: "series", group: "series", depth: 1, dated: true, parentBrief: "organizationBrief"}
	eventLevel        = entityLevel{kind: "event", group: "events", depth: 2, dated: true, parentBrief: "seriesBrief"}
	raceLevel         = entityLevel{kind: "race", group: "races", depth: 3, dated: true, parentBrief: "eventBrief"}
	preemLevel        = entityLevel{kind: "preem", group: "preems", depth: 4, parentBrief: "raceBrief"}
)

// briefFields are the parts of a partial update that descendants see
// through their briefs. A nil pointer means the field is not being updated.
type briefFields struct {
	name      *string
	startDate *time.Time
	endDate   *time.Time
}

// changed compares against the currently stored values. Strict value
// inequality: writing an identical name does not trigger a cascade.
func (b briefFields) changed(cur map[string]any) bool {
	return strChanged(b.name, cur["name"]) ||
		timeChanged(b.startDate, cur["startDate"]) ||
		timeChanged(b.endDate, cur["endDate"])
}

func strChanged(p *string, cur any) bool {
	if p == nil {
		return false
	}
	s, _ := cur.(string)
	return *p != s
}

func timeChanged(p *time.Time, cur any) bool {
	if p == nil {
		return false
	}
	t, ok := cur.(time.Time)
	return !ok || !p.Equal(t)
}

func mergeStr(p *string, cur any) any {
	if p != nil {
		return *p
	}
	if s, ok := cur.(string); ok {
		return s
	}
	return ""
}

// OrganizationUpdate is a partial update; nil fields are left unchanged.
type OrganizationUpdate struct {
	Name        *string
	Description *string
	Website     *string
}

func (u OrganizationUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "description", u.Description)
	putStr(m, "website", u.Website)
	return m
}

func (u OrganizationUpdate) brief() briefFields { return briefFields{name: u.Name} }

// SeriesUpdate is a partial update; nil fields are left unchanged.
type SeriesUpdate struct {
	Name        *string
	Description *string
	Website     *string
	Location    *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (u SeriesUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "description", u.Description)
	putStr(m, "website", u.Website)
	putStr(m, "location", u.Location)
	putTime(m, "startDate", u.StartDate)
	putTime(m, "endDate", u.EndDate)
	return m
}

func (u SeriesUpdate) brief() briefFields {
	return briefFields{name: u.Name, startDate: u.StartDate, endDate: u.EndDate}
}

// EventUpdate is a partial update; nil fields are left unchanged.
type EventUpdate struct {
	Name        *string
	Description *string
	Website     *string
	Location    *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (u EventUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "description", u.Description)
	putStr(m, "website", u.Website)
	putStr(m, "location", u.Location)
	putTime(m, "startDate", u.StartDate)
	putTime(m, "endDate", u.EndDate)
	return m
}

func (u EventUpdate) brief() briefFields {
	return briefFields{name: u.Name, startDate: u.StartDate, endDate: u.EndDate}
}

// RaceUpdate is a partial update; nil fields are left unchanged.
type RaceUpdate struct {
	Name        *string
	Description *string
	Location    *string
	MaxRacers   *int
	StartDate   *time.Time
	EndDate     *time.Time
}

func (u RaceUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "description", u.Description)
	putStr(m, "location", u.Location)
	if u.MaxRacers != nil {
		m["maxRacers"] = *u.MaxRacers
	}
	putTime(m, "startDate", u.StartDate)
	putTime(m, "endDate", u.EndDate)
	return m
}

func (u RaceUpdate) brief() briefFields {
	return briefFields{name: u.Name, startDate: u.StartDate, endDate: u.EndDate}
}

// PreemUpdate is a partial update; nil fields are left unchanged.
type PreemUpdate struct {
	Name        *string
	Description *string
}

func (u PreemUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "description", u.Description)
	return m
}

func (u PreemUpdate) brief() briefFields { return briefFields{name: u.Name} }

func putStr(m map[string]any, k string, p *string) {
	if p != nil {
		m[k] = *p
	}
}

func putTime(m map[string]any, k string, p *time.Time) {
	if p != nil {
		m[k] = *p
	}
}

// UpdateOrganization applies a partial update to an organization and, if its
// name changed, rewrites briefs across the entire subtree.
func (r *Repository) UpdateOrganization(ctx context.Context, path string, update OrganizationUpdate, caller Identity) ([]DocUpdate, error) {
	return r.applyUpdate(ctx, path, organizationLevel, update.fields(), update.brief(), caller, nil)
}

// UpdateSeries applies a partial update to a series and cascades brief
// changes into its events, races, preems, and contributions.
func (r *Repository) UpdateSeries(ctx context.Context, path string, update SeriesUpdate, caller Identity) ([]DocUpdate, error) {
	return r.applyUpdate(ctx, path, seriesLevel, update.fields(), update.brief(), caller, nil)
}

// UpdateEvent applies a partial update to an event. Updated dates must fall
// within the parent series' date range.
func (r *Repository) UpdateEvent(ctx context.Context, path string, update EventUpdate, caller Identity) ([]DocUpdate, error) {
	return r.applyUpdate(ctx, path, eventLevel, update.fields(), update.brief(), caller,
		r.dateRangeCheck(update.StartDate, update.EndDate, "event", "series"))
}

// UpdateRace applies a partial update to a race. Updated dates must fall
// within the parent event's date range.
func (r *Repository) UpdateRace(ctx context.Context, path string, update RaceUpdate, caller Identity) ([]DocUpdate, error) {
	return r.applyUpdate(ctx, path, raceLevel, update.fields(), update.brief(), caller,
		r.dateRangeCheck(update.StartDate, update.EndDate, "race", "event"))
}

// UpdatePreem applies a partial update to a preem and cascades a name
// change into its contributions.
func (r *Repository) UpdatePreem(ctx context.Context, path string, update PreemUpdate, caller Identity) ([]DocUpdate, error) {
	return r.applyUpdate(ctx, path, preemLevel, update.fields(), update.brief(), caller, nil)
}

// applyUpdate is the shared engine behind the five entity update calls.
// Everything runs in one transaction: read the root, read every affected
// descendant collection, then write the root update and all brief rewrites.
// On any error no write is applied; transaction contention is retried by
// the store and surfaces as docstore.ErrConflict once exhausted.
func (r *Repository) applyUpdate(
	ctx context.Context,
	path string,
	lvl entityLevel,
	fields map[string]any,
	bf briefFields,
	caller Identity,
	validate func(tx docstore.Tx, docPath string) error,
) ([]DocUpdate, error) {
	docPath, err := paths.AsDocPath(path)
	if err != nil {
		return nil, err
	}
	if paths.CollectionGroup(docPath) != lvl.group {
		return nil, fmt.Errorf("%w: %q is not a %s path", paths.ErrInvalidPath, path, lvl.kind)
	}
	if err := r.authorize(ctx, caller, docPath); err != nil {
		return nil, err
	}

	var applied []DocUpdate
	err = r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		applied = nil

		doc, err := tx.Get(docPath)
		if err != nil {
			return fmt.Errorf("%s %w", lvl.kind, err)
		}
		if validate != nil {
			if err := validate(tx, docPath); err != nil {
				return err
			}
		}
		cur := doc.Data

		var descendants []DocUpdate
		if bf.changed(cur) {
			brief := map[string]any{
				"id":   doc.ID,
				"path": docPath,
				"name": mergeStr(bf.name, cur["name"]),
			}
			if lvl.dated {
				mergeDate(brief, "startDate", bf.startDate, cur)
				mergeDate(brief, "endDate", bf.endDate, cur)
			}
			if lvl.parentBrief != "" {
				brief[lvl.parentBrief] = cur[lvl.parentBrief]
			}
			descendants, err = collectBriefRewrites(tx, docPath, lvl.depth, brief)
			if err != nil {
				return err
			}
		}

		root := DocUpdate{Path: docPath, Updates: mergeMaps(fields, r.updateMetadata(caller))}
		if err := tx.Update(root.Path, root.Updates); err != nil {
			return err
		}
		for _, du := range descendants {
			if err := tx.Update(du.Path, du.Updates); err != nil {
				return err
			}
		}
		applied = append(append(applied, root), descendants...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("entity updated",
		zapPath(docPath),
		zap.Int("docs_written", len(applied)),
		zap.String("by", caller.UID),
	)
	return applied, nil
}

// collectBriefRewrites walks the subtree with an explicit worklist and
// returns the brief rewrite for every descendant document. Reads only; the
// caller stages the writes. Descendants are found by sub-collection path
// under the updated document, so duplicate ids in sibling subtrees can
// never cross-contaminate.
func collectBriefRewrites(tx docstore.Tx, docPath string, depth int, brief map[string]any) ([]DocUpdate, error) {
	type frame struct {
		docPath string
		depth   int
		brief   map[string]any
	}

	var out []DocUpdate
	stack := []frame{{docPath: docPath, depth: depth, brief: brief}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth >= len(cascadeChain) {
			continue
		}
		link := cascadeChain[f.depth]

		children, err := tx.GetAll(f.docPath + "/" + link.collection)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			out = append(out, DocUpdate{
				Path:    child.Path,
				Updates: map[string]any{link.briefField: f.brief},
			})
			if f.depth+1 >= len(cascadeChain) {
				continue
			}
			// The child's own brief changes too: its chain now embeds the
			// new parent brief even though its own fields did not move.
			childBrief := docBrief(child, link.dated, "")
			childBrief[link.briefField] = f.brief
			stack = append(stack, frame{docPath: child.Path, depth: f.depth + 1, brief: childBrief})
		}
	}
	return out, nil
}

// docBrief builds a brief map straight from a stored document, carrying
// dates when the level embeds them and passing the parent chain through.
func docBrief(doc *docstore.Document, dated bool, parentField string) map[string]any {
	b := map[string]any{
		"id":   doc.ID,
		"path": doc.Path,
		"name": mergeStr(nil, doc.Data["name"]),
	}
	if dated {
		mergeDate(b, "startDate", nil, doc.Data)
		mergeDate(b, "endDate", nil, doc.Data)
	}
	if parentField != "" {
		if pb, ok := doc.Data[parentField]; ok {
			b[parentField] = pb
		}
	}
	return b
}

// mergeDate writes the updated date if present, else carries the stored one.
func mergeDate(m map[string]any, key string, p *time.Time, cur map[string]any) {
	if p != nil {
		m[key] = *p
		return
	}
	if t, ok := cur[key].(time.Time); ok {
		m[key] = t
	}
}

func mergeMaps(ms ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// dateRangeCheck returns a transaction-scoped validator comparing updated
// dates against the parent document's range.
func (r *Repository) dateRangeCheck(start, end *time.Time, childKind, parentKind string) func(tx docstore.Tx, docPath string) error {
	if start == nil || end == nil {
		return nil
	}
	return func(tx docstore.Tx, docPath string) error {
		parentPath, ok := paths.ParentDoc(docPath)
		if !ok {
			return fmt.Errorf("%w: %q has no parent", paths.ErrInvalidPath, docPath)
		}
		parent, err := tx.Get(parentPath)
		if err != nil {
			return fmt.Errorf("%s %w", parentKind, err)
		}
		return checkDateRange(start, end, parent.Data, childKind, parentKind)
	}
}

// UpdateUser applies a partial update to the caller's own user document.
// Users embed no briefs in other documents, so there is no cascade.
func (r *Repository) UpdateUser(ctx context.Context, path string, update UserUpdate, caller Identity) error {
	docPath, err := paths.AsDocPath(path)
	if err != nil {
		return err
	}
	if err := r.authorize(ctx, caller, docPath); err != nil {
		return err
	}
	return r.db.Update(ctx, docPath, mergeMaps(update.fields(), r.updateMetadata(caller)))
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name          *string
	Affiliation   *string
	RaceLicenseID *string
	Address       *string
}

func (u UserUpdate) fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", u.Name)
	putStr(m, "affiliation", u.Affiliation)
	putStr(m, "raceLicenseId", u.RaceLicenseID)
	putStr(m, "address", u.Address)
	return m
}

// AddFavorite records the target document on the caller's favoriteRefs.
// Adding an already favorited document is a no-op.
func (r *Repository) AddFavorite(ctx context.Context, target string, caller Identity) error {
	docPath, err := paths.AsDocPath(target)
	if err != nil {
		return err
	}
	return r.editFavorites(ctx, caller, func(refs []any) []any {
		for _, v := range refs {
			if m, ok := v.(map[string]any); ok && m["path"] == docPath {
				return refs
			}
		}
		return append(refs, map[string]any{"id": paths.DocID(docPath), "path": docPath})
	})
}

// RemoveFavorite drops the target document from the caller's favoriteRefs.
func (r *Repository) RemoveFavorite(ctx context.Context, target string, caller Identity) error {
	docPath, err := paths.AsDocPath(target)
	if err != nil {
		return err
	}
	return r.editFavorites(ctx, caller, func(refs []any) []any {
		out := make([]any, 0, len(refs))
		for _, v := range refs {
			if m, ok := v.(map[string]any); ok && m["path"] == docPath {
				continue
			}
			out = append(out, v)
		}
		return out
	})
}

func (r *Repository) editFavorites(ctx context.Context, caller Identity, edit func([]any) []any) error {
	userPath := "users/" + caller.UID
	return r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		doc, err := tx.Get(userPath)
		if err != nil {
			return fmt.Errorf("user %w", err)
		}
		refs, _ := doc.Data["favoriteRefs"].([]any)
		return tx.Update(userPath, mergeMaps(map[string]any{
			"favoriteRefs": edit(refs),
		}, r.updateMetadata(caller)))
	})
}

// UpdateOrganizationStripeAccount records the organization's Stripe Connect
// account after onboarding or refresh.
func (r *Repository) UpdateOrganizationStripeAccount(ctx context.Context, organizationID, accountID string, account map[string]any, caller Identity) error {
	path := "organizations/" + organizationID
	if err := r.authorize(ctx, caller, path); err != nil {
		return err
	}
	return r.db.Update(ctx, path, mergeMaps(map[string]any{
		"stripe.connectAccountId": accountID,
		"stripe.account":          account,
	}, r.updateMetadata(caller)))
}

// UpdateOrganizationStripeAccountFromWebhook is the unauthenticated variant
// used by the account.updated webhook; the webhook signature is the caller.
func (r *Repository) UpdateOrganizationStripeAccountFromWebhook(ctx context.Context, organizationID, accountID string, account map[string]any) error {
	return r.db.Update(ctx, "organizations/"+organizationID, map[string]any{
		"stripe.connectAccountId": accountID,
		"stripe.account":          account,
		"metadata.lastModified":   r.now().UTC(),
	})
}
