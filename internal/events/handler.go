// Package events exposes the HTTP endpoints for the hierarchy below
// organizations: series, events, races, and preems. Documents are addressed
// by the compact ids-only URL path in the "path" query parameter (an
// optional "view/" prefix is accepted), which keeps deep hierarchy paths
// out of the route table.
package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/middleware"
	"github.com/velopreem/backend/internal/paths"
	"github.com/velopreem/backend/pkg/response"
)

// Handler handles hierarchy HTTP endpoints.
type Handler struct {
	repo   *datastore.Repository
	logger *zap.Logger
}

// NewHandler creates a hierarchy handler.
func NewHandler(repo *datastore.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// docPathParam resolves the "path" query parameter to a full document path.
func docPathParam(c *gin.Context) (string, bool) {
	p, err := paths.ToDocPath(c.Query("path"))
	if err != nil {
		response.BadRequest(c, "invalid path: "+err.Error())
		return "", false
	}
	return p, true
}

// View handles GET /view. Returns the addressed document with its fetched
// sub-collections; the shape depends on the document's collection.
func (h *Handler) View(c *gin.Context) {
	docPath, ok := docPathParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var (
		data any
		err  error
	)
	switch paths.CollectionGroup(docPath) {
	case "organizations":
		data, err = h.repo.GetOrganizationWithSeries(ctx, docPath)
	case "series":
		data, err = h.repo.GetSeriesWithEvents(ctx, docPath)
	case "events":
		data, err = h.repo.GetEventWithRaces(ctx, docPath)
	case "races":
		data, err = h.repo.GetRaceWithPreems(ctx, docPath)
	case "preems":
		data, err = h.repo.GetPreemWithContributions(ctx, docPath)
	case "users":
		data, err = h.repo.GetUser(ctx, paths.DocID(docPath))
	default:
		response.BadRequest(c, "unsupported path")
		return
	}
	if err != nil {
		h.fail(c, err, "failed to load document")
		return
	}
	response.OK(c, data)
}

// datedBody is the shared create/request shape for series and events.
type datedBody struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Website     string     `json:"website"`
	Location    string     `json:"location"`
	Timezone    string     `json:"timezone"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// CreateSeries handles POST /series. The "path" parameter addresses the
// parent organization.
func (h *Handler) CreateSeries(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	parent, ok := docPathParam(c)
	if !ok {
		return
	}
	var body datedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	series, err := h.repo.CreateSeries(c.Request.Context(), parent, datastore.NewSeries{
		Name:        body.Name,
		Description: body.Description,
		Website:     body.Website,
		Location:    body.Location,
		Timezone:    body.Timezone,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create series")
		return
	}
	response.Created(c, series)
}

// CreateEvent handles POST /events. The "path" parameter addresses the
// parent series.
func (h *Handler) CreateEvent(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	parent, ok := docPathParam(c)
	if !ok {
		return
	}
	var body datedBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	event, err := h.repo.CreateEvent(c.Request.Context(), parent, datastore.NewEvent{
		Name:        body.Name,
		Description: body.Description,
		Website:     body.Website,
		Location:    body.Location,
		Timezone:    body.Timezone,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create event")
		return
	}
	response.Created(c, event)
}

// CreateRaceRequest is the body for POST /races.
type CreateRaceRequest struct {
	Name          string     `json:"name" binding:"required"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	Category      string     `json:"category"`
	Gender        string     `json:"gender"`
	CourseDetails string     `json:"courseDetails"`
	CourseLink    string     `json:"courseLink"`
	Duration      string     `json:"duration"`
	Timezone      string     `json:"timezone"`
	MaxRacers     int        `json:"maxRacers"`
	Laps          int        `json:"laps"`
	Podiums       int        `json:"podiums"`
	Sponsors      []string   `json:"sponsors"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
}

// CreateRace handles POST /races. The "path" parameter addresses the
// parent event.
func (h *Handler) CreateRace(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	parent, ok := docPathParam(c)
	if !ok {
		return
	}
	var body CreateRaceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	race, err := h.repo.CreateRace(c.Request.Context(), parent, datastore.NewRace{
		Name:          body.Name,
		Description:   body.Description,
		Location:      body.Location,
		Category:      body.Category,
		Gender:        body.Gender,
		CourseDetails: body.CourseDetails,
		CourseLink:    body.CourseLink,
		Duration:      body.Duration,
		Timezone:      body.Timezone,
		MaxRacers:     body.MaxRacers,
		Laps:          body.Laps,
		Podiums:       body.Podiums,
		Sponsors:      body.Sponsors,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create race")
		return
	}
	response.Created(c, race)
}

// CreatePreemRequest is the body for POST /preems.
type CreatePreemRequest struct {
	Name             string     `json:"name" binding:"required"`
	Description      string     `json:"description"`
	Type             string     `json:"type"`
	MinimumThreshold float64    `json:"minimumThreshold"`
	TimeLimit        *time.Time `json:"timeLimit"`
}

// CreatePreem handles POST /preems. The "path" parameter addresses the
// parent race.
func (h *Handler) CreatePreem(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	parent, ok := docPathParam(c)
	if !ok {
		return
	}
	var body CreatePreemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	preem, err := h.repo.CreatePreem(c.Request.Context(), parent, datastore.NewPreem{
		Name:             body.Name,
		Description:      body.Description,
		Type:             body.Type,
		MinimumThreshold: body.MinimumThreshold,
		TimeLimit:        body.TimeLimit,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create preem")
		return
	}
	response.Created(c, preem)
}

// updateBody is the shared partial update shape; absent fields are left
// unchanged. Extra fields are ignored by the narrower entity types.
type updateBody struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Website     *string    `json:"website"`
	Location    *string    `json:"location"`
	MaxRacers   *int       `json:"maxRacers"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

// Update handles PATCH /docs. Dispatches on the addressed collection and
// returns every document written, cascaded brief rewrites included.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	docPath, ok := docPathParam(c)
	if !ok {
		return
	}
	var body updateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		applied []datastore.DocUpdate
		err     error
	)
	switch paths.CollectionGroup(docPath) {
	case "organizations":
		applied, err = h.repo.UpdateOrganization(ctx, docPath, datastore.OrganizationUpdate{
			Name: body.Name, Description: body.Description, Website: body.Website,
		}, caller)
	case "series":
		applied, err = h.repo.UpdateSeries(ctx, docPath, datastore.SeriesUpdate{
			Name: body.Name, Description: body.Description, Website: body.Website,
			Location: body.Location, StartDate: body.StartDate, EndDate: body.EndDate,
		}, caller)
	case "events":
		applied, err = h.repo.UpdateEvent(ctx, docPath, datastore.EventUpdate{
			Name: body.Name, Description: body.Description, Website: body.Website,
			Location: body.Location, StartDate: body.StartDate, EndDate: body.EndDate,
		}, caller)
	case "races":
		applied, err = h.repo.UpdateRace(ctx, docPath, datastore.RaceUpdate{
			Name: body.Name, Description: body.Description, Location: body.Location,
			MaxRacers: body.MaxRacers, StartDate: body.StartDate, EndDate: body.EndDate,
		}, caller)
	case "preems":
		applied, err = h.repo.UpdatePreem(ctx, docPath, datastore.PreemUpdate{
			Name: body.Name, Description: body.Description,
		}, caller)
	default:
		response.BadRequest(c, "unsupported path")
		return
	}
	if err != nil {
		h.fail(c, err, "failed to update document")
		return
	}
	response.OK(c, applied)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, datastore.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, datastore.ErrDateRange):
		response.BadRequest(c, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, paths.ErrInvalidPath):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}
