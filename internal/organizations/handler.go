// Package organizations exposes the organization HTTP endpoints: CRUD,
// member invites, and Stripe Connect onboarding.
package organizations

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/middleware"
	"github.com/velopreem/backend/internal/paths"
	"github.com/velopreem/backend/internal/payments"
	"github.com/velopreem/backend/pkg/queue"
	"github.com/velopreem/backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo     *datastore.Repository
	payments *payments.Service
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewHandler creates an organizations handler. payments and queue may be nil
// when Stripe is not configured.
func NewHandler(repo *datastore.Repository, pay *payments.Service, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, payments: pay, queue: q, logger: logger}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// Create handles POST /organizations. Creates the org with the current user
// as its first member.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 1 || len(body.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}
	org, err := h.repo.CreateOrganization(c.Request.Context(), datastore.NewOrganization{
		Name:        body.Name,
		Description: body.Description,
		Website:     body.Website,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// List handles GET /organizations.
func (h *Handler) List(c *gin.Context) {
	orgs, err := h.repo.ListOrganizations(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to list organizations")
		return
	}
	response.OK(c, orgs)
}

// Get handles GET /organizations/:id. Returns the organization with its
// full series subtree.
func (h *Handler) Get(c *gin.Context) {
	tree, err := h.repo.GetOrganizationWithSeries(c.Request.Context(), "organizations/"+c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load organization")
		return
	}
	response.OK(c, tree)
}

// UpdateOrganizationRequest is the body for PATCH /organizations/:id.
// Absent fields are left unchanged.
type UpdateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

// Update handles PATCH /organizations/:id. A name change rewrites the
// briefs across the whole subtree; the response lists every written doc.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	applied, err := h.repo.UpdateOrganization(c.Request.Context(), "organizations/"+c.Param("id"), datastore.OrganizationUpdate{
		Name:        body.Name,
		Description: body.Description,
		Website:     body.Website,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to update organization")
		return
	}
	response.OK(c, applied)
}

// InviteRequest is the body for POST /organizations/:id/invites.
type InviteRequest struct {
	Email string `json:"email"`
	UID   string `json:"uid"`
}

// Invite handles POST /organizations/:id/invites.
func (h *Handler) Invite(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email or uid required")
		return
	}
	invite, err := h.repo.CreateInvite(c.Request.Context(), "organizations/"+c.Param("id"), datastore.NewInvite{
		Email: body.Email,
		UID:   body.UID,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to create invite")
		return
	}
	response.Created(c, invite)
}

// ConnectStripe handles POST /organizations/:id/stripe/connect. Returns the
// Stripe-hosted onboarding URL.
func (h *Handler) ConnectStripe(c *gin.Context) {
	if h.payments == nil {
		response.ServiceUnavailable(c, "stripe is not configured")
		return
	}
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	onboarding, err := h.payments.StartConnectOnboarding(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.fail(c, err, "failed to start onboarding")
		return
	}
	response.OK(c, onboarding)
}

// RefreshStripe handles POST /organizations/:id/stripe/refresh. Enqueues a
// background account sync.
func (h *Handler) RefreshStripe(c *gin.Context) {
	if h.queue == nil {
		response.ServiceUnavailable(c, "stripe is not configured")
		return
	}
	org, err := h.repo.GetOrganization(c.Request.Context(), "organizations/"+c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load organization")
		return
	}
	if org.Stripe == nil || org.Stripe.ConnectAccountID == "" {
		response.BadRequest(c, "organization has no connected stripe account")
		return
	}
	if err := h.queue.EnqueueAccountSync(c.Request.Context(), queue.AccountSyncPayload{
		OrganizationID: org.ID,
		AccountID:      org.Stripe.ConnectAccountID,
	}); err != nil {
		h.fail(c, err, "failed to enqueue sync")
		return
	}
	response.NoContent(c)
}

// fail maps datastore errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, datastore.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, docstore.ErrExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, paths.ErrInvalidPath):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}
