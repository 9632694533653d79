// Package users exposes the current user's profile endpoints.
package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/middleware"
	"github.com/velopreem/backend/internal/paths"
	"github.com/velopreem/backend/pkg/response"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	repo   *datastore.Repository
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo *datastore.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	user, err := h.repo.GetUser(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	response.OK(c, user)
}

// UpdateMeRequest is the body for PATCH /users/me. Absent fields are left
// unchanged.
type UpdateMeRequest struct {
	Name          *string `json:"name"`
	Affiliation   *string `json:"affiliation"`
	RaceLicenseID *string `json:"raceLicenseId"`
	Address       *string `json:"address"`
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body UpdateMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	err := h.repo.UpdateUser(c.Request.Context(), "users/"+caller.UID, datastore.UserUpdate{
		Name:          body.Name,
		Affiliation:   body.Affiliation,
		RaceLicenseID: body.RaceLicenseID,
		Address:       body.Address,
	}, caller)
	if err != nil {
		h.fail(c, err, "failed to update user")
		return
	}
	user, err := h.repo.GetUser(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	response.OK(c, user)
}

// FavoriteRequest is the body for POST /users/me/favorites. Path is the
// compact URL form of the document to favorite.
type FavoriteRequest struct {
	Path string `json:"path" binding:"required"`
}

// AddFavorite handles POST /users/me/favorites.
func (h *Handler) AddFavorite(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body FavoriteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := paths.ToDocPath(body.Path)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.repo.AddFavorite(c.Request.Context(), p, caller); err != nil {
		h.fail(c, err, "failed to add favorite")
		return
	}
	user, err := h.repo.GetUser(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	response.OK(c, user)
}

// RemoveFavorite handles DELETE /users/me/favorites.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	p, err := paths.ToDocPath(c.Query("path"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.repo.RemoveFavorite(c.Request.Context(), p, caller); err != nil {
		h.fail(c, err, "failed to remove favorite")
		return
	}
	user, err := h.repo.GetUser(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	response.OK(c, user)
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, datastore.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, paths.ErrInvalidPath):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}
