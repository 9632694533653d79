// Package contributions exposes the payment endpoints: starting a
// contribution to a preem and the Stripe webhook that settles it. The
// webhook only verifies and enqueues; the worker writes the contribution so
// Stripe gets a fast 200 regardless of datastore latency.
package contributions

import (
	"errors"
	"io"
	"net/http"
	"time"

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

const maxWebhookBody = 1 << 16

// Handler handles contribution HTTP endpoints.
type Handler struct {
	repo     *datastore.Repository
	payments *payments.Service
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewHandler creates a contributions handler.
func NewHandler(repo *datastore.Repository, pay *payments.Service, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, payments: pay, queue: q, logger: logger}
}

// CheckoutRequest is the body for POST /contributions/checkout.
type CheckoutRequest struct {
	Path      string  `json:"path" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Message   string  `json:"message"`
	Anonymous bool    `json:"anonymous"`
}

// Checkout handles POST /contributions/checkout. Creates a payment intent
// for the preem addressed by the ids-only URL path and returns its client
// secret for the embedded payment form.
func (h *Handler) Checkout(c *gin.Context) {
	if h.payments == nil {
		response.ServiceUnavailable(c, "stripe is not configured")
		return
	}
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var body CheckoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	preemPath, err := paths.ToDocPath(body.Path)
	if err != nil {
		response.BadRequest(c, "invalid path: "+err.Error())
		return
	}
	intent, err := h.payments.CreateContributionIntent(c.Request.Context(), preemPath, body.Amount, body.Message, body.Anonymous, caller)
	if err != nil {
		h.fail(c, err, "failed to start contribution")
		return
	}
	response.OK(c, intent)
}

// ListMine handles GET /contributions. Returns the caller's contributions
// to the preem addressed by the "path" query parameter.
func (h *Handler) ListMine(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	preemPath, err := paths.ToDocPath(c.Query("path"))
	if err != nil {
		response.BadRequest(c, "invalid path: "+err.Error())
		return
	}
	list, err := h.repo.ListContributionsByUser(c.Request.Context(), preemPath, caller.UID)
	if err != nil {
		h.fail(c, err, "failed to list contributions")
		return
	}
	response.OK(c, list)
}

// Webhook handles POST /webhooks/stripe. Signature-verified events are
// acknowledged immediately; settlement happens in the worker.
func (h *Handler) Webhook(c *gin.Context) {
	if h.payments == nil || h.queue == nil {
		c.String(http.StatusServiceUnavailable, "stripe is not configured")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}
	event, err := h.payments.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook rejected", zap.Error(err))
		c.String(http.StatusBadRequest, "signature verification failed")
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "payment_intent.succeeded":
		pi, err := payments.ParsePaymentIntent(event)
		if err != nil {
			c.String(http.StatusBadRequest, "bad event payload")
			return
		}
		preemPath := pi.Metadata["preemPath"]
		if preemPath == "" {
			h.logger.Error("payment intent missing preemPath metadata", zap.String("payment_intent_id", pi.ID))
			break // acknowledge; retrying will not add the metadata
		}
		err = h.queue.EnqueueContribution(ctx, queue.ContributionPayload{
			PaymentIntentID: pi.ID,
			PreemPath:       preemPath,
			UserID:          pi.Metadata["userId"],
			Amount:          float64(pi.Amount) / 100,
			Message:         pi.Metadata["message"],
			IsAnonymous:     pi.Metadata["anonymous"] == "true",
			ReceivedAt:      time.Now().UTC(),
		})
		if err != nil {
			h.logger.Error("enqueue contribution failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "enqueue failed")
			return
		}
	case "account.updated":
		acct, err := payments.ParseAccount(event)
		if err != nil {
			c.String(http.StatusBadRequest, "bad event payload")
			return
		}
		org, err := h.repo.GetOrganizationByStripeAccount(ctx, acct.ID)
		if err != nil {
			h.logger.Warn("no organization for stripe account", zap.String("account_id", acct.ID))
			break
		}
		if err := h.queue.EnqueueAccountSync(ctx, queue.AccountSyncPayload{
			OrganizationID: org.ID,
			AccountID:      acct.ID,
		}); err != nil {
			h.logger.Error("enqueue account sync failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "enqueue failed")
			return
		}
	default:
		h.logger.Debug("unhandled stripe event", zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, datastore.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, payments.ErrNotConnected):
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
