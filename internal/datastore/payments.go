package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/docstore"
	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

// ConfirmedPayment is a settled Stripe payment intent, as extracted from
// the payment_intent.succeeded webhook event.
type ConfirmedPayment struct {
	IntentID    string
	PreemPath   string
	UserID      string
	Amount      float64
	Message     string
	IsAnonymous bool
	Received    time.Time
}

// ProcessContribution records a confirmed payment as a contribution and
// adds its amount to the preem's prize pool, in one transaction. The
// contribution is keyed by the payment intent id, so redelivered webhook
// events are no-ops.
func (r *Repository) ProcessContribution(ctx context.Context, p ConfirmedPayment) (*models.Contribution, error) {
	preemPath, err := paths.AsDocPath(p.PreemPath)
	if err != nil {
		return nil, err
	}
	if paths.CollectionGroup(preemPath) != "preems" {
		return nil, fmt.Errorf("%w: %q is not a preem path", paths.ErrInvalidPath, p.PreemPath)
	}
	if p.IntentID == "" {
		return nil, fmt.Errorf("%w: payment has no intent id", paths.ErrInvalidPath)
	}

	docPath := preemPath + "/contributions/" + p.IntentID
	var data map[string]any
	err = r.db.RunTransaction(ctx, func(tx docstore.Tx) error {
		data = nil

		existing, err := tx.Get(docPath)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Data["status"] == models.ContributionStatusConfirmed {
			data = existing.Data
			return nil
		}

		preem, err := tx.Get(preemPath)
		if err != nil {
			return fmt.Errorf("preem %w", err)
		}

		received := p.Received
		if received.IsZero() {
			received = r.now()
		}
		data = map[string]any{
			"id":          p.IntentID,
			"path":        docPath,
			"amount":      p.Amount,
			"date":        received.UTC(),
			"status":      models.ContributionStatusConfirmed,
			"isAnonymous": p.IsAnonymous,
			"stripe":      map[string]any{"paymentIntentId": p.IntentID},
			"preemBrief":  docBrief(preem, false, "raceBrief"),
			"metadata": map[string]any{
				"created":      r.now().UTC(),
				"lastModified": r.now().UTC(),
			},
		}
		putNonEmpty(data, "message", p.Message)
		if p.UserID != "" && !p.IsAnonymous {
			data["contributor"] = models.DocRef{ID: p.UserID, Path: "users/" + p.UserID}.Map()
		}

		pool, _ := preem.Data["prizePool"].(float64)
		updates := map[string]any{
			"prizePool":             pool + p.Amount,
			"metadata.lastModified": r.now().UTC(),
		}
		if threshold, ok := preem.Data["minimumThreshold"].(float64); ok &&
			preem.Data["status"] == models.PreemStatusOpen && pool+p.Amount >= threshold {
			updates["status"] = models.PreemStatusMinimumMet
		}

		if err := tx.Set(docPath, data); err != nil {
			return err
		}
		return tx.Update(preemPath, updates)
	})
	if err != nil {
		return nil, err
	}

	var c models.Contribution
	if err := decodeInto(data, &c); err != nil {
		return nil, err
	}
	r.logger.Info("contribution recorded",
		zapPath(docPath),
		zap.Float64("amount", p.Amount),
	)
	return &c, nil
}
