// Package worker drains the Redis job queues: confirmed payments become
// contribution documents and Connect account refreshes are pulled from
// Stripe. Jobs are retried with backoff and dead-lettered after
// queue.MaxRetries attempts.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/livefeed"
	"github.com/velopreem/backend/internal/paths"
	"github.com/velopreem/backend/internal/payments"
	"github.com/velopreem/backend/pkg/queue"
)

// Processor executes queued jobs against the datastore and Stripe.
type Processor struct {
	repo     *datastore.Repository
	payments *payments.Service
	queue    *queue.Queue
	feed     livefeed.Publisher
	logger   *zap.Logger
}

// NewProcessor creates a job processor. feed may be nil when no live feed
// is running.
func NewProcessor(repo *datastore.Repository, pay *payments.Service, q *queue.Queue, feed livefeed.Publisher, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{repo: repo, payments: pay, queue: q, feed: feed, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeContribution:
		return p.processContribution(ctx, job)
	case queue.JobTypeAccountSync:
		return p.processAccountSync(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processContribution(ctx context.Context, job *queue.Job) error {
	var payload queue.ContributionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	contribution, err := p.repo.ProcessContribution(ctx, datastore.ConfirmedPayment{
		IntentID:    payload.PaymentIntentID,
		PreemPath:   payload.PreemPath,
		UserID:      payload.UserID,
		Amount:      payload.Amount,
		Message:     payload.Message,
		IsAnonymous: payload.IsAnonymous,
		Received:    payload.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("process contribution: %w", err)
	}

	p.announce(ctx, payload.PreemPath, contribution)
	return nil
}

// announce pushes the contribution and the preem's new standing to the race
// feed. Feed errors are logged, not returned: the contribution is already
// durable and must not be retried for a broadcast failure.
func (p *Processor) announce(ctx context.Context, preemPath string, contribution any) {
	if p.feed == nil {
		return
	}
	racePath, ok := paths.ParentDoc(preemPath)
	if !ok {
		return
	}

	if body, err := json.Marshal(contribution); err == nil {
		if err := p.feed.PublishRaceEvent(racePath, livefeed.EventContribution, body); err != nil {
			p.logger.Warn("feed publish failed", zap.Error(err), zap.String("race", racePath))
		}
	}
	preem, err := p.repo.GetPreem(ctx, preemPath)
	if err != nil {
		p.logger.Warn("preem reload failed", zap.Error(err), zap.String("preem", preemPath))
		return
	}
	if body, err := json.Marshal(preem); err == nil {
		if err := p.feed.PublishRaceEvent(racePath, livefeed.EventPreemUpdated, body); err != nil {
			p.logger.Warn("feed publish failed", zap.Error(err), zap.String("race", racePath))
		}
	}
}

func (p *Processor) processAccountSync(ctx context.Context, job *queue.Job) error {
	var payload queue.AccountSyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.payments.SyncAccount(ctx, payload.OrganizationID, payload.AccountID); err != nil {
		return fmt.Errorf("sync account: %w", err)
	}
	p.logger.Info("connect account synced",
		zap.String("organization", payload.OrganizationID),
		zap.String("account_id", payload.AccountID),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, key, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job, key); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
