package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueContributions is the Redis list key for confirmed payment jobs.
	QueueContributions = "worker:contributions"
	// QueueAccountSync is the Redis list key for Stripe Connect account
	// refresh jobs.
	QueueAccountSync = "worker:accounts"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeContribution JobType = "contribution"
	JobTypeAccountSync  JobType = "account_sync"
)

// ContributionPayload is the payload for confirmed payment jobs, extracted
// from the payment_intent.succeeded webhook event.
type ContributionPayload struct {
	PaymentIntentID string    `json:"payment_intent_id"`
	PreemPath       string    `json:"preem_path"`
	UserID          string    `json:"user_id,omitempty"`
	Amount          float64   `json:"amount"`
	Message         string    `json:"message,omitempty"`
	IsAnonymous     bool      `json:"is_anonymous,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}

// AccountSyncPayload is the payload for Connect account refresh jobs.
type AccountSyncPayload struct {
	OrganizationID string `json:"organization_id"`
	AccountID      string `json:"account_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueContribution enqueues a confirmed payment job.
func (q *Queue) EnqueueContribution(ctx context.Context, payload ContributionPayload) error {
	return q.enqueue(ctx, QueueContributions, JobTypeContribution, payload,
		zap.String("payment_intent_id", payload.PaymentIntentID))
}

// EnqueueAccountSync enqueues a Connect account refresh job.
func (q *Queue) EnqueueAccountSync(ctx context.Context, payload AccountSyncPayload) error {
	return q.enqueue(ctx, QueueAccountSync, JobTypeAccountSync, payload,
		zap.String("account_id", payload.AccountID))
}

func (q *Queue) enqueue(ctx context.Context, key string, typ JobType, payload any, field zap.Field) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(typ)), field)
	return nil
}

// Dequeue blocks until a job is available or ctx is done. Returns job and key (queue name).
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, 0, QueueContributions, QueueAccountSync).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job, key string) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
