package models

import "time"

// Contribution statuses.
const (
	ContributionStatusPending   = "pending"
	ContributionStatusConfirmed = "confirmed"
	ContributionStatusFailed    = "failed"
)

// Contribution is a payment into a preem's prize pool. Its id is the Stripe
// payment intent id, which makes webhook processing idempotent.
type Contribution struct {
	ID          string         `json:"id" mapstructure:"id"`
	Path        string         `json:"path" mapstructure:"path"`
	Amount      float64        `json:"amount,omitempty" mapstructure:"amount"`
	Date        *time.Time     `json:"date,omitempty" mapstructure:"date"`
	Message     string         `json:"message,omitempty" mapstructure:"message"`
	Status      string         `json:"status,omitempty" mapstructure:"status"`
	IsAnonymous bool           `json:"isAnonymous,omitempty" mapstructure:"isAnonymous"`
	Contributor *DocRef        `json:"contributor,omitempty" mapstructure:"contributor"`
	Stripe      map[string]any `json:"stripe,omitempty" mapstructure:"stripe"`
	PreemBrief  PreemBrief     `json:"preemBrief" mapstructure:"preemBrief"`
	Metadata    *Metadata      `json:"metadata,omitempty" mapstructure:"metadata"`
}
