package models

import "time"

// Preem types and statuses.
const (
	PreemTypePooled  = "Pooled"
	PreemTypeOneShot = "One-Shot"

	PreemStatusOpen       = "Open"
	PreemStatusMinimumMet = "Minimum Met"
	PreemStatusAwarded    = "Awarded"
)

// Preem is a mid-race prize funded by contributions.
type Preem struct {
	ID               string     `json:"id" mapstructure:"id"`
	Path             string     `json:"path" mapstructure:"path"`
	Name             string     `json:"name,omitempty" mapstructure:"name"`
	Description      string     `json:"description,omitempty" mapstructure:"description"`
	Type             string     `json:"type,omitempty" mapstructure:"type"`
	Status           string     `json:"status,omitempty" mapstructure:"status"`
	PrizePool        float64    `json:"prizePool,omitempty" mapstructure:"prizePool"`
	TimeLimit        *time.Time `json:"timeLimit,omitempty" mapstructure:"timeLimit"`
	MinimumThreshold float64    `json:"minimumThreshold,omitempty" mapstructure:"minimumThreshold"`
	RaceBrief        RaceBrief  `json:"raceBrief" mapstructure:"raceBrief"`
	Metadata         *Metadata  `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the preem for embedding in its contributions.
func (p *Preem) Brief() PreemBrief {
	return PreemBrief{ID: p.ID, Path: p.Path, Name: p.Name, RaceBrief: p.RaceBrief}
}
