package models

// Invite statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
)

// Invite grants organization membership to a user who may not exist yet,
// matched by email or uid when the user record is created.
type Invite struct {
	ID               string    `json:"id" mapstructure:"id"`
	Path             string    `json:"path" mapstructure:"path"`
	Email            string    `json:"email,omitempty" mapstructure:"email"`
	UID              string    `json:"uid,omitempty" mapstructure:"uid"`
	Status           string    `json:"status,omitempty" mapstructure:"status"`
	OrganizationRefs []DocRef  `json:"organizationRefs,omitempty" mapstructure:"organizationRefs"`
	Metadata         *Metadata `json:"metadata,omitempty" mapstructure:"metadata"`
}
