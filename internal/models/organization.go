package models

// StripeInfo holds an organization's Stripe Connect linkage. Account is the
// raw account object as returned by Stripe, stored for display.
type StripeInfo struct {
	ConnectAccountID string         `json:"connectAccountId,omitempty" mapstructure:"connectAccountId"`
	Account          map[string]any `json:"account,omitempty" mapstructure:"account"`
}

// Organization is the root of the race-event hierarchy. MemberRefs is the
// authorization list: a caller may write anywhere in the subtree iff their
// user ref appears here.
type Organization struct {
	ID          string      `json:"id" mapstructure:"id"`
	Path        string      `json:"path" mapstructure:"path"`
	Name        string      `json:"name" mapstructure:"name"`
	Description string      `json:"description,omitempty" mapstructure:"description"`
	Website     string      `json:"website,omitempty" mapstructure:"website"`
	MemberRefs  []DocRef    `json:"memberRefs,omitempty" mapstructure:"memberRefs"`
	Stripe      *StripeInfo `json:"stripe,omitempty" mapstructure:"stripe"`
	Metadata    *Metadata   `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the organization for embedding in its descendants.
func (o *Organization) Brief() OrganizationBrief {
	return OrganizationBrief{ID: o.ID, Path: o.Path, Name: o.Name}
}
