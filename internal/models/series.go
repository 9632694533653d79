package models

import "time"

// Series is a season of events run by one organization.
type Series struct {
	ID                string            `json:"id" mapstructure:"id"`
	Path              string            `json:"path" mapstructure:"path"`
	Name              string            `json:"name,omitempty" mapstructure:"name"`
	Description       string            `json:"description,omitempty" mapstructure:"description"`
	Website           string            `json:"website,omitempty" mapstructure:"website"`
	Location          string            `json:"location,omitempty" mapstructure:"location"`
	StartDate         *time.Time        `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate           *time.Time        `json:"endDate,omitempty" mapstructure:"endDate"`
	Timezone          string            `json:"timezone,omitempty" mapstructure:"timezone"`
	OrganizationBrief OrganizationBrief `json:"organizationBrief" mapstructure:"organizationBrief"`
	Metadata          *Metadata         `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the series for embedding in its descendants. The
// organization chain is passed through from the document, not re-fetched.
func (s *Series) Brief() SeriesBrief {
	return SeriesBrief{
		ID:                s.ID,
		Path:              s.Path,
		Name:              s.Name,
		StartDate:         s.StartDate,
		EndDate:           s.EndDate,
		OrganizationBrief: s.OrganizationBrief,
	}
}
