package models

import "time"

// Event is a race day within a series.
type Event struct {
	ID          string      `json:"id" mapstructure:"id"`
	Path        string      `json:"path" mapstructure:"path"`
	Name        string      `json:"name,omitempty" mapstructure:"name"`
	Description string      `json:"description,omitempty" mapstructure:"description"`
	Website     string      `json:"website,omitempty" mapstructure:"website"`
	Location    string      `json:"location,omitempty" mapstructure:"location"`
	StartDate   *time.Time  `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate     *time.Time  `json:"endDate,omitempty" mapstructure:"endDate"`
	Timezone    string      `json:"timezone,omitempty" mapstructure:"timezone"`
	SeriesBrief SeriesBrief `json:"seriesBrief" mapstructure:"seriesBrief"`
	Metadata    *Metadata   `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the event for embedding in its descendants.
func (e *Event) Brief() EventBrief {
	return EventBrief{
		ID:          e.ID,
		Path:        e.Path,
		Name:        e.Name,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		SeriesBrief: e.SeriesBrief,
	}
}
