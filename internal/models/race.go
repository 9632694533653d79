package models

import "time"

// Race is a single race within an event.
type Race struct {
	ID            string     `json:"id" mapstructure:"id"`
	Path          string     `json:"path" mapstructure:"path"`
	Name          string     `json:"name,omitempty" mapstructure:"name"`
	Description   string     `json:"description,omitempty" mapstructure:"description"`
	Website       string     `json:"website,omitempty" mapstructure:"website"`
	Location      string     `json:"location,omitempty" mapstructure:"location"`
	Category      string     `json:"category,omitempty" mapstructure:"category"`
	Gender        string     `json:"gender,omitempty" mapstructure:"gender"`
	CourseDetails string     `json:"courseDetails,omitempty" mapstructure:"courseDetails"`
	CourseLink    string     `json:"courseLink,omitempty" mapstructure:"courseLink"`
	MaxRacers     int        `json:"maxRacers,omitempty" mapstructure:"maxRacers"`
	CurrentRacers int        `json:"currentRacers,omitempty" mapstructure:"currentRacers"`
	Duration      string     `json:"duration,omitempty" mapstructure:"duration"`
	Laps          int        `json:"laps,omitempty" mapstructure:"laps"`
	Podiums       int        `json:"podiums,omitempty" mapstructure:"podiums"`
	Sponsors      []string   `json:"sponsors,omitempty" mapstructure:"sponsors"`
	StartDate     *time.Time `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate       *time.Time `json:"endDate,omitempty" mapstructure:"endDate"`
	Timezone      string     `json:"timezone,omitempty" mapstructure:"timezone"`
	EventBrief    EventBrief `json:"eventBrief" mapstructure:"eventBrief"`
	Metadata      *Metadata  `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Brief projects the race for embedding in its descendants.
func (r *Race) Brief() RaceBrief {
	return RaceBrief{
		ID:         r.ID,
		Path:       r.Path,
		Name:       r.Name,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		EventBrief: r.EventBrief,
	}
}
