package models

import "time"

// Briefs are denormalized summaries of a parent entity embedded in every
// descendant document so lists render without extra reads. Briefs nest: a
// contribution's preemBrief carries the whole chain up to organizationBrief.
// They are derived, never edited directly; the cascade engine rewrites them
// whenever a brief-relevant field (name, startDate, endDate) changes on the
// live parent.

// OrganizationBrief summarizes an organization.
type OrganizationBrief struct {
	ID   string `json:"id" mapstructure:"id"`
	Path string `json:"path" mapstructure:"path"`
	Name string `json:"name,omitempty" mapstructure:"name"`
}

// SeriesBrief summarizes a series, including the organization chain.
type SeriesBrief struct {
	ID                string            `json:"id" mapstructure:"id"`
	Path              string            `json:"path" mapstructure:"path"`
	Name              string            `json:"name,omitempty" mapstructure:"name"`
	StartDate         *time.Time        `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate           *time.Time        `json:"endDate,omitempty" mapstructure:"endDate"`
	OrganizationBrief OrganizationBrief `json:"organizationBrief" mapstructure:"organizationBrief"`
}

// EventBrief summarizes an event, including the series chain.
type EventBrief struct {
	ID          string      `json:"id" mapstructure:"id"`
	Path        string      `json:"path" mapstructure:"path"`
	Name        string      `json:"name,omitempty" mapstructure:"name"`
	StartDate   *time.Time  `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate     *time.Time  `json:"endDate,omitempty" mapstructure:"endDate"`
	SeriesBrief SeriesBrief `json:"seriesBrief" mapstructure:"seriesBrief"`
}

// RaceBrief summarizes a race, including the event chain.
type RaceBrief struct {
	ID         string     `json:"id" mapstructure:"id"`
	Path       string     `json:"path" mapstructure:"path"`
	Name       string     `json:"name,omitempty" mapstructure:"name"`
	StartDate  *time.Time `json:"startDate,omitempty" mapstructure:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty" mapstructure:"endDate"`
	EventBrief EventBrief `json:"eventBrief" mapstructure:"eventBrief"`
}

// PreemBrief summarizes a preem, including the race chain. Preems carry no
// dates of their own.
type PreemBrief struct {
	ID        string    `json:"id" mapstructure:"id"`
	Path      string    `json:"path" mapstructure:"path"`
	Name      string    `json:"name,omitempty" mapstructure:"name"`
	RaceBrief RaceBrief `json:"raceBrief" mapstructure:"raceBrief"`
}

// UserBrief summarizes a user for embedding in contributions.
type UserBrief struct {
	ID        string `json:"id" mapstructure:"id"`
	Path      string `json:"path" mapstructure:"path"`
	Name      string `json:"name,omitempty" mapstructure:"name"`
	AvatarURL string `json:"avatarUrl,omitempty" mapstructure:"avatarUrl"`
}

func briefBase(id, path, name string) map[string]any {
	return map[string]any{"id": id, "path": path, "name": name}
}

func putDates(m map[string]any, start, end *time.Time) {
	if start != nil {
		m["startDate"] = *start
	}
	if end != nil {
		m["endDate"] = *end
	}
}

// Map returns the storable form of the brief.
func (b OrganizationBrief) Map() map[string]any {
	return briefBase(b.ID, b.Path, b.Name)
}

// Map returns the storable form of the brief.
func (b SeriesBrief) Map() map[string]any {
	m := briefBase(b.ID, b.Path, b.Name)
	putDates(m, b.StartDate, b.EndDate)
	m["organizationBrief"] = b.OrganizationBrief.Map()
	return m
}

// Map returns the storable form of the brief.
func (b EventBrief) Map() map[string]any {
	m := briefBase(b.ID, b.Path, b.Name)
	putDates(m, b.StartDate, b.EndDate)
	m["seriesBrief"] = b.SeriesBrief.Map()
	return m
}

// Map returns the storable form of the brief.
func (b RaceBrief) Map() map[string]any {
	m := briefBase(b.ID, b.Path, b.Name)
	putDates(m, b.StartDate, b.EndDate)
	m["eventBrief"] = b.EventBrief.Map()
	return m
}

// Map returns the storable form of the brief.
func (b PreemBrief) Map() map[string]any {
	m := briefBase(b.ID, b.Path, b.Name)
	m["raceBrief"] = b.RaceBrief.Map()
	return m
}

// Map returns the storable form of the brief.
func (b UserBrief) Map() map[string]any {
	m := briefBase(b.ID, b.Path, b.Name)
	if b.AvatarURL != "" {
		m["avatarUrl"] = b.AvatarURL
	}
	return m
}
