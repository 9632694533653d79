package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBriefProjection(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)

	s := Series{
		ID:          "s1",
		Path:        "organizations/o1/series/s1",
		Name:        "Crit Series",
		Description: "weekly crits",
		StartDate:   &start,
		EndDate:     &end,
		OrganizationBrief: OrganizationBrief{
			ID: "o1", Path: "organizations/o1", Name: "Racing Club",
		},
	}

	b := s.Brief()
	assert.Equal(t, s.ID, b.ID)
	assert.Equal(t, s.Name, b.Name)
	assert.Equal(t, &start, b.StartDate)
	assert.Equal(t, "Racing Club", b.OrganizationBrief.Name)

	m := b.Map()
	assert.Equal(t, "Crit Series", m["name"])
	assert.Equal(t, start, m["startDate"])
	// description is not part of the brief
	_, ok := m["description"]
	assert.False(t, ok)
	assert.Equal(t, "Racing Club", m["organizationBrief"].(map[string]any)["name"])
}

func TestPreemBriefCarriesNoDates(t *testing.T) {
	p := Preem{ID: "p1", Path: "organizations/o1/series/s1/events/e1/races/r1/preems/p1", Name: "First Lap"}

	m := p.Brief().Map()
	assert.Equal(t, "First Lap", m["name"])
	_, ok := m["startDate"]
	assert.False(t, ok)
	// the race chain rides along even when empty
	_, ok = m["raceBrief"]
	assert.True(t, ok)
}

func TestUserBriefOmitsEmptyAvatar(t *testing.T) {
	u := User{ID: "u1", Path: "users/u1", Name: "Casey"}

	m := u.Brief().Map()
	assert.Equal(t, "Casey", m["name"])
	_, ok := m["avatarUrl"]
	assert.False(t, ok)
}
