// Package models holds the stored document shapes of the race-event
// hierarchy and their "brief" projections. Field names mirror the document
// store exactly (camelCase), so every struct round-trips through the
// schemaless map form used by the store layer.
package models

import "time"

// DocRef is a lightweight reference to another document.
type DocRef struct {
	ID   string `json:"id" mapstructure:"id"`
	Path string `json:"path" mapstructure:"path"`
}

// Map returns the storable form of the reference.
func (r DocRef) Map() map[string]any {
	return map[string]any{"id": r.ID, "path": r.Path}
}

// Metadata records provenance. Created fields are set once at create time;
// lastModified fields change on every update and never on read.
type Metadata struct {
	Created        time.Time `json:"created,omitempty" mapstructure:"created"`
	LastModified   time.Time `json:"lastModified,omitempty" mapstructure:"lastModified"`
	CreatedBy      *DocRef   `json:"createdBy,omitempty" mapstructure:"createdBy"`
	LastModifiedBy *DocRef   `json:"lastModifiedBy,omitempty" mapstructure:"lastModifiedBy"`
}

// NewMetadata stamps create-time metadata for a document created by user.
func NewMetadata(now time.Time, user DocRef) *Metadata {
	u := user
	return &Metadata{Created: now, LastModified: now, CreatedBy: &u, LastModifiedBy: &u}
}

// Map returns the storable form of the metadata.
func (m *Metadata) Map() map[string]any {
	out := map[string]any{
		"created":      m.Created,
		"lastModified": m.LastModified,
	}
	if m.CreatedBy != nil {
		out["createdBy"] = m.CreatedBy.Map()
	}
	if m.LastModifiedBy != nil {
		out["lastModifiedBy"] = m.LastModifiedBy.Map()
	}
	return out
}
