package datastore

import "errors"

var (
	// ErrUnauthorized is returned when the caller may not write the target
	// path. Nothing is read or written after the gate rejects.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDateRange is returned when an event's or race's dates fall outside
	// its parent's date range.
	ErrDateRange = errors.New("date range violation")
)
