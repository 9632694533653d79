package datastore

import (
	"fmt"
	"time"
)

// checkDateRange verifies that a child's dates fall within the parent's
// stored range. Validation only applies when both child dates are present;
// a parent with no stored dates imposes no bound.
func checkDateRange(start, end *time.Time, parent map[string]any, childKind, parentKind string) error {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(*start) {
		return fmt.Errorf("%w: %s end date is before its start date", ErrDateRange, childKind)
	}
	if ps, ok := parent["startDate"].(time.Time); ok && start.Before(ps) {
		return fmt.Errorf("%w: %s starts before its %s", ErrDateRange, childKind, parentKind)
	}
	if pe, ok := parent["endDate"].(time.Time); ok && end.After(pe) {
		return fmt.Errorf("%w: %s ends after its %s", ErrDateRange, childKind, parentKind)
	}
	return nil
}
