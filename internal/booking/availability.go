package booking

import (
	"context"
	"fmt"
	"time"
)

// AvailabilityChecker answers "is this cabin free for these dates" against
// the reservation ledger. A storage failure is returned as an error wrapping
// ErrStorageUnavailable together with available=false, so callers fail closed
// while still being able to tell an outage apart from a genuine conflict.
type AvailabilityChecker struct {
	store Store
}

// NewAvailabilityChecker creates a checker backed by the given store.
func NewAvailabilityChecker(s Store) *AvailabilityChecker {
	return &AvailabilityChecker{store: s}
}

// IsAvailable reports whether no non-cancelled reservation on the cabin
// overlaps r. A cabin with no reservations at all is available.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, cabinID int64, r DateRange) (bool, error) {
	if !r.Start.Before(r.End) {
		return false, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}

	n, err := c.store.CountOverlapping(ctx, cabinID, r)
	if err != nil {
		return false, fmt.Errorf("availability check for cabin %d: %w", cabinID, err)
	}
	return n == 0, nil
}

// NextAvailableDate returns the day after the latest non-cancelled
// reservation end for the cabin, or nil when the cabin has no reservations
// (a Reserved status without reservations is a manual hold, not date-driven).
// This is a display hint only; no availability re-check is performed.
func (c *AvailabilityChecker) NextAvailableDate(ctx context.Context, cabinID int64) (*time.Time, error) {
	end, err := c.store.LatestReservationEnd(ctx, cabinID)
	if err != nil {
		return nil, fmt.Errorf("next available date for cabin %d: %w", cabinID, err)
	}
	if end == nil {
		return nil, nil
	}
	next := Day(*end).AddDate(0, 0, 1)
	return &next, nil
}
