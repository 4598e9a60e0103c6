package booking

import (
	"time"

	"cabin-booking-backend/internal/model"
)

// DisplayStatus is the presentation view of a cabin's state. NextAvailable is
// set only when the cabin is Reserved with date-driven reservations; a
// Reserved cabin without reservations is a manual hold and gets no date.
type DisplayStatus struct {
	Status        model.CabinStatus `json:"status"`
	NextAvailable *time.Time        `json:"nextAvailable,omitempty"`
}

// ProjectStatus derives a cabin's display status from its stored status and
// its active (non-cancelled) reservations. Pure: the cabin is not mutated.
// UnderMaintenance is an operator override and wins over everything.
func ProjectStatus(cabin model.Cabin, active []model.Reservation) DisplayStatus {
	if cabin.Status == model.StatusUnderMaintenance {
		return DisplayStatus{Status: model.StatusUnderMaintenance}
	}

	var latestEnd *time.Time
	for i := range active {
		if active[i].State == model.ReservationCancelled {
			continue
		}
		end := Day(active[i].EndDate)
		if latestEnd == nil || end.After(*latestEnd) {
			latestEnd = &end
		}
	}

	if cabin.Status == model.StatusReserved {
		out := DisplayStatus{Status: model.StatusReserved}
		if latestEnd != nil {
			next := latestEnd.AddDate(0, 0, 1)
			out.NextAvailable = &next
		}
		return out
	}
	return DisplayStatus{Status: model.StatusAvailable}
}
