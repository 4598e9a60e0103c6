package booking

import (
	"context"
	"time"

	"cabin-booking-backend/internal/model"
)

// Store is the persistence surface the engine needs. The GORM implementation
// lives in internal/store; tests use in-memory fakes. Implementations must
// map their failures onto the engine's sentinel errors (ErrNotFound,
// ErrStorageUnavailable, ErrConflict).
type Store interface {
	// CabinByID loads a single cabin.
	CabinByID(ctx context.Context, cabinID int64) (model.Cabin, error)

	// CountOverlapping counts non-cancelled reservations for the cabin whose
	// date range overlaps r (inclusive bounds).
	CountOverlapping(ctx context.Context, cabinID int64, r DateRange) (int64, error)

	// LatestReservationEnd returns the latest end date among non-cancelled
	// reservations for the cabin, or nil when it has none.
	LatestReservationEnd(ctx context.Context, cabinID int64) (*time.Time, error)

	// CommitReservation atomically re-verifies availability, inserts the
	// reservation as Confirmed and marks the cabin Reserved, all inside one
	// transaction serialized per cabin. It fails with ErrConflict without
	// writing anything when the range is taken, and fills in the assigned id
	// on success.
	CommitReservation(ctx context.Context, res *model.Reservation) error

	// CancelReservation marks the reservation Cancelled and recomputes the
	// cabin's status from the remaining active reservations, in one
	// transaction. changed is false when the reservation was already
	// cancelled (idempotent no-op).
	CancelReservation(ctx context.Context, reservationID int64, now time.Time) (res model.Reservation, changed bool, err error)
}
