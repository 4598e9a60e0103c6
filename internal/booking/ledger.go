package booking

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"cabin-booking-backend/internal/model"
)

// Session identifies the caller of an engine operation. It is passed in
// explicitly rather than read from ambient state so the engine is testable
// without an HTTP harness.
type Session struct {
	ClientID int64
	Email    string
	Role     string
}

// Authenticated reports whether the session belongs to a logged-in client.
func (s Session) Authenticated() bool { return s.ClientID > 0 }

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool { return s.Role == model.RoleAdmin }

// ConfirmationJob describes a booking confirmation to deliver.
type ConfirmationJob struct {
	ReservationID int64
	CabinID       int64
	ClientID      int64
	Range         DateRange
}

// Notifier accepts confirmation jobs for asynchronous delivery. Dispatch must
// never block; it returns false when the job could not be queued.
type Notifier interface {
	Dispatch(job ConfirmationJob) bool
}

// CreateResult is the outcome of a successful reservation. Warning carries a
// non-fatal notification problem; the booking itself is committed either way.
type CreateResult struct {
	Reservation model.Reservation
	Warning     error
}

// Ledger is the single writer of the reservation table. It owns the
// create/cancel operations and keeps cabin status consistent with the active
// reservation set.
type Ledger struct {
	store    Store
	checker  *AvailabilityChecker
	notifier Notifier
	now      func() time.Time
}

// NewLedger creates a ledger. notifier may be nil when confirmations are not
// wanted (tests, batch tools).
func NewLedger(s Store, notifier Notifier) *Ledger {
	return &Ledger{
		store:    s,
		checker:  NewAvailabilityChecker(s),
		notifier: notifier,
		now:      time.Now,
	}
}

// Checker exposes the ledger's availability checker.
func (l *Ledger) Checker() *AvailabilityChecker { return l.checker }

// CreateReservation books a cabin for a client. The availability pre-check
// here is a UX optimization only; the store's CommitReservation re-verifies
// inside the same transaction that inserts the row, so two concurrent callers
// cannot both succeed on overlapping ranges.
func (l *Ledger) CreateReservation(ctx context.Context, sess Session, cabinID int64, r DateRange, totalPrice float64) (CreateResult, error) {
	if !sess.Authenticated() {
		return CreateResult{}, fmt.Errorf("%w: booking requires a client session", ErrAuthRequired)
	}
	if !r.Start.Before(r.End) {
		return CreateResult{}, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	if math.IsNaN(totalPrice) || math.IsInf(totalPrice, 0) || totalPrice < 0 {
		return CreateResult{}, fmt.Errorf("%w: total price %v is not a finite non-negative number", ErrValidation, totalPrice)
	}

	cabin, err := l.store.CabinByID(ctx, cabinID)
	if err != nil {
		return CreateResult{}, fmt.Errorf("load cabin %d: %w", cabinID, err)
	}

	expected := cabin.BasePrice * float64(r.Nights())
	if math.Abs(totalPrice-expected) > 0.005 {
		return CreateResult{}, fmt.Errorf("%w: total price %.2f does not match %.2f (%d nights at %.2f)",
			ErrValidation, totalPrice, expected, r.Nights(), cabin.BasePrice)
	}

	available, err := l.checker.IsAvailable(ctx, cabinID, r)
	if err != nil {
		return CreateResult{}, err
	}
	if !available {
		return CreateResult{}, fmt.Errorf("cabin %d for %s: %w", cabinID, r, ErrConflict)
	}

	res := model.Reservation{
		CabinID:    cabinID,
		ClientID:   sess.ClientID,
		StartDate:  r.Start,
		EndDate:    r.End,
		TotalPrice: totalPrice,
		State:      model.ReservationConfirmed,
	}
	if err := l.store.CommitReservation(ctx, &res); err != nil {
		return CreateResult{}, fmt.Errorf("commit reservation for cabin %d: %w", cabinID, err)
	}

	result := CreateResult{Reservation: res}
	if l.notifier != nil {
		if !l.notifier.Dispatch(ConfirmationJob{
			ReservationID: res.ID,
			CabinID:       cabinID,
			ClientID:      sess.ClientID,
			Range:         r,
		}) {
			// The booking stands; only the confirmation delivery is degraded.
			result.Warning = fmt.Errorf("confirmation for reservation %d could not be queued", res.ID)
			log.Printf("Warning: %v", result.Warning)
		}
	}
	return result, nil
}

// CancelReservation transitions a reservation to Cancelled and recomputes the
// cabin's status from the remaining active reservations. Cancelling an
// already-cancelled reservation is an idempotent no-op.
func (l *Ledger) CancelReservation(ctx context.Context, reservationID int64) error {
	res, changed, err := l.store.CancelReservation(ctx, reservationID, Day(l.now()))
	if err != nil {
		return fmt.Errorf("cancel reservation %d: %w", reservationID, err)
	}
	if !changed {
		log.Printf("reservation %d was already cancelled; nothing to do", res.ID)
	}
	return nil
}
