package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cabin-booking-backend/internal/model"
)

// fakeStore is an in-memory booking.Store. Its CommitReservation holds one
// lock across the recheck and the insert, mirroring the transactional
// guarantee of the real store.
type fakeStore struct {
	mu           sync.Mutex
	cabins       map[int64]model.Cabin
	reservations map[int64]model.Reservation
	nextID       int64

	// cabin ids whose reads fail with ErrStorageUnavailable
	failing map[int64]bool

	// when set, CountOverlapping signals blockStarted and then parks on
	// block, letting tests order concurrent evaluations
	block        chan struct{}
	blockStarted chan struct{}
}

func newFakeStore(cabins ...model.Cabin) *fakeStore {
	s := &fakeStore{
		cabins:       make(map[int64]model.Cabin),
		reservations: make(map[int64]model.Reservation),
		failing:      make(map[int64]bool),
	}
	for _, c := range cabins {
		s.cabins[c.ID] = c
	}
	return s
}

func (s *fakeStore) CabinByID(_ context.Context, cabinID int64) (model.Cabin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cabins[cabinID]
	if !ok {
		return model.Cabin{}, ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) CountOverlapping(_ context.Context, cabinID int64, r DateRange) (int64, error) {
	s.mu.Lock()
	block, started := s.block, s.blockStarted
	s.mu.Unlock()
	if block != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[cabinID] {
		return 0, fmt.Errorf("%w: injected failure", ErrStorageUnavailable)
	}
	return s.countOverlappingLocked(cabinID, r), nil
}

func (s *fakeStore) countOverlappingLocked(cabinID int64, r DateRange) int64 {
	var n int64
	for _, res := range s.reservations {
		if res.CabinID != cabinID || res.State == model.ReservationCancelled {
			continue
		}
		if (DateRange{Start: res.StartDate, End: res.EndDate}).Overlaps(r) {
			n++
		}
	}
	return n
}

func (s *fakeStore) LatestReservationEnd(_ context.Context, cabinID int64) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[cabinID] {
		return nil, fmt.Errorf("%w: injected failure", ErrStorageUnavailable)
	}
	var latest *time.Time
	for _, res := range s.reservations {
		if res.CabinID != cabinID || res.State == model.ReservationCancelled {
			continue
		}
		end := res.EndDate
		if latest == nil || end.After(*latest) {
			latest = &end
		}
	}
	return latest, nil
}

func (s *fakeStore) CommitReservation(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cabin, ok := s.cabins[res.CabinID]
	if !ok {
		return ErrNotFound
	}
	if s.countOverlappingLocked(res.CabinID, DateRange{Start: res.StartDate, End: res.EndDate}) > 0 {
		return ErrConflict
	}

	s.nextID++
	res.ID = s.nextID
	res.State = model.ReservationConfirmed
	res.CreatedAt = time.Now()
	s.reservations[res.ID] = *res

	cabin.Status = model.StatusReserved
	s.cabins[cabin.ID] = cabin
	return nil
}

func (s *fakeStore) CancelReservation(_ context.Context, reservationID int64, now time.Time) (model.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[reservationID]
	if !ok {
		return model.Reservation{}, false, ErrNotFound
	}
	if res.State == model.ReservationCancelled {
		return res, false, nil
	}

	res.State = model.ReservationCancelled
	s.reservations[res.ID] = res

	cabin := s.cabins[res.CabinID]
	if cabin.Status != model.StatusUnderMaintenance {
		var active int64
		for _, other := range s.reservations {
			if other.CabinID == res.CabinID && other.State == model.ReservationConfirmed && !other.EndDate.Before(now) {
				active++
			}
		}
		if active > 0 {
			cabin.Status = model.StatusReserved
		} else {
			cabin.Status = model.StatusAvailable
		}
		s.cabins[cabin.ID] = cabin
	}
	return res, true, nil
}

func (s *fakeStore) cabinStatus(cabinID int64) model.CabinStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cabins[cabinID].Status
}

func (s *fakeStore) confirmedCount(cabinID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, res := range s.reservations {
		if res.CabinID == cabinID && res.State == model.ReservationConfirmed {
			n++
		}
	}
	return n
}

// mustRange builds a DateRange for tests.
func mustRange(start, end string) DateRange {
	r, err := ParseDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}
