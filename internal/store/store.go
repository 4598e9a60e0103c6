package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/model"
)

// Store defines the interface for all database operations. It includes the
// booking engine's persistence surface (booking.Store) plus the inventory,
// account and subscription operations the API layer needs.
type Store interface {
	booking.Store

	DB() *gorm.DB

	ListCabins(ctx context.Context) ([]model.Cabin, error)
	CreateCabin(ctx context.Context, cabin *model.Cabin) error
	UpdateCabin(ctx context.Context, cabin *model.Cabin) error
	DeleteCabin(ctx context.Context, cabinID int64) error
	SyncCabinServices(ctx context.Context, cabinID int64, serviceIDs []int64) error

	ListServices(ctx context.Context) ([]model.Service, error)

	ListReservations(ctx context.Context) ([]model.Reservation, error)
	ActiveReservationsForCabin(ctx context.Context, cabinID int64) ([]model.Reservation, error)

	FindClientByEmail(ctx context.Context, email string) (model.Client, error)
	CreateClient(ctx context.Context, client *model.Client) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for collaborators that manage their own
// queries (notification worker, subscription handlers).
func (s *gormStore) DB() *gorm.DB { return s.db }

// wrapErr maps GORM failures onto the engine's error taxonomy.
func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.ErrNotFound
	}
	return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
}

// --- booking.Store ---

func (s *gormStore) CabinByID(ctx context.Context, cabinID int64) (model.Cabin, error) {
	var cabin model.Cabin
	if err := s.db.WithContext(ctx).Preload("Services").First(&cabin, cabinID).Error; err != nil {
		return model.Cabin{}, wrapErr(err)
	}
	return cabin, nil
}

func (s *gormStore) CountOverlapping(ctx context.Context, cabinID int64, r booking.DateRange) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("cabin_id = ? AND state <> ? AND start_date <= ? AND end_date >= ?",
			cabinID, model.ReservationCancelled, r.End, r.Start).
		Count(&n).Error
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

func (s *gormStore) LatestReservationEnd(ctx context.Context, cabinID int64) (*time.Time, error) {
	var res model.Reservation
	err := s.db.WithContext(ctx).
		Where("cabin_id = ? AND state <> ?", cabinID, model.ReservationCancelled).
		Order("end_date DESC").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	end := res.EndDate
	return &end, nil
}

// CommitReservation performs the atomic commit-if-available write. The cabin
// row is locked for the duration of the transaction (on dialects that support
// it), which serializes concurrent bookings per cabin; the overlap count is
// re-taken under that lock so a stale pre-check cannot slip through. On
// Postgres the non-overlap invariant is additionally backed by an exclusion
// constraint (see internal/db).
func (s *gormStore) CommitReservation(ctx context.Context, res *model.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cabinQuery := tx
		if tx.Dialector.Name() == "postgres" {
			cabinQuery = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var cabin model.Cabin
		if err := cabinQuery.First(&cabin, res.CabinID).Error; err != nil {
			return wrapErr(err)
		}

		var n int64
		if err := tx.Model(&model.Reservation{}).
			Where("cabin_id = ? AND state <> ? AND start_date <= ? AND end_date >= ?",
				res.CabinID, model.ReservationCancelled, res.EndDate, res.StartDate).
			Count(&n).Error; err != nil {
			return wrapErr(err)
		}
		if n > 0 {
			return booking.ErrConflict
		}

		res.State = model.ReservationConfirmed
		if err := tx.Create(res).Error; err != nil {
			return wrapErr(err)
		}

		if err := tx.Model(&model.Cabin{}).Where("id = ?", res.CabinID).
			Update("status", model.StatusReserved).Error; err != nil {
			return wrapErr(err)
		}
		return nil
	})
}

// CancelReservation marks the reservation Cancelled and recomputes the cabin
// status from the remaining active reservations instead of forcing it to
// Available: another future booking keeps the cabin Reserved, and an
// operator-set UnderMaintenance is left alone.
func (s *gormStore) CancelReservation(ctx context.Context, reservationID int64, now time.Time) (model.Reservation, bool, error) {
	var res model.Reservation
	var changed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, reservationID).Error; err != nil {
			return wrapErr(err)
		}
		if res.State == model.ReservationCancelled {
			return nil
		}

		if err := tx.Model(&model.Reservation{}).Where("id = ?", res.ID).
			Update("state", model.ReservationCancelled).Error; err != nil {
			return wrapErr(err)
		}
		res.State = model.ReservationCancelled
		changed = true

		var cabin model.Cabin
		if err := tx.First(&cabin, res.CabinID).Error; err != nil {
			return wrapErr(err)
		}
		if cabin.Status == model.StatusUnderMaintenance {
			return nil
		}

		var active int64
		if err := tx.Model(&model.Reservation{}).
			Where("cabin_id = ? AND state = ? AND end_date >= ?",
				res.CabinID, model.ReservationConfirmed, now).
			Count(&active).Error; err != nil {
			return wrapErr(err)
		}

		status := model.StatusAvailable
		if active > 0 {
			status = model.StatusReserved
		}
		if err := tx.Model(&model.Cabin{}).Where("id = ?", cabin.ID).
			Update("status", status).Error; err != nil {
			return wrapErr(err)
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, false, err
	}
	return res, changed, nil
}

// --- inventory ---

func (s *gormStore) ListCabins(ctx context.Context) ([]model.Cabin, error) {
	var cabins []model.Cabin
	if err := s.db.WithContext(ctx).Preload("Services").Order("id").Find(&cabins).Error; err != nil {
		return nil, wrapErr(err)
	}
	return cabins, nil
}

func (s *gormStore) CreateCabin(ctx context.Context, cabin *model.Cabin) error {
	if err := s.db.WithContext(ctx).Omit("Services").Create(cabin).Error; err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *gormStore) UpdateCabin(ctx context.Context, cabin *model.Cabin) error {
	result := s.db.WithContext(ctx).Model(&model.Cabin{}).Where("id = ?", cabin.ID).
		Updates(map[string]any{
			"type":        cabin.Type,
			"base_price":  cabin.BasePrice,
			"capacity":    cabin.Capacity,
			"description": cabin.Description,
			"image_url":   cabin.ImageURL,
			"status":      cabin.Status,
		})
	if result.Error != nil {
		return wrapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteCabin(ctx context.Context, cabinID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM cabin_services WHERE cabin_id = ?", cabinID).Error; err != nil {
			return wrapErr(err)
		}
		result := tx.Delete(&model.Cabin{}, cabinID)
		if result.Error != nil {
			return wrapErr(result.Error)
		}
		if result.RowsAffected == 0 {
			return booking.ErrNotFound
		}
		return nil
	})
}

// SyncCabinServices replaces the cabin's service associations with the given
// set (delete-then-insert, one transaction).
func (s *gormStore) SyncCabinServices(ctx context.Context, cabinID int64, serviceIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cabin model.Cabin
		if err := tx.First(&cabin, cabinID).Error; err != nil {
			return wrapErr(err)
		}

		var services []model.Service
		if len(serviceIDs) > 0 {
			if err := tx.Find(&services, serviceIDs).Error; err != nil {
				return wrapErr(err)
			}
			if len(services) != len(serviceIDs) {
				return fmt.Errorf("%w: one or more service ids do not exist", booking.ErrNotFound)
			}
		}

		if err := tx.Model(&cabin).Association("Services").Replace(&services); err != nil {
			return wrapErr(err)
		}
		return nil
	})
}

func (s *gormStore) ListServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if err := s.db.WithContext(ctx).Order("id").Find(&services).Error; err != nil {
		return nil, wrapErr(err)
	}
	return services, nil
}

// --- reservations (read side) ---

func (s *gormStore) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).Preload("Cabin").
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return reservations, nil
}

// ActiveReservationsForCabin returns the cabin's non-cancelled reservations,
// the input of the display-status projection.
func (s *gormStore) ActiveReservationsForCabin(ctx context.Context, cabinID int64) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).
		Where("cabin_id = ? AND state <> ?", cabinID, model.ReservationCancelled).
		Find(&reservations).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return reservations, nil
}

// --- accounts ---

func (s *gormStore) FindClientByEmail(ctx context.Context, email string) (model.Client, error) {
	var client model.Client
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&client).Error; err != nil {
		return model.Client{}, wrapErr(err)
	}
	return client, nil
}

func (s *gormStore) CreateClient(ctx context.Context, client *model.Client) error {
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return wrapErr(err)
	}
	return nil
}
