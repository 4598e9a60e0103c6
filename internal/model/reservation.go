package model

import "time"

// ReservationState is the lifecycle state of a reservation. Reservations are
// never deleted and never leave Cancelled.
type ReservationState string

const (
	ReservationConfirmed ReservationState = "Confirmed"
	ReservationCancelled ReservationState = "Cancelled"
)

// Reservation is a booking of one cabin for a date range by one client.
// StartDate and EndDate are UTC-midnight calendar dates; the end date is the
// last occupied night, so the day after EndDate is free again.
type Reservation struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	CabinID    int64            `gorm:"index;not null" json:"cabinId"`
	ClientID   int64            `gorm:"index;not null" json:"clientId"`
	StartDate  time.Time        `gorm:"not null" json:"startDate"`
	EndDate    time.Time        `gorm:"not null" json:"endDate"`
	TotalPrice float64          `gorm:"not null" json:"totalPrice"`
	State      ReservationState `gorm:"size:32;not null;index" json:"state"`
	CreatedAt  time.Time        `json:"createdAt"`

	// Associations
	Cabin  Cabin  `gorm:"constraint:OnDelete:CASCADE" json:"cabin,omitempty"`
	Client Client `json:"-"`
}
