package model

import "time"

// PushSubscription holds a browser push subscription belonging to a client
// account. Booking confirmations are delivered to every subscription the
// booking client has registered.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	ClientID  int64     `gorm:"index;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
