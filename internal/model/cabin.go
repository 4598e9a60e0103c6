package model

import "time"

// CabinType classifies a cabin by size.
type CabinType string

const (
	CabinSmall  CabinType = "Small"
	CabinMedium CabinType = "Medium"
	CabinLarge  CabinType = "Large"
)

// CabinStatus is the stored display status of a cabin. Available and Reserved
// are derived from the reservation ledger on every mutation; UnderMaintenance
// is an operator-set override that the ledger never touches.
type CabinStatus string

const (
	StatusAvailable        CabinStatus = "Available"
	StatusReserved         CabinStatus = "Reserved"
	StatusUnderMaintenance CabinStatus = "UnderMaintenance"
)

// Cabin represents a rentable unit in the park.
type Cabin struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	Type        CabinType   `gorm:"size:32;not null" json:"type"`
	BasePrice   float64     `gorm:"not null" json:"basePrice"`
	Capacity    int         `gorm:"not null" json:"capacity"`
	Description string      `gorm:"size:1024" json:"description"`
	ImageURL    string      `gorm:"size:512" json:"imageUrl"`
	Status      CabinStatus `gorm:"size:32;not null;default:Available" json:"status"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`

	// Associations
	Services []Service `gorm:"many2many:cabin_services;" json:"services,omitempty"`
}
