package model

// Service is an amenity a cabin can include (static reference data).
type Service struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:128;not null" json:"name"`
}
