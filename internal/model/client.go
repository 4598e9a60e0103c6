package model

import "time"

// Client roles.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Client is a registered user account. PasswordHash is a bcrypt hash; the
// plaintext credential is never stored.
type Client struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Surname      string    `gorm:"size:128" json:"surname"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Phone        string    `gorm:"size:32" json:"phone"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:client" json:"role"`
	CreatedAt    time.Time `json:"-"`
}
