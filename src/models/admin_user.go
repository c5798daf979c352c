package models

import (
	"time"

	"farmstay/src/types"
)

// AdminUser is the single operator account, keyed by a fixed
// allow-listed email.
type AdminUser struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	Email            string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash     string     `json:"-"`
	ResetTokenHash   *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	types.Timestamps
}
