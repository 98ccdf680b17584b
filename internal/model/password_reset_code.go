package model

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetCode holds the single outstanding reset code for an email.
// Issuing a new code for the same email replaces the previous row.
type PasswordResetCode struct {
	gorm.Model
	Email     string    `gorm:"uniqueIndex;not null"`
	Code      string    `gorm:"not null"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
}
