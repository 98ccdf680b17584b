package model

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	DocumentID   string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
}

type LoginArgs struct {
	Email     string
	Password  string
	IpAddress string
	UserAgent string
}

type ChangePasswordArgs struct {
	UserDocID       string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type RequestResetArgs struct {
	Email string
}

type ConfirmResetArgs struct {
	Email       string
	Code        string
	NewPassword string
}
