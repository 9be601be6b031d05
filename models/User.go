package models

import (
	"time"
)

type User struct {
	ID                    string `gorm:"primaryKey"`
	Email                 string `gorm:"unique"`
	PasswordHash          string
	Verified              bool
	VerificationTokenHash *string
	ResetTokenHash        *string
	ResetTokenExpiresAt   *time.Time
	VaultSalt             []byte
	VaultCheck            *string
	CreatedAt             time.Time
}

func (User) TableName() string { return "users" }

type LoginAttempts struct {
	Email        string `gorm:"primaryKey"`
	NumAttempts  uint
	BanExpiresAt time.Time
}

func (LoginAttempts) TableName() string { return "login_attempts" }
