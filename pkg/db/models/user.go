package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity. Emails are stored lowercase.
type User struct {
	ID                      uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email                   string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash            string         `gorm:"column:password_hash;not null"`
	IsParent                bool           `gorm:"column:is_parent;not null;default:false"`
	IsVerified              bool           `gorm:"column:is_verified;not null;default:false"`
	VerificationToken       *string        `gorm:"column:verification_token"`
	VerificationTokenExpiry *time.Time     `gorm:"column:verification_token_expiry"`
	ResetToken              *string        `gorm:"column:reset_token"`
	ResetTokenExpiry        *time.Time     `gorm:"column:reset_token_expiry"`
	LastLoginAt             *time.Time     `gorm:"column:last_login_at"`
	DeletedAt               gorm.DeletedAt `gorm:"column:deleted_at;index"`
	CreatedAt               time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
