package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Account holds role and billing state for a user. Birthdate is the only
// trusted source of age; the social birthday on Profile never feeds age
// checks.
type Account struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Role             enums.AccountRole `gorm:"column:role;type:account_role;not null"`
	Birthdate        time.Time         `gorm:"column:birthdate;type:date;not null"`
	IsApproved       bool              `gorm:"column:is_approved;not null;default:false"`
	Suspended        bool              `gorm:"column:suspended;not null;default:false"`
	Plan             *string           `gorm:"column:plan"`
	StripeCustomerID *string           `gorm:"column:stripe_customer_id"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
