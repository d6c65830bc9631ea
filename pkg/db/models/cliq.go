package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Cliq is a small membership circle. Age bounds are optional; a nil bound
// means no limit on that side.
type Cliq struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	OwnerUserID uuid.UUID         `gorm:"column:owner_user_id;type:uuid;not null"`
	Privacy     enums.CliqPrivacy `gorm:"column:privacy;type:cliq_privacy;not null;default:'private'"`
	MinAge      *int              `gorm:"column:min_age"`
	MaxAge      *int              `gorm:"column:max_age"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
