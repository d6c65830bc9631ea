package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// CliqMembership links a user with a cliq and captures their role.
type CliqMembership struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CliqID          uuid.UUID            `gorm:"column:cliq_id;type:uuid;not null;uniqueIndex:idx_cliq_memberships_cliq_user"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cliq_memberships_cliq_user"`
	Role            enums.CliqMemberRole `gorm:"column:role;type:cliq_member_role;not null;default:'member'"`
	JoinedViaInvite *uuid.UUID           `gorm:"column:joined_via_invite;type:uuid"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
