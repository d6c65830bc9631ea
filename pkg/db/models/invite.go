package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Invite is a single-use code mailed to a prospective member. Consumption is
// guarded by a conditional update on used = false so a code is burned at most
// once no matter how many requests race on it.
type Invite struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string                  `gorm:"column:code;type:text;not null;uniqueIndex"`
	InviteeEmail    string                  `gorm:"column:invitee_email;not null"`
	InvitedRole     enums.AccountRole       `gorm:"column:invited_role;type:account_role;not null"`
	TargetState     enums.InviteTargetState `gorm:"column:target_state;type:invite_target_state;not null;default:'new'"`
	Status          enums.InviteStatus      `gorm:"column:status;type:invite_status;not null;default:'pending'"`
	Used            bool                    `gorm:"column:used;not null;default:false"`
	UsedAt          *time.Time              `gorm:"column:used_at"`
	UsedByUserID    *uuid.UUID              `gorm:"column:used_by_user_id;type:uuid"`
	CliqID          *uuid.UUID              `gorm:"column:cliq_id;type:uuid"`
	InviterUserID   uuid.UUID               `gorm:"column:inviter_user_id;type:uuid;not null"`
	ChildFirstName  *string                 `gorm:"column:child_first_name"`
	ChildLastName   *string                 `gorm:"column:child_last_name"`
	PersonalMessage *string                 `gorm:"column:personal_message"`
	ExpiresAt       time.Time               `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
