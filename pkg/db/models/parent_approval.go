package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// ParentApproval tracks one consent request sent to a parent, either for a
// direct child signup or for a child invited into a cliq.
type ParentApproval struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ApprovalToken  string                `gorm:"column:approval_token;type:text;not null;uniqueIndex"`
	ChildFirstName string                `gorm:"column:child_first_name;not null"`
	ChildLastName  string                `gorm:"column:child_last_name;not null"`
	ChildBirthdate time.Time             `gorm:"column:child_birthdate;type:date;not null"`
	ParentEmail    string                `gorm:"column:parent_email;not null"`
	Status         enums.ApprovalStatus  `gorm:"column:status;type:approval_status;not null;default:'pending'"`
	Context        enums.ApprovalContext `gorm:"column:context;type:approval_context;not null"`
	ParentState    enums.ParentState     `gorm:"column:parent_state;type:parent_state;not null;default:'new'"`
	InviteID       *uuid.UUID            `gorm:"column:invite_id;type:uuid"`
	ParentUserID   *uuid.UUID            `gorm:"column:parent_user_id;type:uuid"`
	ChildUserID    *uuid.UUID            `gorm:"column:child_user_id;type:uuid"`
	ApprovedAt     *time.Time            `gorm:"column:approved_at"`
	DeclinedAt     *time.Time            `gorm:"column:declined_at"`
	ExpiresAt      time.Time             `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
