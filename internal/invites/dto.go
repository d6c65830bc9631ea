package invites

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// CreateInviteDTO carries the inviter's request to mint a new invite.
type CreateInviteDTO struct {
	InviteeEmail    string            `json:"invitee_email" validate:"required,email"`
	InvitedRole     enums.AccountRole `json:"invited_role" validate:"required"`
	CliqID          *uuid.UUID        `json:"cliq_id,omitempty"`
	ChildFirstName  *string           `json:"child_first_name,omitempty"`
	ChildLastName   *string           `json:"child_last_name,omitempty"`
	PersonalMessage *string           `json:"personal_message,omitempty"`
}

// ToModel builds the persistence row. The email is normalized so target-state
// classification and duplicate checks never trip on casing.
func (d CreateInviteDTO) ToModel(code string, inviterUserID uuid.UUID, targetState enums.InviteTargetState, expiresAt time.Time) *models.Invite {
	return &models.Invite{
		ID:              uuid.New(),
		Code:            code,
		InviteeEmail:    strings.ToLower(strings.TrimSpace(d.InviteeEmail)),
		InvitedRole:     d.InvitedRole,
		TargetState:     targetState,
		Status:          enums.InviteStatusPending,
		CliqID:          d.CliqID,
		InviterUserID:   inviterUserID,
		ChildFirstName:  d.ChildFirstName,
		ChildLastName:   d.ChildLastName,
		PersonalMessage: d.PersonalMessage,
		ExpiresAt:       expiresAt,
	}
}

// ValidationResult is the read-only answer to "can this code still be used".
// Exactly one of the two shapes is populated: a valid code carries the target
// classification plus display context, an invalid one carries the reason.
type ValidationResult struct {
	Valid       bool                    `json:"valid"`
	Reason      string                  `json:"reason,omitempty"`
	TargetState enums.InviteTargetState `json:"target_state,omitempty"`
	CliqName    string                  `json:"cliq_name,omitempty"`
	InviterName string                  `json:"inviter_name,omitempty"`
	InvitedRole enums.AccountRole       `json:"invited_role,omitempty"`
}
