package approvals

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// RequestApprovalDTO carries what is needed to ask a parent for consent.
type RequestApprovalDTO struct {
	ChildFirstName string                `json:"child_first_name" validate:"required"`
	ChildLastName  string                `json:"child_last_name" validate:"required"`
	ChildBirthdate time.Time             `json:"child_birthdate" validate:"required"`
	ParentEmail    string                `json:"parent_email" validate:"required,email"`
	Context        enums.ApprovalContext `json:"context" validate:"required"`
	InviteID       *uuid.UUID            `json:"invite_id,omitempty"`
}

// ToModel builds the persistence row with a normalized parent email.
func (d RequestApprovalDTO) ToModel(token string, parentState enums.ParentState, parentUserID *uuid.UUID, expiresAt time.Time) *models.ParentApproval {
	return &models.ParentApproval{
		ID:             uuid.New(),
		ApprovalToken:  token,
		ChildFirstName: strings.TrimSpace(d.ChildFirstName),
		ChildLastName:  strings.TrimSpace(d.ChildLastName),
		ChildBirthdate: d.ChildBirthdate,
		ParentEmail:    strings.ToLower(strings.TrimSpace(d.ParentEmail)),
		Status:         enums.ApprovalStatusPending,
		Context:        d.Context,
		ParentState:    parentState,
		InviteID:       d.InviteID,
		ParentUserID:   parentUserID,
		ExpiresAt:      expiresAt,
	}
}

// ValidationResult is the read-only answer to "can this approval token still
// be acted on". Invalid results carry a machine-readable reason.
type ValidationResult struct {
	Valid          bool                  `json:"valid"`
	Reason         string                `json:"reason,omitempty"`
	ApprovalID     uuid.UUID             `json:"approval_id,omitempty"`
	ChildFirstName string                `json:"child_first_name,omitempty"`
	Context        enums.ApprovalContext `json:"context,omitempty"`
	ParentState    enums.ParentState     `json:"parent_state,omitempty"`
	InviteID       *uuid.UUID            `json:"invite_id,omitempty"`
	ExpiresAt      time.Time             `json:"expires_at,omitempty"`
}
