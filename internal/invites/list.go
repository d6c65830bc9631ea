package invites

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgpagination "github.com/cliqstr/cliqstr-backend/pkg/pagination"
)

// ListParams carries the inviter-scoped listing inputs.
type ListParams struct {
	InviterUserID uuid.UUID
	Limit         int
	Cursor        string
}

// ListResult is one page of invites plus the cursor for the next one.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

// ListItem is the inviter-facing view of an invite.
type ListItem struct {
	ID           uuid.UUID          `json:"id"`
	Code         string             `json:"code"`
	InviteeEmail string             `json:"invitee_email"`
	InvitedRole  enums.AccountRole  `json:"invited_role"`
	Status       enums.InviteStatus `json:"status"`
	Used         bool               `json:"used"`
	CliqID       *uuid.UUID         `json:"cliq_id,omitempty"`
	ExpiresAt    time.Time          `json:"expires_at"`
	CreatedAt    time.Time          `json:"created_at"`
}

type listQuery struct {
	inviterUserID uuid.UUID
	limit         int
	cursor        *pkgpagination.Cursor
}

func toListItem(invite models.Invite, now time.Time) ListItem {
	status := invite.Status
	if status == enums.InviteStatusPending && now.After(invite.ExpiresAt) {
		status = enums.InviteStatusExpired
	}
	return ListItem{
		ID:           invite.ID,
		Code:         invite.Code,
		InviteeEmail: invite.InviteeEmail,
		InvitedRole:  invite.InvitedRole,
		Status:       status,
		Used:         invite.Used,
		CliqID:       invite.CliqID,
		ExpiresAt:    invite.ExpiresAt,
		CreatedAt:    invite.CreatedAt,
	}
}
