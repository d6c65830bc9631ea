package payloads

import (
	"time"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/google/uuid"
)

// InviteCreatedEvent signals a freshly minted invite that needs delivery.
type InviteCreatedEvent struct {
	InviteID     uuid.UUID         `json:"invite_id"`
	Code         string            `json:"code"`
	InviteeEmail string            `json:"invitee_email"`
	InvitedRole  enums.AccountRole `json:"invited_role"`
	CliqID       *uuid.UUID        `json:"cliq_id,omitempty"`
	ExpiresAt    time.Time         `json:"expires_at"`
}

// InviteAcceptedEvent is emitted once an invite code is burned.
type InviteAcceptedEvent struct {
	InviteID     uuid.UUID `json:"invite_id"`
	UsedByUserID uuid.UUID `json:"used_by_user_id"`
	UsedAt       time.Time `json:"used_at"`
}

// InviteExpiredEvent reports a pending invite settled as expired.
type InviteExpiredEvent struct {
	InviteID  uuid.UUID `json:"invite_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// ApprovalRequestedEvent asks downstream delivery to mail the consent link.
type ApprovalRequestedEvent struct {
	ApprovalID     uuid.UUID             `json:"approval_id"`
	ApprovalToken  string                `json:"approval_token"`
	ParentEmail    string                `json:"parent_email"`
	ChildFirstName string                `json:"child_first_name"`
	Context        enums.ApprovalContext `json:"context"`
	ParentState    enums.ParentState     `json:"parent_state"`
	ExpiresAt      time.Time             `json:"expires_at"`
}

// ApprovalDecidedEvent carries the parent's decision.
type ApprovalDecidedEvent struct {
	ApprovalID   uuid.UUID            `json:"approval_id"`
	Status       enums.ApprovalStatus `json:"status"`
	ParentUserID *uuid.UUID           `json:"parent_user_id,omitempty"`
	ChildUserID  *uuid.UUID           `json:"child_user_id,omitempty"`
	DecidedAt    time.Time            `json:"decided_at"`
}

// ApprovalExpiredEvent reports a pending approval settled as expired.
type ApprovalExpiredEvent struct {
	ApprovalID uuid.UUID `json:"approval_id"`
	ExpiredAt  time.Time `json:"expired_at"`
}

// ChildAccountCreatedEvent is emitted after consent completes and the child
// account exists.
type ChildAccountCreatedEvent struct {
	ChildUserID  uuid.UUID  `json:"child_user_id"`
	ParentUserID uuid.UUID  `json:"parent_user_id"`
	ApprovalID   uuid.UUID  `json:"approval_id"`
	InviteID     *uuid.UUID `json:"invite_id,omitempty"`
	Username     string     `json:"username"`
}

// MemberJoinedCliqEvent reports a membership created through an invite.
type MemberJoinedCliqEvent struct {
	CliqID   uuid.UUID  `json:"cliq_id"`
	UserID   uuid.UUID  `json:"user_id"`
	InviteID *uuid.UUID `json:"invite_id,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
}

// NotificationRequestedEvent tells downstream systems to send a transactional email.
type NotificationRequestedEvent struct {
	RecipientEmail string    `json:"recipient_email"`
	Template       string    `json:"template"`
	SubjectHint    string    `json:"subject_hint,omitempty"`
	AggregateID    uuid.UUID `json:"aggregate_id"`
}
