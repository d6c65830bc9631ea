package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInvite         OutboxAggregateType = "invite"
	AggregateParentApproval OutboxAggregateType = "parent_approval"
	AggregateUser           OutboxAggregateType = "user"
	AggregateCliq           OutboxAggregateType = "cliq"
	AggregateNotification   OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInvite,
	AggregateParentApproval,
	AggregateUser,
	AggregateCliq,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInviteCreated         OutboxEventType = "invite_created"
	EventInviteAccepted        OutboxEventType = "invite_accepted"
	EventInviteExpired         OutboxEventType = "invite_expired"
	EventApprovalRequested     OutboxEventType = "approval_requested"
	EventApprovalDecided       OutboxEventType = "approval_decided"
	EventApprovalExpired       OutboxEventType = "approval_expired"
	EventChildAccountCreated   OutboxEventType = "child_account_created"
	EventMemberJoinedCliq      OutboxEventType = "member_joined_cliq"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInviteCreated,
	EventInviteAccepted,
	EventInviteExpired,
	EventApprovalRequested,
	EventApprovalDecided,
	EventApprovalExpired,
	EventChildAccountCreated,
	EventMemberJoinedCliq,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
