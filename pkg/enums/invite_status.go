package enums

import "fmt"

// InviteStatus captures the lifecycle of an invite.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusCompleted InviteStatus = "completed"
	InviteStatusCanceled  InviteStatus = "canceled"
	InviteStatusExpired   InviteStatus = "expired"
)

var validInviteStatuses = []InviteStatus{
	InviteStatusPending,
	InviteStatusAccepted,
	InviteStatusCompleted,
	InviteStatusCanceled,
	InviteStatusExpired,
}

// String implements fmt.Stringer.
func (i InviteStatus) String() string {
	return string(i)
}

// IsValid reports whether the value matches a known InviteStatus.
func (i InviteStatus) IsValid() bool {
	for _, candidate := range validInviteStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status allows no further transitions.
func (i InviteStatus) IsTerminal() bool {
	return i == InviteStatusCompleted || i == InviteStatusCanceled || i == InviteStatusExpired
}

// ParseInviteStatus converts raw input into an InviteStatus.
func ParseInviteStatus(value string) (InviteStatus, error) {
	for _, candidate := range validInviteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invite status %q", value)
}
