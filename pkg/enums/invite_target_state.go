package enums

import "fmt"

// InviteTargetState classifies who is on the receiving end of an invite,
// resolved against the users table at creation and validation time.
type InviteTargetState string

const (
	InviteTargetNew               InviteTargetState = "new"
	InviteTargetExistingParent    InviteTargetState = "existing_parent"
	InviteTargetExistingNonParent InviteTargetState = "existing_user_non_parent"
	InviteTargetInvalidChild      InviteTargetState = "invalid_child"
)

var validInviteTargetStates = []InviteTargetState{
	InviteTargetNew,
	InviteTargetExistingParent,
	InviteTargetExistingNonParent,
	InviteTargetInvalidChild,
}

// String implements fmt.Stringer.
func (i InviteTargetState) String() string {
	return string(i)
}

// IsValid reports whether the value matches a known InviteTargetState.
func (i InviteTargetState) IsValid() bool {
	for _, candidate := range validInviteTargetStates {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInviteTargetState converts raw input into an InviteTargetState.
func ParseInviteTargetState(value string) (InviteTargetState, error) {
	for _, candidate := range validInviteTargetStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invite target state %q", value)
}
