package enums

import "fmt"

// ApprovalContext records how a parent approval came to exist.
type ApprovalContext string

const (
	ApprovalContextDirectSignup ApprovalContext = "direct_signup"
	ApprovalContextChildInvite  ApprovalContext = "child_invite"
)

var validApprovalContexts = []ApprovalContext{
	ApprovalContextDirectSignup,
	ApprovalContextChildInvite,
}

// String implements fmt.Stringer.
func (a ApprovalContext) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known ApprovalContext.
func (a ApprovalContext) IsValid() bool {
	for _, candidate := range validApprovalContexts {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApprovalContext converts raw input into an ApprovalContext.
func ParseApprovalContext(value string) (ApprovalContext, error) {
	for _, candidate := range validApprovalContexts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval context %q", value)
}
