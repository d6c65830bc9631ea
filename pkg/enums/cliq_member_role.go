package enums

import "fmt"

// CliqMemberRole represents a member's standing inside a cliq.
type CliqMemberRole string

const (
	CliqMemberRoleOwner     CliqMemberRole = "owner"
	CliqMemberRoleModerator CliqMemberRole = "moderator"
	CliqMemberRoleMember    CliqMemberRole = "member"
)

var validCliqMemberRoles = []CliqMemberRole{
	CliqMemberRoleOwner,
	CliqMemberRoleModerator,
	CliqMemberRoleMember,
}

// String implements fmt.Stringer.
func (c CliqMemberRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CliqMemberRole.
func (c CliqMemberRole) IsValid() bool {
	for _, candidate := range validCliqMemberRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCliqMemberRole converts raw input into a CliqMemberRole.
func ParseCliqMemberRole(value string) (CliqMemberRole, error) {
	for _, candidate := range validCliqMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cliq member role %q", value)
}
