package enums

import "fmt"

// CliqPrivacy is the discoverability tier of a cliq.
type CliqPrivacy string

const (
	CliqPrivacyPrivate     CliqPrivacy = "private"
	CliqPrivacySemiPrivate CliqPrivacy = "semi_private"
	CliqPrivacyPublic      CliqPrivacy = "public"
)

var validCliqPrivacies = []CliqPrivacy{
	CliqPrivacyPrivate,
	CliqPrivacySemiPrivate,
	CliqPrivacyPublic,
}

// String implements fmt.Stringer.
func (c CliqPrivacy) String() string {
	return string(c)
}

// IsValid reports whether the value matches a known CliqPrivacy.
func (c CliqPrivacy) IsValid() bool {
	for _, candidate := range validCliqPrivacies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCliqPrivacy converts raw input into a CliqPrivacy.
func ParseCliqPrivacy(value string) (CliqPrivacy, error) {
	for _, candidate := range validCliqPrivacies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cliq privacy %q", value)
}
