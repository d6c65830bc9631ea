package enums

import "fmt"

// VisibilityLevel controls who can discover a child's profile.
type VisibilityLevel string

const (
	VisibilityLevelPrivate   VisibilityLevel = "private"
	VisibilityLevelCliqsOnly VisibilityLevel = "cliqs_only"
	VisibilityLevelStandard  VisibilityLevel = "standard"
)

var validVisibilityLevels = []VisibilityLevel{
	VisibilityLevelPrivate,
	VisibilityLevelCliqsOnly,
	VisibilityLevelStandard,
}

// String implements fmt.Stringer.
func (v VisibilityLevel) String() string {
	return string(v)
}

// IsValid reports whether the value matches a known VisibilityLevel.
func (v VisibilityLevel) IsValid() bool {
	for _, candidate := range validVisibilityLevels {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVisibilityLevel converts raw input into a VisibilityLevel.
func ParseVisibilityLevel(value string) (VisibilityLevel, error) {
	for _, candidate := range validVisibilityLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visibility level %q", value)
}
