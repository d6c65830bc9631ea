package enums

import "fmt"

// ModerationLevel is the content filtering tier applied to a profile's feed.
type ModerationLevel string

const (
	ModerationLevelStrict   ModerationLevel = "strict"
	ModerationLevelModerate ModerationLevel = "moderate"
	ModerationLevelStandard ModerationLevel = "standard"
)

var validModerationLevels = []ModerationLevel{
	ModerationLevelStrict,
	ModerationLevelModerate,
	ModerationLevelStandard,
}

// String implements fmt.Stringer.
func (m ModerationLevel) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known ModerationLevel.
func (m ModerationLevel) IsValid() bool {
	for _, candidate := range validModerationLevels {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModerationLevel converts raw input into a ModerationLevel.
func ParseModerationLevel(value string) (ModerationLevel, error) {
	for _, candidate := range validModerationLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid moderation level %q", value)
}
