package enums

import (
	"fmt"
	"time"
)

// AgeGroup buckets a member by age for feed moderation. It is always derived
// from the account birthdate, never the social birthday shown on a profile.
type AgeGroup string

const (
	AgeGroupChild AgeGroup = "child"
	AgeGroupTeen  AgeGroup = "teen"
	AgeGroupAdult AgeGroup = "adult"
)

var validAgeGroups = []AgeGroup{
	AgeGroupChild,
	AgeGroupTeen,
	AgeGroupAdult,
}

const (
	teenAgeFloor  = 13
	adultAgeFloor = 18
)

// String implements fmt.Stringer.
func (a AgeGroup) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AgeGroup.
func (a AgeGroup) IsValid() bool {
	for _, candidate := range validAgeGroups {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAgeGroup converts raw input into an AgeGroup.
func ParseAgeGroup(value string) (AgeGroup, error) {
	for _, candidate := range validAgeGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid age group %q", value)
}

// AgeGroupFor buckets the given birthdate as of now.
func AgeGroupFor(birthdate, now time.Time) AgeGroup {
	age := yearsBetween(birthdate, now)
	switch {
	case age >= adultAgeFloor:
		return AgeGroupAdult
	case age >= teenAgeFloor:
		return AgeGroupTeen
	default:
		return AgeGroupChild
	}
}

// ModerationLevel maps an age group onto the feed moderation tier.
func (a AgeGroup) ModerationLevel() ModerationLevel {
	switch a {
	case AgeGroupChild:
		return ModerationLevelStrict
	case AgeGroupTeen:
		return ModerationLevelModerate
	default:
		return ModerationLevelStandard
	}
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
